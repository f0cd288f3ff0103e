// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spec

import (
	"github.com/zintix-labs/reellab/errs"
)

// LineSetting 描述派彩線（payline）。
//
// 每條線是 5 個 [row, col] 座標、每欄恰好一個、col 依序為 0..4、
// row 在 {0,1,2}。線集合在設定期固定。
//
// Init 會把線表預處理成兩種熱路徑形式：
//   - LineTableFlat：每條線 5 個盤面索引（row*Cols+col），算分時直接取值。
//   - LineRows：每條線每欄的 row，生成中獎停點時用來決定目標列。
type LineSetting struct {
	LinesRaw      [][][]int `yaml:"lines"  json:"lines"`
	LineCount     int       `yaml:"-"      json:"-"`
	LineTableFlat []int16   `yaml:"-"      json:"-"`
	LineRows      []int8    `yaml:"-"      json:"-"`
	initFlag      bool
}

// Init 檢查線表並建立平坦化資料。
func (ls *LineSetting) Init() error {
	// 檢查初始化旗標
	if ls.initFlag {
		return nil
	}

	if len(ls.LinesRaw) == 0 {
		return errs.Config("lines", "at least 1 payline", len(ls.LinesRaw))
	}

	ls.LineCount = len(ls.LinesRaw)
	ls.LineTableFlat = make([]int16, 0, ls.LineCount*Cols)
	ls.LineRows = make([]int8, 0, ls.LineCount*Cols)

	for li, line := range ls.LinesRaw {
		if len(line) != Cols {
			return errs.Config("lines", "exactly 5 coordinates per line", map[string]int{"line": li, "coords": len(line)})
		}
		for col, pair := range line {
			if len(pair) != 2 {
				return errs.Config("lines", "[row, col] pairs", pair)
			}
			row, c := pair[0], pair[1]
			if c != col {
				return errs.Config("lines", "column index strictly increasing 0..4", map[string]int{"line": li, "position": col, "col": c})
			}
			if row < 0 || row >= Rows {
				return errs.Config("lines", "row index in {0,1,2}", map[string]int{"line": li, "row": row})
			}
			ls.LineTableFlat = append(ls.LineTableFlat, int16(row*Cols+col))
			ls.LineRows = append(ls.LineRows, int8(row))
		}
	}

	// set 初始化旗標
	ls.initFlag = true
	return nil
}

// RowAt 回傳第 line 條線在第 col 欄的 row。
func (ls *LineSetting) RowAt(line int, col int) int {
	return int(ls.LineRows[line*Cols+col])
}
