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

// PayEntry 是賠付表的一筆項目：5-token 樣式、賠率倍數與生成權重。
//
// 樣式 token 是圖標識別字或萬用字元 "*"；一條線的 5 個圖標與樣式匹配，
// 若且唯若每個位置等於樣式 token 或該 token 是萬用。
// GenWeight 只在「建構中獎盤面」時使用：抽選要實現哪個樣式時，
// 實際抽選權重為 GenWeight / Multiplier（賠率越低越常出現，符合視覺直覺）。
type PayEntry struct {
	PatternStr []string `yaml:"pattern"     json:"pattern"`
	Multiplier int      `yaml:"multiplier"  json:"multiplier"`
	GenWeight  int      `yaml:"gen_weight"  json:"gen_weight"`
	Pattern    []int16  `yaml:"-"           json:"-"`
	Wilds      int      `yaml:"-"           json:"-"`
}

// PaySetting 集中管理賠付表。表項邏輯上無序；匹配的決定性順序
// （萬用字元少者優先）由算分器（sdk/calc）在建構時排序決定。
type PaySetting struct {
	Entries  []PayEntry `yaml:"entries"  json:"entries"`
	initFlag bool
}

// Init 檢查賠付表並把樣式展開成 int16 形式。
func (ps *PaySetting) Init(ss *SymbolSetting) error {
	// 檢查初始化旗標
	if ps.initFlag {
		return nil
	}

	if len(ps.Entries) == 0 {
		return errs.Config("pay_table", "at least 1 entry", len(ps.Entries))
	}

	for i := range ps.Entries {
		e := &ps.Entries[i]
		if len(e.PatternStr) != Cols {
			return errs.Config("pay_table.pattern", "exactly 5 tokens", map[string]any{"entry": i, "tokens": len(e.PatternStr)})
		}
		if e.Multiplier < 1 {
			return errs.Config("pay_table.multiplier", "positive multiplier", map[string]any{"entry": i, "multiplier": e.Multiplier})
		}
		if e.GenWeight < 1 {
			return errs.Config("pay_table.gen_weight", "positive weight", map[string]any{"entry": i, "gen_weight": e.GenWeight})
		}

		e.Pattern = make([]int16, Cols)
		e.Wilds = 0
		for j, tok := range e.PatternStr {
			if tok == Wildcard {
				e.Pattern[j] = WildID
				e.Wilds++
				continue
			}
			id, ok := ss.SymbolID(tok)
			if !ok {
				return errs.Config("pay_table.pattern", "symbol present in symbol_used or wildcard", tok)
			}
			e.Pattern[j] = id
		}
	}

	// set 初始化旗標
	ps.initFlag = true
	return nil
}
