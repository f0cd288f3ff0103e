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

// ReelSetting 描述 5 條獨立輪帶。
//
// 每條輪帶是一個循環的圖標序列；輪子的停點（stop position）是序列索引，
// 停點 p 的可見 3 格為 p, p+1, p+2 (mod 長度)。
//
// strips 省略時，輪帶會在建立引擎時依圖標權重生成——而且是用引擎自己的
// 亂數核心生成（見 sdk/gen），所以 seed 決定的是「引擎全部輸出」，
// 包含預設輪帶本身。
type ReelSetting struct {
	StripsStr   [][]string `yaml:"strips"        json:"strips"`
	StripLength int        `yaml:"strip_length"  json:"strip_length"`
	Strips      [][]int16  `yaml:"-"             json:"-"`
	initFlag    bool
}

// Init 檢查設定；需要已初始化的圖標目錄來解析識別字。
func (rs *ReelSetting) Init(ss *SymbolSetting) error {
	// 檢查初始化旗標
	if rs.initFlag {
		return nil
	}

	// 預設輪帶長度
	if rs.StripLength == 0 {
		rs.StripLength = DefaultStripLen
	}
	if rs.StripLength < MinStripLen || rs.StripLength > MaxStripLen {
		return errs.Config("strip_length", "in [20, 512]", rs.StripLength)
	}

	// strips 省略 ⇒ 延後到引擎建立時生成（NeedsGen 回報 true）
	if len(rs.StripsStr) == 0 {
		rs.initFlag = true
		return nil
	}

	if len(rs.StripsStr) != Cols {
		return errs.Config("strips", "exactly 5 reel strips", len(rs.StripsStr))
	}

	rs.Strips = make([][]int16, Cols)
	for col, strip := range rs.StripsStr {
		if len(strip) < MinStripLen {
			return errs.Config("strips", "strip length >= 20", map[string]int{"reel": col, "length": len(strip)})
		}
		out := make([]int16, len(strip))
		for i, s := range strip {
			id, ok := ss.SymbolID(s)
			if !ok {
				return errs.Config("strips", "symbol present in symbol_used", s)
			}
			out[i] = id
		}
		rs.Strips[col] = out
	}

	// set 初始化旗標
	rs.initFlag = true
	return nil
}

// NeedsGen 回傳輪帶是否需要在引擎建立時生成。
func (rs *ReelSetting) NeedsGen() bool {
	return len(rs.Strips) == 0
}
