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

// SymbolSetting 是圖標目錄（catalogue）：列出機台使用的所有圖標識別字，
// 以及每個圖標的相對權重（只在生成預設輪帶時使用）。
//
// 圖標識別字是任意非空字串（例如 "SEVEN"、"BAR"、"CHERRY"）；
// 輪帶與賠付表引用的識別字必須全部存在於目錄中。
// 內部一律以 int16 id（目錄順序）表示圖標，避免熱路徑做字串比較。
type SymbolSetting struct {
	SymbolUsedStr []string `yaml:"symbol_used"  json:"symbol_used"`
	Weights       []int    `yaml:"weights"      json:"weights"`
	SymbolCount   int      `yaml:"-"            json:"-"`
	index         map[string]int16
	initFlag      bool
}

// Init 檢查設定並建立識別字 → id 的索引。
//
// Weights 省略時視為全部等權（每個圖標權重 1）。
func (ss *SymbolSetting) Init() error {
	// 檢查初始化旗標
	if ss.initFlag {
		return nil
	}

	if len(ss.SymbolUsedStr) == 0 {
		return errs.Config("symbol_used", "non-empty symbol list", ss.SymbolUsedStr)
	}

	// 預設權重：全部為 1
	if len(ss.Weights) == 0 {
		ss.Weights = make([]int, len(ss.SymbolUsedStr))
		for i := range ss.Weights {
			ss.Weights[i] = 1
		}
	}
	if len(ss.Weights) != len(ss.SymbolUsedStr) {
		return errs.Config("weights", "same length as symbol_used", len(ss.Weights))
	}
	for i, w := range ss.Weights {
		if w < 1 {
			return errs.Config("weights", "positive weight", map[string]any{"symbol": ss.SymbolUsedStr[i], "weight": w})
		}
	}

	// 建立識別字索引並檢查重複
	ss.index = make(map[string]int16, len(ss.SymbolUsedStr))
	for i, s := range ss.SymbolUsedStr {
		if s == "" || s == Wildcard {
			return errs.Config("symbol_used", "non-empty identifier, not the wildcard token", s)
		}
		if _, dup := ss.index[s]; dup {
			return errs.Config("symbol_used", "unique identifiers", s)
		}
		ss.index[s] = int16(i)
	}

	ss.SymbolCount = len(ss.SymbolUsedStr)
	// set 初始化旗標
	ss.initFlag = true
	return nil
}

// SymbolID 回傳識別字對應的內部 id。
func (ss *SymbolSetting) SymbolID(s string) (int16, bool) {
	id, ok := ss.index[s]
	return id, ok
}

// SymbolName 回傳 id 對應的識別字；WildID 回傳萬用 token。
func (ss *SymbolSetting) SymbolName(id int16) string {
	if id == WildID {
		return Wildcard
	}
	if int(id) < 0 || int(id) >= len(ss.SymbolUsedStr) {
		return ""
	}
	return ss.SymbolUsedStr[id]
}
