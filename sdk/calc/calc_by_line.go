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

// Package calc 提供盤面算分：把 3×5 盤面對上線表與賠付表，算出中獎線。
package calc

import (
	"sort"

	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/spec"
)

// LineEvaluator 負責根據盤面計算中獎線。
//
// 每條線最多匹配一筆賠付項。多筆樣式同時匹配同一條線時，取「最特定」者：
// 萬用字元最少的優先；再比賠率倍數（高者優先）；仍相同則取設定檔順序
// 在前者。這個決定性順序在建構時排序一次（evalOrder），熱路徑只做
// 線性掃描、首個匹配即停。
type LineEvaluator struct {
	// 讀取自設定檔
	LineSetting *spec.LineSetting
	PaySetting  *spec.PaySetting

	// 線表的預處理資料(快取)
	LineCount     int     // 線表數量
	LineTableFlat []int16 // 平坦化的線表

	// 賠付表的預處理資料
	patFlat   []int16 // 平坦化的樣式表（evalOrder 順序）
	mults     []int   // 各樣式倍數（evalOrder 順序）
	configIdx []int   // evalOrder → 設定檔索引
	entries   int     // 樣式數量
}

// NewLineEvaluator 建立算分器；設定必須已通過 Init。
func NewLineEvaluator(gs *spec.GameSetting) *LineEvaluator {
	le := &LineEvaluator{
		LineSetting: &gs.LineSetting,
		PaySetting:  &gs.PaySetting,
	}
	le.init()
	return le
}

// init 初始化算分器的快取資料
func (le *LineEvaluator) init() {
	le.LineCount = le.LineSetting.LineCount
	le.LineTableFlat = le.LineSetting.LineTableFlat

	es := le.PaySetting.Entries
	le.entries = len(es)

	// 決定性匹配順序：萬用少 → 倍數高 → 設定檔順序
	order := make([]int, le.entries)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := &es[order[a]], &es[order[b]]
		if ea.Wilds != eb.Wilds {
			return ea.Wilds < eb.Wilds
		}
		if ea.Multiplier != eb.Multiplier {
			return ea.Multiplier > eb.Multiplier
		}
		return order[a] < order[b]
	})

	le.patFlat = make([]int16, 0, le.entries*spec.Cols)
	le.mults = make([]int, le.entries)
	le.configIdx = make([]int, le.entries)
	for i, ci := range order {
		le.patFlat = append(le.patFlat, es[ci].Pattern...)
		le.mults[i] = es[ci].Multiplier
		le.configIdx[i] = ci
	}
}

// Evaluate 逐線算分並把中獎線寫進 out（線索引遞增）。
// 回傳倍數總和（等同 out.MultSum 的本次增量）。
func (le *LineEvaluator) Evaluate(screen []int16, out *buf.Outcome) int {
	sum := 0
	for lineIdx := 0; lineIdx < le.LineCount; lineIdx++ {
		entry, mult := le.matchLine(screen, lineIdx)
		if entry < 0 {
			continue
		}
		out.AddHit(lineIdx, entry, mult)
		sum += mult
	}
	return sum
}

// AnyWin 回傳盤面是否至少有一條線中獎（生成輸局時的快速檢查）。
func (le *LineEvaluator) AnyWin(screen []int16) bool {
	for lineIdx := 0; lineIdx < le.LineCount; lineIdx++ {
		if entry, _ := le.matchLine(screen, lineIdx); entry >= 0 {
			return true
		}
	}
	return false
}

// MatchLine 回傳第 lineIdx 條線匹配到的賠付項（設定檔索引）與倍數；
// 未中獎回傳 (-1, 0)。
func (le *LineEvaluator) MatchLine(screen []int16, lineIdx int) (int, int) {
	return le.matchLine(screen, lineIdx)
}

//---------------------------------------

// matchLine 熱路徑：單線對全部樣式做首個匹配。
func (le *LineEvaluator) matchLine(screen []int16, lineIdx int) (int, int) {
	start := lineIdx * spec.Cols
	line := le.LineTableFlat[start : start+spec.Cols : start+spec.Cols]

	for e := 0; e < le.entries; e++ {
		pat := le.patFlat[e*spec.Cols : e*spec.Cols+spec.Cols]
		ok := true
		for pos := 0; pos < spec.Cols; pos++ {
			want := pat[pos]
			if want == spec.WildID {
				continue
			}
			if screen[line[pos]] != want {
				ok = false
				break
			}
		}
		if ok {
			return le.configIdx[e], le.mults[e]
		}
	}
	return -1, 0
}

// MatchPattern 回傳 5 格圖標是否匹配指定樣式（測試與生成後置檢查用）。
func MatchPattern(syms []int16, pattern []int16) bool {
	for i := range pattern {
		if pattern[i] == spec.WildID {
			continue
		}
		if syms[i] != pattern[i] {
			return false
		}
	}
	return true
}
