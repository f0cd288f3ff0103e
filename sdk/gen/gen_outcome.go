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

// Package gen 負責「結果導向」的盤面生成：先由勝率決定輸贏，
// 再建構一個符合該結論的盤面。
//
// 中獎盤面：抽一筆賠付樣式（權重 = gen_weight / multiplier）、抽一條線，
// 把樣式逐欄放上該線，其餘輪均勻停輪。
// 輸局盤面：均勻停輪後驗證無任何中獎線，失敗則重抽（有界重試），
// 耗盡後走決定性掃描 fallback。
package gen

import (
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/sdk/calc"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/sdk/sampler"
	"github.com/zintix-labs/reellab/spec"
)

// Generator 保存生成盤面所需的所有狀態。
// 會快取輪帶、圖標出現位置索引與樣式抽樣表，以避免重複配置與計算。
type Generator struct {
	core *core.Core
	le   *calc.LineEvaluator

	LineSetting *spec.LineSetting
	PaySetting  *spec.PaySetting

	// 已解析輪帶：設定檔給定，或建構時依圖標權重生成。
	Strips [][]int16

	// occIdx[col][sym] 是圖標 sym 在第 col 條輪帶上的所有出現位置。
	// 中獎生成時：要讓 sym 出現在 (row, col)，就從出現位置均勻取一個 p0，
	// 停點 p = (p0 - row) mod len 必定把 sym 放到目標列。
	occIdx [][][]int

	// 樣式抽樣表：選中權重 = gen_weight / multiplier（高賠率稀有）。
	patternCW *sampler.Cumulative

	retryLimit int

	// ExhaustedCount 累計輸局生成走 fallback 的次數（觀測用）。
	ExhaustedCount uint64
}

// NewGenerator 建立生成器並立即完成初始化。
//
// 輪帶未在設定檔給定時，會用傳入的 core 依圖標權重生成——因此 seed
// 決定的是引擎的「全部」輸出，包含預設輪帶本身。
// 建構時同步驗證：賠付表引用的每個具體圖標都必須出現在每條輪帶上，
// 這保證任何 (樣式, 線) 組合都能被實現，中獎生成永不失敗。
func NewGenerator(c *core.Core, gs *spec.GameSetting, le *calc.LineEvaluator) (*Generator, error) {
	g := &Generator{
		core:        c,
		le:          le,
		LineSetting: &gs.LineSetting,
		PaySetting:  &gs.PaySetting,
		retryLimit:  gs.GenSetting.LoseRetryLimit,
	}

	if gs.ReelSetting.NeedsGen() {
		strips, err := GenerateStrips(c, &gs.SymbolSetting, &gs.PaySetting, gs.ReelSetting.StripLength)
		if err != nil {
			return nil, err
		}
		g.Strips = strips
	} else {
		g.Strips = gs.ReelSetting.Strips
	}

	symbolCount := gs.SymbolSetting.SymbolCount
	g.occIdx = make([][][]int, spec.Cols)
	for col := 0; col < spec.Cols; col++ {
		occ := make([][]int, symbolCount)
		for i, sym := range g.Strips[col] {
			occ[sym] = append(occ[sym], i)
		}
		g.occIdx[col] = occ
	}

	// 可實現性驗證
	for ei := range g.PaySetting.Entries {
		e := &g.PaySetting.Entries[ei]
		for col, sym := range e.Pattern {
			if sym == spec.WildID {
				continue
			}
			if len(g.occIdx[col][sym]) == 0 {
				return nil, errs.Config("strips", "every paytable symbol present on every reel",
					map[string]any{"reel": col, "symbol": gs.SymbolSetting.SymbolName(sym)})
			}
		}
	}

	ws := make([]float64, len(g.PaySetting.Entries))
	for i := range g.PaySetting.Entries {
		e := &g.PaySetting.Entries[i]
		ws[i] = float64(e.GenWeight) / float64(e.Multiplier)
	}
	g.patternCW = sampler.BuildCumulative(ws)

	return g, nil
}

// GenerateStrips 依圖標權重生成 5 條輪帶。
//
// 先把賠付表引用的全部具體圖標放進輪帶頭部（保證出現），其餘格子
// 依權重抽樣，最後整條 Fisher-Yates 重排。全程只從傳入的 core 取樣，
// 同 seed 必然得到同一組輪帶。
func GenerateStrips(c *core.Core, ss *spec.SymbolSetting, ps *spec.PaySetting, stripLen int) ([][]int16, error) {
	required := requiredSymbols(ss.SymbolCount, ps)
	if len(required) > stripLen {
		return nil, errs.Config("strip_length", "at least one slot per paytable symbol",
			map[string]int{"strip_length": stripLen, "symbols": len(required)})
	}

	lut := sampler.BuildLUT(ss.Weights)

	strips := make([][]int16, spec.Cols)
	for col := 0; col < spec.Cols; col++ {
		strip := make([]int16, stripLen)
		copy(strip, required)
		for i := len(required); i < stripLen; i++ {
			strip[i] = int16(lut.Pick(c))
		}
		// 就地重排，避免「保底圖標都擠在頭部」的規律
		for i := stripLen - 1; i > 0; i-- {
			j := c.IntN(i + 1)
			strip[i], strip[j] = strip[j], strip[i]
		}
		strips[col] = strip
	}
	return strips, nil
}

// FillScreen 把停點展開成 3×5 盤面：停點 p 的可見窗為 p, p+1, p+2 (mod 長度)。
func (g *Generator) FillScreen(stops *[spec.Cols]int, screen []int16) {
	_ = screen[(spec.Rows-1)*spec.Cols+(spec.Cols-1)] // BCE hint

	for col := 0; col < spec.Cols; col++ {
		strip := g.Strips[col]
		length := len(strip)
		p := stops[col]
		for row := 0; row < spec.Rows; row++ {
			screen[row*spec.Cols+col] = strip[(p+row)%length]
		}
	}
}

// WinningOutcome 建構一個必然中獎的盤面並寫入 out。
//
// 取樣順序固定：樣式 → 線 → 逐欄停點（欄 0..4）。
// 這個順序是 seed 重現合約的一部分，不得改動。
func (g *Generator) WinningOutcome(out *buf.Outcome) {
	entry := g.patternCW.Pick(g.core)
	e := &g.PaySetting.Entries[entry]
	line := g.core.IntN(g.LineSetting.LineCount)

	for col := 0; col < spec.Cols; col++ {
		strip := g.Strips[col]
		length := len(strip)
		sym := e.Pattern[col]
		if sym == spec.WildID {
			// 萬用欄：停哪裡都匹配，均勻停輪
			out.Stops[col] = g.core.IntN(length)
			continue
		}
		occ := g.occIdx[col][sym]
		p0 := occ[g.core.IntN(len(occ))]
		row := g.LineSetting.RowAt(line, col)
		out.Stops[col] = ((p0 - row) + length) % length
	}

	g.FillScreen(&out.Stops, out.Screen)
	g.le.Evaluate(out.Screen, out)
	out.Win = true
}

// LosingOutcome 建構一個必然不中獎的盤面並寫入 out。
//
// 均勻停輪後驗證；連續 retryLimit 次都撞到中獎就改走決定性掃描：
// 固定後三輪，窮舉前兩輪的全部停點組合。掃描找不到輸局代表這份設定
// 在目前輪帶下根本不存在輸局盤面，以 KindGeneration 錯誤回報。
func (g *Generator) LosingOutcome(out *buf.Outcome) error {
	for try := 0; try < g.retryLimit; try++ {
		for col := 0; col < spec.Cols; col++ {
			out.Stops[col] = g.core.IntN(len(g.Strips[col]))
		}
		g.FillScreen(&out.Stops, out.Screen)
		if !g.le.AnyWin(out.Screen) {
			out.Win = false
			return nil
		}
	}

	// fallback：決定性掃描（不再消耗亂數）
	g.ExhaustedCount++
	out.Exhausted = true
	for p0 := 0; p0 < len(g.Strips[0]); p0++ {
		for p1 := 0; p1 < len(g.Strips[1]); p1++ {
			out.Stops[0], out.Stops[1] = p0, p1
			g.FillScreen(&out.Stops, out.Screen)
			if !g.le.AnyWin(out.Screen) {
				out.Win = false
				return nil
			}
		}
	}

	return errs.Generation("no losing board reachable under current strips")
}

//---------------------------------------

// requiredSymbols 回傳賠付表引用的全部具體圖標（去重、id 遞增）。
func requiredSymbols(symbolCount int, ps *spec.PaySetting) []int16 {
	seen := make([]bool, symbolCount)
	for i := range ps.Entries {
		for _, sym := range ps.Entries[i].Pattern {
			if sym != spec.WildID {
				seen[sym] = true
			}
		}
	}
	out := make([]int16, 0, symbolCount)
	for id, ok := range seen {
		if ok {
			out = append(out, int16(id))
		}
	}
	return out
}
