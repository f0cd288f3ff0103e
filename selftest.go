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

package reellab

import (
	"fmt"

	"github.com/zintix-labs/reellab/dto"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
	"github.com/zintix-labs/reellab/stats"
)

// 自檢參數。樣本數是「統計檢定力 vs 執行時間」的折衷：
// 全套自檢在一般硬體上應於一秒內完成。
const (
	selfTestRNGDraws   = 100_000 // 均勻性檢定取樣數
	selfTestRNGBuckets = 10
	selfTestReproDraws = 64   // 重現性比對長度
	selfTestOutcomes   = 1000 // 勝負盤面驗證轉數
	selfTestSpins      = 2000 // 勝率觀測轉數
	selfTestChiPValue  = 0.001
	selfTestRatePValue = 0.0001
	selfTestConfidence = 0.95
)

// SelfTest 以指定種子建立一台隔離引擎並執行完整自檢。
//
// 自檢永不回傳 error：任何失敗都記在報告清單裡（Pass=false）。
// 用隔離引擎是為了不動到任何服務中引擎的核心狀態。
func (l *Lab) SelfTest(id spec.GID, seed int64) *dto.SelfTestReport {
	report := &dto.SelfTestReport{GameID: id, Seed: seed}

	gs, err := l.cat.GameSettingById(id)
	if err != nil {
		report.Items = append(report.Items, dto.SelfTestItem{
			Name: "load_config", Pass: false, Detail: err.Error(),
		})
		return report
	}
	report.GameName = gs.GameName

	e, err := newEngineWithSeed(gs, l.cf, seed)
	if err != nil {
		report.Items = append(report.Items, dto.SelfTestItem{
			Name: "build_engine", Pass: false, Detail: err.Error(),
		})
		return report
	}

	report.Items = append(report.Items,
		checkConfig(gs),
		l.checkReproducible(seed),
		l.checkUniform(seed),
		checkWinningOutcomes(e),
		checkLosingOutcomes(e),
		checkWinRate(e, gs.WinProbability),
	)
	report.Pass = report.Passed()
	return report
}

// checkConfig 重跑一次設定約束（設定載入時已驗過，這裡是防回歸）。
func checkConfig(gs *spec.GameSetting) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "config_range", Pass: true}
	if err := spec.ValidWinProbability(gs.WinProbability); err != nil {
		it.Pass = false
		it.Detail = err.Error()
		return it
	}
	if err := spec.ValidBetAmount(gs.BetAmount); err != nil {
		it.Pass = false
		it.Detail = err.Error()
		return it
	}
	it.Detail = fmt.Sprintf("p=%g bet=%d", gs.WinProbability, gs.BetAmount)
	return it
}

// checkReproducible 驗證同 seed 的兩顆核心輸出完全一致。
func (l *Lab) checkReproducible(seed int64) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "rng_reproducible", Pass: true}
	a := core.New(l.cf.New(seed))
	b := core.New(l.cf.New(seed))
	for i := 0; i < selfTestReproDraws; i++ {
		av, bv := a.Uint64(), b.Uint64()
		if av != bv {
			it.Pass = false
			it.Detail = fmt.Sprintf("diverged at draw %d: %d vs %d", i, av, bv)
			return it
		}
	}
	it.Detail = fmt.Sprintf("first %d draws identical", selfTestReproDraws)
	return it
}

// checkUniform 對核心的 Float64 做分桶卡方均勻性檢定。
func (l *Lab) checkUniform(seed int64) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "rng_uniform", Pass: true}
	c := core.New(l.cf.New(seed))

	counts := make([]int, selfTestRNGBuckets)
	for i := 0; i < selfTestRNGDraws; i++ {
		v := c.Float64()
		idx := int(v * selfTestRNGBuckets)
		if idx >= selfTestRNGBuckets {
			idx = selfTestRNGBuckets - 1
		}
		counts[idx]++
	}

	chi2, p := stats.ChiSquareUniform(counts)
	it.Detail = fmt.Sprintf("chi2=%.2f p=%.4f over %d draws", chi2, p, selfTestRNGDraws)
	if p < selfTestChiPValue {
		it.Pass = false
	}
	return it
}

// checkWinningOutcomes 驗證中獎生成的後置條件：每個盤面都真的中獎。
func checkWinningOutcomes(e *Engine) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "winning_always_wins", Pass: true}
	for i := 0; i < selfTestOutcomes; i++ {
		e.out.Reset()
		e.gen.WinningOutcome(e.out)
		if !e.out.Win || e.out.MultSum <= 0 {
			it.Pass = false
			it.Detail = fmt.Sprintf("non-winning board at round %d", i)
			return it
		}
	}
	it.Detail = fmt.Sprintf("%d generated boards all win", selfTestOutcomes)
	return it
}

// checkLosingOutcomes 驗證輸局生成的後置條件：每個盤面都零中獎線。
func checkLosingOutcomes(e *Engine) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "losing_never_wins", Pass: true}
	for i := 0; i < selfTestOutcomes; i++ {
		e.out.Reset()
		if err := e.gen.LosingOutcome(e.out); err != nil {
			it.Pass = false
			it.Detail = "no losing board reachable: " + err.Error()
			return it
		}
		if e.le.AnyWin(e.out.Screen) {
			it.Pass = false
			it.Detail = fmt.Sprintf("winning board from losing generator at round %d", i)
			return it
		}
	}
	it.Detail = fmt.Sprintf("%d generated boards all lose", selfTestOutcomes)
	return it
}

// checkWinRate 比對觀測勝率與設定勝率（常態近似雙尾檢定）。
func checkWinRate(e *Engine, p float64) dto.SelfTestItem {
	it := dto.SelfTestItem{Name: "win_rate", Pass: true}

	wins := 0
	for i := 0; i < selfTestSpins; i++ {
		out, err := e.SpinInternal()
		if err != nil {
			it.Pass = false
			it.Detail = "spin failed: " + err.Error()
			return it
		}
		if out.Win {
			wins++
		}
	}

	// 邊界機率用精確比對，檢定在 p∈(0,1) 才有意義
	if p == 0 || p == 1 {
		want := int(p) * selfTestSpins
		it.Pass = wins == want
		it.Detail = fmt.Sprintf("p=%g wins=%d/%d", p, wins, selfTestSpins)
		return it
	}

	pv := stats.BinomialTwoSided(wins, selfTestSpins, p)
	hat, ci := stats.ProportionCICP(wins, selfTestSpins, selfTestConfidence)
	it.Detail = fmt.Sprintf("observed=%.4f ci=[%.4f,%.4f] expected=%g pvalue=%.5f", hat, ci.Lo, ci.Hi, p, pv)
	if pv < selfTestRatePValue {
		it.Pass = false
	}
	return it
}
