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

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 估計函數 **
// ============================================================

// ProportionCICP 回傳二項比例的 Clopper–Pearson exact 信賴區間
// （k 次成功 / n 次試驗）。
//
// 用途：
//   - 勝率觀測值 vs 設定勝率的比對（SelfTest / StatReport）。
//   - 模擬報告中 WinRate 的區間估計。
func ProportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// ChiSquareUniform 對觀測計數做卡方均勻性檢定。
//
// 回傳卡方統計量與 p-value（自由度 = len(counts)-1）。
// p-value 很小（例如 < 0.001）代表觀測分布顯著偏離均勻，
// SelfTest 用它檢查亂數核心與停輪分布。
func ChiSquareUniform(counts []int) (chi2 float64, pValue float64) {
	k := len(counts)
	if k < 2 {
		return 0, 1
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, 1
	}

	expected := float64(total) / float64(k)
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}

	dist := distuv.ChiSquared{K: float64(k - 1)}
	pValue = 1 - dist.CDF(chi2)
	return chi2, pValue
}

// BinomialTwoSided 回傳「觀測 k 次成功 / n 次試驗」在理論機率 p 下的
// 常態近似雙尾 p-value。
//
// SelfTest 用它判斷觀測勝率是否與設定勝率一致；樣本數夠大時
// （n*p、n*(1-p) 皆 >> 5）常態近似足夠精確。
func BinomialTwoSided(k int, n int, p float64) float64 {
	if n == 0 || p <= 0 || p >= 1 {
		return 1
	}
	mean := float64(n) * p
	sd := distuv.Normal{Mu: 0, Sigma: 1}
	se := (float64(n) * p * (1 - p))
	if se <= 0 {
		return 1
	}
	z := (float64(k) - mean) / math.Sqrt(se)
	if z < 0 {
		z = -z
	}
	return 2 * (1 - sd.CDF(z))
}
