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

// 本檔案 (cumulative.go) 實作累積權重走訪 (cumulative walk) 加權抽樣。
//
// 與 LUT 的差異：
//   - LUT 只吃整數權重且受總和上限約束；Cumulative 吃任意正浮點權重。
//   - 抽樣是 O(log N)（二分搜），建表 O(N)，空間 O(N)。
//
// 適用場景：
//   - 權重是連續值（例如「生成權重 / 賠率」這種反比縮放後的浮點權重）。
//   - 選項數量少、對每一次取樣只想消耗一個 Float64。

package sampler

import (
	"sort"

	"github.com/zintix-labs/reellab/sdk/core"
)

// Cumulative 保存前綴和權重表。cum 單調遞增，cum[len-1] 為總權重。
type Cumulative struct {
	cum   []float64
	total float64
}

// BuildCumulative 根據浮點權重列表建立前綴和表。
//
// 權重必須非負且總和為正，否則 panic（與 BuildLUT 的失敗語意一致：
// 權重表是設定期資料，錯了就該在建構時炸掉，而不是在熱路徑吞掉）。
func BuildCumulative[T Floaters](src []T) *Cumulative {
	if len(src) == 0 {
		panic("cumulative: empty weights")
	}
	cum := make([]float64, len(src))
	acc := 0.0
	for i, v := range src {
		w := float64(v)
		if w < 0 {
			panic("cumulative: negative weight encountered")
		}
		acc += w
		cum[i] = acc
	}
	if acc <= 0 {
		panic("cumulative: all weights are zero")
	}
	return &Cumulative{cum: cum, total: acc}
}

// Pick 取一個 [0,total) 的均勻亂數並走訪前綴和，回傳被選中的索引。
//
// 消耗恰好一次 Float64。權重為 0 的項目永不入選
// （u 嚴格小於 total，且零權重項目的區間寬度為 0）。
func (cw *Cumulative) Pick(c *core.Core) int {
	u := c.Float64() * cw.total
	// 找到第一個 cum[i] > u 的 i
	i := sort.SearchFloat64s(cw.cum, u)
	for i < len(cw.cum) && cw.cum[i] == u {
		i++
	}
	if i >= len(cw.cum) {
		i = len(cw.cum) - 1
	}
	return i
}

// Total 回傳權重總和。
func (cw *Cumulative) Total() float64 {
	return cw.total
}
