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

// Package core 提供引擎唯一的亂數來源（RandomSource）。
//
// 引擎的公平性合約建立在「同一個 seed ⇒ 同一條輸出序列」之上：
// Bernoulli 勝負判定、中獎樣式抽選、停輪位置抽選、甚至預設輪帶生成，
// 全部都從同一顆 Core 取樣。因此 Core 的抽樣順序是合約的一部分，
// 重構時不得改變同一條程式路徑上的取樣次數與順序。
package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 為什麼要求同時提供 4 個方法（Uint64 / Float64 / UintN / IntN），而不是只要求 Uint64？
//
// 1) 允許實作針對 32-bit / 64-bit 輸出寬度做最佳化
//   - Mulberry32 的原生輸出寬度是 32-bit，直接產生 uint32 更快；
//     若合約只要求 Uint64，它會被迫每次都做兩步輸出。
//   - 不同 PRNG 對 bounded 生成有更合適的 fast path（32-bit 或 64-bit 乘法高位 + 拒絕採樣）。
//     把 IntN/UintN 交由 PRNG 自己實作，能讓每個 PRNG 用最合適的 bounded 策略。
//
// 2) Float64 的精度與生成方式應由 PRNG 決定
//   - Mulberry32 以 32-bit / 2^32 正規化（精度 32-bit，符合其演算法定義）；
//     CryptoCore 則用 53-bit mantissa。讓 PRNG 自己提供 Float64，
//     可以明確表達「精度 vs 效能」的取捨。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約（很重要）：在同一個實作與同一個版本下，New(seed) 必須是「決定性」的——
	// 也就是相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	//
	// seed 的生命週期由上層（Lab/Engine）統一管理：外部未提供時由上層產生並保存
	// baseSeed，後續所有 Engine / Simulator 皆由 baseSeed 以固定算法派生子 seed。
	// 因此這裡永遠不需要「不帶 seed 的 New()」。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（Mulberry32）。
type DefaultPRNG struct{}

// New 滿足合約
//
// Mulberry32 的狀態寬度只有 32-bit：這裡先用 splitmix64 把整個 int64
// seed 攪拌過一輪再折半取 32-bit，讓只差高位的 seed（例如派生出來的
// worker seed）不會落到同一個初始狀態。
func (d *DefaultPRNG) New(seed int64) PRNG {
	x := uint64(seed) + 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x ^= x >> 31
	return NewMulberry32(uint32(x ^ (x >> 32)))
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// ShuffleInts 使用 Fisher-Yates (亦稱 Knuth Shuffle) 演算法
// 對[]int進行「就地 (In-place)」隨機重排。
//
// 演算法特性：
//
//  1. 公平性 (Unbiased)：
//     所有 N! 種排列出現的機率嚴格相等 (1/N!)。
//
//  2. 效能：時間 O(N)、空間 O(1)，零配置。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
