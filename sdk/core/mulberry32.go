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

// Mulberry32 演算法（Tommy Ettinger, public domain）：
// 32-bit 狀態、32-bit 輸出的計數器型混洗產生器。
// Portions of the bounded random generation logic (UintN/IntN) are
// adapted from the Go standard library (math/rand), which is
// licensed under the BSD 3-Clause License.

package core

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	mulberryIncrement uint32 = 0x6D2B79F5
	mulberryFloatUnit        = 1.0 / (1 << 32)
)

// Mulberry32 亂數產生器。
//
// 每次取樣：state += 0x6D2B79F5，再對 state 做兩輪 xor-multiply-shift 混洗輸出。
// 輸出是「seed + 呼叫次數」的純函數：兩個相同 seed 的實例必然產出
// 完全相同的無窮序列。狀態只有 4 bytes，Snapshot/Restore 成本極低。
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 以指定 seed 建立新的 Mulberry32 實例。
//
// seed 即為初始 state；任何 32-bit 值都是合法種子（包含 0）。
// seed 的範圍/正負檢查屬於設定層（spec.GameSetting）的責任。
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

//---------------------------------------
// 回傳介面方法
//---------------------------------------

// Uint32 回傳非負整數uint32亂數。
func (r *Mulberry32) Uint32() uint32 {
	return r.next()
}

// Uint64 回傳非負整數uint64亂數（由兩次 32-bit 輸出組成，高位在前）。
func (r *Mulberry32) Uint64() uint64 {
	return (uint64(r.next()) << 32) | uint64(r.next())
}

// Float64 產出 [0,1) 浮點亂數。
//
// 依 Mulberry32 的演算法定義：單次 32-bit 輸出除以 2^32。
// 精度為 32-bit（非 53-bit mantissa）；對引擎的 Bernoulli 判定與
// 加權抽樣而言 2^-32 的解析度綽綽有餘，且每次只消耗一步狀態。
func (r *Mulberry32) Float64() float64 {
	return float64(r.next()) * mulberryFloatUnit
}

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *Mulberry32) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.randBelow(uint64(max)))
}

// IntN 回傳 [0,max) 的亂數；若 max <= 0 回傳 -1。
func (r *Mulberry32) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(r.randBelow(uint64(max)))
}

// Snapshot 取得當下內部狀態（4 bytes, big-endian）。
func (r *Mulberry32) Snapshot() ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, r.state)
	return b, nil
}

// Restore 恢復內部狀態。
func (r *Mulberry32) Restore(data []byte) error {
	if len(data) != 4 {
		return errors.New("mulberry32: invalid snapshot length")
	}
	r.state = binary.BigEndian.Uint32(data)
	return nil
}

//---------------------------------------
// 內部方法
//---------------------------------------

// next 推進狀態並回傳一步 32-bit 輸出。
func (r *Mulberry32) next() uint32 {
	r.state += mulberryIncrement
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// randBelow 回傳 [0,n) 的無偏亂數（乘法高位 + 拒絕採樣）。
//
// n 來自呼叫端的切片長度/上限，實務上必在 32-bit 範圍內，
// 因此主要走 32-bit fast path，每次只消耗一步狀態（除非觸發拒絕重抽）。
func (r *Mulberry32) randBelow(n uint64) uint64 {
	if uint64(uint32(n)) != n {
		// 超出 32-bit 的上限走 64-bit 路徑（消耗兩步狀態）
		hi, lo := bits.Mul64(r.Uint64(), n)
		if lo < n {
			thresh := -n % n
			for lo < thresh {
				hi, lo = bits.Mul64(r.Uint64(), n)
			}
		}
		return hi
	}
	if n&(n-1) == 0 { // n is power of two, can mask
		return uint64(r.next()) & (n - 1)
	}
	n32 := uint32(n)
	hi, lo := bits.Mul32(r.next(), n32)
	if lo < n32 {
		thresh := -n32 % n32
		for lo < thresh {
			hi, lo = bits.Mul32(r.next(), n32)
		}
	}
	return uint64(hi)
}
