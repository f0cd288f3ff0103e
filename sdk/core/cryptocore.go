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

package core

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math/bits"
)

// CryptoCore 是「非重現」的亂數來源：每一步輸出直接取自 crypto/rand。
//
// 用於對外服務情境（外部未提供 seed 時），避免可預測 RNG。
// 合約重點：
//   - 不可重現：Snapshot/Restore 回傳 ErrNotRestorable。
//   - 絕不退化：若 crypto/rand 讀取失敗，直接 panic——
//     寧可中止也不能默默換成弱產生器。
type CryptoCore struct {
	rd *bufio.Reader
}

// ErrNotRestorable 表示此亂數來源不支援狀態快照/還原。
var ErrNotRestorable = errors.New("crypto core is not restorable")

// NewCryptoCore 建立以 crypto/rand 為來源的 PRNG。
// 內部帶 buffer 以攤平單次 8-byte 讀取的系統呼叫成本。
func NewCryptoCore() *CryptoCore {
	return &CryptoCore{rd: bufio.NewReaderSize(rand.Reader, 1024)}
}

//---------------------------------------
// 回傳介面方法
//---------------------------------------

// Uint64 回傳非負整數uint64亂數
func (r *CryptoCore) Uint64() uint64 {
	var b [8]byte
	if _, err := r.rd.Read(b[:]); err != nil {
		panic("cryptocore: crypto/rand read failed: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

// Float64 產出float64(53bits精度)
func (r *CryptoCore) Float64() float64 {
	return float64(r.Uint64()<<11>>11) / (1 << 53)
}

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *CryptoCore) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.uint64n(uint64(max)))
}

// IntN 產出[0,n) 的整數，若 max <= 0 回傳 -1
func (r *CryptoCore) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(r.uint64n(uint64(max)))
}

// Snapshot 不支援：來源是外部熵，沒有可重現的內部狀態。
func (r *CryptoCore) Snapshot() ([]byte, error) {
	return nil, ErrNotRestorable
}

// Restore 不支援。
func (r *CryptoCore) Restore([]byte) error {
	return ErrNotRestorable
}

//---------------------------------------
// 內部方法
//---------------------------------------

// uint64n 回傳 [0,n) 的無偏亂數（基於乘法高位與拒絕採樣）。
func (r *CryptoCore) uint64n(n uint64) uint64 {
	if n&(n-1) == 0 { // n is power of two, can mask
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}
