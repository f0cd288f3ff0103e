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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/reellab/sdk/core"
)

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

// checkDistribution 驗證抽樣結果的分佈是否符合預期權重
func checkDistribution(t *testing.T, name string, weights []float64, samples []int, tolerance float64) {
	t.Helper()
	totalW := 0.0
	for _, w := range weights {
		totalW += w
	}
	if totalW == 0 {
		return
	}

	counts := make(map[int]int)
	for _, idx := range samples {
		counts[idx]++
	}

	totalSamples := len(samples)
	for i, w := range weights {
		if w == 0 {
			if counts[i] > 0 {
				t.Errorf("[%s] expected 0 samples for index %d (weight 0), got %d", name, i, counts[i])
			}
			continue
		}
		expectedProb := w / totalW
		actualProb := float64(counts[i]) / float64(totalSamples)
		diff := math.Abs(expectedProb - actualProb)

		if diff > tolerance {
			t.Errorf("[%s] index %d: expected prob %.3f, got %.3f (diff %.3f > tol %.3f)",
				name, i, expectedProb, actualProb, diff, tolerance)
		}
	}
}

// -----------------------------------------------------------------------------
// Tests for LUT
// -----------------------------------------------------------------------------

// TestBuildLUT_Basic 驗證查找表的展開結果與抽樣分佈
func TestBuildLUT_Basic(t *testing.T) {
	lut := BuildLUT([]int{3, 5, 0})
	if len(lut) != 8 {
		t.Fatalf("lut length = %d, want 8", len(lut))
	}

	c := core.New(core.Default().New(1))
	samples := make([]int, 50000)
	for i := range samples {
		samples[i] = lut.Pick(c)
	}
	checkDistribution(t, "lut", []float64{3, 5, 0}, samples, 0.02)
}

// TestBuildLUT_Invalid 負權重與全零權重必須 panic
func TestBuildLUT_Invalid(t *testing.T) {
	assertPanic(t, func() { BuildLUT([]int{1, -1}) }, "negative weight")
	assertPanic(t, func() { BuildLUT([]int{0, 0}) }, "all zero weights")
}

// TestLUT_Empty 空表回傳哨兵值
func TestLUT_Empty(t *testing.T) {
	lut := BuildLUT([]int{})
	c := core.New(core.Default().New(2))
	if got := lut.Pick(c); got != -1 {
		t.Errorf("empty lut pick = %d, want -1", got)
	}
}

// -----------------------------------------------------------------------------
// Tests for Cumulative
// -----------------------------------------------------------------------------

// TestCumulative_Basic 驗證累積走訪的抽樣分佈（浮點權重）
func TestCumulative_Basic(t *testing.T) {
	weights := []float64{0.5, 0.1, 0, 2.4}
	cw := BuildCumulative(weights)
	if cw.Total() != 3.0 {
		t.Fatalf("total = %v, want 3.0", cw.Total())
	}

	c := core.New(core.Default().New(5))
	samples := make([]int, 60000)
	for i := range samples {
		samples[i] = cw.Pick(c)
	}
	checkDistribution(t, "cumulative", weights, samples, 0.02)
}

// TestCumulative_SingleEntry 單一項目恆被選中
func TestCumulative_SingleEntry(t *testing.T) {
	cw := BuildCumulative([]float64{7.7})
	c := core.New(core.Default().New(3))
	for i := 0; i < 100; i++ {
		if got := cw.Pick(c); got != 0 {
			t.Fatalf("pick = %d, want 0", got)
		}
	}
}

// TestCumulative_Invalid 空表、負權重、全零權重必須 panic
func TestCumulative_Invalid(t *testing.T) {
	assertPanic(t, func() { BuildCumulative([]float64{}) }, "empty weights")
	assertPanic(t, func() { BuildCumulative([]float64{1, -0.5}) }, "negative weight")
	assertPanic(t, func() { BuildCumulative([]float64{0, 0}) }, "all zero weights")
}
