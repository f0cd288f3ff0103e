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

package gen

import (
	"testing"

	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/sdk/calc"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
)

func newCore(seed int64) *core.Core {
	return core.New(core.Default().New(seed))
}

func testSetting(t *testing.T) *spec.GameSetting {
	t.Helper()
	gs := &spec.GameSetting{
		GameName:       "gen-unit",
		WinProbability: 0.3,
		BetAmount:      1,
		SymbolSetting: spec.SymbolSetting{
			SymbolUsedStr: []string{"SEVEN", "BAR", "BELL", "CHERRY"},
			Weights:       []int{1, 3, 5, 8},
		},
		LineSetting: spec.LineSetting{
			LinesRaw: [][][]int{
				{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}},
				{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}},
				{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}},
				{{0, 0}, {1, 1}, {2, 2}, {1, 3}, {0, 4}},
			},
		},
		PaySetting: spec.PaySetting{
			Entries: []spec.PayEntry{
				{PatternStr: []string{"SEVEN", "SEVEN", "SEVEN", "SEVEN", "SEVEN"}, Multiplier: 500, GenWeight: 1},
				{PatternStr: []string{"BAR", "BAR", "BAR", "BAR", "*"}, Multiplier: 25, GenWeight: 5},
				{PatternStr: []string{"BELL", "BELL", "BELL", "*", "*"}, Multiplier: 8, GenWeight: 10},
				{PatternStr: []string{"CHERRY", "CHERRY", "*", "*", "*"}, Multiplier: 2, GenWeight: 20},
			},
		},
	}
	if err := gs.Init(); err != nil {
		t.Fatalf("setting init failed: %v", err)
	}
	return gs
}

func newGenerator(t *testing.T, seed int64) (*Generator, *calc.LineEvaluator) {
	t.Helper()
	gs := testSetting(t)
	le := calc.NewLineEvaluator(gs)
	g, err := NewGenerator(newCore(seed), gs, le)
	if err != nil {
		t.Fatalf("generator init failed: %v", err)
	}
	return g, le
}

func TestGenerateStripsDeterministic(t *testing.T) {
	gs := testSetting(t)
	a, err := GenerateStrips(newCore(99), &gs.SymbolSetting, &gs.PaySetting, spec.DefaultStripLen)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	b, err := GenerateStrips(newCore(99), &gs.SymbolSetting, &gs.PaySetting, spec.DefaultStripLen)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	for col := 0; col < spec.Cols; col++ {
		if len(a[col]) != spec.DefaultStripLen {
			t.Fatalf("reel %d: expected length %d, got %d", col, spec.DefaultStripLen, len(a[col]))
		}
		for i := range a[col] {
			if a[col][i] != b[col][i] {
				t.Fatalf("same seed produced different strips at reel %d pos %d", col, i)
			}
		}
	}

	// 賠付表引用的每個圖標都必須出現在每條輪帶
	for col := 0; col < spec.Cols; col++ {
		present := make(map[int16]bool)
		for _, s := range a[col] {
			present[s] = true
		}
		for id := int16(0); id < int16(gs.SymbolSetting.SymbolCount); id++ {
			if !present[id] {
				t.Fatalf("reel %d missing symbol %d", col, id)
			}
		}
	}
}

func TestFillScreenWraps(t *testing.T) {
	g, _ := newGenerator(t, 1)
	screen := make([]int16, spec.Cols*spec.Rows)

	length := len(g.Strips[0])
	stops := [spec.Cols]int{length - 1, 0, 0, 0, 0}
	g.FillScreen(&stops, screen)

	if screen[0*spec.Cols] != g.Strips[0][length-1] {
		t.Fatalf("row 0 should show stop position")
	}
	if screen[1*spec.Cols] != g.Strips[0][0] || screen[2*spec.Cols] != g.Strips[0][1] {
		t.Fatalf("window should wrap around strip end")
	}
}

func TestWinningOutcomeAlwaysWins(t *testing.T) {
	g, le := newGenerator(t, 7)
	out := buf.NewOutcome(4)

	for i := 0; i < 5000; i++ {
		out.Reset()
		g.WinningOutcome(out)
		if !out.Win || out.MultSum < 1 || len(out.Hits) == 0 {
			t.Fatalf("iteration %d: winning board has no hit: %+v", i, out)
		}
		if !le.AnyWin(out.Screen) {
			t.Fatalf("iteration %d: evaluator disagrees with generator", i)
		}
		for col, p := range out.Stops {
			if p < 0 || p >= len(g.Strips[col]) {
				t.Fatalf("iteration %d: stop out of range: reel %d stop %d", i, col, p)
			}
		}
	}
}

func TestLosingOutcomeNeverWins(t *testing.T) {
	g, le := newGenerator(t, 11)
	out := buf.NewOutcome(4)

	for i := 0; i < 10000; i++ {
		out.Reset()
		if err := g.LosingOutcome(out); err != nil {
			t.Fatalf("iteration %d: losing generation failed: %v", i, err)
		}
		if out.Win || le.AnyWin(out.Screen) {
			t.Fatalf("iteration %d: losing board wins: %+v", i, out)
		}
	}
}

// 把重試上限壓到 1 並用幾乎全中獎的輪帶，決定性地逼出 fallback 路徑。
func TestLosingOutcomeFallback(t *testing.T) {
	reel0 := make([]string, spec.MinStripLen)
	other := make([]string, spec.MinStripLen)
	for i := range reel0 {
		reel0[i] = "A"
		other[i] = "B"
	}
	reel0[3] = "B" // 唯一的輸局停點

	gs := &spec.GameSetting{
		GameName:       "fallback-unit",
		WinProbability: 0.5,
		BetAmount:      1,
		SymbolSetting:  spec.SymbolSetting{SymbolUsedStr: []string{"A", "B"}},
		ReelSetting:    spec.ReelSetting{StripsStr: [][]string{reel0, other, other, other, other}},
		LineSetting: spec.LineSetting{
			LinesRaw: [][][]int{{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}},
		},
		PaySetting: spec.PaySetting{
			Entries: []spec.PayEntry{
				{PatternStr: []string{"A", "*", "*", "*", "*"}, Multiplier: 2, GenWeight: 1},
			},
		},
		GenSetting: spec.GenSetting{LoseRetryLimit: 1},
	}
	if err := gs.Init(); err != nil {
		t.Fatalf("setting init failed: %v", err)
	}

	le := calc.NewLineEvaluator(gs)
	g, err := NewGenerator(newCore(3), gs, le)
	if err != nil {
		t.Fatalf("generator init failed: %v", err)
	}

	out := buf.NewOutcome(1)
	sawFallback := false
	for i := 0; i < 200; i++ {
		out.Reset()
		if err := g.LosingOutcome(out); err != nil {
			t.Fatalf("iteration %d: losing generation failed: %v", i, err)
		}
		if out.Win || le.AnyWin(out.Screen) {
			t.Fatalf("iteration %d: fallback board wins", i)
		}
		if out.Exhausted {
			sawFallback = true
		}
	}
	if !sawFallback {
		t.Fatal("expected at least one exhausted retry with limit 1")
	}
	if g.ExhaustedCount == 0 {
		t.Fatal("exhausted counter not incremented")
	}
}
