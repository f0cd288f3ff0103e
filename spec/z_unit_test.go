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

package spec

import (
	"testing"

	"github.com/zintix-labs/reellab/errs"
)

func baseSetting() *GameSetting {
	return &GameSetting{
		GameName:       "unit",
		GameID:         1,
		WinProbability: 0.3,
		BetAmount:      10,
		InitialCredits: 1000,
		SymbolSetting: SymbolSetting{
			SymbolUsedStr: []string{"SEVEN", "BAR", "BELL", "CHERRY"},
			Weights:       []int{1, 2, 3, 4},
		},
		LineSetting: LineSetting{
			LinesRaw: [][][]int{
				{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}},
				{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}},
				{{0, 0}, {1, 1}, {2, 2}, {1, 3}, {0, 4}},
			},
		},
		PaySetting: PaySetting{
			Entries: []PayEntry{
				{PatternStr: []string{"SEVEN", "SEVEN", "SEVEN", "SEVEN", "SEVEN"}, Multiplier: 100, GenWeight: 1},
				{PatternStr: []string{"BAR", "BAR", "BAR", "*", "*"}, Multiplier: 5, GenWeight: 10},
			},
		},
	}
}

func TestGameSettingInit(t *testing.T) {
	gs := baseSetting()
	if err := gs.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if gs.SymbolSetting.SymbolCount != 4 {
		t.Fatalf("expected 4 symbols, got %d", gs.SymbolSetting.SymbolCount)
	}
	if gs.LineSetting.LineCount != 3 {
		t.Fatalf("expected 3 lines, got %d", gs.LineSetting.LineCount)
	}
	if len(gs.LineSetting.LineTableFlat) != 3*Cols {
		t.Fatalf("flat line table size mismatch: %d", len(gs.LineSetting.LineTableFlat))
	}
	if !gs.ReelSetting.NeedsGen() {
		t.Fatal("strips omitted, expected NeedsGen")
	}
	if gs.GenSetting.LoseRetryLimit != 100 {
		t.Fatalf("expected default retry limit 100, got %d", gs.GenSetting.LoseRetryLimit)
	}

	// 第二次 Init 必須是 no-op
	if err := gs.Init(); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
}

func TestGameSettingInit_PatternExpansion(t *testing.T) {
	gs := baseSetting()
	if err := gs.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	e := gs.PaySetting.Entries[1]
	if e.Wilds != 2 {
		t.Fatalf("expected 2 wildcards, got %d", e.Wilds)
	}
	barID, _ := gs.SymbolSetting.SymbolID("BAR")
	want := []int16{barID, barID, barID, WildID, WildID}
	for i, id := range e.Pattern {
		if id != want[i] {
			t.Fatalf("pattern[%d]=%d want %d", i, id, want[i])
		}
	}
}

func TestGameSettingInit_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameSetting)
	}{
		{"probability above one", func(gs *GameSetting) { gs.WinProbability = 1.5 }},
		{"probability negative", func(gs *GameSetting) { gs.WinProbability = -0.1 }},
		{"bet zero", func(gs *GameSetting) { gs.BetAmount = 0 }},
		{"credits negative", func(gs *GameSetting) { gs.InitialCredits = -1 }},
		{"seed out of range", func(gs *GameSetting) { s := int64(1) << 40; gs.Seed = &s }},
		{"duplicate symbol", func(gs *GameSetting) {
			gs.SymbolSetting.SymbolUsedStr = []string{"SEVEN", "SEVEN"}
			gs.SymbolSetting.Weights = nil
		}},
		{"zero weight", func(gs *GameSetting) { gs.SymbolSetting.Weights[0] = 0 }},
		{"line wrong column order", func(gs *GameSetting) {
			gs.LineSetting.LinesRaw[0] = [][]int{{0, 0}, {0, 2}, {0, 1}, {0, 3}, {0, 4}}
		}},
		{"line row out of range", func(gs *GameSetting) {
			gs.LineSetting.LinesRaw[0] = [][]int{{3, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}
		}},
		{"pattern unknown symbol", func(gs *GameSetting) {
			gs.PaySetting.Entries[0].PatternStr = []string{"NOPE", "SEVEN", "SEVEN", "SEVEN", "SEVEN"}
		}},
		{"pattern short", func(gs *GameSetting) {
			gs.PaySetting.Entries[0].PatternStr = []string{"SEVEN", "SEVEN"}
		}},
		{"multiplier zero", func(gs *GameSetting) { gs.PaySetting.Entries[0].Multiplier = 0 }},
		{"gen weight zero", func(gs *GameSetting) { gs.PaySetting.Entries[0].GenWeight = 0 }},
		{"strip too short", func(gs *GameSetting) {
			short := make([]string, 5)
			for i := range short {
				short[i] = "SEVEN"
			}
			gs.ReelSetting.StripsStr = [][]string{short, short, short, short, short}
		}},
	}

	for _, tc := range cases {
		gs := baseSetting()
		tc.mutate(gs)
		err := gs.Init()
		if err == nil {
			t.Fatalf("%s: expected config error, got nil", tc.name)
		}
		if !errs.IsKind(err, errs.KindConfig) {
			t.Fatalf("%s: expected KindConfig, got %v", tc.name, err)
		}
	}
}

func TestGameSettingInit_ExplicitStrips(t *testing.T) {
	gs := baseSetting()
	strip := make([]string, MinStripLen)
	for i := range strip {
		strip[i] = gs.SymbolSetting.SymbolUsedStr[i%4]
	}
	gs.ReelSetting.StripsStr = [][]string{strip, strip, strip, strip, strip}

	if err := gs.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if gs.ReelSetting.NeedsGen() {
		t.Fatal("strips provided, NeedsGen should be false")
	}
	if len(gs.ReelSetting.Strips) != Cols {
		t.Fatalf("expected %d strips, got %d", Cols, len(gs.ReelSetting.Strips))
	}
	for col, s := range gs.ReelSetting.Strips {
		if len(s) != MinStripLen {
			t.Fatalf("reel %d: expected length %d, got %d", col, MinStripLen, len(s))
		}
	}
}

func TestGetGameSettingByYAML(t *testing.T) {
	data := []byte(`
game_name: yaml-demo
game_id: 7
win_probability: 0.25
bet_amount: 5
initial_credits: 500
symbol_setting:
  symbol_used: [SEVEN, BAR, BELL]
line_setting:
  lines:
    - [[1, 0], [1, 1], [1, 2], [1, 3], [1, 4]]
pay_setting:
  entries:
    - pattern: [SEVEN, SEVEN, SEVEN, "*", "*"]
      multiplier: 10
      gen_weight: 4
`)
	gs, err := GetGameSettingByYAML(data)
	if err != nil {
		t.Fatalf("yaml load failed: %v", err)
	}
	if gs.GameName != "yaml-demo" || gs.GameID != 7 {
		t.Fatalf("unexpected head fields: %+v", gs)
	}
	if gs.PaySetting.Entries[0].Wilds != 2 {
		t.Fatalf("expected 2 wildcards, got %d", gs.PaySetting.Entries[0].Wilds)
	}
}

func TestGetGameSettingByJSON(t *testing.T) {
	data := []byte(`{
  "game_name": "json-demo",
  "game_id": 9,
  "win_probability": 0.5,
  "bet_amount": 1,
  "initial_credits": 100,
  "symbol_setting": {"symbol_used": ["A", "B"]},
  "line_setting": {"lines": [[[0,0],[0,1],[0,2],[0,3],[0,4]]]},
  "pay_setting": {"entries": [{"pattern": ["A","A","A","A","A"], "multiplier": 2, "gen_weight": 1}]}
}`)
	gs, err := GetGameSettingByJSON(data)
	if err != nil {
		t.Fatalf("json load failed: %v", err)
	}
	if gs.GameName != "json-demo" {
		t.Fatalf("unexpected game name %q", gs.GameName)
	}
}

func TestGetGameSettingByYAML_Invalid(t *testing.T) {
	if _, err := GetGameSettingByYAML([]byte(": not yaml")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := GetGameSettingByYAML([]byte("game_name: x")); err == nil {
		t.Fatal("expected validation error")
	}
}
