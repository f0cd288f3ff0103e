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
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
)

func testYAML(p float64) []byte {
	return []byte(fmt.Sprintf(`
game_name: unit-test-game
game_id: 9001
win_probability: %g
bet_amount: 10
initial_credits: 100

symbol_setting:
  symbol_used: [A, B, C, D]
  weights: [1, 2, 3, 4]

line_setting:
  lines:
    - [[1, 0], [1, 1], [1, 2], [1, 3], [1, 4]]
    - [[0, 0], [0, 1], [0, 2], [0, 3], [0, 4]]
    - [[2, 0], [2, 1], [2, 2], [2, 3], [2, 4]]

pay_setting:
  entries:
    - { pattern: [A, A, A, A, A], multiplier: 50, gen_weight: 100 }
    - { pattern: [B, B, B, B, B], multiplier: 20, gen_weight: 100 }
    - { pattern: [A, A, "*", "*", "*"], multiplier: 2, gen_weight: 20 }
`, p))
}

func testGS(t *testing.T, p float64) *spec.GameSetting {
	t.Helper()
	gs, err := spec.GetGameSettingByYAML(testYAML(p))
	if err != nil {
		t.Fatalf("parse test setting: %v", err)
	}
	return gs
}

func testEngine(t *testing.T, p float64, seed int64) *Engine {
	t.Helper()
	e, err := newEngineWithSeed(testGS(t, p), core.Default(), seed)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestEngineSpinCreditLifecycle(t *testing.T) {
	e := testEngine(t, 1.0, 42)

	before := e.Credits()
	if before != 100 {
		t.Fatalf("initial credits = %d, want 100", before)
	}

	r, err := e.Spin(&buf.SpinRequest{GameId: 9001})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if !r.Win {
		t.Fatalf("p=1 spin must win")
	}
	if r.Payout != 10*r.MultSum {
		t.Fatalf("payout = %d, want bet*multsum = %d", r.Payout, 10*r.MultSum)
	}
	want := before - 10 + r.Payout
	if r.Credits != want || e.Credits() != want {
		t.Fatalf("credits = %d/%d, want %d", r.Credits, e.Credits(), want)
	}
	if e.Rounds() != 1 {
		t.Fatalf("rounds = %d, want 1", e.Rounds())
	}
}

func TestEngineSpinInsufficientCredits(t *testing.T) {
	e := testEngine(t, 0.0, 42)
	// p=0 ⇒ 每轉都輸：10 轉耗盡 100 籌碼
	for i := 0; i < 10; i++ {
		if _, err := e.Spin(&buf.SpinRequest{}); err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
	}
	if e.Credits() != 0 {
		t.Fatalf("credits = %d, want 0", e.Credits())
	}
	_, err := e.Spin(&buf.SpinRequest{})
	if !errs.IsKind(err, errs.KindCredits) {
		t.Fatalf("err = %v, want credits error", err)
	}
	// 拒絕的轉不計入 rounds
	if e.Rounds() != 10 {
		t.Fatalf("rounds = %d, want 10", e.Rounds())
	}
}

func TestEngineSpinRequestValidation(t *testing.T) {
	e := testEngine(t, 0.5, 42)

	if _, err := e.Spin(nil); err == nil {
		t.Fatalf("nil request must be rejected")
	}
	if _, err := e.Spin(&buf.SpinRequest{GameId: 777}); err == nil {
		t.Fatalf("mismatched gid must be rejected")
	}
	if _, err := e.Spin(&buf.SpinRequest{GameName: "other"}); err == nil {
		t.Fatalf("mismatched name must be rejected")
	}
	if _, err := e.Spin(&buf.SpinRequest{Bet: 999}); err == nil {
		t.Fatalf("mismatched bet must be rejected")
	}
	// Bet=0 表示沿用機台押注額
	if _, err := e.Spin(&buf.SpinRequest{GameId: 9001, GameName: "unit-test-game"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestEngineEventOrder(t *testing.T) {
	e := testEngine(t, 1.0, 7)

	var topics []Topic
	e.Events().SubscribeAll(func(ev *Event) {
		topics = append(topics, ev.Topic)
	})

	if _, err := e.Spin(&buf.SpinRequest{}); err != nil {
		t.Fatalf("spin: %v", err)
	}

	want := []Topic{
		TopicSpinStart,
		TopicCreditsChanged, // 扣注
		TopicReelStop, TopicReelStop, TopicReelStop, TopicReelStop, TopicReelStop,
		TopicWin,
		TopicCreditsChanged, // 派彩
		TopicSpinComplete,
	}
	if len(topics) != len(want) {
		t.Fatalf("event count = %d, want %d (%v)", len(topics), len(want), topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Fatalf("event[%d] = %v, want %v", i, topics[i], want[i])
		}
	}
}

func TestEngineReelStopColumnsAscending(t *testing.T) {
	e := testEngine(t, 0.0, 7)

	var cols []int
	e.Events().Subscribe(TopicReelStop, func(ev *Event) {
		cols = append(cols, ev.Col)
		if len(ev.Symbols) != spec.Rows {
			t.Fatalf("reel stop symbols = %d, want %d", len(ev.Symbols), spec.Rows)
		}
	})
	if _, err := e.Spin(&buf.SpinRequest{}); err != nil {
		t.Fatalf("spin: %v", err)
	}
	if len(cols) != spec.Cols {
		t.Fatalf("reel stops = %d, want %d", len(cols), spec.Cols)
	}
	for i, c := range cols {
		if c != i {
			t.Fatalf("reel stop order = %v, want ascending", cols)
		}
	}
}

func TestEngineSeedReproducible(t *testing.T) {
	a := testEngine(t, 0.5, 12345)
	b := testEngine(t, 0.5, 12345)

	for i := 0; i < 200; i++ {
		oa, err := a.SpinInternal()
		if err != nil {
			t.Fatalf("spin a: %v", err)
		}
		wa, stops, mult := oa.Win, oa.Stops, oa.MultSum

		ob, err := b.SpinInternal()
		if err != nil {
			t.Fatalf("spin b: %v", err)
		}
		if wa != ob.Win || mult != ob.MultSum {
			t.Fatalf("round %d diverged: win %v/%v mult %d/%d", i, wa, ob.Win, mult, ob.MultSum)
		}
		for c := 0; c < spec.Cols; c++ {
			if stops[c] != ob.Stops[c] {
				t.Fatalf("round %d stops diverged: %v vs %v", i, stops, ob.Stops)
			}
		}
	}
}

func TestEngineSettersValidation(t *testing.T) {
	e := testEngine(t, 0.5, 1)

	if err := e.SetWinProbability(1.5); err == nil {
		t.Fatalf("p=1.5 must be rejected")
	}
	if err := e.SetWinProbability(0.8); err != nil {
		t.Fatalf("p=0.8 rejected: %v", err)
	}
	if err := e.SetBetAmount(0); err == nil {
		t.Fatalf("bet=0 must be rejected")
	}
	if err := e.SetBetAmount(25); err != nil {
		t.Fatalf("bet=25 rejected: %v", err)
	}
	st, err := e.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.WinProbability != 0.8 || st.Bet != 25 {
		t.Fatalf("state = p%g bet%d, want p0.8 bet25", st.WinProbability, st.Bet)
	}
}

func TestEngineAddCredits(t *testing.T) {
	e := testEngine(t, 0.5, 1)
	if err := e.AddCredits(0); err == nil {
		t.Fatalf("n=0 must be rejected")
	}
	var delta int
	e.Events().Subscribe(TopicCreditsChanged, func(ev *Event) { delta = ev.Delta })
	if err := e.AddCredits(50); err != nil {
		t.Fatalf("add credits: %v", err)
	}
	if e.Credits() != 150 || delta != 50 {
		t.Fatalf("credits = %d delta = %d, want 150 / 50", e.Credits(), delta)
	}
}

func TestEngineSnapshotRestoreReplay(t *testing.T) {
	e := testEngine(t, 0.5, 99)

	snap, err := e.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	first := make([]bool, 50)
	for i := range first {
		o, err := e.SpinInternal()
		if err != nil {
			t.Fatalf("spin: %v", err)
		}
		first[i] = o.Win
	}

	if err := e.RestoreCore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := range first {
		o, err := e.SpinInternal()
		if err != nil {
			t.Fatalf("replay spin: %v", err)
		}
		if o.Win != first[i] {
			t.Fatalf("replay diverged at round %d", i)
		}
	}
}

func TestEngineSpinReentryGuard(t *testing.T) {
	e := testEngine(t, 1.0, 7)

	// 事件在 Spin 的 goroutine 上同步派發：handler 內再呼叫同一台引擎，
	// 等價於「上一轉還沒結束就又按了 spin」。
	var reentryErr, setBetErr, setProbErr, restoreErr error
	snap, err := e.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	e.Events().Subscribe(TopicSpinStart, func(ev *Event) {
		_, reentryErr = e.Spin(&buf.SpinRequest{})
		setBetErr = e.SetBetAmount(20)
		setProbErr = e.SetWinProbability(0.5)
		restoreErr = e.RestoreCore(snap)
	})

	if _, err := e.Spin(&buf.SpinRequest{}); err != nil {
		t.Fatalf("outer spin: %v", err)
	}
	if !errs.IsKind(reentryErr, errs.KindState) {
		t.Fatalf("re-entry err = %v, want state error", reentryErr)
	}
	if !errs.IsKind(setBetErr, errs.KindState) {
		t.Fatalf("set bet err = %v, want state error", setBetErr)
	}
	if !errs.IsKind(setProbErr, errs.KindState) {
		t.Fatalf("set win probability err = %v, want state error", setProbErr)
	}
	if !errs.IsKind(restoreErr, errs.KindState) {
		t.Fatalf("restore err = %v, want state error", restoreErr)
	}
	// 被拒絕的再入不得動到任何狀態：只有外層那一轉生效
	if e.Rounds() != 1 {
		t.Fatalf("rounds = %d, want 1", e.Rounds())
	}
	st, err := e.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Bet != 10 || st.WinProbability != 1.0 {
		t.Fatalf("state = bet%d p%g, want bet10 p1 (setters must not apply)", st.Bet, st.WinProbability)
	}
}

func TestEngineStateCounters(t *testing.T) {
	e := testEngine(t, 1.0, 11)

	var totalPaid, lastWin int
	for i := 0; i < 3; i++ {
		r, err := e.Spin(&buf.SpinRequest{})
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		totalPaid += r.Payout
		lastWin = r.Payout
	}
	mid, err := e.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if mid.LastWin != lastWin || mid.LastWin == 0 {
		t.Fatalf("last_win = %d, want last payout %d", mid.LastWin, lastWin)
	}
	// p=1 三轉後再補一轉輸局：last_win 要歸零，wins/total_paid 不動
	if err := e.SetWinProbability(0); err != nil {
		t.Fatalf("set p=0: %v", err)
	}
	if _, err := e.Spin(&buf.SpinRequest{}); err != nil {
		t.Fatalf("losing spin: %v", err)
	}

	st, err := e.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Rounds != 4 || st.Wins != 3 {
		t.Fatalf("rounds/wins = %d/%d, want 4/3", st.Rounds, st.Wins)
	}
	if st.TotalPaid != totalPaid {
		t.Fatalf("total_paid = %d, want %d", st.TotalPaid, totalPaid)
	}
	if st.LastWin != 0 {
		t.Fatalf("last_win = %d, want 0 after a loss", st.LastWin)
	}
	if st.Spinning {
		t.Fatalf("spinning must be false outside Spin")
	}
	if e.Wins() != 3 || e.LastWin() != 0 {
		t.Fatalf("accessors wins/lastwin = %d/%d, want 3/0", e.Wins(), e.LastWin())
	}
}

//---------------------------------------

func testLabFS(p float64) fstest.MapFS {
	return fstest.MapFS{
		"unit_test.yaml": &fstest.MapFile{Data: testYAML(p)},
	}
}

func TestLabRegisterAllAndSummary(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.4)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}

	ent, ok := lab.EntryById(9001)
	if !ok || ent.Name != "unit-test-game" {
		t.Fatalf("entry = %+v ok=%v", ent, ok)
	}
	if _, ok := lab.EntryByName("unit-test-game"); !ok {
		t.Fatalf("entry by name missed")
	}
	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 1 || sum[0].GID != 9001 || sum[0].WinProbability != 0.4 || sum[0].Bet != 10 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestLabRequiresFreeze(t *testing.T) {
	lab, err := New(core.Default(), Configs(testLabFS(0.4)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	if err := lab.RegisterAll(); err != nil {
		t.Fatalf("register all: %v", err)
	}
	// 未 Freeze 前不可進入執行階段
	if _, err := lab.NewEngine(9001); err == nil {
		t.Fatalf("engine before freeze must be rejected")
	}
	lab.Freeze()
	if _, err := lab.NewEngine(9001); err != nil {
		t.Fatalf("engine after freeze: %v", err)
	}
}

func TestLabEngineByConfigGuard(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.4)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	// 目錄內的設定可以走 by-YAML 建立
	if _, err := lab.NewEngineByYAML(testYAML(0.4), 1); err != nil {
		t.Fatalf("engine by yaml: %v", err)
	}
	// 未註冊的遊戲不可走私進 runtime
	smuggle := []byte("game_name: smuggled\ngame_id: 8888\n")
	if _, err := lab.NewEngineByYAML(smuggle, 1); err == nil {
		t.Fatalf("unregistered config must be rejected")
	}
}

func TestLabSelfTest(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.3)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	report := lab.SelfTest(9001, 2024)
	if !report.Pass {
		t.Fatalf("self test failed: %+v", report.Items)
	}
	if report.GameName != "unit-test-game" || report.Seed != 2024 {
		t.Fatalf("report header = %+v", report)
	}
	// 不存在的遊戲：報告失敗而不是 error
	bad := lab.SelfTest(404, 1)
	if bad.Pass || len(bad.Items) == 0 {
		t.Fatalf("missing game must fail in report: %+v", bad)
	}
}

func TestSimulatorSimAndMerge(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.3)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	s, err := lab.NewSimulatorWithSeed(9001, 555)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	st, _, err := s.Sim(5000, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if st.Summary.Rounds != 5000 {
		t.Fatalf("rounds = %d, want 5000", st.Summary.Rounds)
	}
	// p=0.3、5000 轉：勝率應落在寬鬆區間內
	if wr := st.WinRate(); wr < 0.25 || wr > 0.35 {
		t.Fatalf("win rate = %g, want around 0.3", wr)
	}

	mp, _, err := s.SimMP(1000, 4, false)
	if err != nil {
		t.Fatalf("sim mp: %v", err)
	}
	if mp.Summary.Rounds != 4000 {
		t.Fatalf("mp rounds = %d, want 4000", mp.Summary.Rounds)
	}
}

func TestSimulatorPlayers(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.2)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	s, err := lab.NewSimulatorWithSeed(9001, 321)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	st, pr, _, err := s.SimPlayers(2, 50, 20, 500, false)
	if err != nil {
		t.Fatalf("sim players: %v", err)
	}
	if st == nil || pr == nil {
		t.Fatalf("nil report")
	}
	if pr.Players != 50 {
		t.Fatalf("players = %d, want 50", pr.Players)
	}
	if pr.Busts+pr.Cashouts+pr.Survivors != 50 {
		t.Fatalf("player states dose not sum up: %+v", pr)
	}
}

//---------------------------------------

func TestEnginePoolSpin(t *testing.T) {
	gs := testGS(t, 0.5)
	p, err := newEnginePool(2, gs, core.Default(), 777)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r, err := p.Spin(ctx, &buf.SpinRequest{GameId: 9001})
		if err != nil {
			t.Fatalf("pool spin %d: %v", i, err)
		}
		if r.GameID != 9001 {
			t.Fatalf("result gid = %d", r.GameID)
		}
	}

	m := p.Metrics()
	if m.PoolSize != 2 || m.Available != 2 || m.Inflight != 0 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.Panics != 0 || m.Rebuild != 0 {
		t.Fatalf("unexpected failures: %+v", m)
	}
}

func TestEnginePoolClosed(t *testing.T) {
	gs := testGS(t, 0.5)
	p, err := newEnginePool(1, gs, core.Default(), 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	p.Close()
	if !p.Closed() {
		t.Fatalf("pool must report closed")
	}
	if _, err := p.Spin(context.Background(), &buf.SpinRequest{}); err == nil {
		t.Fatalf("closed pool must reject spin")
	}
	if p.ClosedReason() != "closed" {
		t.Fatalf("close reason = %q", p.ClosedReason())
	}
}

func TestRuntimeSpinAndClose(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testLabFS(0.5)))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}

	ctx := context.Background()
	if _, err := rt.Spin(ctx, &buf.SpinRequest{GameId: 9001}); err != nil {
		t.Fatalf("runtime spin: %v", err)
	}
	if _, err := rt.Spin(ctx, &buf.SpinRequest{GameId: 404}); err == nil {
		t.Fatalf("unknown gid must be rejected")
	}

	ms := rt.Metrics()
	if len(ms) != 1 || ms[0].GameID != 9001 {
		t.Fatalf("metrics = %+v", ms)
	}

	rt.Close()
	if !rt.Closed() {
		t.Fatalf("runtime must report closed")
	}
	if _, err := rt.Spin(ctx, &buf.SpinRequest{GameId: 9001}); err == nil {
		t.Fatalf("closed runtime must reject spin")
	}
	if p, ok := rt.Pool(9001); !ok || !p.Closed() {
		t.Fatalf("pool must cascade close")
	}
}
