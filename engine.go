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
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/reellab/corefmt"
	"github.com/zintix-labs/reellab/dto"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/sdk/calc"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/sdk/gen"
	"github.com/zintix-labs/reellab/spec"
)

// Engine 封裝一台「可對外提供 Spin」的拉霸引擎。
//
// 對外：Spin 入口（HTTP/模擬器通常只操作 Engine）。
// 對內：持有 RNG 核心、盤面生成器與算分器，外加籌碼與事件派發。
//
// 勝負決定方式（核心合約）：每轉先從 Core 抽「一次」Float64 與設定
// 勝率比較決定輸贏，再由 gen 建構一個符合該結論的盤面。盤面永遠與
// 結論一致：中獎盤面至少一條中獎線、輸局盤面零條。
//
// 並發語意：
//   - spinning 用 CAS 當再入護欄：Spin 進行中再呼叫 Spin / 改設定 /
//     RestoreCore，一律以狀態錯誤拒絕，不排隊。
//   - 內部的 Outcome buffer 會被每轉覆寫，同一台 Engine 不可被多
//     goroutine 同時 Spin；要併發請開多台（EnginePool / Simulator）。
type Engine struct {
	gameName string
	gameId   spec.GID
	gs       *spec.GameSetting
	core     *core.Core
	le       *calc.LineEvaluator
	gen      *gen.Generator
	out      *buf.Outcome // 可重用的結果 buffer（熱路徑；每次 Spin 會覆寫）

	mu       sync.Mutex  // 保護籌碼/設定/計數與核心狀態一致性
	spinning atomic.Bool // 再入護欄
	emitter  *Emitter
	log      *slog.Logger // nil 表示靜默

	credits   int
	bet       int
	winProb   float64
	rounds    int
	wins      int
	lastWin   int     // 最近一轉派彩（輸局為 0）
	totalPaid int     // 累計派彩
	initseed  int64   // 出生 seed（追溯用；完整重現請用 Snapshot/Restore）
}

// newEngine 建立 Engine。
//
// seed 來源優先序：設定檔有 seed 就用它（可重現模式）；否則由
// crypto/rand 產生（對外服務避免可預測 RNG），並記錄在 initseed。
func newEngine(gs *spec.GameSetting, cf core.PRNGFactory) (*Engine, error) {
	if gs.Seed != nil {
		return newEngineWithSeed(gs, cf, *gs.Seed)
	}
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newEngineWithSeed(gs, cf, seed.Int64())
}

// newEngineWithSeed 以指定 seed 建立 Engine。
//
// 同一份 GameSetting + 同一個 seed ⇒ 同一條 Spin 結果序列。
// 注意輪帶若由設定生成，生成本身也消耗這顆核心的亂數，
// 所以 seed 決定的是引擎的「全部」輸出。
func newEngineWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*Engine, error) {
	c := core.New(cf.New(seed))
	le := calc.NewLineEvaluator(gs)
	g, err := gen.NewGenerator(c, gs, le)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		gameName: gs.GameName,
		gameId:   gs.GameID,
		gs:       gs,
		core:     c,
		le:       le,
		gen:      g,
		out:      buf.NewOutcome(gs.LineSetting.LineCount),
		emitter:  newEmitter(),
		credits:  gs.InitialCredits,
		bet:      gs.BetAmount,
		winProb:  gs.WinProbability,
		initseed: seed,
	}
	return e, nil
}

// Events 回傳事件派發器；訂閱請在開始 Spin 前完成。
func (e *Engine) Events() *Emitter {
	return e.emitter
}

// SetLogger 設定引擎日誌；nil 表示靜默（預設）。
func (e *Engine) SetLogger(l *slog.Logger) {
	e.log = l
}

// Spin 為主要公開入口：驗證請求、扣注、決定輸贏、建構盤面、派彩，
// 事件依序同步派發，最後回傳深拷貝的結果 DTO。
func (e *Engine) Spin(req *buf.SpinRequest) (dto.SpinResult, error) {
	if !e.spinning.CompareAndSwap(false, true) {
		return dto.SpinResult{}, errs.State("spin already in progress")
	}
	defer e.spinning.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.valid(req); err != nil {
		return dto.SpinResult{}, err
	}
	if e.credits < e.bet {
		return dto.SpinResult{}, errs.Credits(e.bet, e.credits)
	}

	startsnap, err := e.SnapshotCore()
	if err != nil {
		return dto.SpinResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}

	e.rounds++
	round := e.rounds
	bet := e.bet

	// 扣注先行：spin-start 與扣注後餘額一起廣播
	e.credits -= bet
	e.emitter.emit(&Event{Topic: TopicSpinStart, Round: round, Bet: bet})
	e.emitter.emit(&Event{Topic: TopicCreditsChanged, Round: round, Credits: e.credits, Delta: -bet})

	if err := e.spinOutcome(); err != nil {
		// 生成失敗（這份設定不存在輸局盤面）：退注、回滾核心與計數
		e.credits += bet
		e.rounds--
		if rerr := e.core.Restore(startsnap); rerr != nil {
			return dto.SpinResult{}, errs.NewFatal("fall back err " + rerr.Error())
		}
		return dto.SpinResult{}, err
	}

	payout := e.out.Payout(bet)
	e.credits += payout
	e.lastWin = payout
	e.totalPaid += payout
	if e.out.Win {
		e.wins++
	}

	e.emitReelStops(round)
	if e.out.Win {
		e.emitter.emit(&Event{Topic: TopicWin, Round: round, Win: true, Payout: payout, Hits: e.out.Hits})
		e.emitter.emit(&Event{Topic: TopicCreditsChanged, Round: round, Credits: e.credits, Delta: payout})
	}
	e.emitter.emit(&Event{Topic: TopicSpinComplete, Round: round, Win: e.out.Win, Payout: payout})

	aftersnap, err := e.SnapshotCore()
	if err != nil {
		return dto.SpinResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	return dto.NewSpinResultDTO(e.gameName, e.gameId, bet, e.credits, e.out, startsnap, aftersnap)
}

// SpinInternal 直接執行一轉並回傳內部 Outcome；專供模擬器與測試。
//
// 跳過請求驗證、籌碼、事件與 DTO 深拷貝；回傳的 Outcome 是內部
// buffer，下一轉就會被覆寫。請勿在正式環境使用。
func (e *Engine) SpinInternal() (*buf.Outcome, error) {
	e.rounds++
	if err := e.spinOutcome(); err != nil {
		e.rounds--
		return nil, err
	}
	payout := e.out.Payout(e.bet)
	e.lastWin = payout
	e.totalPaid += payout
	if e.out.Win {
		e.wins++
	}
	return e.out, nil
}

// spinOutcome 決定輸贏並建構對應盤面（寫入 e.out）。
//
// 取樣順序固定：Bernoulli 勝負判定永遠是本轉的第一次取樣，
// 之後才輪到生成器。這個順序是 seed 重現合約的一部分。
func (e *Engine) spinOutcome() error {
	e.out.Reset()

	win := e.core.Float64() < e.winProb
	if win {
		e.gen.WinningOutcome(e.out)
		return nil
	}
	if err := e.gen.LosingOutcome(e.out); err != nil {
		return err
	}
	if e.out.Exhausted && e.log != nil {
		e.log.Warn("losing generation exhausted retries, used deterministic fallback",
			"game", e.gameName, "total", e.gen.ExhaustedCount)
	}
	return nil
}

func (e *Engine) emitReelStops(round int) {
	if !e.emitter.has(TopicReelStop) {
		return
	}
	for col := 0; col < spec.Cols; col++ {
		syms := make([]int16, spec.Rows)
		for row := 0; row < spec.Rows; row++ {
			syms[row] = e.out.Screen[row*spec.Cols+col]
		}
		e.emitter.emit(&Event{Topic: TopicReelStop, Round: round, Col: col, Stop: e.out.Stops[col], Symbols: syms})
	}
}

// Stop 回報是否有 Spin 正在進行。
//
// 引擎是同步的：結果在 Spin 回傳前就已成立，Stop 只會截斷呼叫端的
// 視覺階段（停止消費 ReelStop 事件），不會、也不能改變已算出的結果。
func (e *Engine) Stop() bool {
	return e.spinning.Load()
}

func (e *Engine) valid(req *buf.SpinRequest) error {
	if req == nil {
		return errs.NewWarn("spin request required")
	}
	if req.GameId != 0 && req.GameId != e.gameId {
		return errs.NewWarn("game id is not matched")
	}
	if req.GameName != "" && req.GameName != e.gameName {
		return errs.NewWarn("game name is not matched")
	}
	// Bet 帶 0 表示使用機台當前押注額
	if req.Bet != 0 && req.Bet != e.bet {
		return errs.NewWarn("error bet value")
	}
	return nil
}

//---------------------------------------

// SetWinProbability 運行期更新勝率；Spin 進行中一律拒絕。
func (e *Engine) SetWinProbability(p float64) error {
	if e.spinning.Load() {
		return errs.State("can not update win probability while spinning")
	}
	if err := spec.ValidWinProbability(p); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.winProb = p
	return nil
}

// SetBetAmount 運行期更新押注額；Spin 進行中一律拒絕。
func (e *Engine) SetBetAmount(bet int) error {
	if e.spinning.Load() {
		return errs.State("can not update bet amount while spinning")
	}
	if err := spec.ValidBetAmount(bet); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bet = bet
	return nil
}

// AddCredits 補充籌碼並廣播餘額變動。
func (e *Engine) AddCredits(n int) error {
	if n <= 0 {
		return errs.Config("credits", "> 0", n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.credits += n
	e.emitter.emit(&Event{Topic: TopicCreditsChanged, Round: e.rounds, Credits: e.credits, Delta: n})
	return nil
}

func (e *Engine) Credits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credits
}

func (e *Engine) Rounds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rounds
}

func (e *Engine) Wins() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wins
}

// LastWin 回傳最近一轉的派彩（輸局為 0；尚未 Spin 過也是 0）。
func (e *Engine) LastWin() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastWin
}

// State 回傳引擎當前狀態的唯讀深拷貝快照。
func (e *Engine) State() (dto.EngineState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.SnapshotCore()
	if err != nil {
		return dto.EngineState{}, errs.NewWarn("snapshot error " + err.Error())
	}
	return dto.EngineState{
		GameName:       e.gameName,
		GameID:         e.gameId,
		Credits:        e.credits,
		Bet:            e.bet,
		WinProbability: e.winProb,
		Spinning:       e.spinning.Load(),
		Rounds:         e.rounds,
		Wins:           e.wins,
		LastWin:        e.lastWin,
		TotalPaid:      e.totalPaid,
		InitSeed:       e.initseed,
		CoreSnapB64U:   corefmt.EncodeBase64URL(snap),
	}, nil
}

// SnapshotCore 取得 Core 狀態暫存，當前僅提供取得 Core 狀態
//
// 之後要實作斷線重連 checkpoint 加入必要恢復資訊時實作
// SnapShot() <- 保留語意
func (e *Engine) SnapshotCore() ([]byte, error) {
	return e.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存；Spin 進行中一律拒絕。
func (e *Engine) RestoreCore(src []byte) error {
	if e.spinning.Load() {
		return errs.State("can not restore core while spinning")
	}
	return e.core.Restore(src)
}
