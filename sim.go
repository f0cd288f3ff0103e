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
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/reellab/dto"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/recorder"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
	"github.com/zintix-labs/reellab/stats"
)

const capPrepare int = 100

// Simulator 用於大量模擬遊戲行為，可建立多台引擎並平行紀錄統計。
//
// 模擬走 Engine.SpinInternal：不扣籌碼、不派發事件、不做 DTO 深拷貝，
// 只留下純粹的「勝負 + 盤面 + 派彩」熱路徑。因此統計結果與對外
// Spin 的機率行為完全一致，速度卻高一個量級。
type Simulator struct {
	GameName  string
	GameId    spec.GID
	gs        *spec.GameSetting
	cf        core.PRNGFactory
	initSeed  int64                    // 初始下的種子
	seedmaker *seedMaker               // 併發引擎的子種子生成器
	eBuf      []*Engine                // 併發執行引擎實例
	rBuf      []*recorder.SpinRecorder // 併發遊戲紀錄員
}

func newSimulator(gs *spec.GameSetting, cf core.PRNGFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, cf, seed.Int64())
}

func newSimulatorWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		GameName:  gs.GameName,
		GameId:    gs.GameID,
		gs:        gs,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		eBuf:      make([]*Engine, 1, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
	}
	e, err := newEngineWithSeed(gs, cf, seed)
	if err != nil {
		return nil, err
	}
	s.eBuf[0] = e
	return s, nil
}

// InitSeed 回傳模擬器的初始種子（報表與重現用）。
func (s *Simulator) InitSeed() int64 {
	return s.initSeed
}

// Sim 單線模擬器：以一台引擎連續跑指定 round 並回傳統計結果與用時。
func (s *Simulator) Sim(round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimJournal(round, showpb, nil)
}

// SimJournal 與 Sim 相同，並把每轉結果寫進 zstd 壓縮日誌（w 非 nil 時）。
func (s *Simulator) SimJournal(round int, showpb bool, w io.Writer) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	r, err := recorder.NewSpinRecorder(s.GameName, s.GameId, s.gs.BetAmount)
	if err != nil {
		return nil, 0, err
	}
	if w != nil {
		j, err := recorder.NewJournal(w)
		if err != nil {
			return nil, 0, err
		}
		r.WithJournal(j)
	}
	e := s.eBuf[0]

	bar := pb.StartNew(round)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < round; i++ {
		out, err := e.SpinInternal()
		if err != nil {
			return nil, 0, err
		}
		if err := r.Record(out); err != nil {
			return nil, 0, err
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	result, err := r.Done()
	if err != nil {
		return nil, 0, err
	}
	return result, used, nil
}

// SimMP 平行執行多台引擎，總計 rounds*mp 次 spin，合併統計後回傳。
//
// 每台引擎由 seedmaker 派生獨立子種子：整場模擬仍由 initSeed 完全
// 決定（引擎數相同時），又不會讓 workers 共享同一條亂數序列。
func (s *Simulator) SimMP(rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	for len(s.eBuf) < mp {
		e, err := newEngineWithSeed(s.gs, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.eBuf = append(s.eBuf, e)
	}

	for len(s.rBuf) < mp {
		r, err := recorder.NewSpinRecorder(s.GameName, s.GameId, s.gs.BetAmount)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	var (
		errOnce  sync.Once
		firstErr error
	)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			e := s.eBuf[i]
			st := s.rBuf[i]
			for r := 0; r < rounds; r++ {
				out, err := e.SpinInternal()
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
				st.Record(out)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if firstErr != nil {
		return nil, 0, firstErr
	}

	st, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	result, err := st.Done()
	if err != nil {
		return nil, 0, err
	}
	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶入初始籌碼的遊戲歷程，
// 產出機台統計與玩家資金曲線彙總。
//
// 每位玩家最多跑 rounds 轉；破產或達到 3 倍本金停利就提前離場。
func (s *Simulator) SimPlayers(mp int, players int, initBets int, rounds int, showpb bool) (*stats.StatReport, *dto.PlayersReport, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}

	// 準備並行引擎
	for len(s.eBuf) < mp {
		e, err := newEngineWithSeed(s.gs, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, nil, 0, err
		}
		s.eBuf = append(s.eBuf, e)
	}

	// 準備玩家
	for len(s.rBuf) < players {
		r, err := recorder.NewSpinRecorder(s.GameName, s.GameId, s.gs.BetAmount)
		if err != nil {
			return nil, nil, 0, err
		}
		r.WithPlayer(initBets)
		s.rBuf = append(s.rBuf, r)
	}

	// 作一個 2048 大小的緩衝 channel 使 player 依序處理
	jobs := make(chan *recorder.SpinRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp)

	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go simPlayers(wg, s.eBuf[w], jobs, rounds, bar)
	}

	// 塞進玩家，開始模擬
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 機台基準報表
	record, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st, err := record.Done()
	if err != nil {
		return nil, nil, 0, err
	}

	// 玩家彙總
	pr := &dto.PlayersReport{
		Players:    players,
		MaxBalance: math.MinInt,
		MinBalance: math.MaxInt,
	}
	sum := 0
	for _, r := range s.rBuf {
		p := r.Player
		switch {
		case p.Bust:
			pr.Busts++
		case p.Cashout:
			pr.Cashouts++
		default:
			pr.Survivors++
		}
		sum += p.Balance
		if p.MaxBalance > pr.MaxBalance {
			pr.MaxBalance = p.MaxBalance
		}
		if p.MinBalance < pr.MinBalance {
			pr.MinBalance = p.MinBalance
		}
	}
	pr.AvgBalance = float64(sum) / float64(players)
	return st, pr, used, nil
}

func simPlayers(wg *sync.WaitGroup, e *Engine, jobs chan *recorder.SpinRecorder, rounds int, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs { // j := <- jobs
		for r := 0; r < rounds; r++ {
			out, err := e.SpinInternal()
			if err != nil {
				break
			}
			leave, rerr := j.RecordWithPlayer(out)
			if rerr != nil || leave {
				break
			}
		}
		bar.Increment()
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimMP / SimPlayers）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
