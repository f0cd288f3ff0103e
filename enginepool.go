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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/reellab/dto"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
)

// EnginePool 專門管理「某一款遊戲」的所有引擎實例。
// 它透過兩個通道管理引擎生命週期：
//  1. pool：健康且可用的引擎，供 Spin() 借出 / 歸還。
//  2. broken：在運作過程中發生錯誤或 panic 的壞引擎，送往此通道以便後續檢查、維修或丟棄。
//
// 若某台引擎於執行期間發生 panic 或 fatal error，該引擎會被送至 broken，並立即補上一台新機以維持容量。
// 單台 Engine 不可併發 Spin；池的借出/歸還語意正是為了在高併發下仍維持這個約束。
type EnginePool struct {
	gameName      string
	gameId        spec.GID
	gs            *spec.GameSetting
	cf            core.PRNGFactory
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan *Engine  // 可用引擎的通道，用於取得和歸還引擎
	broken        chan *Engine  // 壞掉引擎的通道，用於送修或丟棄壞掉引擎
	done          chan struct{} // 關閉訊號：關閉後不再允許借機/歸還/補機
	closeOnce     sync.Once     // 確保 Close() 只執行一次
	poolsize      int           // 好引擎
	rebuild       atomic.Int32  // 重起引擎次數
	inflight      atomic.Int32  // 使用中
	panics        atomic.Int32  // panic 次數
	fatals        atomic.Int32  // fatal 次數（引擎狀態不可信）
	closeReason   atomic.Value  // string: 關閉原因
	closeInflight atomic.Int32  // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32  // 關閉當下 pool 可用數量（len(pool) 快照）
	closeBroken   atomic.Int32  // 關閉當下 broken backlog（len(broken) 快照）
}

// newEnginePool 建立指定遊戲的引擎池。
//   - n: 引擎數量（至少為 1）
//
// 初始化內容包含：
//   - 建立 pool（可用引擎）與 broken（壞引擎）兩個 channel
//   - 預先建立 n 台引擎並放入 pool，以便立即提供服務
//
// 每台引擎的 seed 由 seedMaker 自池 seed 派生，彼此獨立且可追溯。
func newEnginePool(n int, gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*EnginePool, error) {
	n = max(1, n) // 確保引擎數量至少為1
	p := &EnginePool{
		gameName:  gs.GameName,
		gameId:    gs.GameID,
		gs:        gs,
		cf:        cf,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Engine, n),   // 建立有緩衝的引擎通道，容量為 n
		broken:    make(chan *Engine, 100), // 建立有緩衝的壞掉引擎通道，容量固定為100
		done:      make(chan struct{}),
		poolsize:  n,
	}

	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	// 上架引擎，將 n 台新引擎放入池中
	for i := 0; i < n; i++ {
		e, err := newEngineWithSeed(gs, cf, p.seedMaker.next())
		if err != nil {
			return nil, err
		}
		p.pool <- e
	}
	return p, nil
}

// Close 進入關閉狀態：
//   - 通知之後所有 Spin() 應該直接回 error
//   - defer 歸還/補機時會觀察 done，避免對已關閉狀態進行 send
func (p *EnginePool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *EnginePool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（thread-safe, reason 只會被寫入一次）。
// reason 建議使用固定字串或小枚舉字串，方便 metrics/telemetry 聚合。
func (p *EnginePool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		// 進入關閉狀態的瞬間做一次快照，方便外部觀測與故障排查。
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 用於判斷本次錯誤是否代表「引擎狀態不可信」需要淘汰/補機。
//
// 原則：
//   - panic 一律視為 broken（由 caller 端的 defer/recover 處理）
//   - 一般的 request/validation 類錯誤不應淘汰引擎（籌碼不足、狀態衝突也一樣）
//   - 只有錯誤型別本身明確宣告「fatal」時才視為 broken
func isFatalErr(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := errs.AsErr(err); ok {
		if e.ErrLv == errs.Fatal {
			return true
		}
	}
	return false
}

func (p *EnginePool) Spin(ctx context.Context, req *buf.SpinRequest) (result dto.SpinResult, err error) {
	var e *Engine
	borrowed := false
	select {
	case <-p.done:
		// 先觀察是否已關閉：關閉直接回失敗，不阻塞
		return result, errs.NewFatal("engine pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		// 如果通知取消
		return result, errs.NewWarn("spin canceled/timeout: " + ctx.Err().Error())
	case e = <-p.pool:
		// 有取出引擎
		borrowed = true
		p.inflight.Add(1)
		// ok
	}

	// 理論上不會拿到 nil；若發生代表 pool 有嚴重問題。
	if e == nil {
		return result, errs.NewFatal("engine pool got nil engine")
	}

	var isPanic bool

	defer func() {
		if borrowed {
			// 有借有還 再借不難
			p.inflight.Add(-1)
		}
		if r := recover(); r != nil {
			// 系統恢復
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("engine %s panic : %v", e.gameName, r))
		}

		// 若已關閉，直接丟棄引擎（不歸還、不補機），避免 send 到已停止的系統。
		if p.Closed() {
			return
		}

		// 若發生 panic 或「致命錯誤」，表示引擎狀態不可信，需要送修並補機。
		// 注意：一般的 request/validation error 不應淘汰引擎。
		if isPanic || isFatalErr(err) {
			if !isPanic && isFatalErr(err) {
				p.fatals.Add(1)
			}
			// 1) 壞引擎送入 broken（避免阻塞）
			select {
			case p.broken <- e:
			default:
				// broken 通道滿代表系統可能正在連續故障：進入關閉狀態讓上層接管維護。
				p.closeWithReason("overwhelmed_by_failures")
				// 若外層尚未有錯誤，補一個更明確的致命訊息
				if err == nil {
					err = errs.NewFatal("engine pool overwhelmed by failures")
				}
				return
			}

			// 2) 補一台新引擎（維持容量）
			newEng, buildErr := newEngineWithSeed(p.gs, p.cf, p.seedMaker.next())
			p.rebuild.Add(1)
			if buildErr != nil {
				err = errs.NewFatal(fmt.Sprintf("engine %s can not build", p.gameName))
				p.closeWithReason("rebuild_failed")
				return
			}

			// 補機前再看一次是否已關閉（避免並行 Close 後 send / block）
			select {
			case <-p.done:
				return
			case p.pool <- newEng:
				// ok
			}

			return
		}

		// 若有錯誤但非致命（多半是 request/validation 類錯誤），引擎仍然是健康的：歸還 pool 並把 err 原樣回傳。
		// 注意：此處不改寫 err。
		select {
		case <-p.done:
			return
		case p.pool <- e:
			// ok
		}
	}()

	// 執行引擎的 Spin 方法
	r, spinErr := e.Spin(req)
	if spinErr != nil {
		err = spinErr
		return
	}

	result = r
	return
}

func (ep *EnginePool) PoolSize() int {
	return ep.poolsize
}

func (ep *EnginePool) Inflight() int {
	return int(ep.inflight.Load())
}

func (ep *EnginePool) ReBuild() int {
	return int(ep.rebuild.Load())
}

func (ep *EnginePool) ClosedReason() string {
	if v := ep.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (ep *EnginePool) Panics() int {
	return int(ep.panics.Load())
}

func (ep *EnginePool) Fatals() int {
	return int(ep.fatals.Load())
}

// EnginePoolMetrics 是「拉取式（pull）」觀測快照。
//
// 設計原則：
//   - 不綁任何 metrics/telemetry SDK（Prometheus / OpenTelemetry 等），由上層自己決定如何輸出。
//   - 欄位值以讀取當下為主；其中 Available/BrokenBacklog 來自 len(chan)，在高併發下是「近似值」但足夠用於營運觀測。
//   - 關閉瞬間的快照（CloseInflight/CloseAvail/CloseBroken）只會在 Close 時寫入一次，用於事後排查。
type EnginePoolMetrics struct {
	GameName string   `json:"game_name"`
	GameID   spec.GID `json:"game_id"`

	PoolSize      int    `json:"pool_size"`      // 目標容量（初始化指定）
	Available     int    `json:"available"`      // 當下可借出的引擎數（len(pool)）
	Inflight      int    `json:"inflight"`       // 使用中（借出未歸還）
	BrokenBacklog int    `json:"broken_backlog"` // broken channel 當下 backlog（len(broken)）
	Rebuild       int    `json:"rebuild"`        // 補機次數
	Panics        int    `json:"panics"`         // panic 次數
	Fatals        int    `json:"fatals"`         // fatal 次數
	Closed        bool   `json:"closed"`         // 是否已關閉
	CloseReason   string `json:"close_reason"`   // 關閉原因

	CloseInflight int `json:"close_inflight"` // Close() 當下 inflight（-1 表示尚未關閉）
	CloseAvail    int `json:"close_avail"`    // Close() 當下 available（-1 表示尚未關閉）
	CloseBroken   int `json:"close_broken"`   // Close() 當下 broken backlog（-1 表示尚未關閉）
}

// Metrics 回傳觀測快照；上層可用於 log、/metrics、或餵給 Prometheus/OTEL exporter。
func (ep *EnginePool) Metrics() EnginePoolMetrics {
	closed := ep.Closed()
	m := EnginePoolMetrics{
		GameName:      ep.gameName,
		GameID:        ep.gameId,
		PoolSize:      ep.poolsize,
		Available:     len(ep.pool),
		Inflight:      int(ep.inflight.Load()),
		BrokenBacklog: len(ep.broken),
		Rebuild:       int(ep.rebuild.Load()),
		Panics:        int(ep.panics.Load()),
		Fatals:        int(ep.fatals.Load()),
		Closed:        closed,
		CloseReason:   ep.ClosedReason(),
		CloseInflight: int(ep.closeInflight.Load()),
		CloseAvail:    int(ep.closeAvail.Load()),
		CloseBroken:   int(ep.closeBroken.Load()),
	}
	return m
}

// Available 回傳當下 pool 可用引擎數（len(pool)）。在高併發下為近似值。
func (ep *EnginePool) Available() int {
	return len(ep.pool)
}
