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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/reellab/dto"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/spec"
)

// Runtime 是服務期的資料面入口：每個遊戲一個 EnginePool。
type Runtime struct {
	// build-time 來源（只讀引用）
	lab *Lab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個遊戲一個 pool）
	pools map[spec.GID]*EnginePool
	ids   []spec.GID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定
	poolSize int // 每個遊戲的池大小
}

func (rt *Runtime) Spin(ctx context.Context, req *buf.SpinRequest) (dto.SpinResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.SpinResult{}, errs.NewWarn("spin canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.SpinResult{}, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}

	mp, ok := rt.pools[req.GameId]
	if !ok {
		return dto.SpinResult{}, errs.NewWarn("game id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return mp.Spin(ctx, req)
}

// Pool 回傳指定遊戲的引擎池（觀測用）。
func (rt *Runtime) Pool(id spec.GID) (*EnginePool, bool) {
	mp, ok := rt.pools[id]
	return mp, ok
}

// IDs 回傳 runtime 服務中的遊戲清單（固定順序）。
func (rt *Runtime) IDs() []spec.GID {
	return append([]spec.GID(nil), rt.ids...)
}

// Metrics 回傳全部池的觀測快照，依遊戲 ID 固定順序。
func (rt *Runtime) Metrics() []EnginePoolMetrics {
	out := make([]EnginePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		if mp, ok := rt.pools[id]; ok {
			out = append(out, mp.Metrics())
		}
	}
	return out
}

// Lab 回傳建置來源（只讀用途：catalog 查詢、自檢、模擬）。
func (rt *Runtime) Lab() *Lab {
	return rt.lab
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		// 連動關閉所有池
		for _, mp := range rt.pools {
			mp.Close()
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
