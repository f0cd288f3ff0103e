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
	"github.com/zintix-labs/reellab/sdk/buf"
)

// Topic 是引擎事件主題。
//
// 一次 Spin 的事件順序是合約的一部分：
//
//	SpinStart → ReelStop ×5（欄 0..4 遞增）→ Win（若中獎）→ SpinComplete
//
// CreditsChanged 則在每次籌碼變動時發出（扣注一次、派彩一次）。
// 動畫層只要依序消費 ReelStop 就能還原停輪節奏；引擎本身不做任何
// 視覺延遲，事件在 Spin 內同步派發。
type Topic uint8

const (
	TopicSpinStart Topic = iota
	TopicReelStop
	TopicWin
	TopicSpinComplete
	TopicCreditsChanged
)

var topicName = map[Topic]string{
	TopicSpinStart:      "spin_start",
	TopicReelStop:       "reel_stop",
	TopicWin:            "win",
	TopicSpinComplete:   "spin_complete",
	TopicCreditsChanged: "credits_changed",
}

func (t Topic) String() string {
	if s, ok := topicName[t]; ok {
		return s
	}
	return "unknown"
}

// Event 是派發給訂閱者的事件內容。
// 只有與 Topic 對應的欄位有效，其餘為零值。
type Event struct {
	Topic Topic
	Round int // 第幾轉（從 1 起算）

	// TopicSpinStart
	Bet int

	// TopicReelStop
	Col     int     // 停輪欄位（0..4）
	Stop    int     // 停點（輪帶索引）
	Symbols []int16 // 該欄可見的 3 個圖標（row 0..2）

	// TopicWin / TopicSpinComplete
	Win    bool
	Payout int
	Hits   []buf.LineHit

	// TopicCreditsChanged
	Credits int // 變動後餘額
	Delta   int // 變動量（扣注為負、派彩為正）
}

// Handler 處理單一事件；在 Spin 的呼叫 goroutine 上同步執行。
// Handler 內再呼叫同一台 Engine 的 Spin 會拿到狀態錯誤（re-entry）。
type Handler func(e *Event)

// Emitter 是引擎內建的同步事件派發器。
//
// 訂閱應在開始 Spin 之前完成；Subscribe 與 Spin 並發使用不做保護。
// 同一主題的多個 handler 依訂閱順序呼叫。
type Emitter struct {
	handlers map[Topic][]Handler
	all      []Handler
}

func newEmitter() *Emitter {
	return &Emitter{handlers: make(map[Topic][]Handler, 8)}
}

// Subscribe 訂閱單一主題。
func (em *Emitter) Subscribe(t Topic, h Handler) {
	if h == nil {
		return
	}
	em.handlers[t] = append(em.handlers[t], h)
}

// SubscribeAll 訂閱全部主題；在主題別 handler 之後呼叫。
func (em *Emitter) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	em.all = append(em.all, h)
}

// has 回報主題是否有任何訂閱者（含 SubscribeAll）。
func (em *Emitter) has(t Topic) bool {
	return len(em.handlers[t]) > 0 || len(em.all) > 0
}

func (em *Emitter) emit(e *Event) {
	for _, h := range em.handlers[e.Topic] {
		h(e)
	}
	for _, h := range em.all {
		h(e)
	}
}
