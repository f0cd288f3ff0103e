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

// Package dto 定義對外輸出的序列化結構。
//
// 內部熱路徑使用可重用的 buffer（sdk/buf），跨出引擎邊界時一律
// 深拷貝成 DTO，呼叫端拿到的結果與引擎內部狀態完全解耦。
package dto

import (
	"github.com/zintix-labs/reellab/corefmt"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/spec"
)

// SpinResult 是一次 Spin 的完整對外結果。
type SpinResult struct {
	GameName string       `json:"game"`           // 遊戲名稱
	GameID   spec.GID     `json:"gameid"`         // 遊戲編號
	Win      bool         `json:"is_win"`         // 本轉是否中獎
	Bet      int          `json:"bet"`            // 本次押注
	Payout   int          `json:"payout"`         // 派彩（0 表示輸局）
	MultSum  int          `json:"mult_sum"`       // 中獎線倍數總和
	Credits  int          `json:"credits"`        // 本轉結算後籌碼
	Stops    []int        `json:"stops"`          // 每輪停點
	Screen   []int16      `json:"screen"`         // 3×5 盤面（row-major）
	Hits     []LineHitDTO `json:"hits,omitempty"` // 中獎線（線索引遞增）
	State    SpinState    `json:"spin_state"`     // 亂數核心狀態
}

// LineHitDTO 為對外輸出的中獎線序列化結構。
type LineHitDTO struct {
	Line  int `json:"line"`  // 線表索引
	Entry int `json:"entry"` // 賠付表索引
	Mult  int `json:"mult"`  // 賠率倍數
}

// SpinState 帶出 Spin 前後的核心快照（Base64URL），供審計與重現。
type SpinState struct {
	StartCoreSnapB64U string `json:"start_core,omitempty"`
	AfterCoreSnapB64U string `json:"after_core,omitempty"`
}

// EngineState 是引擎當前狀態的唯讀快照。
type EngineState struct {
	GameName       string   `json:"game"`
	GameID         spec.GID `json:"gameid"`
	Credits        int      `json:"credits"`
	Bet            int      `json:"bet"`
	WinProbability float64  `json:"win_probability"`
	Spinning       bool     `json:"spinning"`
	Rounds         int      `json:"rounds"`
	Wins           int      `json:"wins"`
	LastWin        int      `json:"last_win"`
	TotalPaid      int      `json:"total_paid"`
	InitSeed       int64    `json:"init_seed"`
	CoreSnapB64U   string   `json:"core_snap,omitempty"`
}

// NewSpinResultDTO 把內部 Outcome 深拷貝成對外結構。
func NewSpinResultDTO(gameName string, gameId spec.GID, bet int, credits int, o *buf.Outcome, startSnap []byte, afterSnap []byte) (SpinResult, error) {
	if o == nil {
		return SpinResult{}, errs.NewWarn("outcome is nil")
	}

	dto := SpinResult{
		GameName: gameName,
		GameID:   gameId,
		Win:      o.Win,
		Bet:      bet,
		Payout:   o.Payout(bet),
		MultSum:  o.MultSum,
		Credits:  credits,
		Stops:    make([]int, len(o.Stops)),
		Screen:   make([]int16, len(o.Screen)),
		State: SpinState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(startSnap),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(afterSnap),
		},
	}
	copy(dto.Stops, o.Stops[:])
	copy(dto.Screen, o.Screen)

	if len(o.Hits) > 0 {
		dto.Hits = make([]LineHitDTO, len(o.Hits))
		for i, h := range o.Hits {
			dto.Hits[i] = LineHitDTO{Line: h.Line, Entry: h.Entry, Mult: h.Mult}
		}
	}

	return dto, nil
}
