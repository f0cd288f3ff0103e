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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/spec"
	"github.com/zintix-labs/reellab/stats"
)

// SpinRecorder 遊戲紀錄員
//
// SpinRecorder 逐轉累積統計，並可選配玩家資金曲線與 Journal
// 逐筆落檔；Done 之後透過內部 StatReport 輸出報表。
type SpinRecorder struct {
	GameName string
	GameId   spec.GID
	Bet      int
	Report   *stats.StatReport
	Player   *PlayerRecord

	journal *Journal
}

// PlayerRecord 玩家資金曲線統計
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Bust        bool
	Cashout     bool
}

func NewSpinRecorder(name string, id spec.GID, bet int) (*SpinRecorder, error) {
	if err := spec.ValidBetAmount(bet); err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("new spin recorder for %q failed", name))
	}

	s := new(SpinRecorder)
	s.GameName = name
	s.GameId = id
	s.Bet = bet
	s.Report = stats.NewStatReport(name, id, bet)
	return s, nil
}

// WithPlayer 啟用玩家資金追蹤。
//
// initBets 是以押注額為單位的初始本金；離場線固定為 3 倍本金。
func (s *SpinRecorder) WithPlayer(initBets int) *SpinRecorder {
	b := s.Bet * initBets
	s.Player = &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   3 * b,
	}
	return s
}

// WithJournal 掛上逐筆日誌；呼叫端負責在 Done 前保持 j 有效。
func (s *SpinRecorder) WithJournal(j *Journal) *SpinRecorder {
	s.journal = j
	return s
}

func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	r0 := r[0]
	s, err := NewSpinRecorder(r0.GameName, r0.GameId, r0.Bet)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.GameName != r0.GameName {
			return s, errs.NewFatal("merge spin record err : different game name")
		}
		if v.Bet != r0.Bet {
			return s, errs.NewFatal("merge spin record err : different bet")
		}
		s.Report.Merge(v.Report)
	}
	return s, nil
}

// Record 以單次結果更新統計（不含玩家資金）。
func (s *SpinRecorder) Record(o *buf.Outcome) error {
	s.Report.Record(o.Payout(s.Bet), o.Exhausted)
	if s.journal != nil {
		if err := s.journal.Append(s.Bet, o); err != nil {
			return err
		}
	}
	return nil
}

// RecordWithPlayer 在 Record 的基礎上更新玩家資金，回傳玩家是否離場。
func (s *SpinRecorder) RecordWithPlayer(o *buf.Outcome) (leave bool, err error) {
	p := s.Player
	if p.Balance < s.Bet {
		return true, nil
	}
	if err := s.Record(o); err != nil {
		return false, err
	}

	// 更新資金
	p.Balance -= s.Bet
	p.Balance += o.Payout(s.Bet)

	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}

	// 更新結局
	if p.Balance < s.Bet {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave, nil
}

// Done 結算統計並關閉 Journal（若有），回傳報表。
func (s *SpinRecorder) Done() (*stats.StatReport, error) {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			return s.Report, err
		}
	}
	s.Report.Done()
	return s.Report, nil
}
