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
	"bytes"
	"math"
	"testing"

	"github.com/zintix-labs/reellab/sdk/buf"
)

func loseOutcome() *buf.Outcome {
	o := buf.NewOutcome(4)
	return o
}

func winOutcome(mult int) *buf.Outcome {
	o := buf.NewOutcome(4)
	o.Win = true
	o.AddHit(0, 0, mult)
	return o
}

func TestSpinRecorderBasic(t *testing.T) {
	s, err := NewSpinRecorder("rec-unit", 1, 10)
	if err != nil {
		t.Fatalf("new recorder failed: %v", err)
	}

	s.Record(loseOutcome())
	s.Record(winOutcome(2))
	s.Record(winOutcome(50))

	r, err := s.Done()
	if err != nil {
		t.Fatalf("done failed: %v", err)
	}
	if r.Summary.Rounds != 3 || r.Summary.Wins != 2 {
		t.Fatalf("unexpected counts: %+v", r.Summary)
	}
	if r.Summary.TotalWin != 520 {
		t.Fatalf("expected total win 520, got %d", r.Summary.TotalWin)
	}
	wantRtp := 520.0 / 30.0
	if math.Abs(r.Summary.RTP-wantRtp) > 1e-12 {
		t.Fatalf("expected rtp %f, got %f", wantRtp, r.Summary.RTP)
	}
}

func TestSpinRecorderInvalidBet(t *testing.T) {
	if _, err := NewSpinRecorder("rec-unit", 1, 0); err == nil {
		t.Fatal("expected error on non-positive bet")
	}
}

func TestSpinRecorderMerge(t *testing.T) {
	a, _ := NewSpinRecorder("rec-unit", 1, 5)
	b, _ := NewSpinRecorder("rec-unit", 1, 5)
	for i := 0; i < 100; i++ {
		a.Record(loseOutcome())
		b.Record(winOutcome(2))
	}

	m, err := MergeSpinRecorder([]*SpinRecorder{a, b})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	r, _ := m.Done()
	if r.Summary.Rounds != 200 || r.Summary.Wins != 100 {
		t.Fatalf("unexpected merged counts: %+v", r.Summary)
	}

	c, _ := NewSpinRecorder("rec-unit", 1, 7)
	if _, err := MergeSpinRecorder([]*SpinRecorder{a, c}); err == nil {
		t.Fatal("expected error merging different bets")
	}
}

func TestSpinRecorderPlayer(t *testing.T) {
	// 本金 3 注，全輸 → 第三轉後資金歸零、破產離場
	s, _ := NewSpinRecorder("rec-unit", 1, 10)
	s.WithPlayer(3)

	leaves := 0
	for i := 0; i < 5; i++ {
		leave, err := s.RecordWithPlayer(loseOutcome())
		if err != nil {
			t.Fatalf("record failed: %v", err)
		}
		if leave {
			leaves++
		}
	}
	if !s.Player.Bust {
		t.Fatal("expected player bust")
	}
	if s.Player.Balance != 0 {
		t.Fatalf("expected balance 0, got %d", s.Player.Balance)
	}
	if leaves == 0 {
		t.Fatal("expected at least one leave signal")
	}
	// 離場後不再入帳
	r, _ := s.Done()
	if r.Summary.Rounds != 3 {
		t.Fatalf("expected 3 recorded rounds, got %d", r.Summary.Rounds)
	}

	// 大獎直接觸及 3 倍本金 → 停利離場
	s2, _ := NewSpinRecorder("rec-unit", 1, 10)
	s2.WithPlayer(3)
	leave, _ := s2.RecordWithPlayer(winOutcome(10))
	if !leave || !s2.Player.Cashout {
		t.Fatalf("expected cashout leave, got leave=%v player=%+v", leave, s2.Player)
	}
}

func TestJournalRoundTrip(t *testing.T) {
	var b bytes.Buffer
	j, err := NewJournal(&b)
	if err != nil {
		t.Fatalf("new journal failed: %v", err)
	}

	s, _ := NewSpinRecorder("rec-unit", 1, 10)
	s.WithJournal(j)
	s.Record(loseOutcome())
	s.Record(winOutcome(5))
	if _, err := s.Done(); err != nil {
		t.Fatalf("done failed: %v", err)
	}

	var got []JournalEntry
	err = ReadJournal(&b, func(e *JournalEntry) bool {
		got = append(got, *e)
		return true
	})
	if err != nil {
		t.Fatalf("read journal failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Round != 1 || got[0].Payout != 0 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Round != 2 || !got[1].Win || got[1].Payout != 50 {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}

	// 關閉後不可再寫
	if err := j.Append(10, loseOutcome()); err == nil {
		t.Fatal("expected error appending to closed journal")
	}
}
