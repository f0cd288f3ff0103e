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

package buf

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/reellab/spec"
)

func TestOutcomeAccumulateReset(t *testing.T) {
	o := NewOutcome(3)
	if len(o.Screen) != spec.Cols*spec.Rows {
		t.Fatalf("expected screen size %d, got %d", spec.Cols*spec.Rows, len(o.Screen))
	}

	o.Stops = [spec.Cols]int{1, 2, 3, 4, 5}
	o.AddHit(0, 1, 5)
	o.AddHit(2, 0, 100)
	o.Win = true

	if o.MultSum != 105 {
		t.Fatalf("expected mult sum 105, got %d", o.MultSum)
	}
	if o.Payout(10) != 1050 {
		t.Fatalf("expected payout 1050, got %d", o.Payout(10))
	}
	if len(o.Hits) != 2 || o.Hits[1].Line != 2 || o.Hits[1].Mult != 100 {
		t.Fatalf("unexpected hits: %+v", o.Hits)
	}

	o.Reset()
	if o.MultSum != 0 || o.Win || len(o.Hits) != 0 || o.Exhausted {
		t.Fatalf("outcome not reset: %+v", o)
	}
	for _, s := range o.Stops {
		if s != 0 {
			t.Fatalf("stops not reset: %v", o.Stops)
		}
	}
}

func TestDecodeSpinRequestGet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/spin?uid=u1&game=demo&gid=7&bet=5&count=100&seed=42", nil)
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.UID != "u1" || req.GameName != "demo" || req.GameId != 7 || req.Bet != 5 || req.Count != 100 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Seed == nil || *req.Seed != 42 {
		t.Fatalf("expected seed 42, got %v", req.Seed)
	}
}

func TestDecodeSpinRequestPost(t *testing.T) {
	body, _ := json.Marshal(SpinRequest{UID: "u2", GameName: "demo", GameId: 9, Bet: 1})
	r := httptest.NewRequest(http.MethodPost, "/v1/spin", bytes.NewReader(body))
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.UID != "u2" || req.GameId != 9 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeSpinRequestRejects(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/spin?gid=abc", nil)
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatal("expected gid parse error")
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/spin", bytes.NewReader([]byte(`{"unknown_field":1}`)))
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatal("expected unknown field error")
	}

	r = httptest.NewRequest(http.MethodDelete, "/v1/spin", nil)
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatal("expected method error")
	}
}
