package v1

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"

	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/server/httperr"
	"github.com/zintix-labs/reellab/spec"
)

// SelfTest 對指定遊戲跑完整自檢（RNG 均勻性、重現性、勝負盤面後置條件、勝率）。
//
// 自檢本身永不回傳 error：失敗項目記在報告裡（Pass=false）。
// 報告整體不通過時回 200 + 報告，讓呼叫端自行判讀各項明細。
func (sh *SimHandler) SelfTest(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SelfTestRequestBody struct {
		GID  spec.GID `json:"gid"`
		Seed *int64   `json:"seed,omitempty"`
	}
	// ---
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(SelfTestRequestBody)
	if q.Method == http.MethodGet {
		if s := q.URL.Query().Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
				return
			}
			req.GID = spec.GID(u)
		} else {
			httperr.Errs(w, errs.NewWarn("gid is required"))
			return
		}

		if s := q.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	if _, ok := sh.Lab.EntryById(req.GID); !ok {
		httperr.Errs(w, errs.NewWarn("gid not found"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}

	report := sh.Lab.SelfTest(req.GID, *req.Seed)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
