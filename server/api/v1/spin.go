package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/reellab"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
	"github.com/zintix-labs/reellab/server/httperr"
	"github.com/zintix-labs/reellab/server/svrcfg"
	"github.com/zintix-labs/reellab/spec"
)

func (c *SpinHandler) Spin(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := buf.DecodeSpinRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始 Spin
	result, err := c.rt.Spin(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Metrics 回傳每個引擎池的觀測快照（pull 式）。
func (c *SpinHandler) Metrics(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.rt.Metrics())
}

// State 回傳指定遊戲的服務狀態（引擎池快照）。
// 單台引擎的完整狀態（dto.EngineState）屬於程式內 API：
// 池內引擎會被借出/歸還，對外只暴露池層級的觀測值。
func (c *SpinHandler) State(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s := q.URL.Query().Get("gid")
	if s == "" {
		httperr.Errs(w, errs.NewWarn("gid is required"))
		return
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
		return
	}
	p, ok := c.rt.Pool(spec.GID(u))
	if !ok {
		httperr.Errs(w, errs.NewWarn("gid not found"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p.Metrics())
}

// ============================================================
// ** SpinHandler **
// ============================================================

type SpinHandler struct {
	rt *reellab.Runtime
}

func NewSpinHandler(sCfg *svrcfg.SvrCfg) (*SpinHandler, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build spin handler error")
	}
	return &SpinHandler{rt: rt}, nil
}
