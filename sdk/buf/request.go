package buf

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/spec"
)

type SpinRequest struct {
	UID      string   `json:"uid"`            // 唯一識別碼
	GameName string   `json:"game"`           // 要玩的遊戲
	GameId   spec.GID `json:"gid"`            // 遊戲機台編號
	Bet      int      `json:"bet"`            // 投注額（0 表示沿用機台設定）
	Count    int      `json:"count"`          // Sim 專用：模擬轉數
	Seed     *int64   `json:"seed,omitempty"` // Sim 專用：指定種子
}

// DecodeSpinRequest 會把 HTTP 請求解碼成 SpinRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（uid/game/gid/bet/count/seed）。
//   - POST：從 JSON body 反序列化。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何遊戲合法性校驗；
//     合法性（例如該 GID 是否存在、bet 是否可用）應由上層（Engine/Runtime）決定。
//   - 為避免過大 body 影響服務，POST 會對 body 做大小限制（預設 1MiB）。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(SpinRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.UID = q.Get("uid")
		req.GameName = q.Get("game")

		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
			}
			req.GameId = spec.GID(u)
		}

		if s := q.Get("bet"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid bet: %v", err))
			}
			req.Bet = v
		}

		if s := q.Get("count"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid count: %v", err))
			}
			req.Count = v
		}

		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = &v
		}

		return req, nil

	case http.MethodPost:
		// 防止 body 過大（預設 1MiB）
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}
