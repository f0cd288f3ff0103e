package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/reellab/spec"
	"github.com/zintix-labs/reellab/stats"
)

// DistStat 離線統計輸入：一串原始派彩（每局一筆，0 表示輸）。
// 用途：前端或腳本存了原始結果後，重新計算報表而不必重跑模擬。
type DistStat struct {
	GameName string   `json:"game_name"`
	GID      spec.GID `json:"gid"`
	Bet      int      `json:"bet"`
	Wins     []int    `json:"wins"`
}

func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dst.Bet < 1 {
		http.Error(w, "bet must > 0", http.StatusBadRequest)
		return
	}
	if len(dst.Wins) < 1 {
		http.Error(w, "wins must not be empty", http.StatusBadRequest)
		return
	}

	// 重建報表：逐局回放原始派彩
	st := stats.NewStatReport(dst.GameName, dst.GID, dst.Bet)
	for _, win := range dst.Wins {
		if win < 0 {
			http.Error(w, "win must >= 0", http.StatusBadRequest)
			return
		}
		st.Record(win, false)
	}
	st.Done()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
