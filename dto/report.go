package dto

import (
	"github.com/zintix-labs/reellab/spec"
	"github.com/zintix-labs/reellab/stats"
)

// SelfTestItem 是自檢清單中的單一項目。
type SelfTestItem struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
}

// SelfTestReport 是一次完整自檢的結果。
// 自檢本身永不回傳 error：任何失敗都記在清單裡。
type SelfTestReport struct {
	GameName string         `json:"game"`
	GameID   spec.GID       `json:"gameid"`
	Seed     int64          `json:"seed"`
	Pass     bool           `json:"pass"`
	Items    []SelfTestItem `json:"items"`
}

// Passed 回報是否全部項目通過。
func (r *SelfTestReport) Passed() bool {
	for _, it := range r.Items {
		if !it.Pass {
			return false
		}
	}
	return true
}

// SimReport 包裝模擬統計與執行參數，供 server / CLI 輸出。
type SimReport struct {
	Rounds  int               `json:"rounds"`
	Workers int               `json:"workers"`
	Seed    int64             `json:"seed"`
	Used    string            `json:"used"`
	Report  *stats.StatReport `json:"report"`
}

// PlayersReport 是多玩家資金曲線模擬的彙總。
type PlayersReport struct {
	Players    int     `json:"players"`
	Busts      int     `json:"busts"`     // 破產離場
	Cashouts   int     `json:"cashouts"`  // 達停利線離場
	Survivors  int     `json:"survivors"` // 跑完轉數仍在場
	AvgBalance float64 `json:"avg_balance"`
	MaxBalance int     `json:"max_balance"`
	MinBalance int     `json:"min_balance"`
}
