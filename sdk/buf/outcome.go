package buf

import (
	"github.com/zintix-labs/reellab/spec"
)

// LineHit 是一筆中獎紀錄：哪條線、匹配到哪筆賠付項、該項倍數。
type LineHit struct {
	Line  int // 線表索引
	Entry int // 賠付表索引（設定檔順序）
	Mult  int // 賠率倍數
}

// Outcome 保存一次 Spin 的完整盤面結果，供熱路徑重複使用。
//
// Engine 每次 Spin 前呼叫 Reset，算分與生成直接往裡面寫，
// 避免每轉一次就配置一批切片。單一 Outcome 不可跨 goroutine 共用。
type Outcome struct {
	Stops  [spec.Cols]int // 每輪停點（輪帶索引）
	Screen []int16        // 3×5 盤面快照，row-major：idx = row*Cols + col
	Hits   []LineHit      // 所有中獎線（線索引遞增）
	Win    bool           // 本轉是否中獎
	// MultSum 是全部中獎線倍數總和；派彩 = Bet * MultSum。
	MultSum int
	// Exhausted 記錄輸局生成是否耗盡重試、走了決定性 fallback。
	// 只作觀測用途，不影響結果合法性。
	Exhausted bool
}

// NewOutcome 建立一個預先配置好容量的 Outcome。
func NewOutcome(lineCount int) *Outcome {
	return &Outcome{
		Screen: make([]int16, spec.Cols*spec.Rows),
		Hits:   make([]LineHit, 0, lineCount),
	}
}

// Reset 清空結果，保留已配置容量。
func (o *Outcome) Reset() {
	for i := range o.Stops {
		o.Stops[i] = 0
	}
	o.Hits = o.Hits[:0]
	o.Win = false
	o.MultSum = 0
	o.Exhausted = false
}

// AddHit 追加一筆中獎線並累積倍數。
func (o *Outcome) AddHit(line int, entry int, mult int) {
	o.Hits = append(o.Hits, LineHit{Line: line, Entry: entry, Mult: mult})
	o.MultSum += mult
}

// Payout 回傳指定押注下的派彩。
func (o *Outcome) Payout(bet int) int {
	return bet * o.MultSum
}
