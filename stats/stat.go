package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/reellab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 機台模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	isDone  bool

	bet    int
	bucket *WinBucket
}

type SummaryReport struct {
	GameName    string   `json:"GameName"`
	GameId      spec.GID `json:"GameId"`
	Bet         int      `json:"Bet"`
	Rounds      int      `json:"Rounds"`
	Wins        int      `json:"Wins"`
	TotalBet    int      `json:"TotalBet"`
	TotalWin    int      `json:"TotalWin"`
	MaxWinMult  int      `json:"MaxWinMult"`
	Exhausted   int      `json:"Exhausted"`
	WinRate     float64  `json:"WinRate"`
	WinRateCI   CI       `json:"WinRateCI"`
	RTP         float64  `json:"RTP"`
	RtpCI       CI       `json:"RtpCI"`
	Std         float64  `json:"Std"`
	Cv          float64  `json:"Cv"`
	NoWinRounds int      `json:"NoWinRounds"`
}

// MultReport 贏倍統計
//
// 紀錄時只累積和與平方和，避免逐轉統計成本。Done() 時才整理結果。
type MultReport struct {
	WinMultSum   float64 `json:"WinMultSum"`
	WinMultSqSum float64 `json:"WinMultSqSum"` // 平方和
}

// DistReport 贏分區間落點統計
type DistReport struct {
	WinBucket  []string  `json:"WinBucket"`
	WinCollect []int     `json:"WinCollect"`
	WinDist    []float64 `json:"WinDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// NewStatReport 建立指定機台設定的空統計報告。
func NewStatReport(gameName string, gameId spec.GID, bet int) *StatReport {
	labels := Buckets.WinBucketStr()
	return &StatReport{
		Summary: &SummaryReport{
			GameName: gameName,
			GameId:   gameId,
			Bet:      bet,
		},
		Mult: &MultReport{},
		Dist: &DistReport{
			WinBucket:  labels,
			WinCollect: make([]int, len(labels)),
			WinDist:    make([]float64, len(labels)),
		},
		bet:    bet,
		bucket: Buckets.GetBucketByBetUnit(bet),
	}
}

// Record 紀錄一轉的結果：win 是派彩（0 表示輸局），exhausted 是
// 本轉輸局生成是否走了 fallback。
func (s *StatReport) Record(win int, exhausted bool) {
	s.Summary.Rounds++
	s.Summary.TotalBet += s.bet
	s.Summary.TotalWin += win
	if exhausted {
		s.Summary.Exhausted++
	}

	if win == 0 {
		s.Summary.NoWinRounds++
	} else {
		s.Summary.Wins++
		if m := win / s.bet; m > s.Summary.MaxWinMult {
			s.Summary.MaxWinMult = m
		}
	}

	mult := float64(win) / float64(s.bet)
	s.Mult.WinMultSum += mult
	s.Mult.WinMultSqSum += mult * mult

	s.Dist.WinCollect[s.bucket.Index(win)]++
}

// Merge 合併另一份報告（平行模擬的分片彙總）。兩份報告必須同押注。
func (s *StatReport) Merge(o *StatReport) {
	if o == nil {
		return
	}
	if o.bet != s.bet {
		panic("stats: merging reports with different bets")
	}
	s.Summary.Rounds += o.Summary.Rounds
	s.Summary.Wins += o.Summary.Wins
	s.Summary.TotalBet += o.Summary.TotalBet
	s.Summary.TotalWin += o.Summary.TotalWin
	s.Summary.Exhausted += o.Summary.Exhausted
	s.Summary.NoWinRounds += o.Summary.NoWinRounds
	if o.Summary.MaxWinMult > s.Summary.MaxWinMult {
		s.Summary.MaxWinMult = o.Summary.MaxWinMult
	}
	s.Mult.WinMultSum += o.Mult.WinMultSum
	s.Mult.WinMultSqSum += o.Mult.WinMultSqSum
	for i, v := range o.Dist.WinCollect {
		s.Dist.WinCollect[i] += v
	}
}

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 熱路徑只累積整數與和，所有浮點統計（RTP/勝率/CI/Std）在這裡
// 一次性計算。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.WinRate = s.WinRate()
	s.Summary.WinRateCI = s.WinRateCi()
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()

	if s.Summary.Rounds > 0 {
		rounds := float64(s.Summary.Rounds)
		for i, v := range s.Dist.WinCollect {
			s.Dist.WinDist[i] = float64(v) / rounds
		}
	}

	s.isDone = true
}

// WinRate 回傳中獎轉數比例
func (s *StatReport) WinRate() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return float64(s.Summary.Wins) / float64(s.Summary.Rounds)
}

// WinRateCi 回傳勝率的 Clopper–Pearson 95% 信賴區間
func (s *StatReport) WinRateCi() CI {
	_, ci := ProportionCICP(s.Summary.Wins, s.Summary.Rounds, 0.95)
	return ci
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.TotalBet == 0 {
		return 0
	}
	return float64(s.Summary.TotalWin) / float64(s.Summary.TotalBet)
}

// Std 回傳單轉贏倍的標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	multPow := s.Mult.WinMultSum * s.Mult.WinMultSum
	variance := (s.Mult.WinMultSqSum - multPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance)
}

// Cv 回傳單轉贏倍的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	std := s.Std()
	if rtp <= 0 {
		return 0
	}
	return std / rtp
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	ci := CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
	return ci
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Rounds)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.GameName, sk, sm)
	fmt.Println(str)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

// StdOut

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", s.Summary.GameName),
		"Game ID":      fmt.Sprintf("%d", s.Summary.GameId),
		"Total Rounds": p.Sprintf("%d", s.Summary.Rounds),
		"Win Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.WinRate),
		"WinRate CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.WinRateCI.Lo, 100.0*s.Summary.WinRateCI.Hi),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Total Bet":    p.Sprintf("%d", s.Summary.TotalBet),
		"Total Win":    p.Sprintf("%d", s.Summary.TotalWin),
		"Max Win Mult": p.Sprintf("%d x", s.Summary.MaxWinMult),
		"NoWin Rounds": p.Sprintf("%d", s.Summary.NoWinRounds),
		"Exhausted":    p.Sprintf("%d", s.Summary.Exhausted),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Game Name", "Game ID", "Total Rounds", "Win Rate", "WinRate CI", "Total RTP", "RTP 95% CI", "Total Bet", "Total Win", "Max Win Mult", "NoWin Rounds", "Exhausted", "STD", "CV"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
