package recorder

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/buf"
)

// Journal 逐筆落檔器
//
// 每轉一行 JSON，整個串流過 zstd 壓縮。長模擬跑數百萬轉時
// 原始 JSON-lines 會膨脹到數 GB，壓縮後通常剩 2~5%。
type Journal struct {
	w      io.WriteCloser
	zw     *zstd.Encoder
	enc    *json.Encoder
	owns   bool
	round  int
	closed bool
}

// JournalEntry 是 Journal 內單轉的落檔結構。
type JournalEntry struct {
	Round   int     `json:"round"`
	Bet     int     `json:"bet"`
	Win     bool    `json:"win"`
	Payout  int     `json:"payout"`
	Stops   []int   `json:"stops"`
	Screen  []int16 `json:"screen"`
	MultSum int     `json:"mult_sum"`
}

// NewJournal 在 w 上建立壓縮日誌；w 的關閉由呼叫端負責。
func NewJournal(w io.Writer) (*Journal, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, errs.Wrap(err, "new journal failed")
	}
	return &Journal{zw: zw, enc: json.NewEncoder(zw)}, nil
}

// NewJournalFile 建立以檔案為底的壓縮日誌；Close 時一併關檔。
func NewJournalFile(path string) (*Journal, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(err, "create journal file failed")
	}
	j, err := NewJournal(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	j.w = f
	j.owns = true
	return j, nil
}

// Append 寫入一轉。round 由 Journal 自行遞增。
func (j *Journal) Append(bet int, o *buf.Outcome) error {
	if j.closed {
		return errs.NewWarn("journal already closed")
	}
	j.round++

	e := JournalEntry{
		Round:   j.round,
		Bet:     bet,
		Win:     o.Win,
		Payout:  o.Payout(bet),
		Stops:   o.Stops[:],
		Screen:  o.Screen,
		MultSum: o.MultSum,
	}
	if err := j.enc.Encode(&e); err != nil {
		return errs.Wrap(err, "journal append failed")
	}
	return nil
}

// Rounds 回傳已寫入的轉數。
func (j *Journal) Rounds() int {
	return j.round
}

// Close 沖出壓縮尾塊；重複 Close 無害。
func (j *Journal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.zw.Close(); err != nil {
		return errs.Wrap(err, "close journal failed")
	}
	if j.owns && j.w != nil {
		if err := j.w.Close(); err != nil {
			return errs.Wrap(err, "close journal file failed")
		}
	}
	return nil
}

//---------------------------------------

// ReadJournal 讀回整份日誌，逐筆呼叫 fn；fn 回傳 false 提前停止。
func ReadJournal(r io.Reader, fn func(e *JournalEntry) bool) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errs.Wrap(err, "open journal reader failed")
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e JournalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return errs.Wrap(err, "decode journal entry failed")
		}
		if !fn(&e) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return errs.Wrap(err, "read journal failed")
	}
	return nil
}

// ReadJournalFile 是 ReadJournal 的檔案版。
func ReadJournalFile(path string, fn func(e *JournalEntry) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(err, "open journal file failed")
	}
	defer f.Close()
	return ReadJournal(f, fn)
}
