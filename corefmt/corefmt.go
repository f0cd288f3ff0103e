// Package corefmt 提供亂數核心快照的傳輸編碼。
//
// 快照本體是不透明的 []byte（sdk/core 定義格式），這裡只負責
// 讓它安全通過各種通道：JSON/HTTP 用 Base64URL、日誌用 Hex、
// 檔案與二進位流用長度前綴的 blob frame。
package corefmt

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zintix-labs/reellab/errs"
)

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64 failed")
	}
	return b, err
}

// EncodeBase64URL 是快照走 URL/JSON 時的標準編碼（無 padding）。
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, err
}

// EncodeHex 用於日誌與除錯輸出，比 Base64 長但可直接肉眼比對。
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, err
}

//---------------------------------------

// WriteSnapFrame 把快照寫成長度前綴的二進位 frame：
//
//	frame := uvarint(len(snap)) || snap
//
// 適合落地到檔案或 pipe；此格式不是文字安全的，走 JSON/HTTP
// 請改用 Base64URL。
func WriteSnapFrame(w io.Writer, snap []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(snap)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write snap frame header failed")
	}
	if _, err := w.Write(snap); err != nil {
		return errs.Wrap(err, "write snap frame payload failed")
	}
	return nil
}

// ReadSnapFrame 讀回 WriteSnapFrame 產生的 frame。
//
// maxBytes 是讀取不可信輸入時的安全上限，0 表示不設限。
func ReadSnapFrame(r io.Reader, maxBytes uint64) ([]byte, error) {
	br := bufio.NewReader(r)
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.Wrap(err, "read snap frame header failed")
	}
	if maxBytes > 0 && ln > maxBytes {
		return nil, errs.NewWarn("read snap frame failed: payload exceeds maxBytes")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.Wrap(err, "read snap frame payload failed")
	}
	return buf, nil
}
