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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 是錯誤的業務分類，對應引擎的四種錯誤情境：
//   - KindConfig：設定不合法（機率/押注/籌碼/種子/線表/賠付表），建構期或運行期更新時同步拋出。
//   - KindState：狀態衝突（spin 進行中又 spin、spin 中改設定），以拒絕呼叫處理、不排隊。
//   - KindCredits：籌碼不足以支付本次押注，直接回報、不自動重試。
//   - KindGeneration：輸局生成重試耗盡（內部、非致命），由 fallback 吸收，僅作 warn 記錄。
type Kind uint8

const (
	KindNone Kind = iota
	KindConfig
	KindState
	KindCredits
	KindGeneration
)

var kindMap = map[Kind]string{
	KindNone:       "",
	KindConfig:     "config",
	KindState:      "state",
	KindCredits:    "credits",
	KindGeneration: "generation",
}

func KindName(k Kind) string {
	if str, ok := kindMap[k]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重度；Kind 表示業務分類。
//
// Field / Constraint / Actual 提供結構化的錯誤資料：
// 出錯欄位、被違反的約束、實際拿到的值。呼叫端（UI/HTTP 邊界）可以直接
// 組出可操作的錯誤訊息，而不需要解析 Message 字串。
type E struct {
	Message    string
	Extra      string
	Cause      error
	ErrLv      ErrLevel
	Kind       Kind
	Field      string
	Constraint string
	Actual     any
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), KindName(e.Kind), e.Message)
	}
	if e.Field != "" {
		base += fmt.Sprintf(" | field=%s constraint=%q actual=%v", e.Field, e.Constraint, e.Actual)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤分級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// Config 建立設定錯誤（ConfigurationError）。
//
// field 為出錯欄位、constraint 為違反的約束描述、actual 為實際值。
// 設定錯誤一律為 Fatal：不自動恢復，直接回報給呼叫端。
func Config(field string, constraint string, actual any) *E {
	return &E{
		Message:    fmt.Sprintf("invalid %s: want %s, got %v", field, constraint, actual),
		ErrLv:      Fatal,
		Kind:       KindConfig,
		Field:      field,
		Constraint: constraint,
		Actual:     actual,
	}
}

// State 建立狀態錯誤（StateError）：拒絕當下呼叫，不排隊、不重試。
func State(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Kind: KindState}
}

// Credits 建立籌碼不足錯誤（InsufficientCreditsError）。
func Credits(need int, have int) *E {
	return &E{
		Message:    fmt.Sprintf("insufficient credits: bet %d, balance %d", need, have),
		ErrLv:      Warn,
		Kind:       KindCredits,
		Field:      "credits",
		Constraint: fmt.Sprintf(">= %d", need),
		Actual:     have,
	}
}

// Generation 建立生成耗盡記錄（內部、非致命），僅作觀測用途。
func Generation(msg string) *E {
	return &E{Message: msg, ErrLv: Log, Kind: KindGeneration}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本嚴重度與分類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
//
// 建議使用方式：
//   - 若你已判斷該錯誤是「可預期且可處理」的情境，請直接建立一個 *E
//     （使用 New / Config / State 並自行指定分級），而不要對其呼叫 Wrap。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另附加額外上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsKind 回傳 err（或其包裝鏈）是否屬於指定分類。
func IsKind(err error, k Kind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
