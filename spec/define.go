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

// Package spec 定義機台設定檔（GameSetting）與其所有子設定。
//
// 設定檔以 YAML/JSON 描述，經 Init 檢查並預處理成熱路徑可直接使用的
// 資料（int16 圖標 id、平坦化線表、展開後的賠付樣式）。
// 所有驗證失敗都以 errs.Config 回報：帶出錯欄位、約束與實際值，
// 讓呼叫端能直接組出可操作的錯誤訊息。
package spec

// GID 遊戲唯一識別碼。
type GID uint64

// 盤面固定為 3×5：Cols 個轉輪，每輪可見 Rows 個圖標。
// 盤面以 row-major 一維化：idx = row*Cols + col。
const (
	Cols = 5
	Rows = 3
)

// 輪帶長度限制。
const (
	MinStripLen     = 20
	MaxStripLen     = 512
	DefaultStripLen = 48
)

// Wildcard 是賠付樣式中的萬用 token；展開後以 WildID 表示。
const Wildcard = "*"

// WildID 是展開後樣式中的萬用圖標 id（任何圖標都能匹配）。
const WildID int16 = -1
