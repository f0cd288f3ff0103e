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

// Package reellab 提供拉霸模擬引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 負責把兩個必需的地基組裝在一起，並提供建立 Engine 的入口：
//  1. Catalog：遊戲目錄（Single Source of Truth / SSOT），定義有哪些遊戲、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Engine 是對外提供 Spin 的最小單位；引擎的遊戲規則（結果導向生成 + 線算分）由設定檔完全決定。
//   - 使用流程分兩階段：組裝階段（建 catalog、檢查重複與缺漏）→ 執行階段（依遊戲 ID 建 Engine / Simulator）。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Lab 建立 Engine（通常透過 EnginePool），Engine 對外提供 Spin。
//   - 模擬器（sim）：由 Lab 建立 Simulator 進行大量模擬與統計。
package reellab

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/reellab/catalog"
	"github.com/zintix-labs/reellab/errs"
	"github.com/zintix-labs/reellab/sdk/core"
	"github.com/zintix-labs/reellab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是組裝器與運行入口。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Lab instance」內。
//   - 你要跑哪一批遊戲、哪一套設定檔，必須由 New() 的參數明確決定。
//   - runtime 一旦開始（例如已建立 Engine 並對外服務），不建議再變更 Catalog。
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary
}

// New 建立一個 Lab instance（組裝階段入口）。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 GameSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, cf: cf}, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance：
// 掃描全部設定來源、註冊所有遊戲並凍結目錄。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.GameSetting，並用設定檔內宣告的 GameID/GameName 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：會依檔名排序後再處理，確保行為 determinism（方便重現與除錯）。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.GID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				gs   *spec.GameSetting
				gerr error
			)
			switch ext {
			case ".yaml", ".yml":
				gs, gerr = spec.GetGameSettingByYAML(raw)
			case ".json":
				gs, gerr = spec.GetGameSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if gerr != nil {
				return errs.Wrap(gerr, fmt.Sprintf("parse gamesetting failed: %s", base))
			}

			name := strings.TrimSpace(gs.GameName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("game name required: %s", base))
			}

			id := gs.GameID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := l.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("game id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := l.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("game name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				GID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryById(id spec.GID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []spec.GID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

// Summary 回傳全部遊戲的列表摘要；第一次呼叫後快取。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	sum, err := l.cat.Summaries()
	if err != nil {
		return nil, err
	}
	l.sum = sum
	return l.sum, nil
}

// NewEngine 依據 Catalog 內的遊戲 ID 建立一台 Engine。
//
// 行為：
//  1. 由 Catalog 取得對應的 GameSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 以 PRNGFactory 產生 RNG 核心：設定檔有 seed 用設定檔的（可重現），
//     否則由 crypto/rand 產生（對外服務避免可預測 RNG）。
//
// 注意：seed 會被記錄在 Engine 內（initseed），用於追溯/重現；
// 真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (l *Lab) NewEngine(id spec.GID) (*Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newEngine(gs, l.cf)
}

// NewEngineWithSeed 與 NewEngine 相同，但由呼叫端指定初始 seed
// （覆蓋設定檔 seed）。同一份設定 + 同一個 seed ⇒ 一致的結果序列。
func (l *Lab) NewEngineWithSeed(id spec.GID, seed int64) (*Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newEngineWithSeed(gs, l.cf, seed)
}

// NewEngineByYAML 以外部 YAML 設定建立 Engine；設定必須對應目錄內
// 已註冊的遊戲（防止走私未知設定進 runtime）。
func (l *Lab) NewEngineByYAML(raw []byte, seed int64) (*Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(cfg); err != nil {
		return nil, err
	}
	return newEngineWithSeed(cfg, l.cf, seed)
}

// NewEngineByJSON 同 NewEngineByYAML，來源為 JSON。
func (l *Lab) NewEngineByJSON(raw []byte, seed int64) (*Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(cfg); err != nil {
		return nil, err
	}
	return newEngineWithSeed(cfg, l.cf, seed)
}

func (l *Lab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := l.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := l.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

func (l *Lab) NewSimulator(id spec.GID) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(gs, l.cf)
}

func (l *Lab) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, l.cf, seed)
}

// NewSimulatorByJSON 以外部 JSON 設定建立 Simulator；設定必須對應目錄內
// 已註冊的遊戲（與 NewEngineByJSON 同一套防走私約束）。
func (l *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, l.cf, seed)
}

// NewSimulatorByYAML 同 NewSimulatorByJSON，來源為 YAML。
func (l *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, l.cf, seed)
}

// BuildRuntime 為目錄內每個遊戲建立一個 EnginePool，進入服務狀態。
func (l *Lab) BuildRuntime(poolSize int) (*Runtime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	l.Freeze()

	ids := l.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}

	rt := &Runtime{
		lab:      l,
		pools:    make(map[spec.GID]*EnginePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		gs, err := l.cat.GameSettingById(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		ep, err := newEnginePool(rt.poolSize, gs, l.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = ep
	}
	return rt, nil
}
