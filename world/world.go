// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Йоу, чат! Сьогодні ми розберемо як влаштований гравітаційний світ!
// Світ тримає BVH дерево тіл, кожен тік підтягує в нього нові тіла,
// рахує для кожного силу тяжіння методом Barnes-Hut і віддає її бекенду.
// Тіла, позиції та інтеграція руху живуть у бекенді, а дерево - тут.

package world

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"GravityCore/world/internal/bvh"
)

// World - головна структура гравітаційного світу
type World struct {
	log     *zap.Logger // логер для відлагодження
	config  Config      // конфігурація світу
	backend Backend     // фізичний рушій з тілами

	// tree - BVH дерево тіл, ключ листа - ідентифікатор тіла
	tree     *bvh.Tree[uuid.UUID]
	bodies   map[uuid.UUID]*body    // тіла, що вже сидять у дереві
	rejected map[uuid.UUID]struct{} // тіла, про які вже попередили в лозі
	tickLock sync.Mutex             // м'ютекс для синхронізації тіків

	// робочі буфери тіку, щоб не виділяти пам'ять щоразу
	items  []bvh.Item[uuid.UUID]
	forces []Vec2

	ticks atomic.Uint64 // кількість завершених тіків
}

// Config - налаштування світу
type Config struct {
	G         float32 // гравітаційна стала
	Theta     float32 // поріг Barnes-Hut, 0 - точний розрахунок
	Softening float32 // пом'якшення на малих відстанях
	BinCount  int     // кількість смуг для перебудови дерева

	Policy Policy     // як шукати місце для нового листа
	Mode   UpdateMode // що робити з тілами, які рухаються

	AuditEvery uint64 // як часто звіряти сили з точним розрахунком (0 - ніколи)
	LogEvery   uint64 // як часто писати стан дерева в лог (0 - ніколи)
}

// DefaultConfig повертає налаштування за замовчуванням
func DefaultConfig() Config {
	return Config{
		G:        1,
		Theta:    0.5,
		BinCount: 8,
		Policy:   PolicyGreedy,
		Mode:     ModeRebuild,
	}
}

// Validate перевіряє що з такими налаштуваннями можна рахувати
func (c Config) Validate() error {
	switch {
	case !finite(c.G):
		return fmt.Errorf("g must be finite, got %v", c.G)
	case !(c.Theta >= 0):
		return fmt.Errorf("theta must be >= 0, got %v", c.Theta)
	case !(c.Softening >= 0) || !finite(c.Softening):
		return fmt.Errorf("softening must be finite and >= 0, got %v", c.Softening)
	case c.BinCount < 0:
		return fmt.Errorf("bin-count must be >= 0, got %d", c.BinCount)
	}
	return nil
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// Типи дерева, які видно зовні
type (
	Policy = bvh.Policy // стратегія вставки
	Stats  = bvh.Stats  // форма дерева
)

const (
	PolicyGreedy      = bvh.PolicyGreedy
	PolicyBestSibling = bvh.PolicyBestSibling
)

// ParsePolicy перетворює назву з конфігу в Policy
func ParsePolicy(name string) (Policy, error) { return bvh.ParsePolicy(name) }

// UpdateMode - що робити з деревом, коли тіла рухаються
type UpdateMode uint8

const (
	// ModeRebuild перебудовує дерево з нуля кожен тік
	ModeRebuild UpdateMode = iota
	// ModeReinsert виймає і вставляє заново тільки тіла, що змінились
	ModeReinsert
	// ModeIncremental тільки додає нові тіла, старі листи застарівають
	ModeIncremental
)

func (m UpdateMode) String() string {
	switch m {
	case ModeRebuild:
		return "rebuild"
	case ModeReinsert:
		return "reinsert"
	case ModeIncremental:
		return "incremental"
	}
	return fmt.Sprintf("UpdateMode(%d)", uint8(m))
}

// ParseMode перетворює назву з конфігу в UpdateMode
func ParseMode(name string) (UpdateMode, error) {
	switch name {
	case "", "rebuild":
		return ModeRebuild, nil
	case "reinsert":
		return ModeReinsert, nil
	case "incremental":
		return ModeIncremental, nil
	}
	return 0, fmt.Errorf("unknown update mode %q", name)
}

// New створює новий світ над бекендом
func New(logger *zap.Logger, backend Backend, config Config) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errors.New("world: nil backend")
	}
	w := &World{
		log:      logger,
		config:   config,
		backend:  backend,
		tree:     bvh.New[uuid.UUID](config.Policy),
		bodies:   make(map[uuid.UUID]*body),
		rejected: make(map[uuid.UUID]struct{}),
	}
	w.log.Debug("World created",
		zap.Float32("g", config.G),
		zap.Float32("theta", config.Theta),
		zap.Float32("softening", config.Softening),
		zap.Int("bin count", config.BinCount),
		zap.Stringer("policy", config.Policy),
		zap.Stringer("mode", config.Mode),
	)
	return w, nil
}

// Ticks повертає кількість завершених тіків.
// Можна викликати з будь-якої горутини.
func (w *World) Ticks() uint64 { return w.ticks.Load() }

// Len повертає кількість тіл у дереві
func (w *World) Len() int {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	return w.tree.Len()
}

// Stats повертає форму дерева
func (w *World) Stats() Stats {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	return w.tree.Stats()
}

// Tracked повідомляє чи сидить тіло в дереві
func (w *World) Tracked(id uuid.UUID) bool {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	_, ok := w.bodies[id]
	return ok
}

// TotalMass повертає сумарну масу і центр мас усіх тіл у дереві
func (w *World) TotalMass() (mass float32, centerOfMass Vec2) {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	root, ok := w.tree.Root()
	if !ok {
		return 0, Vec2{}
	}
	return root.Mass, root.CenterOfMass
}

// BodiesIn повертає тіла, чий центр мас лежить у прямокутнику [lower, upper]
func (w *World) BodiesIn(lower, upper Vec2) []uuid.UUID {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	var ids []uuid.UUID
	w.tree.Query(bvh.AABB{Lower: lower, Upper: upper}, func(id uuid.UUID, _ bvh.Aggregate) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// track додає тіло в дерево
func (w *World) track(id uuid.UUID, data bvh.Aggregate, n uint64) error {
	if err := w.tree.Insert(id, data); err != nil {
		return err
	}
	w.enter(id, data, n)
	return nil
}

// enter запам'ятовує нове тіло
func (w *World) enter(id uuid.UUID, data bvh.Aggregate, n uint64) {
	w.bodies[id] = &body{leaf: data, seen: n}
	w.log.Debug("Body enter",
		zap.Stringer("body", id),
		zap.Float32("mass", data.Mass),
		zap.Float32("x", data.CenterOfMass[0]),
		zap.Float32("y", data.CenterOfMass[1]),
	)
}

// untrack видаляє тіло з дерева
func (w *World) untrack(id uuid.UUID) {
	delete(w.bodies, id)
	if w.config.Mode != ModeRebuild {
		if _, err := w.tree.Remove(id); err != nil {
			w.log.Panic("tracked body is not found in the tree", zap.Stringer("body", id), zap.Error(err))
		}
	}
	w.log.Debug("Body left", zap.Stringer("body", id))
}

// reject попереджає про тіло, яке не можна пустити в дерево.
// Кожне тіло логується один раз, поки знову не стане валідним.
func (w *World) reject(id uuid.UUID, err error) {
	if _, ok := w.rejected[id]; ok {
		return
	}
	w.rejected[id] = struct{}{}
	w.log.Warn("Body rejected", zap.Stringer("body", id), zap.Error(err))
}
