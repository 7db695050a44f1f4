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

// Йоу, чат! Сьогодні ми розберемо як працює тік гравітаційного світу!
// Тік - це один крок симуляції. За тік світ:
// 1. Підтягує в дерево нові тіла і викидає зниклі
// 2. Оновлює дерево згідно з UpdateMode
// 3. Рахує силу на кожне тіло обходом Barnes-Hut
// 4. Інколи звіряє сили з точним розрахунком
// 5. Віддає сили бекенду, і той рухає тіла

package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"GravityCore/world/internal/bvh"
)

// Run крутить тіки, поки не скасують ctx або не пройде steps тіків
// (steps == 0 - без обмеження). limiter задає темп, nil - так швидко, як можна.
func (w *World) Run(ctx context.Context, dt float32, limiter *rate.Limiter, steps uint64) error {
	w.log.Info("Run start", zap.Float32("dt", dt), zap.Uint64("steps", steps))
	for i := uint64(0); steps == 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				// Wait теж повертає помилку, якщо дедлайн настане раніше за токен
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
		}
		if err := w.Step(dt); err != nil {
			w.log.Error("Step aborted", zap.Error(err))
			return err
		}
	}
	w.log.Info("Run done", zap.Uint64("ticks", w.Ticks()))
	return nil
}

// Step виконує один тік і просить бекенд проінтегрувати рух на dt.
// Якщо тік не вдався, бекенд не отримує жодної сили і не крокує.
func (w *World) Step(dt float32) error {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()

	n := w.ticks.Load()
	if err := w.tick(n); err != nil {
		return fmt.Errorf("tick %d: %w", n, err)
	}
	w.backend.Step(dt)
	w.ticks.Add(1)
	return nil
}

// tick виконує одне оновлення світу
// Розділений на підтіки, як і раніше
func (w *World) tick(n uint64) error {
	if err := w.subtickUpdateBodies(n); err != nil {
		return err
	}
	if err := w.subtickGravity(); err != nil {
		return err
	}
	if a := w.config.AuditEvery; a > 0 && n%a == 0 {
		if err := w.subtickAudit(n); err != nil {
			return err
		}
	}
	if l := w.config.LogEvery; l > 0 && n%l == 0 {
		s := w.tree.Stats()
		w.log.Info("Tick",
			zap.Uint64("tick", n),
			zap.Int("bodies", s.Leaves),
			zap.Int("depth", s.Depth),
		)
	}

	// Всі сили пораховані, тепер можна віддавати їх бекенду
	for i, it := range w.items {
		w.backend.AddForce(it.Key, w.forces[i])
	}
	return nil
}

// subtickUpdateBodies синхронізує дерево з бекендом
func (w *World) subtickUpdateBodies(n uint64) error {
	// Збираємо всіх учасників з актуальним станом
	w.items = w.items[:0]
	for _, id := range w.backend.GravityBodies() {
		data, err := leafAggregate(w.backend, id)
		if errors.Is(err, errMissingBody) {
			continue // вважаємо зниклим, приберемо нижче
		}
		if err != nil {
			// Невалідне тіло не потрапляє в дерево, а якщо вже там - виходить
			if _, ok := w.bodies[id]; ok {
				w.untrack(id)
			}
			w.reject(id, err)
			continue
		}
		delete(w.rejected, id)
		w.items = append(w.items, bvh.Item[uuid.UUID]{Key: id, Data: data})
	}

	switch w.config.Mode {
	case ModeRebuild:
		if err := w.tree.Build(w.items, w.config.BinCount); err != nil {
			return err
		}
		for _, it := range w.items {
			if b, ok := w.bodies[it.Key]; ok {
				b.leaf, b.seen = it.Data, n
			} else {
				w.enter(it.Key, it.Data, n)
			}
		}
	default:
		for _, it := range w.items {
			b, ok := w.bodies[it.Key]
			switch {
			case !ok:
				if err := w.track(it.Key, it.Data, n); err != nil {
					return err
				}
			case w.config.Mode == ModeReinsert && b.leaf != it.Data:
				if err := w.tree.Update(it.Key, it.Data); err != nil {
					return err
				}
				b.leaf, b.seen = it.Data, n
			default:
				// ModeIncremental: лист лишається там, де тіло було при вставці
				b.seen = n
			}
		}
	}

	// Тіла, яких бекенд більше не називає, виходять з дерева
	for id, b := range w.bodies {
		if b.seen != n {
			w.untrack(id)
		}
	}
	return nil
}

// subtickGravity рахує силу на кожного учасника.
// Дерево в цей момент вже не змінюється.
func (w *World) subtickGravity() error {
	params := bvh.ForceParams{
		G:         w.config.G,
		Theta:     w.config.Theta,
		Softening: w.config.Softening,
	}
	if cap(w.forces) < len(w.items) {
		w.forces = make([]Vec2, len(w.items))
	}
	w.forces = w.forces[:len(w.items)]
	for i, it := range w.items {
		f, err := w.tree.ForceOn(it.Key, it.Data.CenterOfMass, it.Data.Mass, params)
		if err != nil {
			return err
		}
		w.forces[i] = f
	}
	return nil
}

// subtickAudit звіряє наближені сили з прямим перебором і перевіряє дерево.
// В ModeIncremental перебір теж бачить застарілі листи,
// тому тут міряється тільки похибка обходу.
func (w *World) subtickAudit(n uint64) error {
	if err := w.tree.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	params := bvh.ForceParams{
		G:         w.config.G,
		Theta:     w.config.Theta,
		Softening: w.config.Softening,
	}
	var diff, total float64
	for i, it := range w.items {
		exact, err := w.tree.ExactForceOn(it.Key, it.Data.CenterOfMass, it.Data.Mass, params)
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		diff += float64(bvh.Len(w.forces[i].Sub(exact)))
		total += float64(bvh.Len(exact))
	}
	var relative float64
	if total > 0 {
		relative = diff / total
	}
	w.log.Info("Gravity audit",
		zap.Uint64("tick", n),
		zap.Int("bodies", len(w.items)),
		zap.Float64("relative error", relative),
	)
	return nil
}
