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

// Йоу, чат! Це найпростіший фізичний рушій, який тільки можна придумати.
// Він не знає про зіткнення чи обертання: тіла мають позицію, швидкість,
// масу і накопичувач сил. Крок - напівнеявний Ейлер:
// спочатку швидкість від сили, потім позиція від нової швидкості.

package physics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"GravityCore/world"
)

// ErrInvalidBody - тіло з NaN/Inf або від'ємною масою
var ErrInvalidBody = errors.New("invalid body")

// BodyDef - опис тіла при створенні
type BodyDef struct {
	Name              string
	Mass              float32    // маса, 0 - тіло не прискорюється
	Position          world.Vec2 // позиція
	Velocity          world.Vec2 // початкова швидкість
	LocalCenterOfMass world.Vec2 // зміщення центру мас відносно позиції
	Gravity           bool       // чи бере участь у гравітації
	Locked            bool       // закріплене тіло нікуди не рухається
}

// Body - тіло в просторі
type Body struct {
	BodyDef
	ID    uuid.UUID
	Force world.Vec2 // накопичені за крок зовнішні сили
}

// Space - набір тіл у порядку створення.
// Не потокобезпечний: крокує той самий потік, що й світ.
type Space struct {
	bodies []*Body
	index  map[uuid.UUID]int
}

var _ world.Backend = (*Space)(nil)

// NewSpace створює порожній простір
func NewSpace() *Space {
	return &Space{index: make(map[uuid.UUID]int)}
}

func finite(v world.Vec2) bool {
	return !math32.IsNaN(v[0]) && !math32.IsInf(v[0], 0) &&
		!math32.IsNaN(v[1]) && !math32.IsInf(v[1], 0)
}

// AddBody створює тіло і повертає його ідентифікатор
// Нульова маса дозволена (таке тіло не прискорюється),
// але гравітація його до дерева не пустить.
func (s *Space) AddBody(def BodyDef) (uuid.UUID, error) {
	if math32.IsNaN(def.Mass) || math32.IsInf(def.Mass, 0) || def.Mass < 0 {
		return uuid.Nil, fmt.Errorf("add body %q: %w: mass %v", def.Name, ErrInvalidBody, def.Mass)
	}
	if !finite(def.Position) || !finite(def.Velocity) || !finite(def.LocalCenterOfMass) {
		return uuid.Nil, fmt.Errorf("add body %q: %w: position %v velocity %v", def.Name, ErrInvalidBody, def.Position, def.Velocity)
	}
	id := uuid.New()
	s.index[id] = len(s.bodies)
	s.bodies = append(s.bodies, &Body{BodyDef: def, ID: id})
	return id, nil
}

// RemoveBody видаляє тіло, зберігаючи порядок решти
func (s *Space) RemoveBody(id uuid.UUID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bodies = slices.Delete(s.bodies, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.bodies); j++ {
		s.index[s.bodies[j].ID] = j
	}
	return true
}

// Body повертає тіло за ідентифікатором
func (s *Space) Body(id uuid.UUID) (*Body, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.bodies[i], true
}

// Bodies повертає всі тіла в порядку створення
func (s *Space) Bodies() []*Body { return s.bodies }

// Len повертає кількість тіл
func (s *Space) Len() int { return len(s.bodies) }

// GravityBodies повертає тіла з позначкою гравітації
func (s *Space) GravityBodies() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.bodies))
	for _, b := range s.bodies {
		if b.Gravity {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Transform повертає позицію тіла
func (s *Space) Transform(id uuid.UUID) (world.Vec2, bool) {
	b, ok := s.Body(id)
	if !ok {
		return world.Vec2{}, false
	}
	return b.Position, true
}

// SetTransform телепортує тіло
func (s *Space) SetTransform(id uuid.UUID, position world.Vec2) bool {
	b, ok := s.Body(id)
	if ok {
		b.Position = position
	}
	return ok
}

// MassProperties повертає масу і зміщення центру мас
func (s *Space) MassProperties(id uuid.UUID) (world.MassProperties, bool) {
	b, ok := s.Body(id)
	if !ok {
		return world.MassProperties{}, false
	}
	return world.MassProperties{Mass: b.Mass, LocalCenterOfMass: b.LocalCenterOfMass}, true
}

// AddForce додає силу до накопичувача тіла
func (s *Space) AddForce(id uuid.UUID, force world.Vec2) {
	if b, ok := s.Body(id); ok {
		b.Force = b.Force.Add(force)
	}
}

// ResetForces обнуляє накопичувачі всіх тіл
func (s *Space) ResetForces() {
	for _, b := range s.bodies {
		b.Force = world.Vec2{}
	}
}

// Step рухає тіла на dt і обнуляє накопичувачі
func (s *Space) Step(dt float32) {
	for _, b := range s.bodies {
		switch {
		case b.Locked:
			// закріплене тіло не рухаємо
			b.Velocity = world.Vec2{}
		case b.Mass > 0:
			// Напівнеявний Ейлер: спочатку швидкість
			b.Velocity = b.Velocity.Add(b.Force.Mul(dt / b.Mass))
			fallthrough
		default:
			// потім позиція за новою швидкістю
			b.Position = b.Position.Add(b.Velocity.Mul(dt))
		}
	}
	s.ResetForces()
}

// Momentum повертає сумарний імпульс усіх тіл
func (s *Space) Momentum() world.Vec2 {
	var p world.Vec2
	for _, b := range s.bodies {
		p = p.Add(b.Velocity.Mul(b.Mass))
	}
	return p
}
