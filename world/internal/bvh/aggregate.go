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

// Йоу, чат! Агрегат - це "підсумок" піддерева: де воно лежить,
// скільки важить і де його центр мас. Саме завдяки агрегатам
// Barnes-Hut може не заходити в кожен лист.

package bvh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var (
	// ErrInvalidMass - маса тіла не додатна (або NaN/Inf)
	ErrInvalidMass = errors.New("invalid mass")
	// ErrInvalidPosition - позиція або зміщення центру мас не скінченні
	ErrInvalidPosition = errors.New("invalid position")
	// ErrDuplicateBody - тіло з таким ключем вже є в дереві
	ErrDuplicateBody = errors.New("body already in tree")
	// ErrUnknownBody - тіла з таким ключем немає в дереві
	ErrUnknownBody = errors.New("body not in tree")
	// ErrInvalidAggregate - обхід натрапив на зіпсований вузол
	ErrInvalidAggregate = errors.New("invalid aggregate")
)

// Aggregate - дані вузла дерева
type Aggregate struct {
	Bounds       AABB    // прямокутник навколо всіх тіл піддерева
	Mass         float32 // сумарна маса
	CenterOfMass Vec2f   // центр мас, зважений по масах
}

// NewLeafAggregate будує агрегат листа для одного тіла.
// position - позиція тіла, localCenterOfMass - зміщення центру мас
// відносно неї. Прямокутник листа охоплює обидві точки.
func NewLeafAggregate(position, localCenterOfMass Vec2f, mass float32) (Aggregate, error) {
	if !(mass > 0) || math32.IsInf(mass, 0) {
		return Aggregate{}, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}
	if !Finite(position) || !Finite(localCenterOfMass) {
		return Aggregate{}, fmt.Errorf("%w: %v + %v", ErrInvalidPosition, position, localCenterOfMass)
	}
	com := position.Add(localCenterOfMass)
	if !Finite(com) {
		return Aggregate{}, fmt.Errorf("%w: center of mass %v overflows", ErrInvalidPosition, com)
	}
	return Aggregate{
		Bounds:       PointAABB(position).Extend(com),
		Mass:         mass,
		CenterOfMass: com,
	}, nil
}

// Union об'єднує два агрегати.
// Якщо сумарна маса нульова, ділити немає на що: центр мас
// береться з центру прямокутника. Вставка не пропускає тіл з масою <= 0,
// тому в дереві цей випадок недосяжний.
func (a Aggregate) Union(b Aggregate) Aggregate {
	bounds := a.Bounds.Union(b.Bounds)
	mass := a.Mass + b.Mass
	if mass == 0 {
		return Aggregate{Bounds: bounds, CenterOfMass: bounds.Center()}
	}
	return Aggregate{
		Bounds: bounds,
		Mass:   mass,
		CenterOfMass: a.CenterOfMass.Mul(a.Mass).
			Add(b.CenterOfMass.Mul(b.Mass)).
			Mul(1 / mass),
	}
}

// Valid перевіряє що агрегат можна використовувати в розрахунку сили
func (a Aggregate) Valid() bool {
	return a.Mass >= 0 && !math32.IsInf(a.Mass, 0) &&
		Finite(a.CenterOfMass) &&
		!a.Bounds.Empty() && Finite(a.Bounds.Lower) && Finite(a.Bounds.Upper)
}
