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

// Йоу, чат! Сьогодні ми розберемо як світ стежить за тілами.
// Тіло (body) - це будь-який об'єкт бекенду з позначкою гравітації:
// планета, астероїд, зонд. Світ не володіє тілами, він лише пам'ятає,
// які з них вже сидять у BVH дереві і з яким агрегатом.

package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"GravityCore/world/internal/bvh"
)

// Vec2 - 2D вектор, яким світ говорить з бекендом
type Vec2 = bvh.Vec2f

// MassProperties - масові властивості тіла
// LocalCenterOfMass - зміщення центру мас відносно позиції тіла
type MassProperties struct {
	Mass              float32
	LocalCenterOfMass Vec2
}

// Помилки, з якими тіло не пускається в дерево
var (
	ErrInvalidMass     = bvh.ErrInvalidMass
	ErrInvalidPosition = bvh.ErrInvalidPosition
	// ErrInvalidAggregate - обхід дерева натрапив на зіпсовані дані, крок скасовано
	ErrInvalidAggregate = bvh.ErrInvalidAggregate
)

// errMissingBody - бекенд назвав тіло, але не віддав його стан.
// Таке тіло вважається зниклим, а не зламаним.
var errMissingBody = errors.New("body has no transform or mass")

// body - тіло, яке світ вже відстежує
type body struct {
	leaf bvh.Aggregate // агрегат листа на момент останньої вставки
	seen uint64        // номер тіку, в якому бекенд востаннє назвав тіло
}

// leafAggregate читає стан тіла з бекенду і будує агрегат листа
// Повертає помилку якщо:
// 1. Бекенд не знає позиції або маси (errMissingBody)
// 2. Маса <= 0, NaN або Inf (ErrInvalidMass)
// 3. Позиція або зміщення центру мас не скінченні (ErrInvalidPosition)
func leafAggregate(b Backend, id uuid.UUID) (bvh.Aggregate, error) {
	pos, ok := b.Transform(id)
	if !ok {
		return bvh.Aggregate{}, errMissingBody
	}
	mp, ok := b.MassProperties(id)
	if !ok {
		return bvh.Aggregate{}, errMissingBody
	}
	data, err := bvh.NewLeafAggregate(pos, mp.LocalCenterOfMass, mp.Mass)
	if err != nil {
		return bvh.Aggregate{}, fmt.Errorf("body %v: %w", id, err)
	}
	return data, nil
}
