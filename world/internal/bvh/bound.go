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

// Йоу, чат! Сьогодні розбираємо обмежувальний прямокутник AABB.
// У гравітаційному дереві він робить дві роботи:
// - агрегує, де лежать тіла піддерева (для критерію theta)
// - служить метрикою вартості, коли ми вирішуємо куди вставити нове тіло

package bvh

import "github.com/chewxy/math32"

// AABB - прямокутник, вирівняний по осях координат
type AABB struct {
	Upper, Lower Vec2f // Верхня та нижня точки прямокутника
}

// EmptyAABB повертає порожній прямокутник.
// Lower = +Inf, Upper = -Inf, тому будь-яке об'єднання чи розширення
// з реальною точкою одразу стискається до неї.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Upper: Vec2f{-inf, -inf},
		Lower: Vec2f{inf, inf},
	}
}

// PointAABB - прямокутник нульового розміру навколо точки
func PointAABB(p Vec2f) AABB {
	return AABB{Upper: p, Lower: p}
}

// Empty перевіряє чи прямокутник ще не містить жодної точки
func (aabb AABB) Empty() bool {
	return aabb.Lower[0] > aabb.Upper[0] || aabb.Lower[1] > aabb.Upper[1]
}

// WithIn перевіряє чи точка знаходиться всередині AABB (межі включно)
func (aabb AABB) WithIn(point Vec2f) bool {
	return aabb.Lower[0] <= point[0] && aabb.Lower[1] <= point[1] &&
		point[0] <= aabb.Upper[0] && point[1] <= aabb.Upper[1]
}

// Touch перевіряє чи перетинаються два AABB
func (aabb AABB) Touch(other AABB) bool {
	return aabb.Lower[0] <= other.Upper[0] && other.Lower[0] <= aabb.Upper[0] &&
		aabb.Lower[1] <= other.Upper[1] && other.Lower[1] <= aabb.Upper[1]
}

// Contains перевіряє чи other повністю лежить всередині aabb.
// Порожній прямокутник міститься у будь-якому.
func (aabb AABB) Contains(other AABB) bool {
	if other.Empty() {
		return true
	}
	return aabb.WithIn(other.Lower) && aabb.WithIn(other.Upper)
}

// Union повертає найменший AABB, що містить обидва вхідні AABB
func (aabb AABB) Union(other AABB) AABB {
	return AABB{
		Upper: aabb.Upper.Max(other.Upper), // Беремо максимум верхніх точок
		Lower: aabb.Lower.Min(other.Lower), // Беремо мінімум нижніх точок
	}
}

// Extend розширює AABB так, щоб він містив точку
func (aabb AABB) Extend(point Vec2f) AABB {
	return aabb.Union(PointAABB(point))
}

// Size повертає ширину і висоту
func (aabb AABB) Size() Vec2f {
	return aabb.Upper.Sub(aabb.Lower)
}

// Area повертає площу прямокутника.
// На порожньому AABB результат не має сенсу, викликати тільки після
// хоча б одного Extend.
func (aabb AABB) Area() float32 {
	d := aabb.Size()
	return d[0] * d[1]
}

// Surface повертає периметр. Для точок на одній прямій площа завжди 0,
// а периметр все ще розрізняє щільні та розтягнуті прямокутники.
func (aabb AABB) Surface() float32 {
	return aabb.Size().Sum() * 2
}

// MaxSide повертає більшу сторону - оцінку фізичного розміру піддерева
func (aabb AABB) MaxSide() float32 {
	d := aabb.Size()
	return max(d[0], d[1])
}

// Center повертає центр прямокутника
func (aabb AABB) Center() Vec2f {
	return aabb.Lower.Add(aabb.Upper).Mul(0.5)
}
