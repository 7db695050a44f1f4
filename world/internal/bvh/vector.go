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

// Йоу, чат! Тут живуть вектори, з якими рахує наше гравітаційне дерево.
// Симуляція двовимірна, тому нам вистачає Vec2.

package bvh

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// Vec2 - двовимірний вектор
// I може бути будь-яким числовим типом (int, float32 тощо)
type Vec2[I constraints.Signed | constraints.Float] [2]I

// Vec2f - вектор, з яким працює ядро (усі розрахунки у float32)
type Vec2f = Vec2[float32]

// Add додає інший вектор до поточного
func (v Vec2[I]) Add(other Vec2[I]) Vec2[I] { return Vec2[I]{v[0] + other[0], v[1] + other[1]} }

// Sub віднімає інший вектор від поточного
func (v Vec2[I]) Sub(other Vec2[I]) Vec2[I] { return Vec2[I]{v[0] - other[0], v[1] - other[1]} }

// Mul множить вектор на скаляр
func (v Vec2[I]) Mul(i I) Vec2[I] { return Vec2[I]{v[0] * i, v[1] * i} }

// Max повертає вектор з максимальними координатами
func (v Vec2[I]) Max(other Vec2[I]) Vec2[I] { return Vec2[I]{max(v[0], other[0]), max(v[1], other[1])} }

// Min повертає вектор з мінімальними координатами
func (v Vec2[I]) Min(other Vec2[I]) Vec2[I] { return Vec2[I]{min(v[0], other[0]), min(v[1], other[1])} }

// Dot - скалярний добуток
func (v Vec2[I]) Dot(other Vec2[I]) I { return v[0]*other[0] + v[1]*other[1] }

// Sum повертає суму всіх координат
func (v Vec2[I]) Sum() I { return v[0] + v[1] }

// Len повертає довжину вектора
func Len(v Vec2f) float32 { return math32.Hypot(v[0], v[1]) }

// Finite перевіряє що жодна координата не NaN і не Inf.
// NaN у позиції одного тіла отруїть масу й центр мас усіх предків у дереві.
func Finite(v Vec2f) bool {
	return !math32.IsNaN(v[0]) && !math32.IsNaN(v[1]) &&
		!math32.IsInf(v[0], 0) && !math32.IsInf(v[1], 0)
}
