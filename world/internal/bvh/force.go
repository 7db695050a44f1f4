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

// Йоу, чат! Тут рахується гравітація методом Barnes-Hut.
// Замість того щоб питати кожне тіло, ми дивимось на вузол дерева:
// якщо він маленький відносно відстані до нього (s/d < theta),
// то все піддерево тягне нас як одна точкова маса в його центрі мас.
// Інакше спускаємось до дітей.

package bvh

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
)

// ForceParams - параметри закону тяжіння
type ForceParams struct {
	G         float32 // гравітаційна стала
	Theta     float32 // поріг точності: 0 - точний розрахунок, більше - грубіше і швидше
	Softening float32 // пом'якшення: r² замінюється на r² + ε²
}

// ForceOn повертає сумарну силу, з якою всі інші тіла дерева тягнуть
// тіло key, що має масу mass і центр мас у position.
// Лист самого тіла нічого не додає. Якщо наближається гілка, в якій
// сидить саме тіло, його лист віднімається від агрегату гілки.
// Тіло, якого немає в дереві, рахується як зовнішня пробна маса.
// Обхід тільки читає дерево, тому його можна викликати паралельно,
// поки ніхто не вставляє нові листи.
func (t *Tree[K]) ForceOn(key K, position Vec2f, mass float32, p ForceParams) (Vec2f, error) {
	var force Vec2f
	if len(t.leaves) == 0 {
		return force, nil
	}
	eps2 := p.Softening * p.Softening
	gm := p.G * mass

	// Предки листа самого тіла: тільки в їхніх агрегатах є його маса
	self := nullNode
	var ancestors []int32
	if i, ok := t.leaves[key]; ok {
		self = i
		for a := t.nodes[i].parent; a != nullNode; a = t.nodes[a].parent {
			ancestors = append(ancestors, a)
		}
	}

	stack := make([]int32, 0, 64)
	stack = append(stack, t.root)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if !n.Valid() {
			return Vec2f{}, fmt.Errorf("force on %v: %w: node %d %+v", key, ErrInvalidAggregate, i, n.Aggregate)
		}

		leaf := n.isLeaf()
		if leaf && n.key == key {
			continue // тіло не тягне саме себе
		}
		m, com := n.Mass, n.CenterOfMass
		if !leaf {
			// s/d < theta записано як s < theta*d, щоб не ділити на нуль
			d := Len(com.Sub(position))
			if !(n.Bounds.MaxSide() < p.Theta*d) {
				// Вузол занадто близько - дивимось дітей
				stack = append(stack, n.children[1], n.children[0])
				continue
			}
			if self != nullNode && slices.Contains(ancestors, i) {
				m, com = withoutLeaf(n.Aggregate, t.nodes[self].Aggregate)
				if !(m > 0) {
					continue
				}
			}
		}
		force = force.Add(attraction(com.Sub(position), eps2, gm*m))
	}

	if !Finite(force) {
		return Vec2f{}, fmt.Errorf("force on %v: %w: result %v", key, ErrInvalidAggregate, force)
	}
	return force, nil
}

// ExactForceOn рахує ту ж силу прямим перебором усіх листів.
// Це еталон для перевірки точності ForceOn.
func (t *Tree[K]) ExactForceOn(key K, position Vec2f, mass float32, p ForceParams) (Vec2f, error) {
	var force Vec2f
	eps2 := p.Softening * p.Softening
	gm := p.G * mass
	var err error
	t.Find(func(AABB) bool { return true }, func(k K, data Aggregate) bool {
		if !data.Valid() {
			err = fmt.Errorf("exact force on %v: %w: leaf %v", key, ErrInvalidAggregate, k)
			return false
		}
		if k != key {
			force = force.Add(attraction(data.CenterOfMass.Sub(position), eps2, gm*data.Mass))
		}
		return true
	})
	if err != nil {
		return Vec2f{}, err
	}
	return force, nil
}

// withoutLeaf віднімає лист own від агрегату гілки, що його містить:
// маса M-m і центр мас (M*C - m*c)/(M-m)
func withoutLeaf(branch, own Aggregate) (float32, Vec2f) {
	m := branch.Mass - own.Mass
	if !(m > 0) {
		return 0, Vec2f{}
	}
	com := branch.CenterOfMass.Mul(branch.Mass).
		Sub(own.CenterOfMass.Mul(own.Mass)).
		Mul(1 / m)
	return m, com
}

// attraction - сила притягування до точкової маси, що лежить на delta від нас.
// gmm = G * m1 * m2. Для точок, що збігаються, напрямок не визначений,
// тому сила нульова (а не NaN).
func attraction(delta Vec2f, eps2, gmm float32) Vec2f {
	d2 := delta.Dot(delta)
	if d2 == 0 {
		return Vec2f{}
	}
	d := math32.Sqrt(d2)
	// |F| = gmm / (d² + ε²), напрямок delta/d
	return delta.Mul(gmm / ((d2 + eps2) * d))
}
