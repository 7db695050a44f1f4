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

// Йоу, чат! Сьогодні ми розберемо як працює гравітаційне BVH дерево!
// Кожен лист - це одне тіло, кожна гілка - рівно два піддерева.
// У кожному вузлі лежить агрегат: прямокутник, маса і центр мас
// всього, що під ним. Вузли живуть в одному слайсі (арені) і
// посилаються один на одного індексами, а не вказівниками:
// так перебудова дерева кожен тік не смикає збирач сміття.

package bvh

import (
	"container/heap"
	"fmt"
	"strings"
)

// nullNode - індекс "немає вузла"
const nullNode int32 = -1

// node - вузол BVH дерева
type node[K comparable] struct {
	Aggregate          // дані піддерева
	key       K        // ідентифікатор тіла (тільки в листах)
	parent    int32    // батьківський вузол
	children  [2]int32 // дочірні вузли (nullNode для листів)
}

func (n *node[K]) isLeaf() bool { return n.children[0] == nullNode }

// findAnotherChild повертає інший дочірній вузол (не not)
func (n *node[K]) findAnotherChild(not int32) int32 {
	if n.children[0] == not {
		return n.children[1]
	} else if n.children[1] == not {
		return n.children[0]
	}
	panic("unreachable, please make sure the 'not' is the n's child")
}

// findChildSlot повертає номер слоту, в якому лежить child
func (n *node[K]) findChildSlot(child int32) int {
	if n.children[0] == child {
		return 0
	} else if n.children[1] == child {
		return 1
	}
	panic("unreachable, please make sure the 'child' is the n's child")
}

// Policy - стратегія вибору місця для нового листа
type Policy uint8

const (
	// PolicyGreedy спускається від кореня, щоразу обираючи дитину,
	// чия площа після об'єднання з новим листом буде меншою
	PolicyGreedy Policy = iota
	// PolicyBestSibling шукає найкращого сусіда по всьому дереву
	// (branch and bound по периметру)
	PolicyBestSibling
)

func (p Policy) String() string {
	switch p {
	case PolicyGreedy:
		return "greedy"
	case PolicyBestSibling:
		return "best-sibling"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy перетворює назву з конфігу в Policy
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "greedy":
		return PolicyGreedy, nil
	case "best-sibling":
		return PolicyBestSibling, nil
	}
	return 0, fmt.Errorf("unknown insert policy %q", name)
}

// Tree - BVH дерево
// Нульове значення - порожнє дерево з PolicyGreedy.
type Tree[K comparable] struct {
	Policy Policy

	nodes  []node[K]   // арена вузлів
	free   []int32     // звільнені слоти арени
	root   int32       // корінь (має сенс тільки коли дерево не порожнє)
	leaves map[K]int32 // тіло -> його лист

	order []int // робочий буфер для Build
}

// New створює порожнє дерево з вказаною стратегією вставки
func New[K comparable](policy Policy) *Tree[K] {
	return &Tree[K]{
		Policy: policy,
		root:   nullNode,
		leaves: make(map[K]int32),
	}
}

// Len повертає кількість тіл у дереві
func (t *Tree[K]) Len() int { return len(t.leaves) }

// Root повертає агрегат всього дерева
func (t *Tree[K]) Root() (Aggregate, bool) {
	if len(t.leaves) == 0 {
		return Aggregate{}, false
	}
	return t.nodes[t.root].Aggregate, true
}

// Lookup повертає агрегат листа для тіла
func (t *Tree[K]) Lookup(key K) (Aggregate, bool) {
	i, ok := t.leaves[key]
	if !ok {
		return Aggregate{}, false
	}
	return t.nodes[i].Aggregate, true
}

// Insert додає новий лист в дерево
// Алгоритм:
// 1. Якщо дерево пусте - новий лист стає коренем
// 2. Стратегія знаходить сусіда для нового листа
// 3. Місце сусіда займає нова гілка {сусід, новий лист}
// 4. Оновлюємо агрегати вгору по дереву
func (t *Tree[K]) Insert(key K, data Aggregate) error {
	if !(data.Mass > 0) {
		return fmt.Errorf("insert %v: %w: %v", key, ErrInvalidMass, data.Mass)
	}
	if !data.Valid() {
		return fmt.Errorf("insert %v: %w", key, ErrInvalidPosition)
	}
	if _, ok := t.leaves[key]; ok {
		return fmt.Errorf("insert %v: %w", key, ErrDuplicateBody)
	}
	if t.leaves == nil {
		t.leaves = make(map[K]int32)
	}

	leaf := t.allocate(node[K]{
		Aggregate: data,
		key:       key,
		parent:    nullNode,
		children:  [2]int32{nullNode, nullNode},
	})
	t.leaves[key] = leaf
	if len(t.leaves) == 1 {
		t.root = leaf
		return nil
	}

	var sibling int32
	switch t.Policy {
	case PolicyBestSibling:
		sibling = t.bestSibling(data.Bounds)
	default:
		sibling = t.greedySibling(data.Bounds)
	}
	t.attach(sibling, leaf)
	return nil
}

// Remove видаляє тіло з дерева і повертає агрегат його листа.
// Брат видаленого листа займає місце їхнього батька.
func (t *Tree[K]) Remove(key K) (Aggregate, error) {
	leaf, ok := t.leaves[key]
	if !ok {
		return Aggregate{}, fmt.Errorf("remove %v: %w", key, ErrUnknownBody)
	}
	data := t.nodes[leaf].Aggregate
	parent := t.nodes[leaf].parent
	delete(t.leaves, key)
	t.release(leaf)

	if parent == nullNode {
		// Якщо видаляємо корінь - дерево стає пустим
		t.root = nullNode
		return data, nil
	}

	sibling := t.nodes[parent].findAnotherChild(leaf)
	grand := t.nodes[parent].parent
	t.nodes[sibling].parent = grand
	if grand == nullNode {
		// Якщо батько - корінь, брат стає новим коренем
		t.root = sibling
	} else {
		// Інакше брат займає місце батька
		g := &t.nodes[grand]
		g.children[g.findChildSlot(parent)] = sibling
	}
	t.release(parent)
	t.refit(grand)
	return data, nil
}

// Update замінює агрегат тіла: видаляє лист і вставляє заново.
// Невалідні дані відхиляються до видалення, тож тіло не губиться.
func (t *Tree[K]) Update(key K, data Aggregate) error {
	if !(data.Mass > 0) {
		return fmt.Errorf("update %v: %w: %v", key, ErrInvalidMass, data.Mass)
	}
	if !data.Valid() {
		return fmt.Errorf("update %v: %w", key, ErrInvalidPosition)
	}
	if _, err := t.Remove(key); err != nil {
		return err
	}
	return t.Insert(key, data)
}

// Reset очищує дерево, але зберігає виділену пам'ять арени
func (t *Tree[K]) Reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = nullNode
	clear(t.leaves)
}

// Item - тіло для побудови дерева
type Item[K comparable] struct {
	Key  K
	Data Aggregate
}

// Build перебудовує дерево з нуля.
// Тіла розкладаються на binCount смуг уздовж довшої осі і вставляються
// смуга за смугою, тому сусіди по простору потрапляють у дерево поспіль.
// binCount <= 1 зберігає порядок items.
func (t *Tree[K]) Build(items []Item[K], binCount int) error {
	t.Reset()
	t.order = binOrder(t.order[:0], items, binCount)
	for _, i := range t.order {
		if err := t.Insert(items[i].Key, items[i].Data); err != nil {
			return err
		}
	}
	return nil
}

// binOrder повертає індекси items, відсортовані по смугах (стабільно)
func binOrder[K comparable](order []int, items []Item[K], binCount int) []int {
	bounds := EmptyAABB()
	for _, it := range items {
		bounds = bounds.Extend(it.Data.CenterOfMass)
	}
	axis := 0
	if size := bounds.Size(); size[1] > size[0] {
		axis = 1
	}
	extent := bounds.Size()[axis]
	if binCount <= 1 || len(items) == 0 || !(extent > 0) {
		for i := range items {
			order = append(order, i)
		}
		return order
	}

	bin := func(it Item[K]) int {
		b := int((it.Data.CenterOfMass[axis] - bounds.Lower[axis]) / extent * float32(binCount))
		return min(max(b, 0), binCount-1)
	}
	// Сортування підрахунком: скільки тіл у кожній смузі
	counts := make([]int, binCount+1)
	for _, it := range items {
		counts[bin(it)+1]++
	}
	for i := 1; i < len(counts); i++ {
		counts[i] += counts[i-1]
	}
	start := len(order)
	order = append(order, make([]int, len(items))...)
	for i, it := range items {
		b := bin(it)
		order[start+counts[b]] = i
		counts[b]++
	}
	return order
}

// allocate кладе вузол в арену, перевикористовуючи вільні слоти
func (t *Tree[K]) allocate(n node[K]) int32 {
	if k := len(t.free); k > 0 {
		i := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[i] = n
		return i
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// release повертає слот арени у вільний список
func (t *Tree[K]) release(i int32) {
	t.nodes[i] = node[K]{parent: nullNode, children: [2]int32{nullNode, nullNode}}
	t.free = append(t.free, i)
}

// attach ставить нову гілку {sibling, leaf} на місце sibling
func (t *Tree[K]) attach(sibling, leaf int32) {
	oldParent := t.nodes[sibling].parent
	branch := t.allocate(node[K]{
		Aggregate: t.nodes[sibling].Union(t.nodes[leaf].Aggregate),
		parent:    oldParent,
		children:  [2]int32{sibling, leaf},
	})
	t.nodes[sibling].parent = branch
	t.nodes[leaf].parent = branch

	if oldParent == nullNode {
		t.root = branch
		return
	}
	p := &t.nodes[oldParent]
	p.children[p.findChildSlot(sibling)] = branch
	// Оновлюємо агрегати вгору по дереву
	t.refit(oldParent)
}

// refit перераховує агрегати від i до кореня
func (t *Tree[K]) refit(i int32) {
	for i != nullNode {
		n := &t.nodes[i]
		n.Aggregate = t.nodes[n.children[0]].Union(t.nodes[n.children[1]].Aggregate)
		i = n.parent
	}
}

// greedySibling спускається від кореня до листа.
// На кожній гілці йдемо туди, де площа об'єднання з новим листом менша.
// Нічия: менший периметр, потім ліва дитина.
func (t *Tree[K]) greedySibling(leaf AABB) int32 {
	i := t.root
	for {
		n := &t.nodes[i]
		if n.isLeaf() {
			return i
		}
		l, r := n.children[0], n.children[1]
		lb := t.nodes[l].Bounds.Union(leaf)
		rb := t.nodes[r].Bounds.Union(leaf)
		la, ra := lb.Area(), rb.Area()
		switch {
		case la < ra:
			i = l
		case ra < la:
			i = r
		case rb.Surface() < lb.Surface():
			i = r
		default:
			i = l
		}
	}
}

// bestSibling шукає найкращого сусіда для нового листа
// Вартість сусіда = периметр нової гілки + на скільки виростуть усі предки
func (t *Tree[K]) bestSibling(leaf AABB) int32 {
	sibling := t.root
	bestCost := t.nodes[t.root].Bounds.Union(leaf).Surface()

	// Черга для пошуку найкращого сусіда
	var queue searchHeap
	heap.Push(&queue, searchItem{node: t.root})

	leafCost := leaf.Surface()
	for queue.Len() > 0 {
		p := heap.Pop(&queue).(searchItem)
		n := &t.nodes[p.node]
		// Перевіряємо чи поточний вузол кращий за знайдений
		mergeSurface := n.Bounds.Union(leaf).Surface()
		deltaCost := mergeSurface - n.Bounds.Surface()
		cost := p.inheritedCost + mergeSurface
		if cost < bestCost {
			bestCost = cost
			sibling = p.node
		}
		// Перевіряємо чи варто дивитись дочірні вузли
		inheritedCost := p.inheritedCost + deltaCost
		if !n.isLeaf() && inheritedCost+leafCost < bestCost {
			heap.Push(&queue, searchItem{node: n.children[0], inheritedCost: inheritedCost})
			heap.Push(&queue, searchItem{node: n.children[1], inheritedCost: inheritedCost})
		}
	}
	return sibling
}

// searchHeap - допоміжна структура для пошуку найкращого сусіда
type (
	searchHeap []searchItem
	searchItem struct {
		node          int32   // Індекс вузла
		inheritedCost float32 // Накопичена вартість шляху
	}
)

// Реалізація інтерфейсу heap.Interface
func (h searchHeap) Len() int           { return len(h) }
func (h searchHeap) Less(i, j int) bool { return h[i].inheritedCost < h[j].inheritedCost }
func (h searchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *searchHeap) Push(x any)        { *h = append(*h, x.(searchItem)) }
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Stats - форма дерева
type Stats struct {
	Leaves   int // кількість листів
	Branches int // кількість гілок
	Depth    int // глибина (корінь-лист має глибину 1)
}

// Stats обходить дерево і рахує листи, гілки і глибину
func (t *Tree[K]) Stats() (s Stats) {
	if len(t.leaves) == 0 {
		return
	}
	type frame struct {
		node  int32
		depth int
	}
	stack := []frame{{t.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.Depth = max(s.Depth, f.depth)
		n := &t.nodes[f.node]
		if n.isLeaf() {
			s.Leaves++
			continue
		}
		s.Branches++
		stack = append(stack, frame{n.children[0], f.depth + 1}, frame{n.children[1], f.depth + 1})
	}
	return
}

// Find шукає всі листи, що задовольняють умову test.
// Гілки, для яких test повертає false, пропускаються цілком, тому test
// має бути монотонним (якщо не торкається батька - не торкається і дітей).
// Обхід зупиняється, коли foreach повертає false.
func (t *Tree[K]) Find(test func(bound AABB) bool, foreach func(key K, data Aggregate) bool) {
	if len(t.leaves) == 0 {
		return
	}
	stack := make([]int32, 0, 32)
	stack = append(stack, t.root)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if !test(n.Bounds) {
			continue
		}
		if n.isLeaf() {
			if !foreach(n.key, n.Aggregate) {
				return
			}
			continue
		}
		stack = append(stack, n.children[1], n.children[0])
	}
}

// Query викликає fn для кожного тіла, чий центр мас лежить у box
func (t *Tree[K]) Query(box AABB, fn func(key K, data Aggregate) bool) {
	t.Find(TouchBound(box), func(key K, data Aggregate) bool {
		if !box.WithIn(data.CenterOfMass) {
			return true
		}
		return fn(key, data)
	})
}

// TouchPoint створює функцію для пошуку об'ємів, що містять точку
func TouchPoint(point Vec2f) func(bound AABB) bool {
	return func(bound AABB) bool {
		return bound.WithIn(point)
	}
}

// TouchBound створює функцію для пошуку об'ємів, що перетинаються з іншим
func TouchBound(other AABB) func(bound AABB) bool {
	return func(bound AABB) bool {
		return bound.Touch(other)
	}
}

// Validate перевіряє інваріанти дерева:
// кожна гілка має рівно двох дітей, батьківські посилання правильні,
// агрегат гілки дорівнює об'єднанню агрегатів дітей,
// а кожне тіло з таблиці - рівно один досяжний лист.
func (t *Tree[K]) Validate() error {
	if len(t.leaves) == 0 {
		return nil
	}
	if p := t.nodes[t.root].parent; p != nullNode {
		return fmt.Errorf("root %d has parent %d", t.root, p)
	}
	seen := 0
	stack := []int32{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if n.isLeaf() {
			if n.children[1] != nullNode {
				return fmt.Errorf("leaf %d has a stray child %d", i, n.children[1])
			}
			if j, ok := t.leaves[n.key]; !ok || j != i {
				return fmt.Errorf("leaf %d (%v) is not in entity table", i, n.key)
			}
			seen++
			continue
		}
		for _, c := range n.children {
			if c == nullNode {
				return fmt.Errorf("node %d has only one child", i)
			}
			if t.nodes[c].parent != i {
				return fmt.Errorf("node %d: child %d points to parent %d", i, c, t.nodes[c].parent)
			}
		}
		want := t.nodes[n.children[0]].Union(t.nodes[n.children[1]].Aggregate)
		if want.Bounds != n.Bounds || want.Mass != n.Mass || want.CenterOfMass != n.CenterOfMass {
			return fmt.Errorf("node %d: stale aggregate %+v, want %+v", i, n.Aggregate, want)
		}
		stack = append(stack, n.children[0], n.children[1])
	}
	if seen != len(t.leaves) {
		return fmt.Errorf("%d leaves reachable, %d bodies in entity table", seen, len(t.leaves))
	}
	return nil
}

// String повертає текстове представлення дерева
func (t *Tree[K]) String() string {
	if len(t.leaves) == 0 {
		return "{}"
	}
	var sb strings.Builder
	t.format(&sb, t.root)
	return sb.String()
}

func (t *Tree[K]) format(sb *strings.Builder, i int32) {
	n := &t.nodes[i]
	if n.isLeaf() {
		fmt.Fprint(sb, n.key)
		return
	}
	sb.WriteByte('{')
	t.format(sb, n.children[0])
	sb.WriteString(", ")
	t.format(sb, n.children[1])
	sb.WriteByte('}')
}
