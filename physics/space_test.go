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

package physics

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"GravityCore/world"
)

func mustAdd(t *testing.T, s *Space, def BodyDef) uuid.UUID {
	t.Helper()
	id, err := s.AddBody(def)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSpace_AddBody(t *testing.T) {
	s := NewSpace()
	for _, def := range []BodyDef{
		{Name: "negative", Mass: -1},
		{Name: "nan", Mass: math32.NaN()},
		{Name: "inf position", Mass: 1, Position: world.Vec2{math32.Inf(1), 0}},
		{Name: "nan velocity", Mass: 1, Velocity: world.Vec2{0, math32.NaN()}},
	} {
		if _, err := s.AddBody(def); !errors.Is(err, ErrInvalidBody) {
			t.Errorf("%s: err = %v, want ErrInvalidBody", def.Name, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("rejected bodies were added: %d", s.Len())
	}
}

func TestSpace_GravityBodies(t *testing.T) {
	s := NewSpace()
	a := mustAdd(t, s, BodyDef{Name: "a", Mass: 1, Gravity: true})
	mustAdd(t, s, BodyDef{Name: "dust", Mass: 1})
	c := mustAdd(t, s, BodyDef{Name: "c", Mass: 2, Gravity: true})

	ids := s.GravityBodies()
	if len(ids) != 2 || ids[0] != a || ids[1] != c {
		t.Errorf("GravityBodies = %v, want [%v %v]", ids, a, c)
	}
}

// Видалення зберігає порядок і не ламає пошук
func TestSpace_RemoveBody(t *testing.T) {
	s := NewSpace()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, mustAdd(t, s, BodyDef{Mass: float32(i + 1), Gravity: true}))
	}
	if !s.RemoveBody(ids[1]) {
		t.Fatal("RemoveBody returned false")
	}
	if s.RemoveBody(ids[1]) {
		t.Error("second RemoveBody returned true")
	}
	want := []uuid.UUID{ids[0], ids[2], ids[3], ids[4]}
	for i, b := range s.Bodies() {
		if b.ID != want[i] {
			t.Fatalf("body %d = %v, want %v", i, b.ID, want[i])
		}
		if got, ok := s.Body(b.ID); !ok || got != b {
			t.Fatalf("Body(%v) lookup is broken", b.ID)
		}
	}
	if _, ok := s.Transform(ids[1]); ok {
		t.Error("removed body still has a transform")
	}
}

func TestSpace_Step(t *testing.T) {
	s := NewSpace()
	free := mustAdd(t, s, BodyDef{Mass: 2})
	locked := mustAdd(t, s, BodyDef{Mass: 2, Position: world.Vec2{5, 5}, Velocity: world.Vec2{1, 1}, Locked: true})
	massless := mustAdd(t, s, BodyDef{Velocity: world.Vec2{0, 4}})

	for _, id := range []uuid.UUID{free, locked, massless} {
		s.AddForce(id, world.Vec2{1, 0})
		s.AddForce(id, world.Vec2{1, 0})
	}
	s.Step(0.5)

	// a = F/m = 1, v = 0.5, x = v*dt = 0.25
	b, _ := s.Body(free)
	if b.Velocity != (world.Vec2{0.5, 0}) || b.Position != (world.Vec2{0.25, 0}) {
		t.Errorf("free body: v=%v x=%v", b.Velocity, b.Position)
	}
	b, _ = s.Body(locked)
	if b.Velocity != (world.Vec2{}) || b.Position != (world.Vec2{5, 5}) {
		t.Errorf("locked body moved: v=%v x=%v", b.Velocity, b.Position)
	}
	b, _ = s.Body(massless)
	if b.Velocity != (world.Vec2{0, 4}) || b.Position != (world.Vec2{0, 2}) {
		t.Errorf("massless body: v=%v x=%v", b.Velocity, b.Position)
	}

	// Накопичувачі обнулені
	for _, b := range s.Bodies() {
		if b.Force != (world.Vec2{}) {
			t.Errorf("force of %v was not reset: %v", b.ID, b.Force)
		}
	}
}

func TestSpace_MassProperties(t *testing.T) {
	s := NewSpace()
	id := mustAdd(t, s, BodyDef{Mass: 3, LocalCenterOfMass: world.Vec2{0, 1}})
	mp, ok := s.MassProperties(id)
	if !ok || mp.Mass != 3 || mp.LocalCenterOfMass != (world.Vec2{0, 1}) {
		t.Errorf("MassProperties = %+v, %v", mp, ok)
	}
	if _, ok := s.MassProperties(uuid.New()); ok {
		t.Error("unknown body has mass properties")
	}
	if !s.SetTransform(id, world.Vec2{7, 8}) {
		t.Fatal("SetTransform failed")
	}
	if p, _ := s.Transform(id); p != (world.Vec2{7, 8}) {
		t.Errorf("Transform = %v", p)
	}
}
