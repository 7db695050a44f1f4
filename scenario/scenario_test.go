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

package scenario

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"

	"GravityCore/physics"
	"GravityCore/world"
)

const binary = `
name: binary
dt: 0.01
auto-orbit: true
bodies:
  - name: sun
    mass: 1000
    position: [0, 0]
    locked: true
  - name: planet
    mass: 1
    position: [100, 0]
  - name: probe
    mass: 0.5
    position: [0, -40]
    velocity: [3, 0]
    center-of-mass: [0, 1]
    gravity: false
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(binary))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "binary" || s.Dt != 0.01 || !s.AutoOrbit || len(s.Bodies) != 3 {
		t.Fatalf("scenario = %+v", s)
	}
	sun, probe := s.Bodies[0], s.Bodies[2]
	if !sun.Locked || !sun.TakesPartInGravity() || sun.Mass != 1000 {
		t.Errorf("sun = %+v", sun)
	}
	if probe.TakesPartInGravity() || probe.Velocity != [2]float32{3, 0} || probe.CenterOfMass != [2]float32{0, 1} {
		t.Errorf("probe = %+v", probe)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("name: x\ndt: 1\nbodies: []\ntheta: 0.5\n"))
	if err == nil {
		t.Fatal("unknown field accepted")
	}
	t.Log(err)
}

func TestValidate(t *testing.T) {
	s := &Scenario{
		Dt: 0,
		Bodies: []Body{
			{Name: "ok", Mass: 1},
			{Name: "negative", Mass: -1},
			{Name: "far", Mass: 1, Position: [2]float32{math32.Inf(1), 0}},
		},
	}
	err := s.Validate()
	if !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("err = %v, want ErrInvalidScenario", err)
	}
	// Всі три проблеми в одній помилці
	if joined, ok := err.(interface{ Unwrap() []error }); !ok || len(joined.Unwrap()) != 3 {
		t.Errorf("err = %v", err)
	}

	s.Dt = 0.1
	s.Bodies = s.Bodies[:1]
	if err := s.Validate(); err != nil {
		t.Errorf("valid scenario rejected: %v", err)
	}
}

// Колова орбіта: v = sqrt(G*M/r), перпендикулярно до радіуса
func TestSetOrbitalVelocities(t *testing.T) {
	s, err := Parse([]byte(binary))
	if err != nil {
		t.Fatal(err)
	}
	s.SetOrbitalVelocities(1)

	planet := s.Bodies[1]
	want := math32.Sqrt(1000.0 / 100)
	if planet.Velocity[0] != 0 || math32.Abs(planet.Velocity[1]-want) > 1e-5 {
		t.Errorf("planet velocity = %v, want (0, %v)", planet.Velocity, want)
	}
	// Тіло з власною швидкістю не чіпаємо
	if probe := s.Bodies[2]; probe.Velocity != [2]float32{3, 0} {
		t.Errorf("probe velocity changed to %v", probe.Velocity)
	}
	if sun := s.Bodies[0]; sun.Velocity != [2]float32{} {
		t.Errorf("central body got velocity %v", sun.Velocity)
	}
}

func TestPopulate(t *testing.T) {
	s, err := Parse([]byte(binary))
	if err != nil {
		t.Fatal(err)
	}
	space := physics.NewSpace()
	ids, err := s.Populate(space)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || space.Len() != 3 {
		t.Fatalf("ids = %v", ids)
	}
	if g := space.GravityBodies(); len(g) != 2 || g[0] != ids[0] || g[1] != ids[1] {
		t.Errorf("GravityBodies = %v", g)
	}
	probe, _ := space.Body(ids[2])
	if probe.LocalCenterOfMass != (world.Vec2{0, 1}) || probe.Velocity != (world.Vec2{3, 0}) {
		t.Errorf("probe = %+v", probe)
	}
}

func TestSaveLoad(t *testing.T) {
	s, err := Parse([]byte(binary))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != s.Name || len(loaded.Bodies) != len(s.Bodies) || loaded.Bodies[2].TakesPartInGravity() {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}
