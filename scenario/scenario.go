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

// Йоу, чат! Сценарій - це YAML файл з початковим станом симуляції:
// які тіла є, де вони стоять, як швидко летять і який крок часу.
// Приклад:
//
//	name: binary
//	dt: 0.01
//	auto-orbit: true
//	bodies:
//	  - name: sun
//	    mass: 1000
//	    position: [0, 0]
//	    locked: true
//	  - name: planet
//	    mass: 1
//	    position: [100, 0]

package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"GravityCore/physics"
	"GravityCore/world"
)

// ErrInvalidScenario - сценарій прочитався, але в ньому погані значення
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario - вміст файлу сценарію
type Scenario struct {
	Name      string  `yaml:"name" json:"name" jsonschema:"description=Human readable scenario name"`
	Dt        float32 `yaml:"dt" json:"dt" jsonschema:"description=Integration step in seconds,minimum=0"`
	AutoOrbit bool    `yaml:"auto-orbit,omitempty" json:"auto-orbit,omitempty" jsonschema:"description=Give resting bodies a circular orbit around the first body"`
	Bodies    []Body  `yaml:"bodies" json:"bodies"`
}

// Body - одне тіло сценарію
type Body struct {
	Name         string     `yaml:"name,omitempty" json:"name,omitempty"`
	Mass         float32    `yaml:"mass" json:"mass" jsonschema:"minimum=0"`
	Position     [2]float32 `yaml:"position" json:"position"`
	Velocity     [2]float32 `yaml:"velocity,omitempty" json:"velocity,omitempty"`
	CenterOfMass [2]float32 `yaml:"center-of-mass,omitempty" json:"center-of-mass,omitempty" jsonschema:"description=Center of mass offset from the position"`
	// Gravity за замовчуванням true
	Gravity *bool `yaml:"gravity,omitempty" json:"gravity,omitempty" jsonschema:"description=Whether the body takes part in gravity (default true)"`
	Locked  bool  `yaml:"locked,omitempty" json:"locked,omitempty" jsonschema:"description=Locked bodies never move"`
}

// TakesPartInGravity повертає значення Gravity з урахуванням замовчування
func (b *Body) TakesPartInGravity() bool {
	return b.Gravity == nil || *b.Gravity
}

// Load читає і перевіряє сценарій з файлу
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse читає сценарій з YAML.
// Невідомі поля - помилка, щоб одруківка не губилась мовчки.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save записує сценарій у файл
func (s *Scenario) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func finite(v ...float32) bool {
	for _, x := range v {
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Validate перевіряє всі значення і повертає всі знайдені проблеми разом
func (s *Scenario) Validate() error {
	var errs []error
	if !(s.Dt > 0) || !finite(s.Dt) {
		errs = append(errs, fmt.Errorf("%w: dt must be > 0, got %v", ErrInvalidScenario, s.Dt))
	}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if !(b.Mass >= 0) || !finite(b.Mass) {
			errs = append(errs, fmt.Errorf("%w: body %d (%s): mass %v", ErrInvalidScenario, i, b.Name, b.Mass))
		}
		if !finite(b.Position[0], b.Position[1], b.Velocity[0], b.Velocity[1], b.CenterOfMass[0], b.CenterOfMass[1]) {
			errs = append(errs, fmt.Errorf("%w: body %d (%s): non-finite coordinates", ErrInvalidScenario, i, b.Name))
		}
	}
	return errors.Join(errs...)
}

// SetOrbitalVelocities дає кожному тілу зі швидкістю 0 колову орбіту
// навколо першого тіла: v = sqrt(G*M/r), перпендикулярно до радіуса.
// Закріплені тіла і тіла без гравітації не чіпаємо.
func (s *Scenario) SetOrbitalVelocities(g float32) {
	if len(s.Bodies) == 0 {
		return
	}
	central := s.Bodies[0] // перше тіло вважаємо центральним
	for i := 1; i < len(s.Bodies); i++ {
		b := &s.Bodies[i]
		if b.Velocity != [2]float32{} || b.Locked || !b.TakesPartInGravity() {
			continue
		}
		dx := b.Position[0] - central.Position[0]
		dy := b.Position[1] - central.Position[1]
		r := math32.Hypot(dx, dy)
		if r == 0 {
			continue // у самому центрі орбіти немає
		}
		v := math32.Sqrt(g * central.Mass / r)
		b.Velocity = [2]float32{
			central.Velocity[0] - dy/r*v,
			central.Velocity[1] + dx/r*v,
		}
	}
}

// Populate створює тіла сценарію в просторі і повертає їхні ідентифікатори
// в тому ж порядку
func (s *Scenario) Populate(space *physics.Space) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.Bodies))
	for i := range s.Bodies {
		b := &s.Bodies[i]
		id, err := space.AddBody(physics.BodyDef{
			Name:              b.Name,
			Mass:              b.Mass,
			Position:          world.Vec2(b.Position),
			Velocity:          world.Vec2(b.Velocity),
			LocalCenterOfMass: world.Vec2(b.CenterOfMass),
			Gravity:           b.TakesPartInGravity(),
			Locked:            b.Locked,
		})
		if err != nil {
			return ids, fmt.Errorf("body %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
