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

package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap/zaptest"
)

const orbit = `
name: orbit
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
  - name: marker
    mass: 1
    position: [0, 500]
    gravity: false
`

func writeScenario(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Планета на коловій орбіті не тікає і не падає
func TestSimulation_Orbit(t *testing.T) {
	config := DefaultConfig()
	config.Scenario = writeScenario(t, orbit)
	config.Steps = 1000
	config.AuditEvery = 250

	s, err := New(zaptest.NewLogger(t), config)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.World().Ticks() != 1000 {
		t.Errorf("ticks = %d", s.World().Ticks())
	}
	if s.World().Len() != 2 {
		t.Errorf("%d bodies in tree, want 2", s.World().Len())
	}

	bodies := s.Space().Bodies()
	sun, planet, marker := bodies[0], bodies[1], bodies[2]
	if sun.Position != [2]float32{} {
		t.Errorf("locked sun moved to %v", sun.Position)
	}
	if marker.Position != [2]float32{0, 500} {
		t.Errorf("marker without gravity and velocity moved to %v", marker.Position)
	}
	r := math32.Hypot(planet.Position[0], planet.Position[1])
	if math32.Abs(r-100) > 1 {
		t.Errorf("orbit radius drifted to %v", r)
	}
	// За 10 секунд планета проходить помітну частину орбіти
	if planet.Position[1] <= 0 {
		t.Errorf("planet didn't move along the orbit: %v", planet.Position)
	}
}

func TestSimulation_TickLimiter(t *testing.T) {
	config := DefaultConfig()
	config.Scenario = writeScenario(t, orbit)
	config.Steps = 3
	config.TickLimiter = &Limiter{Every: duration{time.Millisecond}, N: 1}

	s, err := New(zaptest.NewLogger(t), config)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.World().Ticks() != 3 {
		t.Errorf("ticks = %d", s.World().Ticks())
	}
}

// Скасування - нормальне завершення
func TestSimulation_Cancel(t *testing.T) {
	config := DefaultConfig()
	config.Scenario = writeScenario(t, orbit)

	s, err := New(zaptest.NewLogger(t), config)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil && err != context.DeadlineExceeded {
		t.Fatal(err)
	}
	cancel()

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Errorf("cancelled run returned %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	config := DefaultConfig()
	config.Scenario = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(zaptest.NewLogger(t), config); err == nil {
		t.Error("missing scenario accepted")
	}

	config.Scenario = writeScenario(t, orbit)
	for _, change := range []func(*Config){
		func(c *Config) { c.InsertPolicy = "random" },
		func(c *Config) { c.UpdateMode = "lazy" },
		func(c *Config) { c.Theta = -0.5 },
	} {
		bad := config
		change(&bad)
		if _, err := New(zaptest.NewLogger(t), bad); err == nil {
			t.Errorf("config %+v accepted", bad)
		}
	}
}

func TestConfig_World(t *testing.T) {
	config := DefaultConfig()
	config.InsertPolicy = "best-sibling"
	config.UpdateMode = "reinsert"
	config.Softening = 0.1
	wc, err := config.World()
	if err != nil {
		t.Fatal(err)
	}
	if wc.Policy.String() != "best-sibling" || wc.Mode.String() != "reinsert" || wc.Softening != 0.1 || wc.BinCount != 8 {
		t.Errorf("world config = %+v", wc)
	}
}

func TestLimiter(t *testing.T) {
	var d duration
	if err := d.UnmarshalText([]byte("50ms")); err != nil || d.Duration != 50*time.Millisecond {
		t.Errorf("duration = %v, %v", d, err)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("bad duration accepted")
	}
	l := (&Limiter{Every: duration{time.Second}, N: 0}).Limiter()
	if l.Burst() != 1 {
		t.Errorf("burst = %d, want 1", l.Burst())
	}
}
