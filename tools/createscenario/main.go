// Йоу, чат! Ця утиліта генерує сценарій "диск": важке закріплене тіло
// в центрі і рій легких тіл навколо.
// Запуск: go run ./tools/createscenario -n 2000 -out scenario.yaml
package main

import (
	"flag"
	"math/rand"

	"github.com/chewxy/math32"

	"GravityCore/scenario"
)

func main() {
	var (
		out         = flag.String("out", "scenario.yaml", "Path to write the scenario")
		name        = flag.String("name", "disc", "Scenario name")
		n           = flag.Int("n", 1000, "Number of orbiting bodies")
		inner       = flag.Float64("inner", 50, "Inner radius of the disc")
		outer       = flag.Float64("outer", 500, "Outer radius of the disc")
		centralMass = flag.Float64("central-mass", 1e5, "Mass of the central body")
		maxMass     = flag.Float64("max-mass", 1, "Maximum mass of an orbiting body")
		dt          = flag.Float64("dt", 0.01, "Integration step")
		seed        = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	if *n < 0 || !(*inner >= 0) || !(*outer > *inner) {
		panic("need n >= 0 and 0 <= inner < outer")
	}

	s := disc(rand.New(rand.NewSource(*seed)), *n,
		float32(*inner), float32(*outer), float32(*centralMass), float32(*maxMass))
	s.Name = *name
	s.Dt = float32(*dt)

	// Швидкості не пишемо: auto-orbit порахує їх при завантаженні
	if err := s.Validate(); err != nil {
		panic(err)
	}
	if err := s.Save(*out); err != nil {
		panic(err)
	}
}

// disc розкидає тіла рівномірно по площі кільця [inner, outer]
func disc(r *rand.Rand, n int, inner, outer, centralMass, maxMass float32) *scenario.Scenario {
	s := &scenario.Scenario{
		AutoOrbit: true,
		Bodies:    make([]scenario.Body, 0, n+1),
	}
	// Центр завжди перший, бо auto-orbit крутить все навколо першого тіла
	s.Bodies = append(s.Bodies, scenario.Body{
		Name:   "center",
		Mass:   centralMass,
		Locked: true,
	})
	for i := 0; i < n; i++ {
		// корінь щоб густина по площі була однаковою
		u := r.Float32()
		radius := math32.Sqrt(inner*inner + u*(outer*outer-inner*inner))
		sin, cos := math32.Sincos(r.Float32() * 2 * math32.Pi)
		s.Bodies = append(s.Bodies, scenario.Body{
			Mass:     maxMass * (0.1 + 0.9*r.Float32()),
			Position: [2]float32{radius * cos, radius * sin},
		})
	}
	return s
}
