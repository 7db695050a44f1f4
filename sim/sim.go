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

// Йоу, чат! Зараз розберемо як збирається симуляція!
// Сценарій дає тіла, простір їх рухає, а світ рахує між ними гравітацію.

package sim

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"GravityCore/physics"
	"GravityCore/scenario"
	"GravityCore/world"
)

// Simulation - зібрана симуляція: сценарій, простір з тілами і світ над ним
type Simulation struct {
	log *zap.Logger

	config   Config
	scenario *scenario.Scenario

	space *physics.Space
	world *world.World
}

// New читає сценарій з config.Scenario і збирає симуляцію
func New(log *zap.Logger, config Config) (*Simulation, error) {
	sc, err := scenario.Load(config.Scenario)
	if err != nil {
		return nil, err
	}
	return NewFromScenario(log, config, sc)
}

// NewFromScenario створює простір з тілами сценарію і світ над ним
func NewFromScenario(log *zap.Logger, config Config, sc *scenario.Scenario) (*Simulation, error) {
	// Спочатку перевіряємо налаштування світу, щоб не створювати тіла даремно
	wc, err := config.World()
	if err != nil {
		return nil, err
	}

	// Якщо сценарій просить - даємо тілам колові орбіти
	if sc.AutoOrbit {
		sc.SetOrbitalVelocities(config.G)
	}

	// Створюємо простір і заселяємо його тілами
	space := physics.NewSpace()
	ids, err := sc.Populate(space)
	if err != nil {
		return nil, err
	}

	// Створюємо світ, який рахуватиме гравітацію
	w, err := world.New(log.Named("world"), space, wc)
	if err != nil {
		return nil, err
	}

	log = log.Named("sim").With(zap.String("scenario", sc.Name))
	log.Info("Scenario loaded",
		zap.Int("bodies", len(ids)),
		zap.Int("gravity bodies", len(space.GravityBodies())),
		zap.Float32("dt", sc.Dt),
	)
	return &Simulation{
		log: log,

		config:   config,
		scenario: sc,

		space: space,
		world: w,
	}, nil
}

// Space повертає простір з тілами
func (s *Simulation) Space() *physics.Space { return s.space }

// World повертає гравітаційний світ
func (s *Simulation) World() *world.World { return s.world }

// Run крутить симуляцію, поки не скасують ctx або не пройде config.Steps тіків.
// Скасування ctx - нормальне завершення, а не помилка.
func (s *Simulation) Run(ctx context.Context) error {
	var limiter *rate.Limiter
	if s.config.TickLimiter != nil {
		limiter = s.config.TickLimiter.Limiter()
	}
	err := s.world.Run(ctx, s.scenario.Dt, limiter, s.config.Steps)

	// Пишемо підсумок навіть якщо симуляцію перервали
	mass, com := s.world.TotalMass()
	p := s.space.Momentum()
	s.log.Info("Simulation state",
		zap.Uint64("ticks", s.world.Ticks()),
		zap.Int("bodies", s.world.Len()),
		zap.Float32("total mass", mass),
		zap.Float32s("center of mass", com[:]),
		zap.Float32s("momentum", p[:]),
	)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
