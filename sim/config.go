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

// Йоу, чат! Зараз розберемо конфігурацію симуляції!
// Тут зберігаються всі налаштування які можна змінити в config.toml

package sim

import (
	// time потрібен для роботи з часом
	"time"

	// rate використовуємо для обмеження темпу тіків
	"golang.org/x/time/rate"

	"GravityCore/world"
)

// Config - головна структура з налаштуваннями симуляції
// Поля з тегом `toml` читаються з конфіг файлу
type Config struct {
	// Гравітаційна стала
	G float32 `toml:"g"`

	// Поріг Barnes-Hut: вузол розміру s на відстані d вважається
	// точковою масою, якщо s/d < theta. 0 = точний розрахунок
	Theta float32 `toml:"theta"`

	// На скільки смуг ділити простір при перебудові дерева
	BinCount int `toml:"bin-count"`

	// Пом'якшення сили на малих відстанях: r² -> r² + softening²
	Softening float32 `toml:"softening"`

	// Як шукати місце для нового листа: "greedy" або "best-sibling"
	InsertPolicy string `toml:"insert-policy"`

	// Що робити з тілами, які рухаються: "rebuild", "reinsert" або "incremental"
	UpdateMode string `toml:"update-mode"`

	// Кожні скільки тіків звіряти сили з точним розрахунком (0 = ніколи)
	AuditEvery uint64 `toml:"audit-every"`

	// Кожні скільки тіків писати стан дерева в лог (0 = ніколи)
	LogEvery uint64 `toml:"log-every"`

	// Шлях до YAML файлу сценарію
	Scenario string `toml:"scenario"`

	// Скільки тіків зробити (0 = поки не зупинять)
	Steps uint64 `toml:"steps"`

	// Обмежувач темпу: наприклад не більше 1 тіку кожні 50ms
	// Якщо не вказаний - тіки йдуть так швидко, як можна
	TickLimiter *Limiter `toml:"tick-limiter"`
}

// DefaultConfig повертає налаштування за замовчуванням.
// Конфіг файл перекриває тільки ті ключі, які в ньому є.
func DefaultConfig() Config {
	return Config{
		G:        1,
		Theta:    0.5,
		BinCount: 8,
		Scenario: "scenario.yaml",
		LogEvery: 100,
	}
}

// World перетворює налаштування в конфіг світу
func (c *Config) World() (world.Config, error) {
	policy, err := world.ParsePolicy(c.InsertPolicy)
	if err != nil {
		return world.Config{}, err
	}
	mode, err := world.ParseMode(c.UpdateMode)
	if err != nil {
		return world.Config{}, err
	}
	wc := world.Config{
		G:          c.G,
		Theta:      c.Theta,
		Softening:  c.Softening,
		BinCount:   c.BinCount,
		Policy:     policy,
		Mode:       mode,
		AuditEvery: c.AuditEvery,
		LogEvery:   c.LogEvery,
	}
	return wc, wc.Validate()
}

// Limiter - структура для обмеження частоти дій
// Наприклад: не більше 20 тіків кожну секунду
type Limiter struct {
	// Як часто можна виконувати дію
	// Наприклад "50ms" = кожні 50 мілісекунд
	Every duration `toml:"every"`

	// Скільки разів можна виконати дію за цей період
	N int
}

// Limiter перетворює наші налаштування в готовий rate.Limiter
// rate.Limiter - це структура з бібліотеки golang.org/x/time/rate
// Вона стежить щоб не перевищувати ліміти
func (l *Limiter) Limiter() *rate.Limiter {
	// N=0 означав би що не можна жодного разу
	return rate.NewLimiter(rate.Every(l.Every.Duration), max(l.N, 1))
}

// duration - обгортка навколо time.Duration
// Потрібна щоб читати тривалість з конфіг файлу
type duration struct {
	time.Duration
}

// UnmarshalText перетворює текст з конфігу в time.Duration
// Наприклад "5s" -> 5 секунд
func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}
