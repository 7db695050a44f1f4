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

package world

import "github.com/google/uuid"

// Backend - фізичний рушій, з яким працює світ.
// Світ тільки читає стан тіл і додає сили, а інтегрує рух сам бекенд.
type Backend interface {
	// GravityBodies повертає всі тіла з позначкою гравітації
	GravityBodies() []uuid.UUID
	// Transform повертає позицію тіла
	Transform(id uuid.UUID) (Vec2, bool)
	// MassProperties повертає масу і зміщення центру мас
	MassProperties(id uuid.UUID) (MassProperties, bool)
	// AddForce додає силу до накопичувача зовнішніх сил тіла
	AddForce(id uuid.UUID, force Vec2)
	// Step інтегрує рух на dt і обнуляє накопичувачі сил
	Step(dt float32)
}
