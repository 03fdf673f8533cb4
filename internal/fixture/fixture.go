/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package fixture holds the small domain model shared by tests and the CLI
// demo pack: managers and employees that reference each other, plus a few
// value types for interface-typed slots.
package fixture

import (
	"math"

	"dirpx.dev/flatpack/apis"
)

// Employee reports to a Manager.
type Employee struct {
	apis.EntityBase
	Name    string   `json:"name"`
	Manager *Manager `json:"manager,omitempty"`
}

// Manager has employees, each of which points back to it.
type Manager struct {
	apis.EntityBase
	Name      string
	Employees []*Employee
}

// Department names itself on the wire.
type Department struct {
	apis.EntityBase
	Title string      `flatpack:"title"`
	Head  *Manager    `flatpack:"head"`
	Staff []*Employee `flatpack:"staff,omitempty"`
	Notes any         `flatpack:"notes"`
}

func (*Department) EntityTypeName() string { return "dept" }

// Shape is implemented by the value types below.
type Shape interface {
	Area() float64
}

// Circle is a value type.
type Circle struct {
	Radius float64 `json:"radius"`
}

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Square is a value type whose methods need a pointer.
type Square struct {
	Side float64 `json:"side"`
}

func (s *Square) Area() float64 { return s.Side * s.Side }

// Drawing mixes every kind of slot.
type Drawing struct {
	Title  string              `json:"title"`
	Shapes []Shape             `json:"shapes"`
	Tags   map[string]struct{} `json:"tags,omitempty"`
	Layers map[string][]string `json:"layers,omitempty"`
	Grid   [2]int              `json:"grid"`
	Owner  *Employee           `json:"owner,omitempty"`
	Extra  any                 `json:"extra,omitempty"`
}

// Org builds a manager whose employees all point back to it.
func Org(name string, employees ...string) *Manager {
	m := &Manager{Name: name}
	for _, e := range employees {
		m.Employees = append(m.Employees, &Employee{Name: e, Manager: m})
	}
	return m
}
