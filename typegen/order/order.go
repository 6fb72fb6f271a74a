// Package order linearizes the structs of one module so that every base
// struct and every collection item struct is emitted before its dependents.
//
// The ordering is a level-by-level Kahn sort: level 0 holds the structs with
// no dependency, level n+1 the structs whose dependency sits in level n, and
// each level keeps discovery order. This is the same sequence a repeated
// "emit everything that is ready" scan produces, without rescanning the
// pending set on every pass.
package order

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/typegen/model"
)

// DependencyError reports structs that can never be emitted because their
// dependencies form a cycle or name a struct outside the module.
type DependencyError struct {
	Module string
	// Pending lists the stuck identifiers in discovery order.
	Pending []string
	// Missing lists dependencies that are not structs of the module.
	Missing []string
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("module %s: %d structs cannot be ordered: %s",
		e.Module, len(e.Pending), strings.Join(e.Pending, ", "))
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" (missing: %s)", strings.Join(e.Missing, ", "))
	}
	return msg
}

func (e *DependencyError) Unwrap() error {
	return errors.ErrUnresolvableDependencies
}

// Dependency returns the identifier s must follow, or "" when s can be
// emitted at any point. A struct based on itself has no dependency.
func Dependency(s *model.Struct) string {
	dep := s.BaseName()
	if dep == s.Identifier {
		return ""
	}
	return dep
}

// Module orders the structs of m.
func Module(m *model.Module) ([]*model.Struct, error) {
	return Linearize(m.Name, m.Structs())
}

// Linearize orders structs, given in discovery order, dependencies first.
func Linearize(module string, structs []*model.Struct) ([]*model.Struct, error) {
	index := make(map[string]int, len(structs))
	for i, s := range structs {
		index[s.Identifier] = i
	}

	// Each struct has at most one dependency, so the graph is a forest
	// and in-degree is 0 or 1.
	dependents := make(map[string][]int, len(structs))
	var level []int
	for i, s := range structs {
		dep := Dependency(s)
		if dep == "" {
			level = append(level, i)
			continue
		}
		dependents[dep] = append(dependents[dep], i)
	}

	out := make([]*model.Struct, 0, len(structs))
	emitted := make([]bool, len(structs))
	for len(level) > 0 {
		var next []int
		for _, i := range level {
			out = append(out, structs[i])
			emitted[i] = true
			next = append(next, dependents[structs[i].Identifier]...)
		}
		sort.Ints(next)
		level = next
	}

	if len(out) == len(structs) {
		return out, nil
	}

	depErr := &DependencyError{Module: module}
	missing := make(map[string]bool)
	for i, s := range structs {
		if emitted[i] {
			continue
		}
		depErr.Pending = append(depErr.Pending, s.Identifier)
		if dep := Dependency(s); dep != "" {
			if _, ok := index[dep]; !ok && !missing[dep] {
				missing[dep] = true
				depErr.Missing = append(depErr.Missing, dep)
			}
		}
	}
	return nil, errors.WithHint(depErr,
		"a base or collection item names a struct that is cyclic or absent from the snapshot")
}
