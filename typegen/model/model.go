package model

import (
	"github.com/teranos/stubgen/errors"
)

// Property is a typed attribute of a struct. Default holds the literal
// default text; empty means none.
type Property struct {
	Name    string
	Type    TypeRef
	Default string
}

// Parameter is one routine argument. A nil Type renders without annotation
// (used for *args and **kw).
type Parameter struct {
	Name    string
	Type    TypeRef
	Default string
}

// Function is a routine or method. Zero returns render as None, one as
// that type, several as a tuple in order.
type Function struct {
	Name     string
	IsMethod bool
	Params   []Parameter
	Returns  []TypeRef
}

// Struct is one declared type.
type Struct struct {
	Identifier string
	Base       TypeRef
	Properties []Property
	Methods    []Function
	// Refs names structs documented as holding a collection of this one.
	Refs []string

	module string
}

// NewStruct creates a struct. It joins a module on Push.
func NewStruct(identifier string, base TypeRef) *Struct {
	return &Struct{Identifier: identifier, Base: base}
}

// Module returns the dotted module path the struct belongs to.
func (s *Struct) Module() string {
	return s.module
}

// BaseName returns the identifier the struct depends on for ordering: the
// named base, or the item of a collection base. Empty when there is none.
func (s *Struct) BaseName() string {
	switch b := s.Base.(type) {
	case *NamedRef:
		return b.Identifier
	case *CollectionRef:
		return b.ItemName()
	}
	return ""
}

// Property looks up a property by name.
func (s *Struct) Property(name string) (*Property, bool) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i], true
		}
	}
	return nil, false
}

// Retype replaces the type of the named property, dropping its default.
// It is the only mutation allowed on a property after ingest.
func (s *Struct) Retype(name string, t TypeRef) error {
	p, ok := s.Property(name)
	if !ok {
		return errors.NewNotFoundError("property %s.%s", s.Identifier, name)
	}
	p.Type = t
	p.Default = ""
	return nil
}

// Module is an insertion-ordered set of structs sharing a dotted path.
type Module struct {
	Name string

	structs []*Struct
	index   map[string]int
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, index: make(map[string]int)}
}

// Push appends s. Identifiers are unique within a module.
func (m *Module) Push(s *Struct) error {
	if _, exists := m.index[s.Identifier]; exists {
		return errors.Mark(
			errors.Newf("struct %s already defined in module %s", s.Identifier, m.Name),
			errors.ErrDuplicateStruct,
		)
	}
	if s.module != "" && s.module != m.Name {
		return errors.Newf("struct %s already belongs to module %s", s.Identifier, s.module)
	}
	s.module = m.Name
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[s.Identifier] = len(m.structs)
	m.structs = append(m.structs, s)
	return nil
}

// Structs returns the structs in discovery order.
func (m *Module) Structs() []*Struct {
	return m.structs
}

// Lookup finds a struct by identifier.
func (m *Module) Lookup(identifier string) (*Struct, bool) {
	i, ok := m.index[identifier]
	if !ok {
		return nil, false
	}
	return m.structs[i], true
}

// Len returns the number of structs.
func (m *Module) Len() int {
	return len(m.structs)
}

// EnumItem is one labeled value of an enum property.
type EnumItem struct {
	Label string
	Value string
}

// EnumDescriptor records the values of an enum-typed property. Collected
// alongside the model; enum properties still render as str.
type EnumDescriptor struct {
	Key   string
	Items []EnumItem
}

// Singleton is a named top-level object surfaced at the root of the output,
// e.g. data: types.BlendData.
type Singleton struct {
	Name string
	Type string
}

// Standalone is a module rendered from parsed documentation rather than
// from struct metadata (mathutils, bpy.utils, operator namespaces).
type Standalone struct {
	Name      string
	Classes   []*Struct
	Functions []Function
	// Operators are opaque callables rendered as def name(*args, **kw).
	Operators []string
	// Submodules are child namespaces imported with "from . import name".
	Submodules []string
}
