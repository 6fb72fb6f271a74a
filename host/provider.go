// Package host defines the reflection contract between stubgen and the host
// application, and the providers that serve it: snapshot files, a SQLite
// snapshot store, and remote snapshot sources.
package host

import "context"

// Provider answers the fixed reflection queries for one point-in-time
// snapshot of the host API.
type Provider interface {
	// Structs returns every reflected struct in discovery order.
	Structs(ctx context.Context) ([]StructInfo, error)
	// Modules returns the standalone modules documented through docstrings.
	Modules(ctx context.Context) ([]ModuleInfo, error)
	// Singletons returns the named objects surfaced at the root of the output.
	Singletons(ctx context.Context) ([]SingletonInfo, error)
}

// StructInfo describes one reflected struct.
type StructInfo struct {
	Identifier  string         `json:"identifier" yaml:"identifier" toml:"identifier"`
	Base        string         `json:"base,omitempty" yaml:"base,omitempty" toml:"base,omitempty"`
	Module      string         `json:"module" yaml:"module" toml:"module"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Properties  []PropertyInfo `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
	Functions   []FunctionInfo `json:"functions,omitempty" yaml:"functions,omitempty" toml:"functions,omitempty"`
	References  []string       `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty"`
}

// PropertyInfo describes a property, an argument or a return value.
type PropertyInfo struct {
	Identifier  string `json:"identifier" yaml:"identifier" toml:"identifier"`
	Type        string `json:"type" yaml:"type" toml:"type"`
	ArrayLength int    `json:"array_length,omitempty" yaml:"array_length,omitempty" toml:"array_length,omitempty"`
	// FixedType is the pointed-to or collected struct identifier.
	FixedType string `json:"fixed_type,omitempty" yaml:"fixed_type,omitempty" toml:"fixed_type,omitempty"`
	// CollectionType names a dedicated wrapper struct for a collection.
	CollectionType string     `json:"collection_type,omitempty" yaml:"collection_type,omitempty" toml:"collection_type,omitempty"`
	Default        string     `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	EnumItems      []EnumItem `json:"enum_items,omitempty" yaml:"enum_items,omitempty" toml:"enum_items,omitempty"`
}

// EnumItem is one labeled enum value.
type EnumItem struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// FunctionInfo describes a struct function. Doc is consulted only when
// Args and Returns are both empty.
type FunctionInfo struct {
	Identifier string         `json:"identifier" yaml:"identifier" toml:"identifier"`
	Args       []PropertyInfo `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Returns    []PropertyInfo `json:"returns,omitempty" yaml:"returns,omitempty" toml:"returns,omitempty"`
	Doc        string         `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
}

// Structured reports whether the host supplied per-argument metadata.
func (f FunctionInfo) Structured() bool {
	return len(f.Args) > 0 || len(f.Returns) > 0
}

// ModuleInfo describes a standalone module read from docstrings.
type ModuleInfo struct {
	Name      string        `json:"name" yaml:"name" toml:"name"`
	Classes   []ClassInfo   `json:"classes,omitempty" yaml:"classes,omitempty" toml:"classes,omitempty"`
	Routines  []RoutineInfo `json:"routines,omitempty" yaml:"routines,omitempty" toml:"routines,omitempty"`
	Operators []string      `json:"operators,omitempty" yaml:"operators,omitempty" toml:"operators,omitempty"`
	// Submodules are nested namespaces, e.g. bpy.ops.mesh under bpy.ops.
	Submodules []ModuleInfo `json:"submodules,omitempty" yaml:"submodules,omitempty" toml:"submodules,omitempty"`
}

// ClassInfo describes a class of a standalone module.
type ClassInfo struct {
	Name       string          `json:"name" yaml:"name" toml:"name"`
	Doc        string          `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
	Attributes []AttributeInfo `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
}

// AttributeInfo describes a class member: "getset" or "method".
type AttributeInfo struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
}

// RoutineInfo describes a module-level routine.
type RoutineInfo struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
}

// SingletonInfo names a root-level object and its struct type.
type SingletonInfo struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type" yaml:"type" toml:"type"`
}
