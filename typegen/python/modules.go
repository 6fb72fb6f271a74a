package python

import (
	"strings"

	"github.com/teranos/stubgen/typegen/model"
)

const (
	structHeader = "from typing import Any, Tuple, List, Union, Generic, TypeVar, Iterator, overload\n" +
		"from mathutils import Vector, Matrix\n"
	standaloneHeader = "from typing import Tuple, List, Any, Union, Callable, Sequence\n" +
		"import bpy\n" +
		"import datetime\n"
)

// CollectionPrelude declares the generic collection every struct module
// refers to through 'bpy_prop_collection[Item]'.
const CollectionPrelude = `T = TypeVar('T')
class bpy_prop_collection(Generic[T]):
    def __len__(self) -> int: ... # noqa
    @overload
    def __getitem__(self, i) -> T: ... # noqa
    @overload
    def __getitem__(self, s: slice) -> 'bpy_prop_collection[T]': ... # noqa
    def __iter__(self) -> Iterator[T]: ... # noqa
    def find(self, key: str) -> int: ... # noqa
    def get(self, key, default=None): ... # noqa
    def items(self): ... # noqa
    def keys(self): ... # noqa
    def values(self): ... # noqa

`

// ContextOverride narrows the generated Context struct for the root
// binding.
const ContextOverride = `class Context(types.Context):
    selected_objects: types.bpy_prop_collection[types.Object]
context: Context
`

// Options holds the hand-authored declarations added around generated code.
type Options struct {
	// Preludes are emitted before the structs of the keyed module.
	Preludes map[string]string
	// Suffixes are emitted, one per line, after the structs of the keyed module.
	Suffixes map[string][]string
	// SkipProperties maps "Struct.property" entries that are never rendered.
	SkipProperties map[string]bool
	// IndexSuffix follows the singleton bindings of the root index.
	IndexSuffix string
}

// DefaultOptions returns the declarations reflection cannot discover.
func DefaultOptions() Options {
	return Options{
		Preludes: map[string]string{
			"bpy.types": CollectionPrelude,
		},
		Suffixes: map[string][]string{
			"bpy.types": {"VIEW3D_MT_object: List[Any]"},
		},
		SkipProperties: map[string]bool{
			"RenderEngine.render": true,
		},
		IndexSuffix: ContextOverride,
	}
}

func (o Options) skipFor(identifier string) map[string]bool {
	var skip map[string]bool
	prefix := identifier + "."
	for key := range o.SkipProperties {
		if strings.HasPrefix(key, prefix) {
			if skip == nil {
				skip = make(map[string]bool)
			}
			skip[key[len(prefix):]] = true
		}
	}
	return skip
}

// RenderModule renders a struct module. structs must already be in
// dependency order.
func RenderModule(name string, structs []*model.Struct, opts Options) string {
	var sb strings.Builder
	sb.WriteString(structHeader)
	sb.WriteString("\n\n")

	sb.WriteString(opts.Preludes[name])
	sb.WriteString("\n")

	for _, s := range structs {
		sb.WriteString(RenderStruct(s, opts.skipFor(s.Identifier)))
		sb.WriteString("\n\n")
	}

	for _, line := range opts.Suffixes[name] {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderStandalone renders a module parsed from documentation: classes,
// then routines, then opaque operators, then submodule imports.
func RenderStandalone(m *model.Standalone) string {
	var sb strings.Builder
	sb.WriteString(standaloneHeader)
	if m.Name != "mathutils" {
		sb.WriteString("from mathutils import Vector\n")
	}
	sb.WriteString("\n")

	for _, c := range m.Classes {
		sb.WriteString(RenderStruct(c, nil))
		sb.WriteString("\n\n")
	}
	for _, fn := range m.Functions {
		sb.WriteString(Signature(fn))
		sb.WriteString("\n")
	}
	for _, op := range m.Operators {
		sb.WriteString("def ")
		sb.WriteString(op)
		sb.WriteString("(*args, **kw):")
		sb.WriteString(noqa)
		sb.WriteString("\n")
	}
	for _, sub := range m.Submodules {
		sb.WriteString("from . import ")
		sb.WriteString(sub)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderIndex renders the root package: imports of its child modules, one
// binding per singleton typed against the types module, then the override
// suffix.
func RenderIndex(children []string, singletons []model.Singleton, suffix string) string {
	var sb strings.Builder
	if len(children) > 0 {
		sb.WriteString("from . import ")
		sb.WriteString(strings.Join(children, ", "))
		sb.WriteString("\n")
	}
	for _, s := range singletons {
		sb.WriteString(s.Name)
		sb.WriteString(": types.")
		sb.WriteString(s.Type)
		sb.WriteString("\n")
	}
	if suffix != "" {
		sb.WriteString("\n")
		sb.WriteString(suffix)
	}
	return sb.String()
}
