package docparse

import (
	"regexp"
	"strings"

	"github.com/teranos/stubgen/typegen/infer"
	"github.com/teranos/stubgen/typegen/model"
)

// Attribute kinds of a standalone class member.
const (
	AttributeGetSet = "getset"
	AttributeMethod = "method"
)

var attributeType = regexp.MustCompile(`(?m):type:[ \t]*(.*)$`)

// Attribute is one member of a class read from a standalone module.
type Attribute struct {
	Name string
	Kind string
	Doc  string
}

// Routine is a module-level callable and its documentation.
type Routine struct {
	Name string
	Doc  string
}

// varargsConstructors take *args because their documented signatures are
// overloaded beyond what one trailer can express.
var varargsConstructors = map[string]bool{
	"Quaternion": true,
}

// anyClassRoutines take a single untyped class argument.
var anyClassRoutines = map[string]bool{
	"register_class":   true,
	"unregister_class": true,
}

// Class builds a struct from a class documented only through docstrings.
// The class doc becomes __init__, getset descriptors with a ":type:" line
// become properties, and documented methods become methods. Dunder members
// are skipped.
func (p *Parser) Class(name, doc string, attrs []Attribute) *model.Struct {
	s := model.NewStruct(name, nil)

	if doc != "" {
		if varargsConstructors[name] {
			s.Methods = append(s.Methods, model.Function{
				Name:     "__init__",
				IsMethod: true,
				Params:   []model.Parameter{{Name: "*args"}},
			})
		} else {
			s.Methods = append(s.Methods, p.Function("__init__", doc, true))
		}
	}

	for _, a := range attrs {
		if strings.HasPrefix(a.Name, "__") || a.Doc == "" {
			continue
		}
		switch a.Kind {
		case AttributeGetSet:
			m := attributeType.FindStringSubmatch(a.Doc)
			if m == nil {
				continue
			}
			s.Properties = append(s.Properties, model.Property{
				Name: a.Name,
				Type: p.engine.FromName(strings.TrimSpace(m[1])),
			})
		case AttributeMethod:
			s.Methods = append(s.Methods, p.Function(a.Name, a.Doc, true))
		}
	}
	return s
}

// Routines converts module-level routines to functions. Routines named
// "*Property" are property factories taking keywords; undocumented routines
// are skipped.
func (p *Parser) Routines(routines []Routine) []model.Function {
	var out []model.Function
	for _, r := range routines {
		switch {
		case strings.HasSuffix(r.Name, "Property"):
			out = append(out, model.Function{
				Name:    r.Name,
				Params:  []model.Parameter{{Name: "**kw"}},
				Returns: []model.TypeRef{model.Any},
			})
		case r.Doc == "":
			p.log.Debugw("skipping undocumented routine", "routine", r.Name)
		case anyClassRoutines[r.Name]:
			out = append(out, model.Function{
				Name:   r.Name,
				Params: []model.Parameter{{Name: "klass", Type: model.Any}},
			})
		default:
			out = append(out, p.Function(r.Name, r.Doc, false))
		}
	}
	return out
}

// Engine returns the inference engine the parser uses.
func (p *Parser) Engine() *infer.Engine {
	return p.engine
}
