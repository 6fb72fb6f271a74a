package typegen

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/infer"
	"github.com/teranos/stubgen/typegen/ingest"
	"github.com/teranos/stubgen/typegen/model"
)

// Correction overrides the inferred type of one property. Type uses the
// expression syntax of ParseExpr.
type Correction struct {
	Struct   string `mapstructure:"struct" toml:"struct"`
	Property string `mapstructure:"property" toml:"property"`
	Type     string `mapstructure:"type" toml:"type"`
}

// DefaultCorrections fixes properties the host reflects without a usable
// type. Context members are dynamic, so reflection reports them as Any.
var DefaultCorrections = []Correction{
	{Struct: "Context", Property: "selected_objects", Type: "Collection[Object]"},
	{Struct: "Context", Property: "active_object", Type: "Object"},
}

// Model is the ingested model opened for manual correction. It satisfies
// script.Target.
type Model struct {
	res    *ingest.Result
	engine *infer.Engine
	index  map[string]*model.Struct
	log    *zap.SugaredLogger
}

// NewModel indexes the structs of res by identifier. When an identifier
// appears in several modules, the first module wins.
func NewModel(res *ingest.Result, engine *infer.Engine) *Model {
	m := &Model{
		res:    res,
		engine: engine,
		index:  make(map[string]*model.Struct),
		log:    logger.ComponentLogger("typegen.corrections"),
	}
	for _, mod := range res.Modules {
		for _, s := range mod.Structs() {
			if _, ok := m.index[s.Identifier]; !ok {
				m.index[s.Identifier] = s
			}
		}
	}
	return m
}

// Lookup finds an ingested struct.
func (m *Model) Lookup(identifier string) (*model.Struct, bool) {
	s, ok := m.index[identifier]
	return s, ok
}

// Structs returns every struct identifier, sorted.
func (m *Model) Structs() []string {
	ids := make([]string, 0, len(m.index))
	for id := range m.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Retype sets the type of structID.property from a type expression.
func (m *Model) Retype(structID, property, typeExpr string) error {
	s, ok := m.index[structID]
	if !ok {
		return errors.NewNotFoundError("struct %s", structID)
	}
	t, err := m.ParseExpr(typeExpr)
	if err != nil {
		return err
	}
	if err := s.Retype(property, t); err != nil {
		return err
	}
	m.log.Debugw("corrected property type",
		logger.FieldStruct, structID, "property", property, "type", FormatExpr(t))
	return nil
}

// TypeOf returns the type expression of structID.property.
func (m *Model) TypeOf(structID, property string) (string, error) {
	s, ok := m.index[structID]
	if !ok {
		return "", errors.NewNotFoundError("struct %s", structID)
	}
	p, ok := s.Property(property)
	if !ok {
		return "", errors.NewNotFoundError("property %s.%s", structID, property)
	}
	return FormatExpr(p.Type), nil
}

// Apply runs a correction table and returns how many entries applied.
// Entries naming a struct or property absent from this snapshot are
// skipped; a malformed type expression is an error.
func (m *Model) Apply(corrections []Correction) (int, error) {
	applied := 0
	for _, c := range corrections {
		err := m.Retype(c.Struct, c.Property, c.Type)
		switch {
		case err == nil:
			applied++
		case errors.IsNotFoundError(err):
			m.log.Debugw("correction does not apply",
				logger.FieldStruct, c.Struct, "property", c.Property)
		default:
			return applied, errors.Wrapf(err, "correction %s.%s", c.Struct, c.Property)
		}
	}
	return applied, nil
}

// ParseExpr parses a correction type expression:
//
//	float | int | bool | str   primitives
//	Any | None
//	Object                     a struct or other named type
//	Collection[Object]         a collection of a struct
//	Union[int, float]          a union
func (m *Model) ParseExpr(expr string) (model.TypeRef, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return nil, errors.New("empty type expression")
	case expr == "Any":
		return model.Any, nil
	case expr == "None":
		return model.NoType, nil
	}

	if inner, ok := generic(expr, "Collection"); ok {
		if inner == "" || strings.ContainsAny(inner, "[],") {
			return nil, errors.Newf("invalid collection item in %q", expr)
		}
		return m.engine.CollectionOf(inner), nil
	}
	if inner, ok := generic(expr, "Union"); ok {
		parts, err := splitTop(inner)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid union %q", expr)
		}
		types := make([]model.TypeRef, 0, len(parts))
		for _, part := range parts {
			t, err := m.ParseExpr(part)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		return model.Union(types...), nil
	}
	if strings.ContainsAny(expr, "[],") {
		return nil, errors.Newf("invalid type expression %q", expr)
	}
	return m.engine.FromName(expr), nil
}

// FormatExpr is the inverse of ParseExpr.
func FormatExpr(t model.TypeRef) string {
	switch r := t.(type) {
	case nil:
		return "Any"
	case *model.PrimitiveRef:
		return r.Name
	case *model.NamedRef:
		return r.Identifier
	case *model.CollectionRef:
		item := r.Pending
		if item == "" {
			item = FormatExpr(r.Item)
		}
		return "Collection[" + item + "]"
	case *model.UnionRef:
		parts := make([]string, len(r.Types))
		for i, u := range r.Types {
			parts[i] = FormatExpr(u)
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	}
	if t.Kind() == model.KindNone {
		return "None"
	}
	return "Any"
}

func generic(expr, name string) (string, bool) {
	if !strings.HasPrefix(expr, name+"[") || !strings.HasSuffix(expr, "]") {
		return "", false
	}
	return strings.TrimSpace(expr[len(name)+1 : len(expr)-1]), true
}

// splitTop splits on commas outside brackets.
func splitTop(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced brackets")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced brackets")
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, errors.New("empty union member")
		}
	}
	return parts, nil
}

// Ingested returns the model the corrections apply to.
func (m *Model) Ingested() *ingest.Result {
	return m.res
}

// Load ingests p and applies corrections, for callers that inspect the
// model without writing stubs.
func Load(ctx context.Context, p host.Provider, strict bool, corrections []Correction) (*Model, error) {
	builder := ingest.NewBuilder(strict)
	res, err := builder.Build(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to ingest snapshot")
	}
	m := NewModel(res, builder.Engine())
	if _, err := m.Apply(corrections); err != nil {
		return nil, err
	}
	return m, nil
}
