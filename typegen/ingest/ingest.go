// Package ingest builds the entity model from a host reflection snapshot.
//
// Ingestion is one pass over the provider's structs in discovery order,
// followed by a resolve pass that patches collection refs whose item struct
// was discovered after the referencing property.
package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/docparse"
	"github.com/teranos/stubgen/typegen/infer"
	"github.com/teranos/stubgen/typegen/model"
)

// skipped structs are never ingested.
var skipped = map[string]bool{
	"PropertyGroupItem": true,
}

const collectionPrefix = "Collection of "

// Result is the complete model of one snapshot.
type Result struct {
	// Modules are the struct modules in first-seen order.
	Modules    []*model.Module
	Standalone []*model.Standalone
	Singletons []model.Singleton
	Enums      []*model.EnumDescriptor
	// Unrecognized lists the phrases synthesized as named types.
	Unrecognized []string
}

// Module returns the named struct module.
func (r *Result) Module(name string) (*model.Module, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Builder ingests snapshots. A Builder is single-use: its engine state
// belongs to one run.
type Builder struct {
	engine   *infer.Engine
	parser   *docparse.Parser
	ingested map[string]bool
	log      *zap.SugaredLogger
}

// NewBuilder creates a builder over a fresh cache and enum table.
func NewBuilder(strict bool) *Builder {
	return NewBuilderWith(infer.NewCache(), infer.NewEnumTable(), strict)
}

// NewBuilderWith creates a builder over the given cache and enum table.
func NewBuilderWith(cache *infer.Cache, enums *infer.EnumTable, strict bool) *Builder {
	b := &Builder{
		ingested: make(map[string]bool),
		log:      logger.ComponentLogger("typegen.ingest"),
	}
	b.engine = infer.NewEngine(cache, enums,
		infer.WithStrict(strict),
		infer.WithKnown(func(id string) bool { return b.ingested[id] }),
	)
	b.parser = docparse.NewParser(b.engine, strict)
	return b
}

// Engine returns the builder's inference engine.
func (b *Builder) Engine() *infer.Engine {
	return b.engine
}

// Build queries p and returns the resolved model.
func (b *Builder) Build(ctx context.Context, p host.Provider) (*Result, error) {
	structs, err := p.Structs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query structs")
	}
	modules, err := p.Modules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query modules")
	}
	singletons, err := p.Singletons(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query singletons")
	}

	res := &Result{}
	if err := b.Structs(res, structs); err != nil {
		return nil, err
	}
	b.Resolve(res)

	for _, m := range modules {
		res.Standalone = append(res.Standalone, b.Standalone(m)...)
	}
	for _, s := range singletons {
		res.Singletons = append(res.Singletons, model.Singleton{Name: s.Name, Type: s.Type})
	}

	res.Enums = b.engine.Enums().All()
	res.Unrecognized = b.engine.Cache().Unrecognized()

	b.log.Infow("ingested snapshot",
		logger.FieldCount, len(structs),
		"modules", len(res.Modules),
		"standalone", len(res.Standalone),
		"unrecognized", len(res.Unrecognized))
	return res, nil
}

// Structs pushes every struct into its module, creating modules in
// first-seen order.
func (b *Builder) Structs(res *Result, structs []host.StructInfo) error {
	ids := make([]string, 0, len(structs))
	for _, s := range structs {
		ids = append(ids, s.Identifier)
	}
	b.engine.Declare(ids...)

	index := make(map[string]*model.Module)
	for _, info := range structs {
		if skipped[info.Identifier] {
			b.log.Debugw("skipping struct", logger.FieldStruct, info.Identifier)
			continue
		}
		m, ok := index[info.Module]
		if !ok {
			m = model.NewModule(info.Module)
			index[info.Module] = m
			res.Modules = append(res.Modules, m)
		}
		if err := m.Push(b.Struct(info)); err != nil {
			return errors.Wrapf(err, "failed to ingest %s", info.Identifier)
		}
		b.ingested[info.Identifier] = true
	}
	return nil
}

// Struct converts one struct descriptor.
func (b *Builder) Struct(info host.StructInfo) *model.Struct {
	isCollection := strings.HasPrefix(info.Description, collectionPrefix)

	var base model.TypeRef
	switch {
	case info.Base != "":
		base = b.engine.FromName(info.Base)
	case isCollection:
		if item := collectionItem(info); item != "" {
			base = b.engine.Infer(infer.Descriptor{Kind: infer.KindCollection, ItemType: item})
		}
	}

	s := model.NewStruct(info.Identifier, base)
	for _, p := range info.Properties {
		s.Properties = append(s.Properties, b.Property(p))
	}
	for _, f := range info.Functions {
		s.Methods = append(s.Methods, b.Function(info.Identifier, f))
	}
	if isCollection {
		s.Refs = append(s.Refs, info.References...)
	}
	return s
}

// collectionItem reads the item identifier of a collection wrapper from the
// fixed type of its first function's first return value.
func collectionItem(info host.StructInfo) string {
	if len(info.Functions) == 0 || len(info.Functions[0].Returns) == 0 {
		return ""
	}
	return info.Functions[0].Returns[0].FixedType
}

// Property converts a property or argument descriptor.
func (b *Builder) Property(p host.PropertyInfo) model.Property {
	return model.Property{
		Name:    p.Identifier,
		Type:    b.engine.Infer(descriptor(p)),
		Default: p.Default,
	}
}

// Function converts a struct function. Functions without structured
// argument metadata fall back to their documentation.
func (b *Builder) Function(owner string, f host.FunctionInfo) model.Function {
	if !f.Structured() && f.Doc != "" {
		return b.parser.Function(f.Identifier, f.Doc, true)
	}

	fn := model.Function{Name: f.Identifier, IsMethod: true}
	for _, a := range f.Args {
		p := b.Property(a)
		fn.Params = append(fn.Params, model.Parameter{Name: p.Name, Type: p.Type, Default: p.Default})
	}
	for _, r := range f.Returns {
		fn.Returns = append(fn.Returns, b.engine.Infer(descriptor(r)))
	}
	return fn
}

func descriptor(p host.PropertyInfo) infer.Descriptor {
	d := infer.Descriptor{
		Kind:        p.Type,
		ArrayLength: p.ArrayLength,
		ItemType:    p.FixedType,
		Wrapper:     p.CollectionType,
		Identifier:  p.Identifier,
	}
	for _, item := range p.EnumItems {
		d.EnumItems = append(d.EnumItems, model.EnumItem{Label: item.Label, Value: item.Value})
	}
	return d
}

// Resolve patches every pending collection ref in bases, properties,
// parameters and returns now that all structs are modeled.
func (b *Builder) Resolve(res *Result) {
	patched := 0
	resolve := func(t model.TypeRef) model.TypeRef {
		r := b.engine.Resolve(t)
		if r != t {
			patched++
		}
		return r
	}

	for _, m := range res.Modules {
		for _, s := range m.Structs() {
			if s.Base != nil {
				s.Base = resolve(s.Base)
			}
			for i := range s.Properties {
				s.Properties[i].Type = resolve(s.Properties[i].Type)
			}
			for i := range s.Methods {
				fn := &s.Methods[i]
				for j := range fn.Params {
					if fn.Params[j].Type != nil {
						fn.Params[j].Type = resolve(fn.Params[j].Type)
					}
				}
				for j := range fn.Returns {
					fn.Returns[j] = resolve(fn.Returns[j])
				}
			}
		}
	}
	b.log.Debugw("resolved pending collections", logger.FieldCount, patched)
}

// Standalone converts a documented module and its submodules. The parent
// comes first, followed by each submodule depth-first.
func (b *Builder) Standalone(info host.ModuleInfo) []*model.Standalone {
	m := &model.Standalone{
		Name:      info.Name,
		Operators: append([]string(nil), info.Operators...),
	}
	for _, c := range info.Classes {
		attrs := make([]docparse.Attribute, len(c.Attributes))
		for i, a := range c.Attributes {
			attrs[i] = docparse.Attribute{Name: a.Name, Kind: a.Kind, Doc: a.Doc}
		}
		m.Classes = append(m.Classes, b.parser.Class(c.Name, c.Doc, attrs))
	}

	routines := make([]docparse.Routine, len(info.Routines))
	for i, r := range info.Routines {
		routines[i] = docparse.Routine{Name: r.Name, Doc: r.Doc}
	}
	m.Functions = b.parser.Routines(routines)

	out := []*model.Standalone{m}
	for _, sub := range info.Submodules {
		m.Submodules = append(m.Submodules, lastSegment(sub.Name))
		out = append(out, b.Standalone(sub)...)
	}
	return out
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
