// Package infer maps host type descriptors and documentation phrases onto
// model.TypeRefs.
//
// Rules apply in order: the phrase table, collections, enums, pointers,
// fixed-size float arrays, scalar kinds, "string in [...]" enum strings, and
// finally synthesis of a Named ref for unrecognized text. Synthesized refs
// are memoized in the injected Cache, so identical text yields the identical
// instance for the whole run.
package infer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/model"
)

// Descriptor kinds as reported by the host.
const (
	KindBoolean    = "boolean"
	KindInt        = "int"
	KindFloat      = "float"
	KindString     = "string"
	KindEnum       = "enum"
	KindPointer    = "pointer"
	KindCollection = "collection"
)

// Descriptor is the engine's input: one property, argument or return value
// as described by the host, or a bare documentation phrase in RawText.
type Descriptor struct {
	Kind        string
	RawText     string
	ArrayLength int
	// ItemType is the pointed-to or collected struct identifier.
	ItemType string
	// Wrapper names a dedicated collection struct, when the host has one.
	Wrapper string
	// Identifier is the owning property's name, used for enum keys.
	Identifier string
	EnumItems  []model.EnumItem
}

// Engine performs type inference. The cache and enum table are injected so
// runs and tests stay isolated.
type Engine struct {
	cache  *Cache
	enums  *EnumTable
	known  func(identifier string) bool
	strict bool
	log    *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithKnown sets the predicate telling whether a struct is already modeled.
// Collections over unknown items become pending until the resolve pass.
func WithKnown(known func(identifier string) bool) Option {
	return func(e *Engine) {
		e.known = known
	}
}

// WithStrict logs unrecognized phrases as warnings instead of info.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLogger overrides the component logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine creates an engine over cache and enums. A nil cache or table is
// replaced by a fresh one.
func NewEngine(cache *Cache, enums *EnumTable, opts ...Option) *Engine {
	if cache == nil {
		cache = NewCache()
	}
	if enums == nil {
		enums = NewEnumTable()
	}
	e := &Engine{
		cache: cache,
		enums: enums,
		known: func(string) bool { return true },
		log:   logger.ComponentLogger("typegen.infer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the engine's memoizing cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Enums returns the enum side table.
func (e *Engine) Enums() *EnumTable {
	return e.enums
}

// Infer maps one descriptor to a TypeRef.
func (e *Engine) Infer(d Descriptor) model.TypeRef {
	if d.RawText != "" {
		if t, ok := phraseTable[d.RawText]; ok {
			return t
		}
	}

	switch d.Kind {
	case KindCollection:
		return e.collection(d)
	case KindEnum:
		e.enums.Record(EnumKey(d.Identifier), d.EnumItems)
		return Str
	case KindPointer:
		if d.ItemType == "" {
			return model.Any
		}
		return e.FromName(d.ItemType)
	}

	if d.ArrayLength > 0 && d.Kind == KindFloat {
		if d.ArrayLength == 9 || d.ArrayLength == 16 {
			return Matrix
		}
		return Vector
	}

	if d.Kind != "" {
		if t, ok := phraseTable[d.Kind]; ok {
			return t
		}
		return e.FromName(d.Kind)
	}

	return e.FromName(d.RawText)
}

// Declare pre-registers struct identifiers from the snapshot so references
// to them resolve through the cache without being reported as unrecognized.
func (e *Engine) Declare(identifiers ...string) {
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		e.cache.LoadOrStore(id, func() model.TypeRef {
			return model.Named(id)
		})
	}
}

// FromName maps a free-text phrase or identifier to a TypeRef.
func (e *Engine) FromName(text string) model.TypeRef {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Any
	}
	if t, ok := phraseTable[text]; ok {
		return t
	}
	if strings.HasPrefix(text, "string in ") {
		return Str
	}

	t, loaded := e.cache.LoadOrStore(text, func() model.TypeRef {
		return model.Named(text)
	})
	if !loaded {
		e.cache.markSynthesized(text)
		if e.strict {
			e.log.Warnw("unrecognized type phrase", logger.FieldPhrase, text)
		} else {
			e.log.Infow("unrecognized type phrase", logger.FieldPhrase, text)
		}
	}
	return t
}

func (e *Engine) collection(d Descriptor) model.TypeRef {
	if d.Wrapper != "" {
		return e.FromName(d.Wrapper)
	}
	if d.ItemType == "" {
		t, _ := e.cache.LoadOrStore("Collection[Any]", func() model.TypeRef {
			return model.Collection(model.Any)
		})
		return t
	}
	if !e.known(d.ItemType) {
		// Not cached: the resolve pass replaces pending refs in place.
		return model.PendingCollection(d.ItemType)
	}
	return e.CollectionOf(d.ItemType)
}

// CollectionOf returns the shared collection ref over the named item.
func (e *Engine) CollectionOf(item string) model.TypeRef {
	it := e.FromName(item)
	t, _ := e.cache.LoadOrStore("Collection["+it.Key()+"]", func() model.TypeRef {
		return model.Collection(it)
	})
	return t
}

// Resolve replaces a pending collection with the shared resolved one. Any
// other ref is returned unchanged.
func (e *Engine) Resolve(t model.TypeRef) model.TypeRef {
	c, ok := t.(*model.CollectionRef)
	if !ok || c.Pending == "" {
		return t
	}
	return e.CollectionOf(c.Pending)
}

// EnumKey builds the side-table key for an enum property: "Enum" followed by
// the identifier with its first letter upper-cased.
func EnumKey(identifier string) string {
	if identifier == "" {
		return "Enum"
	}
	r, size := utf8.DecodeRuneInString(identifier)
	return "Enum" + string(unicode.ToUpper(r)) + identifier[size:]
}
