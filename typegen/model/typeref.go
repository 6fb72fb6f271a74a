// Package model is the in-memory entity model built from one reflection snapshot:
// type references, structs with their properties and methods, modules, and the
// enum side table.
package model

import "strings"

// Kind discriminates the TypeRef variants.
type Kind int

const (
	KindAny Kind = iota
	KindNone
	KindPrimitive
	KindNamed
	KindCollection
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindNone:
		return "none"
	case KindPrimitive:
		return "primitive"
	case KindNamed:
		return "named"
	case KindCollection:
		return "collection"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// TypeRef is a target type expression. Implementations are pointers; the
// inference cache hands out one instance per distinct key so identity can be
// compared with ==. Key gives the language-neutral canonical text.
type TypeRef interface {
	Kind() Kind
	Key() string
	isTypeRef()
}

// PrimitiveRef is a builtin scalar such as str, int or datetime.timedelta.
type PrimitiveRef struct {
	Name string
}

func (*PrimitiveRef) Kind() Kind { return KindPrimitive }
func (p *PrimitiveRef) Key() string { return p.Name }
func (*PrimitiveRef) isTypeRef() {}

// NamedRef references a struct (or an imported class) by identifier.
type NamedRef struct {
	Identifier string
}

func (*NamedRef) Kind() Kind { return KindNamed }
func (n *NamedRef) Key() string { return n.Identifier }
func (*NamedRef) isTypeRef() {}

// CollectionRef is a sequence wrapper over Item. While the item struct is not
// yet modeled, Item is Any and Pending holds the identifier to resolve later.
type CollectionRef struct {
	Item    TypeRef
	Pending string
}

func (*CollectionRef) Kind() Kind { return KindCollection }
func (c *CollectionRef) Key() string {
	if c.Pending != "" {
		return "Collection[?" + c.Pending + "]"
	}
	return "Collection[" + keyOf(c.Item) + "]"
}
func (*CollectionRef) isTypeRef() {}

// ItemName returns the identifier of a Named item, or "" for Any items.
func (c *CollectionRef) ItemName() string {
	if n, ok := c.Item.(*NamedRef); ok {
		return n.Identifier
	}
	return ""
}

// UnionRef is one of several types, in declaration order.
type UnionRef struct {
	Types []TypeRef
}

func (*UnionRef) Kind() Kind { return KindUnion }
func (u *UnionRef) Key() string {
	keys := make([]string, len(u.Types))
	for i, t := range u.Types {
		keys[i] = keyOf(t)
	}
	return "Union[" + strings.Join(keys, ", ") + "]"
}
func (*UnionRef) isTypeRef() {}

type anyRef struct{}

func (*anyRef) Kind() Kind { return KindAny }
func (*anyRef) Key() string { return "Any" }
func (*anyRef) isTypeRef() {}

type noRef struct{}

func (*noRef) Kind() Kind { return KindNone }
func (*noRef) Key() string { return "" }
func (*noRef) isTypeRef() {}

// Singletons for the two payload-free variants.
var (
	Any    TypeRef = &anyRef{}
	NoType TypeRef = &noRef{}
)

// Primitive returns a new PrimitiveRef.
func Primitive(name string) *PrimitiveRef { return &PrimitiveRef{Name: name} }

// Named returns a new NamedRef.
func Named(identifier string) *NamedRef { return &NamedRef{Identifier: identifier} }

// Collection returns a resolved CollectionRef over item.
func Collection(item TypeRef) *CollectionRef { return &CollectionRef{Item: item} }

// PendingCollection returns a CollectionRef whose item struct is not modeled yet.
func PendingCollection(identifier string) *CollectionRef {
	return &CollectionRef{Item: Any, Pending: identifier}
}

// Union returns a new UnionRef over types.
func Union(types ...TypeRef) *UnionRef { return &UnionRef{Types: types} }

// Equal reports structural equality. Two nil refs are equal.
func Equal(a, b TypeRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Key() == b.Key()
}

func keyOf(t TypeRef) string {
	if t == nil {
		return "Any"
	}
	return t.Key()
}
