package infer

import "github.com/teranos/stubgen/typegen/model"

// Primitive and dedicated TypeRefs shared by the phrase table and the rules.
var (
	Str       = model.Primitive("str")
	Bool      = model.Primitive("bool")
	Int       = model.Primitive("int")
	Float     = model.Primitive("float")
	Timedelta = model.Primitive("datetime.timedelta")

	Vector = model.Named("Vector")
	Matrix = model.Named("Matrix")
)

// phraseTable maps documentation phrases, exactly as the host writes them,
// to pre-built TypeRefs. Scalar property kinds resolve through it too.
var phraseTable = map[string]model.TypeRef{
	"str":                Str,
	"string":             Str,
	"boolean":            Bool,
	"bool":               Bool,
	"int":                Int,
	"float":              Float,
	"datetime.timedelta": Timedelta,

	"int or float.":                             model.Union(Int, Float),
	"int, float or ``datetime.timedelta``.":     model.Union(Int, Float, Timedelta),
	"number or a ``datetime.timedelta`` object": model.Union(Float, Timedelta),

	"float triplet":   Vector,
	"3d vector":       Vector,
	"Vector":          Vector,
	":class:`Vector`": Vector,
	"Matrix":          Matrix,
	"Matrix Access":   Matrix,
	":class:`Matrix`": Matrix,

	"any": model.Any,
}

// IsPhrase reports whether text is a known documentation phrase.
func IsPhrase(text string) bool {
	_, ok := phraseTable[text]
	return ok
}
