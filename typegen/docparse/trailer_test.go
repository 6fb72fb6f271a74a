package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/stubgen/typegen/infer"
	"github.com/teranos/stubgen/typegen/model"
)

func newTestParser(t *testing.T, strict bool) *Parser {
	engine := infer.NewEngine(infer.NewCache(), infer.NewEnumTable(),
		infer.WithLogger(zaptest.NewLogger(t).Sugar()))
	p := NewParser(engine, strict)
	p.log = zaptest.NewLogger(t).Sugar()
	return p
}

func paramNames(params []model.Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name + ": " + p.Type.Key()
	}
	return names
}

func TestSplit(t *testing.T) {
	summary, description, trailer := Split("One.\n\nTwo\ncontinued.\n   \n:arg x: X.\n\n:type x: int")
	assert.Equal(t, "One.", summary)
	assert.Equal(t, "Two\ncontinued.", description)
	assert.Equal(t, ":arg x: X.\n\n:type x: int", trailer)

	summary, description, trailer = Split("Only a summary.")
	assert.Equal(t, "Only a summary.", summary)
	assert.Empty(t, description)
	assert.Empty(t, trailer)

	_, description, trailer = Split("Summary.\n\nDescription.")
	assert.Equal(t, "Description.", description)
	assert.Empty(t, trailer)
}

func TestParseArgumentTypesThenReturnType(t *testing.T) {
	p := newTestParser(t, false)

	doc := `.. function:: lerp(x, y)

   Interpolate between two values.

   :arg x: First value.
   :type x: float
   :arg y: Second value.
   :type y: float
   :return: The interpolated position.
   :rtype: float triplet`

	res := p.Parse("lerp", doc)

	assert.Equal(t, []string{"x: float", "y: float"}, paramNames(res.Params))
	require.Len(t, res.Returns, 1)
	assert.Same(t, infer.Vector, res.Returns[0])
	assert.Empty(t, res.Diagnostics)
}

func TestParseContinuationLines(t *testing.T) {
	p := newTestParser(t, false)

	doc := "Summary.\n\nDescription.\n\n" +
		":type values: int, float or\n" +
		"   ``datetime.timedelta``.\n" +
		":rtype: :class:`Matrix`.. note:: a copy of the wrapped matrix."

	res := p.Parse("f", doc)
	assert.Equal(t, []string{"values: Union[int, float, datetime.timedelta]"}, paramNames(res.Params))
	require.Len(t, res.Returns, 1)
	assert.Same(t, infer.Matrix, res.Returns[0])
}

func TestParseMultipleReturnsKeepOrder(t *testing.T) {
	p := newTestParser(t, false)

	res := p.Parse("decompose", "S.\n\nD.\n\n:rtype: :class:`Vector`\n:rtype: float")
	require.Len(t, res.Returns, 2)
	assert.Equal(t, "Vector", res.Returns[0].Key())
	assert.Equal(t, "float", res.Returns[1].Key())
}

func TestParseDropsUnmarkedText(t *testing.T) {
	p := newTestParser(t, true)

	doc := "S.\n\nD.\n\n.. note:: Unrelated.\n:type broken\n:type x: int"
	res := p.Parse("f", doc)

	assert.Equal(t, []string{"x: int"}, paramNames(res.Params))
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, "no field marker", res.Diagnostics[0].Reason)
	assert.Equal(t, ".. note:: Unrelated.", res.Diagnostics[0].Text)
	assert.Equal(t, "argument type without name", res.Diagnostics[1].Reason)

	// Strict mode reports but does not change output
	lenient := newTestParser(t, false).Parse("f", doc)
	assert.Equal(t, paramNames(res.Params), paramNames(lenient.Params))
	assert.Len(t, lenient.Diagnostics, 2)
}

func TestParseWithoutTrailer(t *testing.T) {
	p := newTestParser(t, false)

	res := p.Parse("f", "Just a summary.\n\nAnd a description.")
	assert.Empty(t, res.Params)
	assert.Empty(t, res.Returns)

	fn := p.Function("noop", "", true)
	assert.Equal(t, "noop", fn.Name)
	assert.True(t, fn.IsMethod)
	assert.Empty(t, fn.Returns)
}

func TestParseIsDeterministic(t *testing.T) {
	p := newTestParser(t, false)
	doc := "S.\n\nD.\n\n:type seq: sequence of numbers\n:rtype: sequence of numbers"

	first := p.Parse("f", doc)
	second := p.Parse("f", doc)

	assert.Same(t, first.Params[0].Type, second.Params[0].Type)
	assert.Same(t, first.Params[0].Type, first.Returns[0])
}
