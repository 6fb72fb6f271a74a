// Package python renders the entity model as Python stub files (.pyi).
//
// Rendering is pure: Render* functions return text, and Writer only maps
// dotted module paths onto <out>/<a>/<b>/__init__.pyi and overwrites the
// files. Identical models render byte-identical output.
package python

import (
	"strings"

	"github.com/teranos/stubgen/typegen/model"
)

// FileName is the leaf file written in every module directory.
const FileName = "__init__.pyi"

const noqa = " ... # noqa"

// pythonKeywords are hard keywords that cannot name a parameter. Soft
// keywords (match, case, type) are valid identifiers and stay as they are.
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// toPythonIdent converts an identifier to a valid Python identifier
// Adds underscore suffix for Python keywords
func toPythonIdent(s string) string {
	if pythonKeywords[s] {
		return s + "_"
	}
	return s
}

// TypeExpr renders a type annotation. Struct refs are quoted forward
// references so declaration order inside a file never matters to a checker.
func TypeExpr(t model.TypeRef) string {
	switch v := t.(type) {
	case nil:
		return "Any"
	case *model.PrimitiveRef:
		return v.Name
	case *model.NamedRef:
		return "'" + v.Identifier + "'"
	case *model.CollectionRef:
		return "'bpy_prop_collection[" + itemExpr(v) + "]'"
	case *model.UnionRef:
		parts := make([]string, len(v.Types))
		for i, m := range v.Types {
			parts[i] = TypeExpr(m)
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	}
	if t.Kind() == model.KindNone {
		return "None"
	}
	return "Any"
}

func itemExpr(c *model.CollectionRef) string {
	switch item := c.Item.(type) {
	case *model.NamedRef:
		return item.Identifier
	case *model.PrimitiveRef:
		return item.Name
	}
	return "Any"
}

// BaseExpr renders a class base, unquoted.
func BaseExpr(t model.TypeRef) string {
	return strings.ReplaceAll(TypeExpr(t), "'", "")
}

// Param renders one parameter: "name", "name: T" or "name: T = default".
func Param(p model.Parameter) string {
	name := p.Name
	if !strings.HasPrefix(name, "*") {
		name = toPythonIdent(name)
	}
	if p.Type == nil {
		return name
	}
	s := name + ": " + TypeExpr(p.Type)
	if p.Default != "" {
		s += " = " + p.Default
	}
	return s
}

// Signature renders a def line. Methods are indented and take self. Zero
// returns render as None, one as that type, several as a Tuple in order.
func Signature(fn model.Function) string {
	var sb strings.Builder
	params := make([]string, 0, len(fn.Params)+1)
	if fn.IsMethod {
		sb.WriteString("    ")
		params = append(params, "self")
	}
	for _, p := range fn.Params {
		params = append(params, Param(p))
	}

	sb.WriteString("def ")
	sb.WriteString(fn.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(") -> ")
	sb.WriteString(ReturnExpr(fn.Returns))
	sb.WriteString(":")
	sb.WriteString(noqa)
	return sb.String()
}

// ReturnExpr renders a return annotation.
func ReturnExpr(returns []model.TypeRef) string {
	switch len(returns) {
	case 0:
		return "None"
	case 1:
		return TypeExpr(returns[0])
	}
	parts := make([]string, len(returns))
	for i, r := range returns {
		parts[i] = TypeExpr(r)
	}
	return "Tuple[" + strings.Join(parts, ", ") + "]"
}

// RenderStruct renders one class block. Properties named in skip are left
// out; a class with nothing to declare gets pass.
func RenderStruct(s *model.Struct, skip map[string]bool) string {
	var sb strings.Builder
	sb.WriteString("class ")
	sb.WriteString(s.Identifier)
	if s.Base != nil {
		sb.WriteString("(")
		sb.WriteString(BaseExpr(s.Base))
		sb.WriteString(")")
	}
	sb.WriteString(":\n")

	rendered := 0
	for _, p := range s.Properties {
		if skip[p.Name] {
			continue
		}
		rendered++
		sb.WriteString("    ")
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(TypeExpr(p.Type))
		sb.WriteString("\n")
	}
	for _, fn := range s.Methods {
		sb.WriteString(Signature(fn))
		sb.WriteString("\n")
	}
	if rendered == 0 && len(s.Methods) == 0 {
		sb.WriteString("    pass\n")
	}
	return sb.String()
}
