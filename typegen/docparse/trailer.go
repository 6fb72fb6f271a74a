// Package docparse recovers parameter and return types from routine
// documentation written in the host's reStructuredText field convention:
//
//	Return a quaternion rotation from the vector.
//
//	   :arg track: Track axis.
//	   :type track: string
//	   :return: rotation from the vector.
//	   :rtype: :class:`Quaternion`
//
// Only the trailer (everything after the second blank-line boundary) is read.
// ":type" entries become parameters and ":rtype:" entries become returns;
// ":arg" and ":return:" carry no type and are discarded.
package docparse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/infer"
	"github.com/teranos/stubgen/typegen/model"
)

// Field markers of the documentation convention.
const (
	MarkerReturn     = ":return:"
	MarkerReturnType = ":rtype:"
	MarkerArg        = ":arg "
	MarkerArgType    = ":type "
)

var (
	blankLine    = regexp.MustCompile(`\n[ \t]*\n\s*`)
	classRole    = regexp.MustCompile("^:class:`([\\w.]+)`")
	markerPrefix = []string{MarkerReturn, MarkerReturnType, MarkerArg, MarkerArgType}
)

// Diagnostic describes a trailer fragment dropped without contributing a type.
type Diagnostic struct {
	Routine string
	Text    string
	Reason  string
}

// Result is the typed information recovered from one documentation string.
type Result struct {
	Params      []model.Parameter
	Returns     []model.TypeRef
	Diagnostics []Diagnostic
}

// Parser turns documentation into parameters and return types. In strict
// mode every dropped fragment is logged as a warning; output is identical.
type Parser struct {
	engine *infer.Engine
	strict bool
	log    *zap.SugaredLogger
}

// NewParser creates a parser that infers through engine.
func NewParser(engine *infer.Engine, strict bool) *Parser {
	return &Parser{
		engine: engine,
		strict: strict,
		log:    logger.ComponentLogger("typegen.docparse"),
	}
}

// Split divides doc into summary, description and trailer on the first two
// blank-line boundaries. Missing segments are empty.
func Split(doc string) (summary, description, trailer string) {
	parts := blankLine.Split(strings.ReplaceAll(doc, "\r\n", "\n"), 3)
	switch len(parts) {
	case 3:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	case 2:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), ""
	default:
		return strings.TrimSpace(parts[0]), "", ""
	}
}

// Parse reads the trailer of doc. routine names the documented routine in
// diagnostics.
func (p *Parser) Parse(routine, doc string) Result {
	var res Result

	_, _, trailer := Split(doc)
	if trailer == "" {
		return res
	}

	var current string
	flush := func() {
		if current != "" {
			p.classify(routine, current, &res)
		}
		current = ""
	}

	for _, line := range strings.Split(trailer, "\n") {
		line = strings.TrimSpace(line)
		if hasMarker(line) {
			flush()
			current = line
			continue
		}
		if line == "" {
			continue
		}
		if current == "" {
			current = line
		} else {
			current += " " + line
		}
	}
	flush()

	if p.strict {
		for _, d := range res.Diagnostics {
			p.log.Warnw("dropped documentation fragment",
				"routine", d.Routine,
				"reason", d.Reason,
				"text", d.Text,
			)
		}
	}
	return res
}

// Function builds a model.Function from name and its documentation.
func (p *Parser) Function(name, doc string, isMethod bool) model.Function {
	res := p.Parse(name, doc)
	return model.Function{
		Name:     name,
		IsMethod: isMethod,
		Params:   res.Params,
		Returns:  res.Returns,
	}
}

func (p *Parser) classify(routine, entry string, res *Result) {
	switch {
	case strings.HasPrefix(entry, MarkerReturnType):
		text := strings.TrimSpace(entry[len(MarkerReturnType):])
		if m := classRole.FindStringSubmatch(text); m != nil {
			text = m[1]
		}
		res.Returns = append(res.Returns, p.engine.FromName(text))

	case strings.HasPrefix(entry, MarkerArgType):
		rest := entry[len(MarkerArgType):]
		name, typeText, ok := strings.Cut(rest, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Routine: routine, Text: entry, Reason: "argument type without name",
			})
			return
		}
		typeText = strings.TrimSpace(typeText)
		if m := classRole.FindStringSubmatch(typeText); m != nil {
			typeText = m[1]
		}
		res.Params = append(res.Params, model.Parameter{
			Name: name,
			Type: p.engine.FromName(typeText),
		})

	case strings.HasPrefix(entry, MarkerArg), strings.HasPrefix(entry, MarkerReturn):
		// Descriptions only

	default:
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Routine: routine, Text: entry, Reason: "no field marker",
		})
	}
}

func hasMarker(line string) bool {
	for _, m := range markerPrefix {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
