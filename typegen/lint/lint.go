// Package lint checks generated stub files for Python syntax errors with the
// tree-sitter Python grammar. It never type-checks; it only confirms every
// file parses.
package lint

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/teranos/stubgen/errors"
)

// Issue is one syntax error location. Line and Column are 1-based.
type Issue struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}

// Source parses src and returns its syntax issues in document order.
func Source(ctx context.Context, file string, src []byte) ([]Issue, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", file)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}

	var issues []Issue
	collect(root, src, file, &issues)
	return issues, nil
}

func collect(n *sitter.Node, src []byte, file string, issues *[]Issue) {
	if n == nil {
		return
	}
	switch {
	case n.IsMissing():
		*issues = append(*issues, issue(n, src, file, "missing "+n.Type()))
		return
	case n.Type() == "ERROR":
		*issues = append(*issues, issue(n, src, file, "syntax error"))
		return
	case !n.HasError():
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collect(n.Child(i), src, file, issues)
	}
}

func issue(n *sitter.Node, src []byte, file, kind string) Issue {
	text := n.Content(src)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 80 {
		text = text[:80]
	}
	p := n.StartPoint()
	return Issue{
		File:   file,
		Line:   int(p.Row) + 1,
		Column: int(p.Column) + 1,
		Kind:   kind,
		Text:   text,
	}
}

// File lints one file.
func File(ctx context.Context, path string) ([]Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return Source(ctx, path, src)
}

// Dir lints every .pyi file below dir, in path order.
func Dir(ctx context.Context, dir string) ([]Issue, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".pyi") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", dir)
	}
	sort.Strings(files)

	var all []Issue
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issues, err := File(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, issues...)
	}
	return all, nil
}
