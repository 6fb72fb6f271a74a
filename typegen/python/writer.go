package python

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/model"
)

// Writer writes rendered modules below an output directory. Existing files
// are overwritten, never merged.
type Writer struct {
	dir  string
	opts Options
	log  *zap.SugaredLogger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, opts Options) *Writer {
	return &Writer{
		dir:  dir,
		opts: opts,
		log:  logger.ComponentLogger("typegen.python"),
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// ModulePath maps a dotted module path to its stub file below dir.
func ModulePath(dir, module string) string {
	parts := append([]string{dir}, strings.Split(module, ".")...)
	return filepath.Join(append(parts, FileName)...)
}

// WriteModule renders and writes an ordered struct module.
func (w *Writer) WriteModule(m *model.Module, ordered []*model.Struct) (string, error) {
	return w.write(m.Name, RenderModule(m.Name, ordered, w.opts))
}

// WriteStandalone renders and writes a documentation-derived module.
func (w *Writer) WriteStandalone(m *model.Standalone) (string, error) {
	return w.write(m.Name, RenderStandalone(m))
}

// WriteIndex writes the root package file.
func (w *Writer) WriteIndex(root string, children []string, singletons []model.Singleton) (string, error) {
	return w.write(root, RenderIndex(children, singletons, w.opts.IndexSuffix))
}

func (w *Writer) write(module, content string) (string, error) {
	path := ModulePath(w.dir, module)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %s", module)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	w.log.Debugw("wrote module", logger.FieldModule, module, logger.FieldFile, path)
	return path, nil
}

// Children returns the direct child segments of root among modules, in
// first-seen order without repeats. Children("bpy", "bpy.types",
// "bpy.ops.mesh", "mathutils") is [types ops].
func Children(root string, modules ...string) []string {
	prefix := root + "."
	seen := make(map[string]bool)
	var out []string
	for _, m := range modules {
		if !strings.HasPrefix(m, prefix) {
			continue
		}
		child := strings.SplitN(m[len(prefix):], ".", 2)[0]
		if child != "" && !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}
