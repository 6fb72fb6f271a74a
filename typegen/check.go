package typegen

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
)

// CheckResult holds the result of a stubs check. Paths are relative to the
// compared directories.
type CheckResult struct {
	UpToDate bool
	// Differences lists files whose content changed.
	Differences []string
	// Missing lists files that generation would create.
	Missing []string
	// Stale lists stub files that generation would no longer write.
	Stale []string
}

// Check generates stubs for p into a temporary directory and compares them
// with the stubs already in the generator's output directory. Nothing in
// the output directory is modified and the run is not recorded.
func (g *Generator) Check(ctx context.Context, p host.Provider) (*CheckResult, error) {
	tempDir, err := os.MkdirTemp("", "stubgen-check-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	cfg := g.cfg
	cfg.OutputDir = tempDir
	cfg.Lint = false
	if _, err := NewGenerator(cfg).Generate(ctx, p, ""); err != nil {
		return nil, errors.Wrap(err, "failed to generate stubs for comparison")
	}

	return CompareDirectories(tempDir, g.cfg.OutputDir)
}

// CompareDirectories compares freshly generated stubs in generatedDir with
// the stubs in existingDir. Only .pyi files take part.
func CompareDirectories(generatedDir, existingDir string) (*CheckResult, error) {
	generated, err := stubFiles(generatedDir)
	if err != nil {
		return nil, err
	}
	existing, err := stubFiles(existingDir)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{}
	for _, rel := range generated {
		existingPath := filepath.Join(existingDir, rel)
		if _, err := os.Stat(existingPath); os.IsNotExist(err) {
			res.Missing = append(res.Missing, rel)
			continue
		}
		different, err := filesAreDifferent(filepath.Join(generatedDir, rel), existingPath)
		if err != nil {
			return nil, err
		}
		if different {
			res.Differences = append(res.Differences, rel)
		}
	}

	wanted := make(map[string]bool, len(generated))
	for _, rel := range generated {
		wanted[rel] = true
	}
	for _, rel := range existing {
		if !wanted[rel] {
			res.Stale = append(res.Stale, rel)
		}
	}

	res.UpToDate = len(res.Differences) == 0 && len(res.Missing) == 0 && len(res.Stale) == 0
	return res, nil
}

// stubFiles returns the sorted relative paths of the .pyi files below dir.
// A missing dir has none.
func stubFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".pyi") {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// filesAreDifferent compares two files byte for byte.
func filesAreDifferent(file1, file2 string) (bool, error) {
	content1, err := os.ReadFile(file1)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file1)
	}
	content2, err := os.ReadFile(file2)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file2)
	}
	return !bytes.Equal(content1, content2), nil
}
