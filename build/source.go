package build

// Source checkout for the build pipeline.
// The repository is cloned once into <work_dir>/blender. Every selected tag
// then gets its own clone of that checkout below <work_dir>/<tag>/blender,
// pinned to the tag, with submodules.

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
)

// MainCheckout is the directory below the work dir holding the primary clone.
const MainCheckout = "blender"

// Source manages the repository checkouts of one work directory.
type Source struct {
	Repository string
	WorkDir    string
	log        *zap.SugaredLogger
}

// NewSource creates a Source cloning repository into workDir.
func NewSource(repository, workDir string, log *zap.SugaredLogger) *Source {
	if log == nil {
		log = logger.ComponentLogger("build.source")
	}
	return &Source{Repository: repository, WorkDir: workDir, log: log}
}

// MainPath is the primary clone.
func (s *Source) MainPath() string {
	return filepath.Join(s.WorkDir, MainCheckout)
}

// TagPath is the checkout used to build tag.
func (s *Source) TagPath(tag string) string {
	return filepath.Join(s.WorkDir, tag, MainCheckout)
}

// Open returns the primary clone, cloning it first when absent.
func (s *Source) Open(ctx context.Context) (*git.Repository, error) {
	path := s.MainPath()
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		s.log.Debugw("using existing checkout", logger.FieldPath, path)
		repo, err := git.PlainOpen(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open checkout %s", path)
		}
		return repo, nil
	}

	if err := os.MkdirAll(s.WorkDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create work directory")
	}
	s.log.Infow("cloning repository", "url", s.Repository, logger.FieldPath, path)
	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:               s.Repository,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		os.RemoveAll(path)
		return nil, errors.Wrapf(err, "failed to clone %s", s.Repository)
	}
	return repo, nil
}

// Tags lists the tag names of repo.
func (s *Source) Tags(repo *git.Repository) ([]string, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	defer refs.Close()

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to iterate tags")
	}
	return tags, nil
}

// Checkout prepares the checkout for tag and returns its path. An existing
// checkout is reused as is.
func (s *Source) Checkout(ctx context.Context, tag string) (string, error) {
	path := s.TagPath(tag)
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		s.log.Debugw("using existing tag checkout", logger.FieldVersion, tag, logger.FieldPath, path)
		return path, nil
	}

	s.log.Infow("checking out tag", logger.FieldVersion, tag, logger.FieldPath, path)
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:               s.MainPath(),
		ReferenceName:     plumbing.NewTagReferenceName(tag),
		SingleBranch:      true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		os.RemoveAll(path)
		return "", errors.Wrapf(err, "failed to check out %s", tag)
	}
	return path, nil
}
