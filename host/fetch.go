package host

// Snapshot source resolution.
// Uses hashicorp/go-getter so a snapshot can come from:
//   - Local paths
//   - HTTP(S) URLs, optionally archived (tar.gz, zip) and auto-extracted
//   - Git repositories (git::https://..., github.com/user/repo//path/snapshot.json)
//   - Object stores supported by go-getter (s3::, gcs::)

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/internal/httpclient"
)

// FetchOptions controls remote snapshot downloads.
type FetchOptions struct {
	// CacheDir keeps downloads between runs. Empty means a temporary
	// directory removed by Source.Cleanup.
	CacheDir string
	// Timeout bounds each HTTP request. Zero means none.
	Timeout time.Duration
	// BlockPrivate refuses HTTP downloads from loopback and private networks.
	BlockPrivate bool
}

// Source is a snapshot resolved to a local file.
type Source struct {
	// Path is the local snapshot file.
	Path string
	// Input is the original source string.
	Input string
	// Remote is true when the snapshot was downloaded.
	Remote bool

	cleanup func()
}

// Cleanup removes any temporary download. Safe to call multiple times.
func (s *Source) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Load reads the resolved snapshot.
func (s *Source) Load() (*Snapshot, error) {
	return LoadSnapshot(s.Path)
}

// Fetch resolves input to a local snapshot file. Remote inputs are
// downloaded as described by opts; the returned Source must be cleaned up
// when done.
func Fetch(ctx context.Context, input string, opts FetchOptions, log *zap.SugaredLogger) (*Source, error) {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to detect snapshot source %s", input)
	}
	log.Debugw("go-getter detected source", "input", input, "detected", detected)

	parsed, err := url.Parse(detected)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse detected URL")
	}

	if parsed.Scheme == "file" || parsed.Scheme == "" {
		local := input
		if parsed.Scheme == "file" {
			local = parsed.Path
		}
		if strings.HasPrefix(local, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, errors.Wrap(err, "failed to expand home directory")
			}
			local = filepath.Join(home, local[2:])
		}
		if !filepath.IsAbs(local) {
			local = filepath.Join(pwd, local)
		}
		if _, err := os.Stat(local); err != nil {
			return nil, errors.Wrapf(err, "snapshot %s not found", local)
		}
		return &Source{Path: local, Input: input, cleanup: func() {}}, nil
	}

	return download(ctx, input, detected, opts, log)
}

// getters replaces the HTTP getters with ones using the guarded client.
func getters(opts FetchOptions) map[string]getter.Getter {
	client := httpclient.New(httpclient.Options{
		Timeout:      opts.Timeout,
		BlockPrivate: opts.BlockPrivate,
	})
	out := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		out[scheme] = g
	}
	out["http"] = &getter.HttpGetter{Client: client}
	out["https"] = &getter.HttpGetter{Client: client}
	return out
}

func download(ctx context.Context, input, detected string, opts FetchOptions, log *zap.SugaredLogger) (*Source, error) {
	var dir string
	var err error
	cacheDir := opts.CacheDir
	temporary := cacheDir == ""
	if temporary {
		dir, err = os.MkdirTemp("", "stubgen-snapshot-*")
	} else {
		dir = filepath.Join(cacheDir, sanitize(input))
		err = os.MkdirAll(filepath.Dir(dir), 0755)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare download directory")
	}

	name := snapshotName(detected)
	dst := filepath.Join(dir, name)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     dir,
		Mode:    getter.ClientModeFile,
		Getters: getters(opts),
	}

	log.Infow("fetching snapshot", "input", input, "destination", dst)
	if err := client.Get(); err != nil {
		if temporary {
			os.RemoveAll(dir)
		}
		return nil, errors.Wrapf(err, "failed to fetch snapshot %s", input)
	}

	src := &Source{Path: dst, Input: input, Remote: true, cleanup: func() {}}
	if temporary {
		src.cleanup = func() {
			log.Debugw("cleaning up fetched snapshot", "path", dir)
			os.RemoveAll(dir)
		}
	}
	return src, nil
}

// snapshotName keeps the remote file name so the extension still selects
// the decoder.
func snapshotName(detected string) string {
	u, err := url.Parse(strings.TrimPrefix(detected, strings.SplitN(detected, "::", 2)[0]+"::"))
	if err != nil || u.Path == "" {
		return "snapshot.json"
	}
	base := filepath.Base(u.Path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json", ".yaml", ".yml", ".toml":
		return base
	}
	return "snapshot.json"
}

func sanitize(input string) string {
	r := strings.NewReplacer(":", "-", "/", "-", "@", "-", "?", "-", "&", "-", " ", "-")
	name := strings.Trim(r.Replace(input), "-")
	if len(name) > 80 {
		name = name[:80]
	}
	if name == "" {
		name = "snapshot"
	}
	return name
}
