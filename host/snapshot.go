package host

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/stubgen/errors"
)

// Format is a snapshot serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Snapshot is a serialized point-in-time reflection dump of the host.
type Snapshot struct {
	// HostVersion is the host release the dump was taken from, e.g. "v2.93.0".
	HostVersion string          `json:"host_version,omitempty" yaml:"host_version,omitempty" toml:"host_version,omitempty"`
	Structs     []StructInfo    `json:"structs" yaml:"structs" toml:"structs"`
	Modules     []ModuleInfo    `json:"modules,omitempty" yaml:"modules,omitempty" toml:"modules,omitempty"`
	Singletons  []SingletonInfo `json:"singletons,omitempty" yaml:"singletons,omitempty" toml:"singletons,omitempty"`
}

// Validate checks the invariants the model relies on: every struct has an
// identifier and a module, and identifiers are unique within a module.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Structs))
	for i, st := range s.Structs {
		if st.Identifier == "" {
			return errors.NewInvalidSnapshotError("struct #%d has no identifier", i)
		}
		if st.Module == "" {
			return errors.NewInvalidSnapshotError("struct %s has no module", st.Identifier)
		}
		key := st.Module + "." + st.Identifier
		if seen[key] {
			return errors.NewInvalidSnapshotError("struct %s defined twice in %s", st.Identifier, st.Module)
		}
		seen[key] = true
	}
	for _, sg := range s.Singletons {
		if sg.Name == "" || sg.Type == "" {
			return errors.NewInvalidSnapshotError("singleton %q needs a name and a type", sg.Name)
		}
	}
	return nil
}

// FormatFromPath picks the format from the file extension. Unknown
// extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// LoadSnapshot reads and validates a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read snapshot %s", path)
	}
	snap, err := DecodeSnapshot(data, FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load snapshot %s", path)
	}
	return snap, nil
}

// DecodeSnapshot parses and validates snapshot data.
func DecodeSnapshot(data []byte, format Format) (*Snapshot, error) {
	var snap Snapshot
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &snap)
	case FormatTOML:
		_, err = toml.Decode(string(data), &snap)
	case FormatJSON:
		err = json.Unmarshal(data, &snap)
	default:
		return nil, errors.Newf("unknown snapshot format %q", format)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "malformed %s snapshot", format), errors.ErrInvalidSnapshot)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EncodeSnapshot serializes snap.
func EncodeSnapshot(snap *Snapshot, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, errors.Wrap(err, "failed to encode yaml snapshot")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to encode yaml snapshot")
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(snap); err != nil {
			return nil, errors.Wrap(err, "failed to encode toml snapshot")
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return nil, errors.Wrap(err, "failed to encode json snapshot")
		}
	default:
		return nil, errors.Newf("unknown snapshot format %q", format)
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes snap to path in the format its extension selects.
func WriteSnapshot(path string, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "failed to write snapshot %s", path)
}

// SnapshotProvider serves a decoded snapshot.
type SnapshotProvider struct {
	snap *Snapshot
}

// NewSnapshotProvider wraps snap.
func NewSnapshotProvider(snap *Snapshot) *SnapshotProvider {
	return &SnapshotProvider{snap: snap}
}

// Snapshot returns the served snapshot.
func (p *SnapshotProvider) Snapshot() *Snapshot {
	return p.snap
}

func (p *SnapshotProvider) Structs(ctx context.Context) ([]StructInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.snap.Structs, nil
}

func (p *SnapshotProvider) Modules(ctx context.Context) ([]ModuleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.snap.Modules, nil
}

func (p *SnapshotProvider) Singletons(ctx context.Context) ([]SingletonInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.snap.Singletons, nil
}
