// Package workspace manages a synced project directory: the .fieldsync/
// metadata dir inside it, the project configuration, and the cached copy of
// the last server manifest.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/fieldsync-labs/fieldsync/internal/branding"
	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// File and directory names inside the workspace metadata dir.
const (
	ConfigFile   = "project.yaml"
	ManifestFile = "manifest.json"

	// ConflictSuffix marks local copies preserved when the server version of
	// a file wins during a pull.
	ConflictSuffix = "_conflict_copy"
)

// Permission constants.
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

// ErrNotFound is returned by Open when no workspace encloses the directory.
var ErrNotFound = errors.New("not inside a fieldsync workspace")

// Config is the per-project configuration stored in .fieldsync/project.yaml.
type Config struct {
	Name      string   `yaml:"name"`
	Namespace string   `yaml:"namespace"`
	Server    string   `yaml:"server,omitempty"` // overrides the global server URL
	Ignore    []string `yaml:"ignore,omitempty"` // extra scan ignore patterns
}

// Workspace is an opened project directory.
type Workspace struct {
	Root   string
	Config Config
}

// MetaDirName returns the metadata directory name (".fieldsync").
func MetaDirName() string { return branding.MetaDir() }

// Init creates the metadata dir and project config inside root. The root
// directory is created if needed. Init fails if root is already a workspace.
func Init(root string, cfg Config) (*Workspace, error) {
	metaDir := filepath.Join(root, MetaDirName())
	if _, err := os.Stat(metaDir); err == nil {
		return nil, fmt.Errorf("%s is already a workspace", root)
	}
	if err := os.MkdirAll(metaDir, DirPerm); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	ws := &Workspace{Root: root, Config: cfg}
	if err := ws.SaveConfig(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Open locates the workspace enclosing dir by walking up toward the
// filesystem root, and loads its project config.
func Open(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	for {
		metaDir := filepath.Join(abs, MetaDirName())
		if info, err := os.Stat(metaDir); err == nil && info.IsDir() {
			return load(abs)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return nil, ErrNotFound
		}
		abs = parent
	}
}

func load(root string) (*Workspace, error) {
	ws := &Workspace{Root: root}

	data, err := os.ReadFile(ws.MetaPath(ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("reading project config: %w", err)
	}
	if err := yaml.Unmarshal(data, &ws.Config); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}
	return ws, nil
}

// MetaPath joins parts under the workspace metadata dir.
func (ws *Workspace) MetaPath(parts ...string) string {
	return filepath.Join(append([]string{ws.Root, MetaDirName()}, parts...)...)
}

// FilePath resolves a manifest path to its location on disk.
func (ws *Workspace) FilePath(rel string) string {
	return filepath.Join(ws.Root, filepath.FromSlash(rel))
}

// ManifestPath returns the location of the cached server manifest.
func (ws *Workspace) ManifestPath() string {
	return ws.MetaPath(ManifestFile)
}

// CachedManifest loads the last-synced server manifest. A missing or
// unreadable cache yields an empty manifest — "no files known".
func (ws *Workspace) CachedManifest() *manifest.ProjectManifest {
	return manifest.ParseCached(ws.ManifestPath())
}

// SaveManifest writes m as the cached server manifest.
func (ws *Workspace) SaveManifest(m *manifest.ProjectManifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ws.MetaPath(), DirPerm); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	if err := os.WriteFile(ws.ManifestPath(), data, FilePerm); err != nil {
		return fmt.Errorf("writing cached manifest: %w", err)
	}
	return nil
}

// SaveConfig writes the project config to .fieldsync/project.yaml.
func (ws *Workspace) SaveConfig() error {
	data, err := yaml.Marshal(ws.Config)
	if err != nil {
		return fmt.Errorf("marshaling project config: %w", err)
	}
	if err := os.WriteFile(ws.MetaPath(ConfigFile), data, FilePerm); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	return nil
}

// Ref returns the "namespace/name" form of the project.
func (ws *Workspace) Ref() string {
	return ws.Config.Namespace + "/" + ws.Config.Name
}

// IgnorePatterns returns the scan exclusions for this workspace: the
// metadata dir, conflict copies, and any configured extras.
func (ws *Workspace) IgnorePatterns() []string {
	patterns := []string{MetaDirName(), "*" + ConflictSuffix}
	return append(patterns, ws.Config.Ignore...)
}

// ConflictCopyPath returns the on-disk path a local file is moved to when it
// loses a pull conflict, e.g. "survey.gpkg" → "survey.gpkg_conflict_copy".
func (ws *Workspace) ConflictCopyPath(rel string) string {
	return ws.FilePath(rel) + ConflictSuffix
}
