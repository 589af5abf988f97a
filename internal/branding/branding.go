// Package branding provides compile-time identity values for the CLI.
//
// Deployments that rebrand the tool edit branding.yaml in this package;
// Go's //go:embed bakes it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName          string `yaml:"cli_name"`
	DisplayName      string `yaml:"display_name"`
	Description      string `yaml:"description"`
	HomeDir          string `yaml:"home_dir"`
	MetaDir          string `yaml:"meta_dir"`
	EnvPrefix        string `yaml:"env_prefix"`
	GoModule         string `yaml:"go_module"`
	DefaultServerURL string `yaml:"default_server_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:          "fieldsync",
			DisplayName:      "FieldSync",
			Description:      "Project synchronization for field-survey workspaces",
			HomeDir:          ".fieldsync",
			MetaDir:          ".fieldsync",
			EnvPrefix:        "FIELDSYNC",
			GoModule:         "github.com/fieldsync-labs/fieldsync",
			DefaultServerURL: "https://sync.fieldsync.dev",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "fieldsync").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "FieldSync").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".fieldsync").
func HomeDir() string { load(); return defaults.HomeDir }

// MetaDir returns the per-workspace metadata directory name.
func MetaDir() string { load(); return defaults.MetaDir }

// EnvPrefix returns the environment variable prefix (e.g., "FIELDSYNC").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by release scripts, not at runtime.
func GoModule() string { load(); return defaults.GoModule }

// DefaultServerURL returns the sync server used when none is configured.
func DefaultServerURL() string { load(); return defaults.DefaultServerURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "FIELDSYNC_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
