package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/branding"
	"github.com/fieldsync-labs/fieldsync/internal/client"
	"github.com/fieldsync-labs/fieldsync/internal/config"
	"github.com/fieldsync-labs/fieldsync/internal/updater"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps field-survey project directories in sync with a project
server: clone a project, collect data offline, then push your changes and
pull everyone else's.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()

		// Skip banners for commands that manage their own output.
		name := cmd.Name()
		if name == "version" || name == "config" || name == "get" || name == "set" {
			return
		}

		// Non-blocking banner from cached version check.
		u := updater.New(buildVersion, client.New(config.ServerURL(), config.Get(config.KeyServerToken)))
		u.CheckAndPrintBanner(os.Stderr, config.Dir())
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// logger builds the diagnostic logger. Verbose mode gets human-readable
// development output on stderr; otherwise logs are suppressed.
func logger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openWorkspace locates the workspace enclosing the current directory.
func openWorkspace() (*workspace.Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	ws, err := workspace.Open(cwd)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w (run `%s init` or `%s clone` first)",
			err, branding.CLIName(), branding.CLIName())
	}
	return ws, nil
}

// buildClient creates a server client using the workspace's server override
// when present, falling back to the global configuration. ws may be nil.
func buildClient(ws *workspace.Workspace) (*client.Client, error) {
	server := config.ServerURL()
	if ws != nil && ws.Config.Server != "" {
		server = ws.Config.Server
	}

	deviceID, err := config.DeviceID()
	if err != nil {
		return nil, err
	}

	return client.New(server, config.Get(config.KeyServerToken),
		client.WithLogger(logger()),
		client.WithDeviceID(deviceID),
	), nil
}
