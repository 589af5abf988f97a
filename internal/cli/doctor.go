package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/config"
	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

var doctorOffline bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "Skip server checks")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the client, configuration, and workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// Configuration.
		fmt.Fprintln(out, "Configuration:")
		if _, err := os.Stat(config.FilePath()); err == nil {
			fmt.Fprintf(out, "  [ OK ] config file at %s\n", config.FilePath())
		} else {
			fmt.Fprintf(out, "  [INFO] no config file yet (defaults in effect)\n")
		}
		fmt.Fprintf(out, "  [INFO] server: %s\n", config.ServerURL())
		if config.Get(config.KeyServerToken) == "" {
			fmt.Fprintf(out, "  [WARN] no server token set — only public projects are reachable\n")
		}

		// Workspace.
		fmt.Fprintln(out, "Workspace:")
		cwd, _ := os.Getwd()
		ws, err := workspace.Open(cwd)
		switch {
		case err == nil:
			fmt.Fprintf(out, "  [ OK ] inside workspace %s (%s)\n", ws.Ref(), ws.Root)
			checkCachedManifest(cmd, ws)
		case err == workspace.ErrNotFound:
			fmt.Fprintf(out, "  [INFO] not inside a workspace\n")
		default:
			fmt.Fprintf(out, "  [FAIL] workspace config unreadable: %v\n", err)
		}

		// Server.
		if doctorOffline {
			return nil
		}
		fmt.Fprintln(out, "Server:")
		c, err := buildClient(ws)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] building client: %v\n", err)
			return nil
		}
		info, err := c.ServerInfo()
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %s unreachable: %v\n", c.BaseURL(), err)
			return nil
		}
		fmt.Fprintf(out, "  [ OK ] %s (server %s, api %s)\n", c.BaseURL(), info.Version, info.APIVersion)
		if err := c.CheckCompatibility(buildVersion); err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
		} else {
			fmt.Fprintf(out, "  [ OK ] client %s is supported\n", buildVersion)
		}
		return nil
	},
}

func checkCachedManifest(cmd *cobra.Command, ws *workspace.Workspace) {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(ws.ManifestPath()); err != nil {
		fmt.Fprintf(out, "  [WARN] no cached manifest — clone or pull to establish a sync base\n")
		return
	}

	result, err := manifest.ValidateFile(ws.ManifestPath())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] cached manifest unreadable: %v\n", err)
		return
	}
	if !result.Valid {
		fmt.Fprintf(out, "  [WARN] cached manifest has %d schema issue(s) — run `%s validate` for details\n",
			len(result.Issues), rootCmd.Name())
		return
	}

	m := ws.CachedManifest()
	fmt.Fprintf(out, "  [ OK ] cached manifest %s with %d files\n",
		manifest.FormatVersion(m.Version), len(m.Files))
}
