package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

var fileJSON bool

func init() {
	fileCmd.Flags().BoolVar(&fileJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(fileCmd)
}

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Show what the last-synced manifest records for a file",
	Long: `Look up a path in the cached project manifest. The path is the
project-relative form with forward slashes, e.g. photos/p1.jpg.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		m := ws.CachedManifest()
		rec := m.FileInfo(args[0])

		if fileJSON {
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		out := cmd.OutOrStdout()
		if rec.IsZero() {
			fmt.Fprintf(out, "%s is not tracked in %s %s\n",
				args[0], ws.Ref(), manifest.FormatVersion(m.Version))
			return nil
		}

		fmt.Fprintf(out, "path:     %s\n", rec.Path)
		fmt.Fprintf(out, "checksum: %s\n", rec.Checksum)
		fmt.Fprintf(out, "size:     %d\n", rec.Size)
		if rec.MTime.IsZero() {
			fmt.Fprintf(out, "mtime:    unknown\n")
		} else {
			fmt.Fprintf(out, "mtime:    %s\n", manifest.FormatMTime(rec.MTime))
		}
		return nil
	},
}
