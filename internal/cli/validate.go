package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a manifest document against the schema",
	Long: `Validate a manifest JSON file. Without a path, the workspace's
cached manifest is validated. Validation is advisory: sync flows tolerate
documents the schema rejects, degrading missing fields instead of failing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			path = ws.ManifestPath()
		}

		result, err := manifest.ValidateFile(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.Valid {
			fmt.Fprintf(out, "%s is a valid manifest\n", path)
			return nil
		}

		fmt.Fprintf(out, "%s has %d validation issue(s):\n", path, len(result.Issues))
		for _, issue := range result.Issues {
			if issue.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", issue.Message)
			}
		}
		return fmt.Errorf("manifest %s failed validation", path)
	},
}
