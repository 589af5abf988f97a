package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	syncer "github.com/fieldsync-labs/fieldsync/internal/sync"
)

var cloneJobs int

func init() {
	cloneCmd.Flags().IntVar(&cloneJobs, "jobs", syncer.DefaultConcurrency, "Parallel downloads")
	rootCmd.AddCommand(cloneCmd)
}

var cloneCmd = &cobra.Command{
	Use:   "clone <namespace/name> [dir]",
	Short: "Download a project into a new workspace",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, name, err := splitProjectRef(args[0])
		if err != nil {
			return err
		}

		dest := name
		if len(args) == 2 {
			dest = args[1]
		}
		dest, err = filepath.Abs(dest)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", dest, err)
		}

		c, err := buildClient(nil)
		if err != nil {
			return err
		}

		ws, err := syncer.Clone(dest, c, namespace, name, syncer.CloneOptions{
			Log:         logger(),
			Concurrency: cloneJobs,
		})
		if err != nil {
			return err
		}

		m := ws.CachedManifest()
		fmt.Printf("Cloned %s (v%d, %d files) into %s\n", ws.Ref(), m.Version, len(m.Files), dest)
		return nil
	},
}

// splitProjectRef parses "namespace/name" references.
func splitProjectRef(ref string) (namespace, name string, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid project reference %q — expected namespace/name", ref)
	}
	return parts[0], parts[1], nil
}
