package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	syncer "github.com/fieldsync-labs/fieldsync/internal/sync"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

var pullJobs int

func init() {
	pullCmd.Flags().IntVar(&pullJobs, "jobs", syncer.DefaultConcurrency, "Parallel downloads")
	rootCmd.AddCommand(pullCmd)
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Apply the server's changes to the working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		c, err := buildClient(ws)
		if err != nil {
			return err
		}

		s := syncer.New(ws, c)
		s.Log = logger()
		s.Concurrency = pullJobs

		result, err := s.Pull()
		if err != nil {
			return err
		}

		fmt.Printf("Pulled %s: now at %s (%d downloaded, %d deleted)\n",
			ws.Ref(), manifest.FormatVersion(result.Version), result.Downloaded, result.Deleted)
		for _, path := range result.Conflicts {
			fmt.Printf("! %s had local changes — kept as %s%s\n", path, path, workspace.ConflictSuffix)
		}
		return nil
	},
}
