package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	syncer "github.com/fieldsync-labs/fieldsync/internal/sync"
)

func init() {
	rootCmd.AddCommand(pushCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local changes as a new project version",
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

		result, err := s.Push()
		if err != nil {
			return err
		}

		if result.Uploaded == 0 && result.Removed == 0 {
			fmt.Printf("Nothing to push — %s is up to date at %s\n",
				ws.Ref(), manifest.FormatVersion(result.Version))
			return nil
		}
		fmt.Printf("Pushed %s: now at %s (%d uploaded, %d removed)\n",
			ws.Ref(), manifest.FormatVersion(result.Version), result.Uploaded, result.Removed)
		return nil
	},
}
