package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/diff"
	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	syncer "github.com/fieldsync-labs/fieldsync/internal/sync"
)

var statusLocal bool

func init() {
	statusCmd.Flags().BoolVar(&statusLocal, "local", false, "Skip the server comparison (works offline)")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local and remote changes since the last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		var st *syncer.Status
		if statusLocal {
			s := syncer.New(ws, nil)
			st, err = s.LocalStatus()
		} else {
			c, cErr := buildClient(ws)
			if cErr != nil {
				return cErr
			}
			s := syncer.New(ws, c)
			s.Log = logger()
			st, err = s.Status()
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project %s, local %s", ws.Ref(), manifest.FormatVersion(st.LocalVersion))
		if !statusLocal {
			fmt.Fprintf(out, ", server %s", manifest.FormatVersion(st.RemoteVersion))
		}
		fmt.Fprintln(out)

		if st.Local.Empty() && (statusLocal || st.Remote.Empty()) {
			fmt.Fprintln(out, "Everything up to date.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		printChanges(w, "local", st.Local)
		if !statusLocal {
			printChanges(w, "server", st.Remote)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, path := range st.Conflicts {
			fmt.Fprintf(out, "! %s changed on both sides — pulling will keep a conflict copy\n", path)
		}
		return nil
	},
}

func printChanges(w *tabwriter.Writer, side string, ch diff.Changes) {
	for _, rec := range ch.Added {
		fmt.Fprintf(w, "A\t%s\t%s\n", side, rec.Path)
	}
	for _, rec := range ch.Updated {
		fmt.Fprintf(w, "M\t%s\t%s\n", side, rec.Path)
	}
	for _, rec := range ch.Removed {
		fmt.Fprintf(w, "D\t%s\t%s\n", side, rec.Path)
	}
}
