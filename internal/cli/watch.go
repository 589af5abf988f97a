package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	syncer "github.com/fieldsync-labs/fieldsync/internal/sync"
	"github.com/fieldsync-labs/fieldsync/internal/watch"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "Quiet period before changes are pushed")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the working tree and push changes automatically",
	Long: `Watch the workspace for file changes and push each settled batch to
the server. When the server has moved ahead, the push is skipped with a
warning — pull manually and the watch continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		c, err := buildClient(ws)
		if err != nil {
			return err
		}

		log := logger()
		s := syncer.New(ws, c)
		s.Log = log

		w, err := watch.New(ws, watch.Options{Debounce: watchDebounce, Logger: log})
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s — Ctrl-C to stop\n", ws.Ref())
		w.Run(ctx, func(paths []string) {
			result, err := s.Push()
			if err != nil {
				log.Warn("auto-push failed", zap.Error(err))
				fmt.Fprintf(os.Stderr, "push failed: %v\n", err)
				return
			}
			if result.Uploaded == 0 && result.Removed == 0 {
				return
			}
			fmt.Printf("Pushed %d change(s), now at %s\n",
				result.Uploaded+result.Removed, manifest.FormatVersion(result.Version))
		})
		return nil
	},
}
