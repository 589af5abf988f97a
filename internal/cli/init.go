package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/config"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

var initNamespace string

func init() {
	initCmd.Flags().StringVar(&initNamespace, "namespace", "", "Project namespace (defaults to defaults.namespace)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <name> [dir]",
	Short: "Turn a directory into a project workspace",
	Long: `Initialize the current directory (or dir) as a workspace for a new
project. Existing files stay untouched; they become the project's initial
content on the first push.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir := "."
		if len(args) == 2 {
			dir = args[1]
		}

		namespace := initNamespace
		if namespace == "" {
			namespace = config.Get(config.KeyDefaultNamespace)
		}
		if namespace == "" {
			return fmt.Errorf("no namespace given — pass --namespace or run `config set defaults.namespace <ns>`")
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", dir, err)
		}
		if err := os.MkdirAll(abs, workspace.DirPerm); err != nil {
			return fmt.Errorf("creating %s: %w", abs, err)
		}

		ws, err := workspace.Init(abs, workspace.Config{Name: name, Namespace: namespace})
		if err != nil {
			return err
		}

		fmt.Printf("Initialized workspace for %s in %s\n", ws.Ref(), abs)
		return nil
	},
}
