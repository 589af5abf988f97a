package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldsync-labs/fieldsync/internal/client"
	"github.com/fieldsync-labs/fieldsync/internal/config"
)

var (
	projectsNamespace string
	projectsJSON      bool
)

func init() {
	projectsCmd.Flags().StringVar(&projectsNamespace, "namespace", "", "Restrict to one namespace")
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:   "projects [query]",
	Short: "List projects visible on the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		namespace := projectsNamespace
		if namespace == "" {
			namespace = config.Get(config.KeyDefaultNamespace)
		}

		c, err := buildClient(nil)
		if err != nil {
			return err
		}
		projects, err := c.ListProjects(namespace, query)
		if err != nil {
			return err
		}

		if len(projects) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
			return nil
		}

		if projectsJSON {
			return printProjectsJSON(cmd, projects)
		}
		return printProjectsTable(cmd, projects)
	},
}

func printProjectsTable(cmd *cobra.Command, projects []client.ProjectSummary) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tVERSION\tUPDATED")
	for _, p := range projects {
		updated := "-"
		if !p.Updated.IsZero() {
			updated = p.Updated.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s/%s\t%s\t%s\n", p.Namespace, p.Name, p.Version, updated)
	}
	return w.Flush()
}

func printProjectsJSON(cmd *cobra.Command, projects []client.ProjectSummary) error {
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
