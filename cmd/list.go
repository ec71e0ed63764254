package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects and repositories of the organization",
	Long: `Enumerate every project of the Azure DevOps organization and the
repositories it contains. Useful to verify credentials and scope before
running the update engine.`,
	RunE: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	wired, err := injectApp(cfg)
	if err != nil {
		return err
	}

	projects, err := wired.Provider.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	for _, project := range projects {
		fmt.Println(project.Name)

		repos, err := wired.Provider.ListRepositories(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("failed to list repositories of %q: %w", project.Name, err)
		}
		for _, repo := range repos {
			fmt.Printf("  %s\n", repo.Name)
		}
	}

	return nil
}
