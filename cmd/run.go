package cmd

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/upkeeper/upkeeper/application"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var projectFilter string

//nolint:gochecknoglobals // required by cobra CLI pattern
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dependency update engine",
	Long: `Walk every project and repository of the organization, raise
tracking work items for repositories missing configuration, and drive the
update capabilities against each configured ecosystem.

This is the main command intended to be used in a cronjob. A repository
that fails is logged and does not abort the rest of the run.`,
	RunE: runUpdate,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	runCmd.Flags().StringVar(
		&projectFilter, "project", "",
		"Only process this project",
	)
	rootCmd.AddCommand(runCmd)
}

func runUpdate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	wired, err := injectApp(cfg)
	if err != nil {
		return err
	}

	if len(wired.Updaters.Ecosystems()) == 0 {
		logger.Warn("No update capabilities registered; only configuration work items will be raised")
	}

	logger.Info("Starting upkeeper run...")

	return wired.Service.Run(ctx, application.RunOptions{
		DryRun:        viper.GetBool("dry-run"),
		Verbose:       viper.GetBool("verbose"),
		ProjectFilter: projectFilter,
	})
}
