package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/upkeeper/upkeeper/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a .dependabot/config.yml file",
	Long: `Parse a local update configuration file and print the update policy
derived from each entry, including whether it would run today. Fails on
unrecognized package_manager or update_schedule values.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}

	cfg, err := domain.ParseUpdateConfig(data)
	if err != nil {
		return err
	}

	today := time.Now()
	for i, entry := range cfg.UpdateConfigs {
		policy, policyErr := domain.NewUpdatePolicy(entry, today)
		if policyErr != nil {
			return fmt.Errorf("update_configs[%d]: %w", i, policyErr)
		}

		fmt.Printf("%s (%s)\n", policy.PackageManager, policy.Directory)
		fmt.Printf("  runs today: %t\n", policy.RunsToday)
		if len(policy.IgnoreNames) > 0 {
			fmt.Printf("  ignored:    %s\n", strings.Join(policy.IgnoreNames, ", "))
		}
		if len(policy.AutomergeNames) > 0 {
			fmt.Printf("  automerged: %s\n", strings.Join(policy.AutomergeNames, ", "))
		}
	}

	fmt.Printf("%d update policies OK\n", len(cfg.UpdateConfigs))
	return nil
}
