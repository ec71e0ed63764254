package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/upkeeper/upkeeper/config"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "upkeeper",
		Short: "Dependency update orchestrator for Azure DevOps",
		Long: `A CLI tool that walks an Azure DevOps organization, reads each
repository's .dependabot/config.yml, and drives dependency update
capabilities to create Pull Requests for outdated dependencies.

Repositories without an update configuration or an Azure Pipeline get a
tracking work item instead, so nothing silently rots:
- Enumerates all projects and repositories of the organization
- Normalizes each update configuration entry into an update policy
- Opens change requests for outdated dependencies
- Auto-completes and approves change requests matching the automerge rules`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringP("organization", "o", "",
		"Azure DevOps organization name (or set AZURE_DEVOPS_ORG)")
	rootCmd.PersistentFlags().StringP("token", "t", "",
		"Personal Access Token (or set AZURE_DEVOPS_PAT)")
	rootCmd.PersistentFlags().String("endpoint", "",
		"Host endpoint (default "+config.DefaultEndpoint+")")
	rootCmd.PersistentFlags().Bool("dry-run", false,
		"Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	_ = viper.BindPFlag("organization", rootCmd.PersistentFlags().Lookup("organization"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("dry-run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	_ = viper.BindEnv("organization", "UPKEEPER_ORGANIZATION", "AZURE_DEVOPS_ORG")
	_ = viper.BindEnv("token", "UPKEEPER_TOKEN", "AZURE_DEVOPS_PAT")
}

func initViper() {
	viper.SetEnvPrefix("UPKEEPER")
	viper.AutomaticEnv()
}

// resolveConfig builds the effective process configuration: config file
// values overridden by flags and environment variables.
func resolveConfig() (*config.Config, error) {
	var cfg *config.Config

	path := cfgFile
	if path == "" {
		if found, err := config.FindConfigFile(); err == nil {
			path = found
		}
	}

	if path != "" {
		logger.Infof("Using config file: %s", path)
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.Config{Endpoint: config.DefaultEndpoint}
	}

	if v := viper.GetString("organization"); v != "" {
		cfg.Organization = v
	}
	if v := viper.GetString("token"); v != "" {
		cfg.Token = config.ResolveToken(v)
	}
	if v := viper.GetString("endpoint"); v != "" {
		cfg.Endpoint = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
