package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsonstate/internal/config"
	"github.com/oakwood-commons/jsonstate/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print jsonstate version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeText(cmd.OutOrStdout(), cliVersionString())
	},
}

// configCmd prints the merged configuration; `config default` prints the
// embedded defaults with their comments.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the merged jsonstate configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := config.Marshal(activeConfig)
		if err != nil {
			return err
		}
		return writeText(cmd.OutOrStdout(), string(data))
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := cfgLoader.defaultConfig()
		if err != nil {
			return err
		}
		return writeText(cmd.OutOrStdout(), string(data))
	},
}

func init() { //nolint:gochecknoinits
	configCmd.AddCommand(configDefaultCmd)
}

func cliVersionString() string {
	// Load config to get about information
	cfg, _ := loadMergedConfig(resolveConfigPath(""))

	name := cfg.App.About.Name
	if name == "" {
		name = settings.CliBinaryName
	}
	info := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)", name, info.BuildVersion, info.Commit, info.BuildTime, runtime.Version())
}
