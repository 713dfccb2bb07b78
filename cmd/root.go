/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/config"
	"github.com/josephgoksu/ContextWing/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables debug logging.
	verbose bool
	// logFormat selects the slog handler.
	logFormat string
	// memoryPath overrides the memory directory.
	memoryPath string
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contextwing",
	Short: "ContextWing - graph-aware context retrieval for coding agents",
	Long: `ContextWing ranks indexed knowledge for a coding intent by blending
embedding similarity with the import graph, tiers it into an agent's token
budget, learns from context agents report as missing and measures retrieval
quality against labelled datasets.`,
	SilenceUsage: true,
	Version:      version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup(os.Stderr, viper.GetString("log_format"), viper.GetBool("verbose")); err != nil {
			return err
		}
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		logger.SetBasePath(config.GetMemoryBasePath())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.contextwing/.contextwing.yaml or $HOME/.contextwing.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&memoryPath, "memory", "", "memory directory (overrides memory.path)")

	bindPersistentFlags()
}

// bindPersistentFlags binds the persistent flags to viper keys.
func bindPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("memory.path", flags.Lookup("memory"))
}
