// Package cli implements cdmctl, the command-line companion to the
// normalizer service.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/cdm-normalizer/common/config"
	"github.com/telhawk-systems/cdm-normalizer/common/logging"
)

var (
	cfgFile  string
	logLevel string
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "cdmctl",
	Short: "Common data model normalizer CLI",
	Long: `cdmctl runs the normalizer pipeline locally.

Normalize envelopes from files or stdin, generate sample envelopes for every
supported log source, and check a normalizer configuration before deploying it.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $"+config.EnvConfigDir+"/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "discard all log output")
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to the command's stderr so records on stdout stay clean.
func newLogger(cmd *cobra.Command, format string) *logging.Logger {
	if quiet {
		return logging.Discard()
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(logLevel), format)
}
