package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/cdm-normalizer/common/config"
	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/pipeline"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/setup"
)

var configDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect normalizer configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := effectiveConfig()
		if err != nil {
			return err
		}
		out, err := config.Render(cfg)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the configuration builds a working pipeline",
	Long: `Load the configuration and build the pipeline exactly as the service does:
keep-field collisions, time field checks, formatter types, tag patterns and
index name expressions are all verified.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := effectiveConfig()
		if err != nil {
			return err
		}
		if err := setup.ValidateOutput(cfg.Normalizer.Output); err != nil {
			return err
		}
		pc, err := setup.BuildPipelineConfig(cfg)
		if err != nil {
			return err
		}
		if _, err := pipeline.New(pc, logging.Discard()); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %d formatter rules, %d index name rules\n",
			len(pc.Formatters), len(pc.IndexRules))
		return nil
	},
}

func init() {
	configCmd.PersistentFlags().BoolVar(&configDefaults, "defaults", false, "use built-in defaults and ignore any config file")
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func effectiveConfig() (*config.Config, error) {
	if configDefaults {
		return config.Default(), nil
	}
	return loadConfig()
}
