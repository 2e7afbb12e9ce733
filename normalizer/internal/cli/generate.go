package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/common/messaging"
	natsclient "github.com/telhawk-systems/cdm-normalizer/common/messaging/nats"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/generator"
)

var (
	generateCount   int
	generateSources string
	generateSeed    int64
	generatePublish bool
	generateSubject string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample envelopes",
	Long: `Generate realistic raw envelopes for the supported log sources: host journal
(journal), container journal (k8s-journal), syslog files (syslog) and
json-file container logs (container).

Envelopes are written as JSON lines to stdout, or published to the raw record
subject with --publish.

Examples:
  cdmctl generate --count 100 --sources journal,syslog
  cdmctl generate --count 1000 --publish`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 10, "number of envelopes per source")
	generateCmd.Flags().StringVar(&generateSources, "sources", "all", "comma-separated sources: journal, k8s-journal, syslog, container")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed; 0 picks one")
	generateCmd.Flags().BoolVar(&generatePublish, "publish", false, "publish to NATS instead of writing to stdout")
	generateCmd.Flags().StringVar(&generateSubject, "subject", messaging.SubjectRecordsRaw, "subject to publish to")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	sources, err := generator.ParseSources(generateSources)
	if err != nil {
		return err
	}
	if generateCount < 0 {
		return fmt.Errorf("--count must not be negative")
	}

	emit, done, err := generateOutput(cmd)
	if err != nil {
		return err
	}
	defer done()

	g := generator.New(generateSeed, nil)
	for i := 0; i < generateCount; i++ {
		for _, src := range sources {
			data, err := json.Marshal(g.Envelope(src))
			if err != nil {
				return fmt.Errorf("marshal envelope: %w", err)
			}
			if err := emit(data); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateOutput returns a function that emits one envelope and a cleanup
// function.
func generateOutput(cmd *cobra.Command) (func([]byte) error, func(), error) {
	if !generatePublish {
		out := cmd.OutOrStdout()
		return func(data []byte) error {
			_, err := fmt.Fprintf(out, "%s\n", data)
			return err
		}, func() {}, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd, cfg.Logging.Format)

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = "cdmctl"
	natsCfg.MaxReconnects = 0

	client, err := natsclient.NewClient(natsCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	published := 0
	emit := func(data []byte) error {
		if err := client.Publish(ctx, generateSubject, data); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		published++
		return nil
	}
	done := func() {
		if err := client.Drain(); err != nil {
			logger.Warn("NATS drain failed", logging.Error(err))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "published %d envelopes to %s\n", published, generateSubject)
	}
	return emit, done, nil
}
