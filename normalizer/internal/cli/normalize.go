package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/pipeline"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/service"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/setup"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/storage"
)

// maxLineBytes bounds a single envelope line.
const maxLineBytes = 16 << 20

var (
	normalizeDebug  bool
	normalizeStrict bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file...]",
	Short: "Normalize envelopes read as JSON lines",
	Long: `Read one envelope per line ({"tag": ..., "time": ..., "record": {...}}) from
the given files, or stdin when none are given, and write each normalized record
as one JSON line to stdout.

Examples:
  cdmctl generate --count 10 | cdmctl normalize
  cdmctl normalize --debug captured.jsonl`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeDebug, "debug", false, "log every record before and after processing")
	normalizeCmd.Flags().BoolVar(&normalizeStrict, "strict", false, "fail on the first envelope that cannot be decoded")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Logging.Format)

	pc, err := setup.BuildPipelineConfig(cfg)
	if err != nil {
		return err
	}
	pc.Debug = pc.Debug || normalizeDebug

	p, err := pipeline.New(pc, logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	proc := service.NewProcessor(p, storage.NewWriterSink(cmd.OutOrStdout()), nil, logger)

	if len(args) == 0 {
		return normalizeStream(cmd, proc, logger, cmd.InOrStdin(), "stdin")
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = normalizeStream(cmd, proc, logger, f, path)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func normalizeStream(cmd *cobra.Command, proc *service.Processor, logger *logging.Logger, r io.Reader, name string) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := proc.Ingest(ctx, data, "cli"); err != nil {
			if normalizeStrict {
				return fmt.Errorf("%s:%d: %w", name, line, err)
			}
			logger.WarnContext(ctx, "skipping envelope", "source", name, "line", line, logging.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	st := proc.Health()
	logger.InfoContext(ctx, "normalized input",
		"source", name,
		logging.Count(int(st.Processed)),
		"rejected", st.DecodeFailed,
	)
	return nil
}
