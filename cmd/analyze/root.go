package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"clauseguard-backend/config"
	"clauseguard-backend/generator"
	"clauseguard-backend/logging"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/reference"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	limit      int
	offline    bool
	model      string
	timeout    time.Duration
	output     string
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Rank and rewrite the riskiest clauses of a contract",
		Long: `Split a plain-text contract into clauses, classify them, match each to a
gold-standard reference clause and print recommendations for the highest
priority ones.

Reads standard input when no file (or "-") is given. Recommendations are
generated with Gemini when an API key is configured and --offline is not set;
otherwise the built-in templates are used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", opts.limit)
			}
			if opts.output != "json" && opts.output != "table" {
				return fmt.Errorf("invalid output: %s (must be json/table)", opts.output)
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}

			p, closeFn, err := buildPipeline(ctx, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			refs, err := reference.NewStatic(nil).References(ctx)
			if err != nil {
				return err
			}
			result, err := p.Run(ctx, pipeline.Split(text), refs)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			return writeResult(cmd.OutOrStdout(), result, opts.output)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", pipeline.DefaultLimit, "Maximum number of recommendations")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use template recommendations only")
	cmd.Flags().StringVar(&opts.model, "model", "", "Gemini model (defaults to configuration)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall deadline for the analysis")
	cmd.Flags().StringVar(&opts.output, "output", "json", "Output format (json/table)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	return cmd
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// buildPipeline assembles the pipeline, attaching Gemini unless offline or
// unconfigured. The returned func releases the Gemini client.
func buildPipeline(ctx context.Context, opts analyzeOptions) (*pipeline.Pipeline, func(), error) {
	logger, err := logging.NewLogger(logging.LogConfig{Level: opts.logLevel, Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		logger = logging.NewNopLogger()
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLimit(opts.limit),
		pipeline.WithLogger(logger),
	}
	if opts.offline {
		return pipeline.New(pipelineOpts...), func() {}, nil
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Gemini.Enabled() {
		logger.Warn("no Gemini API key configured, using templates")
		return pipeline.New(pipelineOpts...), func() {}, nil
	}

	client, err := generator.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, nil, err
	}
	model := cfg.Gemini.Model
	if strings.TrimSpace(opts.model) != "" {
		model = opts.model
	}
	gemini := generator.NewGemini(client,
		generator.WithModel(model),
		generator.WithTemperature(float32(cfg.Gemini.Temperature)),
		generator.WithMaxRetries(cfg.Gemini.MaxRetries),
		generator.WithInitialBackoff(cfg.Gemini.Backoff),
		generator.WithLogger(logger),
	)
	engine := pipeline.NewEngine(
		pipeline.WithGenerator(gemini),
		pipeline.WithGenerationTimeout(cfg.Pipeline.GenerationTimeout),
		pipeline.WithEngineLogger(logger),
	)
	pipelineOpts = append(pipelineOpts, pipeline.WithEngine(engine))
	return pipeline.New(pipelineOpts...), func() { client.Close() }, nil
}

func writeResult(w io.Writer, result *pipeline.Result, output string) error {
	if output == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPOSITION\tTYPE\tRISK\tSOURCE\tTITLE")
	for i, rec := range result.Recommendations {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", i+1, rec.Position, rec.ClauseType, rec.RiskLevel, rec.Source, rec.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d clauses, %d skipped, %d dropped, %d truncated\n",
		result.Input, result.Skipped, result.Dropped, result.Truncated)
	return err
}
