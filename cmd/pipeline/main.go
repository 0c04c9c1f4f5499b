package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apianalysis "controlbot/pkg/api/analysis"
	"controlbot/pkg/core/config"
	"controlbot/pkg/core/document"
	"controlbot/pkg/core/ingest"
	"controlbot/pkg/core/pipeline"
	"controlbot/pkg/core/report"
	"controlbot/pkg/models"
)

type options struct {
	cfgPath   string
	models    string
	prompts   string
	template  string
	overrides []string
	sheet     string

	reportType string
	language   string
	format     string
	out        string
	context    string
	provider   string
	currency   string
	noRecs     bool
}

func main() {
	var opts options
	root := &cobra.Command{
		Use:           "controlbot",
		Short:         "Analyze project cost data and write controlling reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "Path to controlbot.yaml")
	root.PersistentFlags().StringVar(&opts.models, "models", "", "Provider selection file (overrides paths.models)")
	root.PersistentFlags().StringVar(&opts.prompts, "prompts", "", "Prompt override directory (overrides paths.prompts)")
	root.PersistentFlags().StringVar(&opts.template, "template", "", "Source system layout (sap_ps, ms_project, jira, ...)")
	root.PersistentFlags().StringArrayVar(&opts.overrides, "map", nil, "Column override field=header (repeatable)")
	root.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "Worksheet name for .xlsx input")

	analyzeCmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Map, validate and analyze one or more files and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report FILE...",
		Short: "Analyze the files and write a narrated report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	reportCmd.Flags().StringVarP(&opts.reportType, "type", "t", "", "management_summary, detailed_controlling_report or executive_briefing")
	reportCmd.Flags().StringVarP(&opts.language, "lang", "l", "", "Report language (de, en)")
	reportCmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "json, markdown, html or xlsx")
	reportCmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout; xlsx requires a file)")
	reportCmd.Flags().StringVar(&opts.context, "context", "", "Additional context for the narrative")
	reportCmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider for this run")
	reportCmd.Flags().StringVar(&opts.currency, "currency", "", "Currency code for amounts")
	reportCmd.Flags().BoolVar(&opts.noRecs, "no-recommendations", false, "Omit the recommendations section")

	root.AddCommand(analyzeCmd, reportCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, opts options) (context.Context, *pipeline.PipelineOrchestrator, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return ctx, nil, err
	}
	if opts.models != "" {
		cfg.Paths.Models = opts.models
	}
	if opts.prompts != "" {
		cfg.Paths.Prompts = opts.prompts
	}
	logger := cfg.Log.Logger(os.Stderr)
	ctx = logger.WithContext(ctx)

	p, _, err := pipeline.FromConfig(cfg)
	return ctx, p, err
}

// load reads every file and concatenates them into one table.
func load(ctx context.Context, opts options, paths []string) (models.RawTable, pipeline.MappingRequest, error) {
	var (
		tables []models.RawTable
		err    error
	)
	if opts.sheet != "" {
		for _, p := range paths {
			f, ferr := os.Open(p)
			if ferr != nil {
				return models.RawTable{}, pipeline.MappingRequest{}, ferr
			}
			t, rerr := ingest.ReadXLSX(f, filepath.Base(p), opts.sheet)
			f.Close()
			if rerr != nil {
				return models.RawTable{}, pipeline.MappingRequest{}, fmt.Errorf("%s: %w", p, rerr)
			}
			tables = append(tables, t)
		}
	} else if tables, err = ingest.ReadFiles(ctx, paths); err != nil {
		return models.RawTable{}, pipeline.MappingRequest{}, err
	}

	overrides, err := apianalysis.ParseOverrides(opts.overrides)
	if err != nil {
		return models.RawTable{}, pipeline.MappingRequest{}, err
	}
	name := filepath.Base(paths[0])
	if len(paths) > 1 {
		name = fmt.Sprintf("%d files", len(paths))
	}
	return models.ConcatTables(name, tables...), pipeline.MappingRequest{Template: opts.template, Overrides: overrides}, nil
}

func runAnalyze(ctx context.Context, w io.Writer, opts options, paths []string) error {
	ctx, p, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	table, mreq, err := load(ctx, opts, paths)
	if err != nil {
		return err
	}
	res, err := p.Analyze(ctx, table, mreq)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runReport(ctx context.Context, w io.Writer, opts options, paths []string) error {
	var writer document.Writer
	if opts.format != "json" {
		var err error
		if writer, err = document.ForFormat(opts.format); err != nil {
			return err
		}
	}
	if opts.format == "xlsx" && opts.out == "" {
		return fmt.Errorf("--out is required for xlsx output")
	}

	ctx, p, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	table, mreq, err := load(ctx, opts, paths)
	if err != nil {
		return err
	}

	recs := !opts.noRecs
	res, payload, err := p.Run(ctx, table, mreq, pipeline.ReportRequest{
		Type:                   opts.reportType,
		Language:               opts.language,
		Context:                opts.context,
		IncludeRecommendations: &recs,
		Currency:               opts.currency,
		Provider:               opts.provider,
	})
	var gerr *report.GenerationError
	if err != nil && !(errors.As(err, &gerr) && payload != nil) {
		return err
	}
	if gerr != nil {
		zerolog.Ctx(ctx).Warn().Err(gerr).Msg("narrative unavailable; writing tables only")
	}

	var data []byte
	if writer == nil {
		data, err = json.MarshalIndent(struct {
			Analysis *pipeline.AnalysisResult `json:"analysis"`
			Report   *models.ReportPayload    `json:"report"`
		}{res, payload}, "", "  ")
	} else {
		data, err = writer.Write(ctx, payload)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("file", opts.out).Str("format", strings.ToLower(opts.format)).Msg("report written")
	return nil
}
