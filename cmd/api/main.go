package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"controlbot/pkg/core/config"
	"controlbot/pkg/core/pipeline"
	"controlbot/pkg/server"
)

var (
	cfgPath     string
	modelsPath  string
	promptsPath string
	addr        string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "controlbot-api",
		Short: "Start the ControlBot web API",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to controlbot.yaml (default: ./controlbot.yaml or ./config/controlbot.yaml)")
	rootCmd.Flags().StringVar(&modelsPath, "models", "", "Path to the provider selection file (overrides paths.models)")
	rootCmd.Flags().StringVar(&promptsPath, "prompts", "", "Directory with prompt overrides (overrides paths.prompts)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modelsPath != "" {
		cfg.Paths.Models = modelsPath
	}
	if promptsPath != "" {
		cfg.Paths.Prompts = promptsPath
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := cfg.Log.Logger(os.Stdout)

	p, mgr, err := pipeline.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up pipeline: %w", err)
	}
	logger.Info().
		Str("provider", mgr.GetActiveProvider()).
		Strs("available", mgr.Providers()).
		Str("language", cfg.Report.Language).
		Msg("pipeline ready")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Dependencies: server.Dependencies{
			Pipeline:  p,
			Providers: mgr,
			Prompts:   p.Prompts(),
			Settings:  cfg,
		},
	})
	return api.Start()
}
