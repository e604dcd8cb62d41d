package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/coursecraft/internal/config"
	"github.com/jonathan/coursecraft/internal/server"
)

var (
	serveConfigPath string
	servePort       int
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running generation sessions, review gates, progress streaming, and exports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for SPA research sources (requires Chrome)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveUseBrowser {
		cfg.UseBrowser = true
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	srv, err := server.New(context.Background(), server.Config{
		Port:             cfg.Port,
		DatabaseURL:      cfg.DatabaseURL,
		APIKey:           cfg.APIKey,
		SearchAPIKey:     cfg.SearchAPIKey,
		SearchCX:         cfg.SearchCX,
		UseBrowser:       cfg.UseBrowser,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// loadMergedConfig loads the optional config file, fills gaps from the
// environment, and applies defaults.
func loadMergedConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	cfg.FromEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
