package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/templates"
)

var templatesConfigPath string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and manage prompt template overrides",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List template categories and their stored overrides",
	RunE:  runTemplatesList,
}

var templatesResetCmd = &cobra.Command{
	Use:   "reset [category]",
	Short: "Remove a category's override, or every override when no category is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplatesReset,
}

func init() {
	templatesCmd.PersistentFlags().StringVar(&templatesConfigPath, "config", "", "Path to config.json file")
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesResetCmd)
	rootCmd.AddCommand(templatesCmd)
}

// openTemplateStore connects the database-backed template store
func openTemplateStore(ctx context.Context) (*templates.Store, *db.DB, error) {
	cfg, err := loadMergedConfig(templatesConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return templates.NewStore(database), database, nil
}

func runTemplatesList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, database, err := openTemplateStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	stored, err := store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list overrides: %w", err)
	}
	overridden := make(map[string]bool, len(stored))
	for _, tpl := range stored {
		if tpl.Active {
			overridden[tpl.Category] = true
		}
	}

	for _, category := range templates.Categories() {
		state := "default"
		if overridden[string(category)] {
			state = "overridden"
		}
		fmt.Fprintf(os.Stdout, "%-22s %s\n", category, state)
	}
	return nil
}

func runTemplatesReset(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	store, database, err := openTemplateStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if len(args) == 0 {
		if err := store.ResetAll(ctx); err != nil {
			return err
		}
		fmt.Println("All template overrides removed")
		return nil
	}

	category := templates.Category(args[0])
	if err := store.Reset(ctx, category); err != nil {
		return err
	}
	fmt.Printf("Template %s reset to default\n", category)
	return nil
}
