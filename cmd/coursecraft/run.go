package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/coursecraft/internal/config"
	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/export"
	"github.com/jonathan/coursecraft/internal/fetch"
	"github.com/jonathan/coursecraft/internal/llm"
	"github.com/jonathan/coursecraft/internal/observability"
	"github.com/jonathan/coursecraft/internal/pipeline"
	"github.com/jonathan/coursecraft/internal/progress"
	"github.com/jonathan/coursecraft/internal/quality"
	"github.com/jonathan/coursecraft/internal/research"
	"github.com/jonathan/coursecraft/internal/templates"
	"github.com/jonathan/coursecraft/internal/workflow"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run a research-grounded generation session end-to-end",
	Long: `Drives a full route B session without the HTTP layer: brief analysis -> framework selection -> industry research -> approach selection -> content matrix -> sample -> batch generation -> export.

Every review gate is auto-approved and the highest-ranked option is selected at each choice point, so the output should be treated as a draft. Use the server for operator-gated production runs.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runSessionCmd,
}

var (
	runConfigPath  string
	runClient      string
	runIndustry    string
	runBriefPath   string
	runOutPath     string
	runConcurrency int
	runUseBrowser  bool
	runAPIKey      string
	runDatabaseURL string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runClient, "client", "c", "", "Client organization name")
	runCommand.Flags().StringVarP(&runIndustry, "industry", "i", "", "Client industry")
	runCommand.Flags().StringVarP(&runBriefPath, "brief", "b", "", "Path to the engagement brief text file")
	runCommand.Flags().StringVarP(&runOutPath, "out", "o", "batch_export.json", "Path for the exported batch document")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Parallel units during batch generation")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA research sources (requires Chrome)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(runCommand)
}

func runSessionCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(runConfigPath)
	if err != nil {
		return err
	}
	if runAPIKey != "" {
		cfg.APIKey = runAPIKey
	}
	if runDatabaseURL != "" {
		cfg.DatabaseURL = runDatabaseURL
	}
	if runConcurrency != 0 {
		cfg.BatchConcurrency = runConcurrency
	}
	if runUseBrowser {
		cfg.UseBrowser = true
	}

	if runClient == "" || runIndustry == "" {
		return fmt.Errorf("--client and --industry are required")
	}
	if runBriefPath == "" {
		return fmt.Errorf("--brief is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.SearchAPIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY and SEARCH_CX are required for a research-grounded run")
	}

	brief, err := os.ReadFile(runBriefPath)
	if err != nil {
		return fmt.Errorf("failed to read brief: %w", err)
	}

	orchestrator, database, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	data, err := driveSession(ctx, orchestrator, string(brief))
	if err != nil {
		return err
	}

	if err := os.WriteFile(runOutPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	log.Printf("[RUN] Export written to %s", runOutPath)
	return nil
}

// buildOrchestrator wires the full generation stack for a CLI run
func buildOrchestrator(ctx context.Context, cfg config.Config) (*pipeline.Orchestrator, *db.DB, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	searcher, err := research.NewResearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create researcher: %w", err)
	}
	fetcher := fetch.NewCachedFetcher(database, fetch.DefaultOptions(), db.DefaultPageCacheTTL)
	collector := research.NewCollector(fetcher, cfg.UseBrowser)

	templateStore := templates.NewStore(database)
	generator := content.NewGenerator(client, templateStore)
	reviewer := quality.NewReviewer(client, templateStore)

	orchestrator := pipeline.New(
		workflow.NewMachine(database), generator, quality.NewLoop(reviewer, reviewer),
		searcher, collector, progress.NewBroadcaster(),
		pipeline.Options{BatchConcurrency: cfg.BatchConcurrency},
	)
	return orchestrator, database, nil
}

// driveSession walks one session through every route B step, auto-approving
// each gate, and returns the validated export document.
func driveSession(ctx context.Context, orchestrator *pipeline.Orchestrator, brief string) ([]byte, error) {
	machine := orchestrator.Machine()

	var printer *observability.Printer
	if runVerbose {
		printer = observability.NewPrinter(os.Stdout)
	}

	session, err := orchestrator.StartSession(ctx, runClient, runIndustry)
	if err != nil {
		return nil, err
	}
	log.Printf("[RUN] Session %s started for %s (%s)", session.ID, runClient, runIndustry)

	frameworks, err := orchestrator.SubmitBrief(ctx, session.ID, brief)
	if err != nil {
		return nil, err
	}
	framework := pickFramework(frameworks)
	if printer != nil {
		printer.PrintFrameworkOptions(frameworks, framework)
	}
	log.Printf("[RUN] Selecting framework %q", framework)
	if err := orchestrator.SelectFramework(ctx, session.ID, framework); err != nil {
		return nil, err
	}

	if err := orchestrator.SelectRoute(ctx, session.ID, workflow.RouteB); err != nil {
		return nil, err
	}
	log.Printf("[RUN] Researching the %s industry", runIndustry)
	if err := orchestrator.RunResearch(ctx, session.ID); err != nil {
		return nil, err
	}

	approach, err := firstApproach(ctx, machine, session.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[RUN] Selecting approach %q", approach)
	if _, err := orchestrator.SelectApproach(ctx, session.ID, approach); err != nil {
		return nil, err
	}

	if printer != nil {
		if matrix := readMatrix(ctx, machine, session.ID); matrix != nil {
			printer.PrintMatrix(matrix)
		}
	}
	if _, err := orchestrator.ReviewMatrix(ctx, session.ID, db.DecisionApprove, "auto-approved by CLI run"); err != nil {
		return nil, err
	}
	step, jobID, err := orchestrator.ValidateSample(ctx, session.ID, db.DecisionApprove, "auto-approved by CLI run")
	if err != nil {
		return nil, err
	}
	log.Printf("[RUN] Batch job %s started at step %s", jobID, step)

	if err := waitForCompletion(ctx, machine, session.ID); err != nil {
		return nil, err
	}
	if printer != nil {
		if batch := readBatchResult(ctx, machine, session.ID); batch != nil {
			printer.PrintBatchSummary(batch)
		}
	}
	return export.ForSession(ctx, machine, session.ID)
}

// readMatrix loads the planned matrix for display; nil on any failure since
// verbose output never aborts the run
func readMatrix(ctx context.Context, machine *workflow.Machine, sessionID uuid.UUID) *content.Matrix {
	raw, found, err := machine.GetStepData(ctx, sessionID, db.DataContentMatrix)
	if err != nil || !found {
		return nil
	}
	var matrix content.Matrix
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil
	}
	return &matrix
}

func readBatchResult(ctx context.Context, machine *workflow.Machine, sessionID uuid.UUID) *pipeline.BatchResult {
	raw, found, err := machine.GetStepData(ctx, sessionID, db.DataBatchResult)
	if err != nil || !found {
		return nil
	}
	var batch pipeline.BatchResult
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil
	}
	return &batch
}

// pickFramework returns the highest-scoring framework option
func pickFramework(options []content.FrameworkOption) string {
	best := options[0]
	for _, option := range options[1:] {
		if option.FitScore > best.FitScore {
			best = option
		}
	}
	return best.Name
}

// firstApproach reads the generated approach options and returns the first
func firstApproach(ctx context.Context, machine *workflow.Machine, sessionID uuid.UUID) (string, error) {
	raw, err := machine.RequireStepData(ctx, sessionID, workflow.StepApproachSelectionB, db.DataApproachOptions)
	if err != nil {
		return "", err
	}
	var options []content.Approach
	if err := json.Unmarshal(raw, &options); err != nil {
		return "", fmt.Errorf("stored approach options are corrupt: %w", err)
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no approach options were generated")
	}
	return options[0].Title, nil
}

// waitForCompletion polls until the batch run finishes. The batch itself
// logs per-unit progress, so this only watches the terminal status.
func waitForCompletion(ctx context.Context, machine *workflow.Machine, sessionID uuid.UUID) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			session, err := machine.Session(ctx, sessionID)
			if err != nil {
				return err
			}
			if session.Status == db.SessionCompleted {
				return nil
			}
		}
	}
}
