package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/naka-gawa/repo-report/internal/chart"
	"github.com/naka-gawa/repo-report/internal/config"
	"github.com/naka-gawa/repo-report/internal/gateway"
	"github.com/naka-gawa/repo-report/internal/usecase"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Printf("Ignoring .env file: %v", err)
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return err
	}

	// Inject dependencies and run the main business logic.
	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:             os.Getenv("GITHUB_TOKEN"),
		BaseURL:           cfg.APIBaseURL,
		GraphQLURL:        cfg.GraphQLURL,
		Timeout:           cfg.Timeout(),
		RateLimitMaxSleep: cfg.RateLimitMaxSleep(),
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
		return err
	}

	var opts []usecase.Option
	if !verbose && len(cfg.Repositories) > 0 {
		bar := progressbar.NewOptions(len(cfg.Repositories),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Analyzing repositories"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		opts = append(opts, usecase.WithProgress(bar))
	}
	analyzer := usecase.NewAnalyzer(githubGateway, chart.Renderer{}, cfg, logger, opts...)

	result, err := analyzer.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to analyze repositories: %v\n", err)
		return err
	}

	generated := 0
	for _, outcome := range result.Outcomes {
		if outcome.Skipped() {
			color.Yellow("Skipped %s: %s", outcome.Target.FullName(), outcome.SkipReason)
			continue
		}
		generated++
		color.Green("Report generated for %s: %s", outcome.Target.FullName(), outcome.ReportPath)
	}
	if result.SummaryPath != "" {
		generated++
		color.Blue("Summary written to %s", result.SummaryPath)
	}
	fmt.Printf("\nAnalysis completed. Generated %d reports.\n", generated)
	return nil
}

// loadConfig reads the config file, or builds a default config for a single owner/name argument.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	if len(args) == 1 {
		target, err := config.ParseTarget(args[0])
		if err != nil {
			return config.Config{}, err
		}
		cfg := config.Default()
		cfg.Repositories = append(cfg.Repositories, target)
		return cfg, cfg.Validate()
	}
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
