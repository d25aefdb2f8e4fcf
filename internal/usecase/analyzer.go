package usecase

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/naka-gawa/repo-report/internal/chart"
	"github.com/naka-gawa/repo-report/internal/config"
	"github.com/naka-gawa/repo-report/internal/domain"
	"github.com/naka-gawa/repo-report/internal/gateway"
	"github.com/naka-gawa/repo-report/internal/report"
)

const (
	contributorsChartFile = "contributors_graph.png"
	weekdayChartFile      = "weekday_graph.png"

	reasonInfoUnavailable = "repository information unavailable"
)

// ChartRenderer draws a bar chart and returns the encoded image.
type ChartRenderer interface {
	RenderBarChart(labels []string, values []float64, title string) ([]byte, error)
}

// Progress is notified once per analyzed repository.
type Progress interface {
	Add(num int) error
}

// RunResult is the outcome of a full run.
type RunResult struct {
	RunID    string
	Outcomes []domain.RepoOutcome
	// SummaryPath is empty when no report was generated.
	SummaryPath string
}

// Analyzer is the use case for analyzing repositories.
// It orchestrates fetching, aggregation, chart rendering and report writing.
type Analyzer struct {
	fetcher  gateway.Fetcher
	renderer ChartRenderer
	cfg      config.Config
	logger   *log.Logger
	progress Progress
	now      func() time.Time
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithProgress reports each finished repository to p.
func WithProgress(p Progress) Option {
	return func(a *Analyzer) { a.progress = p }
}

// WithClock replaces the clock used for timestamps and file names.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher gateway.Fetcher, renderer ChartRenderer, cfg config.Config, logger *log.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:  fetcher,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run analyzes every configured repository in order, one at a time, and writes the summary document
// when at least one report was generated. A repository that fails is recorded as skipped and the run
// continues with the next one.
func (a *Analyzer) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString()}
	a.logger.Printf("Starting analysis of %d repositories (run %s)...", len(a.cfg.Repositories), result.RunID)

	if err := os.MkdirAll(a.cfg.OutputDirectory, 0o755); err != nil {
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	generated := 0
	for _, target := range a.cfg.Repositories {
		outcome := a.AnalyzeRepository(ctx, target)
		if outcome.Skipped() {
			a.logger.Printf("Skipped %s: %s", target.FullName(), outcome.SkipReason)
		} else {
			generated++
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if a.progress != nil {
			_ = a.progress.Add(1)
		}
	}

	if generated == 0 {
		a.logger.Println("No reports generated, skipping summary.")
		return result, nil
	}

	now := a.now()
	summary, err := report.ComposeSummary(report.SummaryInput{
		RunID:       result.RunID,
		GeneratedAt: now,
		Outcomes:    result.Outcomes,
		OutputDir:   a.cfg.OutputDirectory,
	})
	if err != nil {
		return result, err
	}
	summaryPath := filepath.Join(a.cfg.OutputDirectory, report.SummaryFileName(now))
	if err := os.WriteFile(summaryPath, []byte(summary), 0o644); err != nil {
		return result, fmt.Errorf("failed to write summary: %w", err)
	}
	result.SummaryPath = summaryPath
	a.logger.Printf("Summary written to %s", summaryPath)
	return result, nil
}

// AnalyzeRepository fetches, aggregates and reports a single repository.
func (a *Analyzer) AnalyzeRepository(ctx context.Context, target domain.RepositoryTarget) domain.RepoOutcome {
	a.logger.Printf("Analyzing repository: %s", target.FullName())
	outcome := domain.RepoOutcome{Target: target}

	info := a.fetcher.FetchRepositoryInfo(ctx, target.Owner, target.Name)
	if info == nil {
		outcome.SkipReason = reasonInfoUnavailable
		return outcome
	}
	branches := a.fetcher.FetchBranches(ctx, target.Owner, target.Name)
	commits := a.fetcher.FetchCommits(ctx, target.Owner, target.Name, gateway.CommitQuery{
		Branch:     a.cfg.Branch,
		MaxPages:   a.cfg.MaxPages,
		MaxCommits: a.cfg.MaxCommits,
	})
	historyCount, hasHistoryCount := a.fetcher.FetchHistoryCount(ctx, target.Owner, target.Name, a.cfg.Branch)

	agg := Aggregate(commits)
	a.logger.Printf("Aggregated %d of %d fetched commits from %d authors.", agg.TotalCommits, len(commits), len(agg.AuthorCounts))

	repoDir := filepath.Join(a.cfg.OutputDirectory, target.DirName())
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		outcome.SkipReason = fmt.Sprintf("failed to create repository directory: %v", err)
		return outcome
	}

	charts, err := a.renderCharts(repoDir, agg)
	if err != nil {
		outcome.SkipReason = err.Error()
		return outcome
	}

	now := a.now()
	content, err := report.Compose(report.Input{
		Target:          target,
		Info:            info,
		Branches:        domain.SummarizeBranches(branches),
		Aggregation:     agg,
		HistoryCount:    historyCount,
		HasHistoryCount: hasHistoryCount,
		Charts:          charts,
		GeneratedAt:     now,
	})
	if err != nil {
		outcome.SkipReason = err.Error()
		return outcome
	}

	reportPath := filepath.Join(repoDir, report.ReportFileName(now))
	if err := os.WriteFile(reportPath, []byte(content), 0o644); err != nil {
		outcome.SkipReason = fmt.Sprintf("failed to write report: %v", err)
		return outcome
	}
	a.logger.Printf("Report generated for %s: %s", target.FullName(), reportPath)
	outcome.ReportPath = reportPath
	return outcome
}

// renderCharts draws the contributor and weekday charts. Nothing is drawn without commits.
func (a *Analyzer) renderCharts(repoDir string, agg domain.AggregationResult) ([]domain.ChartRef, error) {
	if agg.TotalCommits == 0 {
		return nil, nil
	}
	type chartJob struct {
		title    string
		fileName string
		labels   []string
		values   []float64
	}
	contributorLabels, contributorValues := chart.ContributorSeries(agg, chart.TopContributors)
	weekdayLabels, weekdayValues := chart.WeekdaySeries(agg)
	jobs := []chartJob{
		{title: "Top Contributors", fileName: contributorsChartFile, labels: contributorLabels, values: contributorValues},
		{title: "Commits by Weekday", fileName: weekdayChartFile, labels: weekdayLabels, values: weekdayValues},
	}

	refs := make([]domain.ChartRef, 0, len(jobs))
	for _, s := range jobs {
		data, err := a.renderer.RenderBarChart(s.labels, s.values, s.title)
		if err != nil {
			return nil, err
		}
		ref := domain.ChartRef{Title: s.title, FileName: s.fileName}
		if a.cfg.InlineCharts {
			ref.Inline = chart.EncodeInline(data)
		} else if err := os.WriteFile(filepath.Join(repoDir, s.fileName), data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write chart %s: %w", s.fileName, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
