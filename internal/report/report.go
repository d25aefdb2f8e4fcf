// Package report composes the Markdown documents written for each repository
// and the summary index written once per run.
package report

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/naka-gawa/repo-report/internal/domain"
)

const (
	// MaxContributors is the number of authors listed in a report.
	MaxContributors = 10
	// MaxMonths is the number of months shown in the monthly activity table.
	MaxMonths = 6
	// Placeholder replaces values missing from upstream data.
	Placeholder = "N/A"

	displayLayout = "2006-01-02 15:04:05"
	fileLayout    = "20060102_150405"
)

// Input holds everything shown in a repository report.
type Input struct {
	Target      domain.RepositoryTarget
	Info        *domain.RepoInfo
	Branches    domain.BranchStats
	Aggregation domain.AggregationResult
	// HistoryCount is the total number of commits on the analyzed branch, when HasHistoryCount is set.
	HistoryCount    int
	HasHistoryCount bool
	Charts          []domain.ChartRef
	GeneratedAt     time.Time
}

// Row is a label and count pair rendered as a table row.
type Row struct {
	Label string
	Count int
}

var funcs = template.FuncMap{
	"stamp": formatTime,
	"orNA":  orPlaceholder,
	"join":  strings.Join,
	"float": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"day":   func(t time.Time) string { return t.Format("2006-01-02") },
	"embed": func(c domain.ChartRef) string { return c.Markdown() },
}

var reportTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`# GitHub Repository Analysis: {{ .Target.FullName }}
Generated on: {{ stamp .GeneratedAt }}

## Repository Information
{{- with .Info }}
- URL: {{ orNA .HTMLURL }}
- Description: {{ orNA .Description }}
- Language: {{ orNA .Language }}
- Default Branch: {{ orNA .DefaultBranch }}
- Stars: {{ .Stars }}
- Forks: {{ .Forks }}
- Open Issues: {{ .OpenIssues }}
- Watchers: {{ .Watchers }}
- Created: {{ stamp .CreatedAt }}
- Last Updated: {{ stamp .UpdatedAt }}
- Last Push: {{ stamp .PushedAt }}
{{- end }}

## Branch Information
- Total Branches: {{ .Branches.Total }}
- Protected Branches: {{ .Branches.Protected }}
- Branch Names: {{ if .Branches.Names }}{{ join .Branches.Names ", " }}{{ else }}N/A{{ end }}

## Commit Analysis
- Total Commits Analyzed: {{ .Aggregation.TotalCommits }}
{{- if .HasHistoryCount }}
- Total Commits on Branch: {{ .HistoryCount }}
{{- end }}
{{- with .Aggregation.DateRange }}
- Date Range: {{ day .First }} to {{ day .Last }} ({{ .Days }} days)
- Average Commits per Day: {{ float $.Aggregation.AveragePerDay }}
- Median Commits per Active Day: {{ float $.Aggregation.MedianPerActiveDay }}
- Busiest Day: {{ $.Aggregation.BusiestDay }} ({{ $.Aggregation.BusiestDayCount }} commits)
{{- end }}

### Top Contributors
{{ range .Contributors }}- {{ .Author }}: {{ .Count }} commits
{{ else }}No contributors found.
{{ end }}
### Commits by Weekday
| Weekday | Commits |
|---|---|
{{ range .Weekdays }}| {{ .Label }} | {{ .Count }} |
{{ end }}
{{- if .Months }}
### Monthly Activity
| Month | Commits |
|---|---|
{{ range .Months }}| {{ .Label }} | {{ .Count }} |
{{ end }}
{{- end }}
{{- if .Charts }}
## Charts
{{ range .Charts }}
{{ embed . }}
{{ end }}
{{- end }}`))

// Compose renders the Markdown report for a single repository.
func Compose(in Input) (string, error) {
	info := in.Info
	if info == nil {
		info = &domain.RepoInfo{}
	}
	data := struct {
		Input
		Info         *domain.RepoInfo
		Contributors []domain.AuthorCount
		Weekdays     []Row
		Months       []Row
	}{
		Input:        in,
		Info:         info,
		Contributors: TopContributors(in.Aggregation, MaxContributors),
		Weekdays:     WeekdayRows(in.Aggregation),
		Months:       RecentMonths(in.Aggregation, MaxMonths),
	}
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to compose report for %s: %w", in.Target.FullName(), err)
	}
	return sb.String(), nil
}

// TopContributors returns at most limit authors, keeping the aggregation order.
func TopContributors(agg domain.AggregationResult, limit int) []domain.AuthorCount {
	if len(agg.AuthorCounts) <= limit {
		return agg.AuthorCounts
	}
	return agg.AuthorCounts[:limit]
}

// WeekdayRows returns one row per weekday from Monday to Sunday.
func WeekdayRows(agg domain.AggregationResult) []Row {
	rows := make([]Row, 0, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		rows = append(rows, Row{Label: day, Count: agg.CountsByWeekday[day]})
	}
	return rows
}

// RecentMonths returns at most limit months, most recent first.
func RecentMonths(agg domain.AggregationResult, limit int) []Row {
	months := make([]string, 0, len(agg.CountsByMonth))
	for month := range agg.CountsByMonth {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > limit {
		months = months[:limit]
	}
	rows := make([]Row, 0, len(months))
	for _, month := range months {
		rows = append(rows, Row{Label: month, Count: agg.CountsByMonth[month]})
	}
	return rows
}

// ReportFileName returns the timestamped file name of a repository report.
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("report_%s.md", t.Format(fileLayout))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format(displayLayout)
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
