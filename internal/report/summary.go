package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/naka-gawa/repo-report/internal/domain"
)

// SummaryInput lists the outcome of every repository of a run.
type SummaryInput struct {
	RunID       string
	GeneratedAt time.Time
	Outcomes    []domain.RepoOutcome
	// OutputDir is the directory the summary is written to. Report links are relative to it.
	OutputDir string
}

type summaryLink struct {
	Name string
	Link string
}

type summarySkip struct {
	Name   string
	Reason string
}

var summaryTemplate = template.Must(template.New("summary").Funcs(funcs).Parse(`# GitHub Repository Analysis Summary

Analysis completed at: {{ stamp .GeneratedAt }}
{{- if .RunID }}
Run ID: {{ .RunID }}
{{- end }}

## Generated Reports

{{ range .Reports }}- [{{ .Name }}]({{ .Link }})
{{ end }}
{{- if .Skipped }}
## Skipped Repositories

{{ range .Skipped }}- {{ .Name }}: {{ .Reason }}
{{ end }}
{{- end }}`))

// ComposeSummary renders the index linking every generated report. Report content is not repeated.
func ComposeSummary(in SummaryInput) (string, error) {
	data := struct {
		SummaryInput
		Reports []summaryLink
		Skipped []summarySkip
	}{SummaryInput: in}

	for _, o := range in.Outcomes {
		if o.Skipped() {
			data.Skipped = append(data.Skipped, summarySkip{Name: o.Target.FullName(), Reason: o.SkipReason})
			continue
		}
		link, err := filepath.Rel(in.OutputDir, o.ReportPath)
		if err != nil {
			link = o.ReportPath
		}
		data.Reports = append(data.Reports, summaryLink{Name: o.Target.DirName(), Link: filepath.ToSlash(link)})
	}

	var sb strings.Builder
	if err := summaryTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to compose summary: %w", err)
	}
	return sb.String(), nil
}

// SummaryFileName returns the timestamped file name of the run summary.
func SummaryFileName(t time.Time) string {
	return fmt.Sprintf("analysis_summary_%s.md", t.Format(fileLayout))
}
