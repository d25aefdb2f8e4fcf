package domain

import (
	"fmt"
	"time"
)

// RepositoryTarget identifies a repository to analyze.
type RepositoryTarget struct {
	Owner string `json:"owner" toml:"owner"`
	Name  string `json:"name" toml:"name"`
}

// FullName returns the "owner/name" form of the target.
func (t RepositoryTarget) FullName() string {
	return fmt.Sprintf("%s/%s", t.Owner, t.Name)
}

// DirName returns the directory name used for the target's output files.
func (t RepositoryTarget) DirName() string {
	return fmt.Sprintf("%s_%s", t.Owner, t.Name)
}

// RepoInfo is the repository metadata shown in a report.
// Fields absent upstream keep their zero value.
type RepoInfo struct {
	FullName      string
	Description   string
	HTMLURL       string
	Language      string
	DefaultBranch string
	Stars         int
	Forks         int
	OpenIssues    int
	Watchers      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PushedAt      time.Time
}

// CommitRecord is the part of an upstream commit used for aggregation.
type CommitRecord struct {
	AuthorName string
	AuthorDate time.Time
}

// BranchRecord describes a single branch.
type BranchRecord struct {
	Name      string
	Protected bool
}

// BranchStats summarizes the branches of a repository.
type BranchStats struct {
	Total     int
	Protected int
	Names     []string
}

// SummarizeBranches counts branches and protected branches, keeping the upstream order of names.
func SummarizeBranches(branches []BranchRecord) BranchStats {
	stats := BranchStats{Total: len(branches), Names: make([]string, 0, len(branches))}
	for _, b := range branches {
		if b.Protected {
			stats.Protected++
		}
		stats.Names = append(stats.Names, b.Name)
	}
	return stats
}

// ChartRef points at a rendered chart, either as a file next to the report or as inline data.
type ChartRef struct {
	Title    string
	FileName string
	// Inline holds base64 encoded PNG data. It takes precedence over FileName.
	Inline string
}

// Markdown returns the image embed for the chart.
func (c ChartRef) Markdown() string {
	if c.Inline != "" {
		return fmt.Sprintf("![%s](data:image/png;base64,%s)", c.Title, c.Inline)
	}
	return fmt.Sprintf("![%s](%s)", c.Title, c.FileName)
}

// RepoOutcome is the result of analyzing one repository: either a report path or a skip reason.
type RepoOutcome struct {
	Target     RepositoryTarget
	ReportPath string
	SkipReason string
}

// Skipped reports whether no report was produced for the repository.
func (o RepoOutcome) Skipped() bool {
	return o.ReportPath == ""
}
