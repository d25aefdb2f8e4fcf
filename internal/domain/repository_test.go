package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateRange_Days(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		last     time.Time
		expected int
	}{
		{name: "same instant", last: start, expected: 1},
		{name: "less than a day", last: start.Add(23 * time.Hour), expected: 1},
		{name: "exactly one day", last: start.Add(24 * time.Hour), expected: 2},
		{name: "ten and a half days", last: start.Add(252 * time.Hour), expected: 11},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DateRange{First: start, Last: tc.last}.Days())
		})
	}
}

func TestSummarizeBranches(t *testing.T) {
	stats := SummarizeBranches([]BranchRecord{{Name: "main", Protected: true}, {Name: "dev"}, {Name: "release", Protected: true}})

	assert.Equal(t, BranchStats{Total: 3, Protected: 2, Names: []string{"main", "dev", "release"}}, stats)
	assert.Equal(t, BranchStats{Names: []string{}}, SummarizeBranches(nil))
}

func TestRepositoryTarget(t *testing.T) {
	target := RepositoryTarget{Owner: "octo", Name: "hello"}

	assert.Equal(t, "octo/hello", target.FullName())
	assert.Equal(t, "octo_hello", target.DirName())
}

func TestChartRef_Markdown(t *testing.T) {
	assert.Equal(t, "![Top](top.png)", ChartRef{Title: "Top", FileName: "top.png"}.Markdown())
	assert.Equal(t, "![Top](data:image/png;base64,AAA=)", ChartRef{Title: "Top", FileName: "top.png", Inline: "AAA="}.Markdown())
}

func TestRepoOutcome_Skipped(t *testing.T) {
	assert.False(t, RepoOutcome{ReportPath: "reports/a_b/report.md"}.Skipped())
	assert.True(t, RepoOutcome{SkipReason: "repository information unavailable"}.Skipped())
}
