// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// AuthorCount holds the number of commits attributed to a single author.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// DateRange is the span between the oldest and newest analyzed commit.
type DateRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Days returns the number of calendar days covered by the range, inclusive.
// A range whose endpoints fall within 24 hours of each other counts as one day.
func (r DateRange) Days() int {
	return int(r.Last.Sub(r.First).Hours()/24) + 1
}

// AggregationResult holds the statistics derived from a list of commits.
// It is the core domain entity of this application.
type AggregationResult struct {
	TotalCommits int `json:"total_commits"`
	// AuthorCounts is sorted by count, descending. Ties keep encounter order.
	AuthorCounts    []AuthorCount  `json:"author_counts"`
	CountsByDay     map[string]int `json:"counts_by_day"`
	CountsByMonth   map[string]int `json:"counts_by_month"`
	CountsByWeekday map[string]int `json:"counts_by_weekday"`
	// DateRange is nil when no commit was aggregated.
	DateRange          *DateRange `json:"date_range,omitempty"`
	AveragePerDay      float64    `json:"average_per_day"`
	MedianPerActiveDay float64    `json:"median_per_active_day"`
	BusiestDay         string     `json:"busiest_day,omitempty"`
	BusiestDayCount    int        `json:"busiest_day_count"`
}

// Weekdays lists the canonical weekday names in calendar order, starting on Monday.
var Weekdays = []string{
	time.Monday.String(),
	time.Tuesday.String(),
	time.Wednesday.String(),
	time.Thursday.String(),
	time.Friday.String(),
	time.Saturday.String(),
	time.Sunday.String(),
}
