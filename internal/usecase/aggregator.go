// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/repo-report/internal/domain"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Aggregate derives commit statistics from a list of commits in a single pass.
// Records without an author name or date are not counted.
func Aggregate(commits []domain.CommitRecord) domain.AggregationResult {
	result := domain.AggregationResult{
		AuthorCounts:    []domain.AuthorCount{},
		CountsByDay:     make(map[string]int),
		CountsByMonth:   make(map[string]int),
		CountsByWeekday: make(map[string]int),
	}

	// authorIndex maps an author to its position in AuthorCounts, which keeps encounter order.
	authorIndex := make(map[string]int)
	var first, last domain.CommitRecord
	for _, c := range commits {
		if c.AuthorName == "" || c.AuthorDate.IsZero() {
			continue
		}
		if result.TotalCommits == 0 || c.AuthorDate.Before(first.AuthorDate) {
			first = c
		}
		if result.TotalCommits == 0 || c.AuthorDate.After(last.AuthorDate) {
			last = c
		}
		result.TotalCommits++

		if i, ok := authorIndex[c.AuthorName]; ok {
			result.AuthorCounts[i].Count++
		} else {
			authorIndex[c.AuthorName] = len(result.AuthorCounts)
			result.AuthorCounts = append(result.AuthorCounts, domain.AuthorCount{Author: c.AuthorName, Count: 1})
		}
		result.CountsByDay[c.AuthorDate.Format(dayLayout)]++
		result.CountsByMonth[c.AuthorDate.Format(monthLayout)]++
		result.CountsByWeekday[c.AuthorDate.Weekday().String()]++
	}

	sort.SliceStable(result.AuthorCounts, func(i, j int) bool {
		return result.AuthorCounts[i].Count > result.AuthorCounts[j].Count
	})

	if result.TotalCommits == 0 {
		return result
	}

	dateRange := domain.DateRange{First: first.AuthorDate, Last: last.AuthorDate}
	result.DateRange = &dateRange
	result.AveragePerDay = float64(result.TotalCommits) / float64(dateRange.Days())
	result.MedianPerActiveDay, result.BusiestDay, result.BusiestDayCount = dailyStats(result.CountsByDay)
	return result
}

// dailyStats returns the median commit count over days with activity and the busiest day.
// The earliest day wins a tie for busiest.
func dailyStats(countsByDay map[string]int) (float64, string, int) {
	days := make([]string, 0, len(countsByDay))
	for day := range countsByDay {
		days = append(days, day)
	}
	sort.Strings(days)

	data := make(stats.Float64Data, 0, len(days))
	busiest, busiestCount := "", 0
	for _, day := range days {
		count := countsByDay[day]
		data = append(data, float64(count))
		if count > busiestCount {
			busiest, busiestCount = day, count
		}
	}
	median, err := data.Median()
	if err != nil {
		return 0, busiest, busiestCount
	}
	return median, busiest, busiestCount
}
