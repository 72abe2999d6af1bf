package engine

import (
	"sort"
	"time"
)

// DateKeyLayout formats the calendar-date keys completion history is
// indexed by.
const DateKeyLayout = "2006-01-02"

// CategoryStat is the per-category slice of a day summary.
type CategoryStat struct {
	Count   int `json:"count"`
	TimeSec int `json:"time_sec"`
}

// CompletedCard describes one finished deck entry inside a day record.
type CompletedCard struct {
	InstanceID  string    `json:"instance_id"`
	CardID      string    `json:"card_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	TimeSec     int       `json:"time_sec"`
	CompletedAt time.Time `json:"completed_at"`
}

// DaySummary is the completion record built from a deck snapshot. Time
// totals count completed entries only.
type DaySummary struct {
	Date           string
	TotalCards     int
	CompletedCount int
	TotalTimeSec   int
	Breakdown      map[string]CategoryStat
	Completed      []CompletedCard
}

// Streak is the derived consecutive-day statistic.
type Streak struct {
	Current  int
	Longest  int
	LastDate string
}

// Summarize folds a deck snapshot into the completion record for the
// calendar day of `now`.
func Summarize(d Deck, now time.Time) DaySummary {
	s := DaySummary{
		Date:       now.Format(DateKeyLayout),
		TotalCards: len(d),
		Breakdown:  make(map[string]CategoryStat),
	}
	for _, e := range d {
		if !e.Completed {
			continue
		}
		s.CompletedCount++
		s.TotalTimeSec += e.TimeSpentSec
		stat := s.Breakdown[e.SourceCategory]
		stat.Count++
		stat.TimeSec += e.TimeSpentSec
		s.Breakdown[e.SourceCategory] = stat

		completedAt := now
		if e.CompletedAt != nil {
			completedAt = *e.CompletedAt
		}
		s.Completed = append(s.Completed, CompletedCard{
			InstanceID:  e.InstanceID,
			CardID:      e.CardID,
			Title:       e.Title,
			Category:    e.SourceCategory,
			TimeSec:     e.TimeSpentSec,
			CompletedAt: completedAt,
		})
	}
	return s
}

// CompleteDay builds today's completion record and recomputes the
// streak from the full history. `history` holds the existing completion
// date keys; today's key is folded in (replacing, never duplicating, an
// existing record for the same date).
func CompleteDay(d Deck, history []string, now time.Time) (DaySummary, Streak) {
	summary := Summarize(d, now)
	dates := append([]string(nil), history...)
	if !containsDate(dates, summary.Date) {
		dates = append(dates, summary.Date)
	}
	return summary, RecomputeStreak(dates, summary.Date)
}

// RecomputeStreak derives current and longest streaks from completion
// date keys. The current streak is non-zero only when the most recent
// completion is today or yesterday, and extends backward through
// strictly consecutive calendar days. The longest streak is the maximum
// run anywhere in history.
func RecomputeStreak(dates []string, today string) Streak {
	days := parseDates(dates)
	if len(days) == 0 {
		return Streak{}
	}

	last := days[len(days)-1]
	streak := Streak{LastDate: last.Format(DateKeyLayout)}

	todayDay, err := time.Parse(DateKeyLayout, today)
	if err == nil {
		gap := int(todayDay.Sub(last).Hours() / 24)
		if gap == 0 || gap == 1 {
			streak.Current = 1
			for i := len(days) - 2; i >= 0; i-- {
				if days[i+1].Sub(days[i]) != 24*time.Hour {
					break
				}
				streak.Current++
			}
		}
	}

	run := 1
	longest := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if streak.Current > longest {
		longest = streak.Current
	}
	streak.Longest = longest
	return streak
}

// parseDates returns the unique, ascending calendar days in the key set,
// dropping anything that does not parse.
func parseDates(keys []string) []time.Time {
	seen := make(map[string]bool, len(keys))
	days := make([]time.Time, 0, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		day, err := time.Parse(DateKeyLayout, key)
		if err != nil {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func containsDate(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
