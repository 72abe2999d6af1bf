package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_CountsAndBreakdown(t *testing.T) {
	d := Deck{
		completedEntry("i1", "a", "morning", 300),
		completedEntry("i2", "b", "morning", 120),
		completedEntry("i3", "c", "body", 600),
		entry("i4", "d", "focus"), // incomplete, excluded from totals
	}

	s := Summarize(d, testNow)

	assert.Equal(t, "2024-01-01", s.Date)
	assert.Equal(t, 4, s.TotalCards)
	assert.Equal(t, 3, s.CompletedCount)
	assert.Equal(t, 1020, s.TotalTimeSec)
	assert.Equal(t, CategoryStat{Count: 2, TimeSec: 420}, s.Breakdown["morning"])
	assert.Equal(t, CategoryStat{Count: 1, TimeSec: 600}, s.Breakdown["body"])
	assert.NotContains(t, s.Breakdown, "focus")

	require.Len(t, s.Completed, 3)
	assert.Equal(t, "i1", s.Completed[0].InstanceID)
	assert.Equal(t, "Card a", s.Completed[0].Title)
}

func TestRecomputeStreak_ConsecutiveRun(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}

	s := RecomputeStreak(dates, "2024-01-03")

	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 3, s.Longest)
	assert.Equal(t, "2024-01-03", s.LastDate)
}

func TestRecomputeStreak_GapResetsCurrentKeepsLongest(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}

	s := RecomputeStreak(dates, "2024-01-05")

	assert.Equal(t, 1, s.Current, "skipping the 4th breaks the run")
	assert.Equal(t, 3, s.Longest)
}

func TestRecomputeStreak_YesterdayStillCounts(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03"}

	s := RecomputeStreak(dates, "2024-01-04")

	assert.Equal(t, 2, s.Current, "a completion yesterday keeps the streak alive")
}

func TestRecomputeStreak_StaleHistory(t *testing.T) {
	dates := []string{"2023-12-01", "2023-12-02", "2023-12-03"}

	s := RecomputeStreak(dates, "2024-01-10")

	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 3, s.Longest, "longest survives anywhere in history")
}

func TestRecomputeStreak_Empty(t *testing.T) {
	assert.Equal(t, Streak{}, RecomputeStreak(nil, "2024-01-01"))
}

func TestRecomputeStreak_DuplicateAndMalformedKeys(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-01", "oops", "2024-01-02"}

	s := RecomputeStreak(dates, "2024-01-02")

	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
}

func TestCompleteDay_FoldsTodayIntoHistory(t *testing.T) {
	d := Deck{completedEntry("i1", "a", "morning", 60)}
	history := []string{"2023-12-31"}

	summary, streak := CompleteDay(d, history, testNow)

	assert.Equal(t, "2024-01-01", summary.Date)
	assert.Equal(t, 2, streak.Current, "yesterday plus today")
	assert.Equal(t, 2, streak.Longest)
}

func TestCompleteDay_SameDayIdempotent(t *testing.T) {
	d := Deck{completedEntry("i1", "a", "morning", 60)}

	first, s1 := CompleteDay(d, nil, testNow)
	second, s2 := CompleteDay(d, []string{first.Date}, testNow)

	assert.Equal(t, first.Date, second.Date)
	assert.Equal(t, s1, s2, "completing the same day twice replaces, never double-counts")
}

func TestCompleteDay_UsesCallerClock(t *testing.T) {
	later := time.Date(2024, time.June, 15, 23, 0, 0, 0, time.UTC)
	summary, _ := CompleteDay(Deck{}, nil, later)
	assert.Equal(t, "2024-06-15", summary.Date)
}
