package service

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"daily-deck/internal/engine"
	"daily-deck/internal/model"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func intPtr(v int) *int { return &v }

func TestRenderDeck_Golden(t *testing.T) {
	now := time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC)
	completedAt := now.Add(-2 * time.Hour)

	deck := engine.Deck{
		{
			InstanceID:   "i1",
			CardID:       "a",
			Title:        "Morning pages",
			Duration:     intPtr(25),
			Completed:    true,
			CompletedAt:  &completedAt,
			TimeSpentSec: 1500,
		},
		{
			InstanceID:   "i2",
			CardID:       "b",
			Title:        "Deep work <block>",
			TimeSpentSec: 2520,
		},
		{
			InstanceID: "i3",
			CardID:     "c",
			Title:      "Stretch",
		},
	}

	golden(t).Assert(t, "daily_deck", []byte(RenderDeck(deck, now)))
}

func TestRenderDeck_Empty(t *testing.T) {
	now := time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC)
	out := RenderDeck(engine.Deck{}, now)
	assert.Contains(t, out, "The deck is empty")
}

func TestRenderDayResult_Golden(t *testing.T) {
	summary := engine.DaySummary{
		Date:           "2024-01-01",
		TotalCards:     4,
		CompletedCount: 3,
		TotalTimeSec:   4020,
		Breakdown: map[string]engine.CategoryStat{
			"morning": {Count: 2, TimeSec: 1500},
			"body":    {Count: 1, TimeSec: 2520},
		},
	}
	streak := engine.Streak{Current: 3, Longest: 5}
	catNames := map[string]string{"morning": "Morning", "body": "Body"}

	golden(t).Assert(t, "day_result", []byte(RenderDayResult(summary, streak, catNames)))
}

func TestRenderStreak(t *testing.T) {
	out := RenderStreak(model.UserStreak{CurrentStreak: 1, LongestStreak: 4, LastCompletionDate: "2024-01-03"})

	assert.Contains(t, out, "Current: 1 day")
	assert.Contains(t, out, "Longest: 4 days")
	assert.Contains(t, out, "2024-01-03")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", formatDuration(30))
	assert.Equal(t, "42m", formatDuration(2520))
	assert.Equal(t, "1h 7m", formatDuration(4020))
	assert.Equal(t, "2h 0m", formatDuration(7200))
}
