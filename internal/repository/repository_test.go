package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-deck/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	return db
}

func TestCategoryRepository_EnsureDefaults(t *testing.T) {
	db := testDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureDefaults(ctx, 1))
	require.NoError(t, repo.EnsureDefaults(ctx, 1), "seeding is idempotent")

	categories, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, categories, len(model.DefaultCategories))
	assert.Equal(t, "morning", categories[0].Key)
}

func TestDeckRepository_ReplaceAndLoad(t *testing.T) {
	db := testDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	entries := []model.DeckEntry{
		{InstanceID: "i1", CardID: "a", SourceCategory: "morning", Title: "A"},
		{InstanceID: "i2", CardID: "b", SourceCategory: "focus", Title: "B"},
	}
	require.NoError(t, repo.ReplaceDeck(ctx, 1, entries))

	loaded, err := repo.LoadDeck(ctx, 1)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "i1", loaded[0].InstanceID)
	assert.Equal(t, 1, loaded[1].Position)

	// Replace swaps the whole snapshot.
	require.NoError(t, repo.ReplaceDeck(ctx, 1, entries[1:]))
	loaded, err = repo.LoadDeck(ctx, 1)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "i2", loaded[0].InstanceID)

	require.NoError(t, repo.Clear(ctx, 1))
	loaded, err = repo.LoadDeck(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCompletionRepository_SameDayReplaces(t *testing.T) {
	db := testDB(t)
	repo := NewCompletionRepository(db)
	ctx := context.Background()

	first := &model.DayCompletion{UserID: 1, Date: "2024-01-01", TotalCards: 3, CompletedCards: 2}
	require.NoError(t, repo.SaveDayCompletion(ctx, first))

	second := &model.DayCompletion{UserID: 1, Date: "2024-01-01", TotalCards: 4, CompletedCards: 4}
	require.NoError(t, repo.SaveDayCompletion(ctx, second))

	dates, err := repo.ListDates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, dates, "same-day completion replaces, never duplicates")

	record, err := repo.FindByDate(ctx, 1, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 4, record.CompletedCards)
}

func TestCompletionRepository_StreakUpsert(t *testing.T) {
	db := testDB(t)
	repo := NewCompletionRepository(db)
	ctx := context.Background()

	empty, err := repo.GetStreak(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, empty.CurrentStreak, "missing streak reads as zero")

	require.NoError(t, repo.SaveStreak(ctx, 1, 2, 5, "2024-01-02"))
	require.NoError(t, repo.SaveStreak(ctx, 1, 3, 5, "2024-01-03"))

	streak, err := repo.GetStreak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, streak.CurrentStreak)
	assert.Equal(t, 5, streak.LongestStreak)
	assert.Equal(t, "2024-01-03", streak.LastCompletionDate)
}

func TestTemplateRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	template := &model.Template{
		ID:     "tpl-1",
		UserID: 1,
		Name:   "Weekday",
		Cards: []model.TemplateCard{
			{CardID: "a", SourceCategory: "morning", Position: 0},
			{CardID: "b", SourceCategory: "focus", Position: 1},
		},
	}
	require.NoError(t, repo.Create(ctx, template))

	loaded, err := repo.FindByID(ctx, 1, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Weekday", loaded.Name)
	require.Len(t, loaded.Cards, 2)
	assert.Equal(t, "a", loaded.Cards[0].CardID)

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFlusher_DebounceLatestWins(t *testing.T) {
	f := NewFlusher(20 * time.Millisecond)

	results := make(chan int, 2)
	f.Schedule("deck", func(ctx context.Context) error {
		results <- 1
		return nil
	})
	f.Schedule("deck", func(ctx context.Context) error {
		results <- 2
		return nil
	})

	select {
	case got := <-results:
		assert.Equal(t, 2, got, "rescheduling replaces the queued save")
	case <-time.After(time.Second):
		t.Fatal("debounced save never fired")
	}

	select {
	case got := <-results:
		t.Fatalf("stale save %d fired", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFlusher_FlushNowBypassesDebounce(t *testing.T) {
	f := NewFlusher(time.Hour)

	done := make(chan struct{})
	f.FlushNow("history", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("immediate flush did not run")
	}
}
