package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"daily-deck/internal/engine"
	"daily-deck/internal/model"
	"daily-deck/internal/repository"
)

// ReportService builds human-readable summaries of deck state for chat
// display.
type ReportService struct {
	deck        *repository.DeckRepository
	completions *repository.CompletionRepository
	categories  *repository.CategoryRepository
	loc         *time.Location
}

func NewReportService(
	deck *repository.DeckRepository,
	completions *repository.CompletionRepository,
	categories *repository.CategoryRepository,
	loc *time.Location,
) *ReportService {
	return &ReportService{deck: deck, completions: completions, categories: categories, loc: loc}
}

// DailySummary renders the user's current deck plus streak, for the
// periodic push and the /deck command.
func (s *ReportService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	entries, err := s.deck.LoadDeck(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load deck: %w", err)
	}
	streak, err := s.completions.GetStreak(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load streak: %w", err)
	}

	var b strings.Builder
	b.WriteString(RenderDeck(engine.Deck(entries), now.In(s.loc)))
	if streak.CurrentStreak > 0 {
		b.WriteString(fmt.Sprintf("\n\n🔥 Streak: %s", pluralDays(streak.CurrentStreak)))
	}
	return b.String(), nil
}

// CategoryNames maps bucket keys to display names for rendering.
func (s *ReportService) CategoryNames(ctx context.Context, userID uint) (map[string]string, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.Key] = c.Name
	}
	return names, nil
}

// RenderDeck renders the working set with the focused card marked. The
// focused card is the first incomplete entry.
func RenderDeck(deck engine.Deck, now time.Time) string {
	var b strings.Builder
	b.WriteString("🃏 <b>Today's deck</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format(engine.DateKeyLayout)))

	if len(deck) == 0 {
		b.WriteString("The deck is empty. Add cards with /catalog")
		return b.String()
	}

	focus := engine.FirstIncompleteIndex(deck)
	done := 0
	trackedTotal := 0
	for i, e := range deck {
		icon := "⬜"
		switch {
		case e.Completed:
			icon = "✅"
			done++
		case i == focus:
			icon = "👉"
		}
		b.WriteString(fmt.Sprintf("%d. %s %s", i+1, icon, html.EscapeString(e.Title)))
		if e.Duration != nil {
			b.WriteString(fmt.Sprintf(" <i>(%d min)</i>", *e.Duration))
		}
		if tracked := engine.ElapsedSec(e, now); tracked > 0 {
			trackedTotal += tracked
			b.WriteString(" · ⏱ " + formatDuration(tracked))
		}
		if e.TimerStartedAt != nil {
			b.WriteString(" · ▶️")
		}
		b.WriteByte('\n')
	}

	b.WriteString(fmt.Sprintf("\n%d/%d done · %s tracked", done, len(deck), formatDuration(trackedTotal)))
	return b.String()
}

// RenderDayResult renders the completion summary shown after /finish.
func RenderDayResult(summary engine.DaySummary, streak engine.Streak, catNames map[string]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏁 <b>Day complete: %s</b>\n\n", summary.Date))
	b.WriteString(fmt.Sprintf("✅ %d/%d cards · ⏱ %s\n", summary.CompletedCount, summary.TotalCards, formatDuration(summary.TotalTimeSec)))

	if len(summary.Breakdown) > 0 {
		b.WriteString("\n<b>By category</b>\n")
		keys := make([]string, 0, len(summary.Breakdown))
		for key := range summary.Breakdown {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			stat := summary.Breakdown[key]
			name := key
			if display, ok := catNames[key]; ok {
				name = display
			}
			b.WriteString(fmt.Sprintf("• %s: %d (%s)\n", html.EscapeString(name), stat.Count, formatDuration(stat.TimeSec)))
		}
	}

	b.WriteString(fmt.Sprintf("\n🔥 Streak: %s (best %d)", pluralDays(streak.Current), streak.Longest))
	return b.String()
}

// RenderStreak renders the stored streak row for the /streak command.
func RenderStreak(streak model.UserStreak) string {
	var b strings.Builder
	b.WriteString("🔥 <b>Your streak</b>\n")
	b.WriteString(fmt.Sprintf("Current: %s\n", pluralDays(streak.CurrentStreak)))
	b.WriteString(fmt.Sprintf("Longest: %s", pluralDays(streak.LongestStreak)))
	if streak.LastCompletionDate != "" {
		b.WriteString(fmt.Sprintf("\nLast completed day: %s", streak.LastCompletionDate))
	}
	return b.String()
}

func formatDuration(totalSec int) string {
	minutes := totalSec / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
