package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daily-deck/internal/engine"
	"daily-deck/internal/model"
	"daily-deck/internal/repository"
)

// DeckService orchestrates the deck state engine against persistence:
// it loads snapshots, applies one engine operation, and hands the next
// state to the repositories. Regular saves go through the debounced
// flusher; day completion flushes immediately so it cannot be lost to
// batching.
type DeckService struct {
	cards       *repository.CardRepository
	categories  *repository.CategoryRepository
	deck        *repository.DeckRepository
	templates   *repository.TemplateRepository
	completions *repository.CompletionRepository
	engine      *engine.Engine
	flusher     *repository.Flusher
	loc         *time.Location
	now         func() time.Time
}

func NewDeckService(
	cards *repository.CardRepository,
	categories *repository.CategoryRepository,
	deck *repository.DeckRepository,
	templates *repository.TemplateRepository,
	completions *repository.CompletionRepository,
	eng *engine.Engine,
	flusher *repository.Flusher,
	loc *time.Location,
) *DeckService {
	return &DeckService{
		cards:       cards,
		categories:  categories,
		deck:        deck,
		templates:   templates,
		completions: completions,
		engine:      eng,
		flusher:     flusher,
		loc:         loc,
		now:         func() time.Time { return time.Now().In(loc) },
	}
}

// LoadState assembles the (catalog, deck) snapshot for a user.
func (s *DeckService) LoadState(ctx context.Context, userID uint) (engine.State, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return engine.State{}, fmt.Errorf("load categories: %w", err)
	}
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return engine.State{}, fmt.Errorf("load cards: %w", err)
	}
	entries, err := s.deck.LoadDeck(ctx, userID)
	if err != nil {
		return engine.State{}, fmt.Errorf("load deck: %w", err)
	}

	catalog := engine.Catalog{Cards: make(map[string][]model.Card, len(categories))}
	for _, c := range categories {
		catalog.Order = append(catalog.Order, c.Key)
		catalog.Cards[c.Key] = []model.Card{}
	}
	for _, card := range cards {
		if _, ok := catalog.Cards[card.Category]; !ok {
			continue
		}
		catalog.Cards[card.Category] = append(catalog.Cards[card.Category], card)
	}

	return engine.State{Catalog: catalog, Deck: engine.Deck(entries)}, nil
}

// Move applies one move request and schedules persistence of whatever
// changed.
func (s *DeckService) Move(ctx context.Context, userID uint, req engine.MoveRequest) (engine.MoveOutcome, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return engine.MoveOutcome{}, err
	}

	next, outcome := s.engine.ApplyMove(st, req)
	if !outcome.Changed {
		return outcome, nil
	}

	s.scheduleDeckSave(userID, next.Deck)
	if req.Source != engine.LocationDeck || req.Destination != engine.LocationDeck {
		s.scheduleCatalogSave(userID, next.Catalog)
	}
	return outcome, nil
}

// AddToDeck appends an available catalog card to the end of the deck.
func (s *DeckService) AddToDeck(ctx context.Context, userID uint, cardID, category string) (engine.MoveOutcome, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return engine.MoveOutcome{}, err
	}
	req := engine.MoveRequest{
		Source:           category,
		Destination:      engine.LocationDeck,
		CardID:           cardID,
		DestinationIndex: len(st.Deck),
	}
	next, outcome := s.engine.ApplyMove(st, req)
	if outcome.Changed {
		s.scheduleDeckSave(userID, next.Deck)
	}
	return outcome, nil
}

// RemoveFromDeck returns the entry at index to the catalog side.
func (s *DeckService) RemoveFromDeck(ctx context.Context, userID uint, index int) (engine.MoveOutcome, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return engine.MoveOutcome{}, err
	}
	if index < 0 || index >= len(st.Deck) {
		return engine.MoveOutcome{Reason: engine.NoOpIndexOutOfRange}, nil
	}
	entry := st.Deck[index]
	req := engine.MoveRequest{
		Source:      engine.LocationDeck,
		Destination: entry.SourceCategory,
		CardID:      entry.CardID,
		SourceIndex: index,
	}
	next, outcome := s.engine.ApplyMove(st, req)
	if outcome.Changed {
		s.scheduleDeckSave(userID, next.Deck)
	}
	return outcome, nil
}

// SetCompletion toggles completion on the deck entry at index. When
// completing, tracked time is folded in from the entry's timer state.
func (s *DeckService) SetCompletion(ctx context.Context, userID uint, index int, completed bool) (engine.Deck, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(st.Deck) {
		return st.Deck, nil
	}

	now := s.now()
	upd := engine.CompletionUpdate{Now: now}
	if completed {
		upd.TimeSpentSec = engine.ElapsedSec(st.Deck[index], now)
	}

	next := engine.SetCompletion(st.Deck, index, completed, upd)
	s.scheduleDeckSave(userID, next)
	return next, nil
}

// ToggleTimer starts or stops time tracking on the entry at index.
func (s *DeckService) ToggleTimer(ctx context.Context, userID uint, index int) (engine.Deck, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(st.Deck) {
		return st.Deck, nil
	}

	now := s.now()
	var next engine.Deck
	if st.Deck[index].TimerStartedAt != nil {
		next = engine.StopTimer(st.Deck, index, now)
	} else {
		next = engine.StartTimer(st.Deck, index, now)
	}
	s.scheduleDeckSave(userID, next)
	return next, nil
}

// IndexOfInstance resolves a deck entry's current position from its
// stable instance id. Chat callbacks reference entries this way so a
// reorder between render and tap cannot act on the wrong card.
func IndexOfInstance(deck engine.Deck, instanceID string) int {
	for i, e := range deck {
		if e.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// SetCompletionByInstance toggles completion on the entry with the
// given instance id; unknown ids are a no-op.
func (s *DeckService) SetCompletionByInstance(ctx context.Context, userID uint, instanceID string, completed bool) (engine.Deck, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	index := IndexOfInstance(st.Deck, instanceID)
	if index < 0 {
		return st.Deck, nil
	}

	now := s.now()
	upd := engine.CompletionUpdate{Now: now}
	if completed {
		upd.TimeSpentSec = engine.ElapsedSec(st.Deck[index], now)
	}
	next := engine.SetCompletion(st.Deck, index, completed, upd)
	s.scheduleDeckSave(userID, next)
	return next, nil
}

// ToggleTimerByInstance starts or stops tracking on the entry with the
// given instance id.
func (s *DeckService) ToggleTimerByInstance(ctx context.Context, userID uint, instanceID string) (engine.Deck, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	index := IndexOfInstance(st.Deck, instanceID)
	if index < 0 {
		return st.Deck, nil
	}
	return s.ToggleTimer(ctx, userID, index)
}

// RemoveByInstance returns the entry with the given instance id to its
// source category.
func (s *DeckService) RemoveByInstance(ctx context.Context, userID uint, instanceID string) (engine.MoveOutcome, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return engine.MoveOutcome{}, err
	}
	index := IndexOfInstance(st.Deck, instanceID)
	if index < 0 {
		return engine.MoveOutcome{Reason: engine.NoOpCardNotFound}, nil
	}
	return s.RemoveFromDeck(ctx, userID, index)
}

// CompleteDay summarizes the deck into today's completion record,
// recomputes the streak, and flushes both immediately.
func (s *DeckService) CompleteDay(ctx context.Context, userID uint) (engine.DaySummary, engine.Streak, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return engine.DaySummary{}, engine.Streak{}, err
	}
	dates, err := s.completions.ListDates(ctx, userID)
	if err != nil {
		return engine.DaySummary{}, engine.Streak{}, fmt.Errorf("load history: %w", err)
	}

	summary, streak := engine.CompleteDay(st.Deck, dates, s.now())

	record, err := completionRecord(userID, summary)
	if err != nil {
		return engine.DaySummary{}, engine.Streak{}, err
	}

	s.flusher.FlushNow(key("history", userID), func(ctx context.Context) error {
		if err := s.completions.SaveDayCompletion(ctx, record); err != nil {
			return err
		}
		return s.completions.SaveStreak(ctx, userID, streak.Current, streak.Longest, streak.LastDate)
	})

	return summary, streak, nil
}

// StartNewDay clears the deck at the day-rollover boundary; each day's
// deck is independent of the last.
func (s *DeckService) StartNewDay(ctx context.Context, userID uint) error {
	return s.deck.Clear(ctx, userID)
}

// SaveTemplate captures the current deck composition under a name.
func (s *DeckService) SaveTemplate(ctx context.Context, userID uint, name string) (*model.Template, error) {
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	entries, err := s.deck.LoadDeck(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("deck is empty")
	}

	template := &model.Template{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now(),
		Cards:     engine.TemplateFromDeck(engine.Deck(entries)),
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// LoadTemplate replaces the deck with a template replay and reports how
// many references could not be resolved against the current catalog.
func (s *DeckService) LoadTemplate(ctx context.Context, userID uint, templateID string) (int, error) {
	template, err := s.templates.FindByID(ctx, userID, templateID)
	if err != nil {
		return 0, fmt.Errorf("load template: %w", err)
	}
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return 0, err
	}

	deck, dropped := s.engine.BuildDeckFromTemplate(st.Catalog, template.Cards, s.now())
	s.scheduleDeckSave(userID, deck)
	return dropped, nil
}

// ListTemplates returns the user's saved templates.
func (s *DeckService) ListTemplates(ctx context.Context, userID uint) ([]model.Template, error) {
	return s.templates.ListByUser(ctx, userID)
}

// Streak returns the stored streak row.
func (s *DeckService) Streak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	return s.completions.GetStreak(ctx, userID)
}

func (s *DeckService) scheduleDeckSave(userID uint, deck engine.Deck) {
	snapshot := append([]model.DeckEntry(nil), deck...)
	s.flusher.Schedule(key("deck", userID), func(ctx context.Context) error {
		return s.deck.ReplaceDeck(ctx, userID, snapshot)
	})
}

func (s *DeckService) scheduleCatalogSave(userID uint, catalog engine.Catalog) {
	snapshot := catalog.Clone()
	s.flusher.Schedule(key("catalog", userID), func(ctx context.Context) error {
		return s.cards.SaveCatalog(ctx, userID, snapshot.Order, snapshot.Cards)
	})
}

func completionRecord(userID uint, summary engine.DaySummary) (*model.DayCompletion, error) {
	breakdown, err := json.Marshal(summary.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}
	completed, err := json.Marshal(summary.Completed)
	if err != nil {
		return nil, fmt.Errorf("encode completed list: %w", err)
	}
	return &model.DayCompletion{
		UserID:         userID,
		Date:           summary.Date,
		TotalCards:     summary.TotalCards,
		CompletedCards: summary.CompletedCount,
		TotalTimeSec:   summary.TotalTimeSec,
		Breakdown:      string(breakdown),
		CompletedList:  string(completed),
	}, nil
}

func key(resource string, userID uint) string {
	return fmt.Sprintf("%s:%d", resource, userID)
}
