package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daily-deck/internal/engine"
	"daily-deck/internal/model"
	"daily-deck/internal/repository"
)

// CardInput represents data required to create a catalog card.
type CardInput struct {
	Title        string
	Description  string
	Duration     *int
	Category     string
	Recurrence   model.RecurrenceType
	Rule         string
	RuleTimezone string
	MaxUses      *int
}

// CatalogService wraps catalog-card business logic and the display-time
// availability view. Filtering here uses the exact predicate the
// transition engine enforces at commit time.
type CatalogService struct {
	cards      *repository.CardRepository
	categories *repository.CategoryRepository
	deck       *repository.DeckRepository
	engine     *engine.Engine
	clock      *engine.Clock
	loc        *time.Location
}

func NewCatalogService(
	cards *repository.CardRepository,
	categories *repository.CategoryRepository,
	deck *repository.DeckRepository,
	eng *engine.Engine,
	clock *engine.Clock,
	loc *time.Location,
) *CatalogService {
	return &CatalogService{
		cards:      cards,
		categories: categories,
		deck:       deck,
		engine:     eng,
		clock:      clock,
		loc:        loc,
	}
}

// CreateCard validates and stores a new catalog card.
func (s *CatalogService) CreateCard(ctx context.Context, userID uint, input CardInput) (*model.Card, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if _, err := s.categories.FindByKey(ctx, userID, input.Category); err != nil {
		return nil, fmt.Errorf("unknown category %q", input.Category)
	}

	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceAlways
	}
	switch recurrence {
	case model.RecurrenceAlways, model.RecurrenceOnce, model.RecurrenceLimited:
	case model.RecurrenceScheduled:
		if input.Rule == "" {
			return nil, fmt.Errorf("scheduled cards require a recurrence rule")
		}
	default:
		return nil, fmt.Errorf("unknown recurrence type %q", recurrence)
	}

	existing, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	position := 0
	for _, c := range existing {
		if c.Category == input.Category {
			position++
		}
	}

	card := model.Card{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     input.Category,
		Position:     position,
		Title:        input.Title,
		Description:  input.Description,
		Duration:     input.Duration,
		Recurrence:   recurrence,
		Rule:         input.Rule,
		RuleTimezone: input.RuleTimezone,
		MaxUses:      input.MaxUses,
	}
	if err := s.cards.Create(ctx, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a catalog card. Deck copies stay: they are
// disposable per-day state and expire at rollover.
func (s *CatalogService) DeleteCard(ctx context.Context, userID uint, cardID string) error {
	return s.cards.Delete(ctx, userID, cardID)
}

// Categories lists the user's catalog buckets in display order.
func (s *CatalogService) Categories(ctx context.Context, userID uint) ([]model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

// CategoryView is one bucket of the availability-filtered catalog.
type CategoryView struct {
	Category  model.Category
	Available []model.Card
	Exhausted []model.Card
}

// AvailabilityView returns the catalog grouped by bucket, split into
// cards that can still enter today's deck and cards that cannot.
func (s *CatalogService) AvailabilityView(ctx context.Context, userID uint) ([]CategoryView, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	entries, err := s.deck.LoadDeck(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}

	deck := engine.Deck(entries)
	now := time.Now().In(s.loc)

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		view := CategoryView{Category: category}
		for _, card := range cards {
			if card.Category != category.Key {
				continue
			}
			if s.engine.Availability().Available(card, deck, now) {
				view.Available = append(view.Available, card)
			} else {
				view.Exhausted = append(view.Exhausted, card)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// DescribeRule renders a rule label for display; fails open to a
// generic label.
func (s *CatalogService) DescribeRule(rule string) string {
	return s.clock.Describe(rule)
}
