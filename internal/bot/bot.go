package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-deck/internal/config"
	"daily-deck/internal/model"
	"daily-deck/internal/repository"
	"daily-deck/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageDuration
	stageCategory
	stageRecurrence
	stageMaxUses
	stageRule
)

const (
	cbDonePrefix   = "done:"
	cbUndoPrefix   = "undo:"
	cbTimerPrefix  = "timer:"
	cbDropPrefix   = "drop:"
	cbAddPrefix    = "add:"
	cbLoadPrefix   = "load:"
	cbFinishYes    = "finish:yes"
	cbFinishCancel = "finish:cancel"
)

const btnSkip = "skip"

type conversationState struct {
	stage conversationStage
	input service.CardInput
}

// Bot is the gesture layer: it turns chat commands and button taps into
// engine operations through the services and renders the results.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	categoryRepo  *repository.CategoryRepository
	catalogSvc    *service.CatalogService
	deckSvc       *service.DeckService
	reportSvc     *service.ReportService
	config        *config.Config
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(
	token string,
	userRepo *repository.UserRepository,
	categoryRepo *repository.CategoryRepository,
	catalogSvc *service.CatalogService,
	deckSvc *service.DeckService,
	reportSvc *service.ReportService,
	cfg *config.Config,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		categoryRepo:  categoryRepo,
		catalogSvc:    catalogSvc,
		deckSvc:       deckSvc,
		reportSvc:     reportSvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

// SendDailyReports pushes the deck summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now().In(b.config.Timezone)
	for _, user := range users {
		text, err := b.reportSvc.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("report for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendHTML(user.TelegramID, text); err != nil {
			log.Printf("send report to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return b.handleCommand(ctx, chatID, user, msg)
	}

	b.mu.Lock()
	conv := b.conversations[chatID]
	b.mu.Unlock()
	if conv != nil {
		return b.handleConversation(ctx, chatID, user, conv, strings.TrimSpace(msg.Text))
	}

	return b.send(chatID, "Use /deck to see today's cards or /help for commands.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.send(chatID, helpText)
	case "deck":
		return b.showDeck(ctx, chatID, user)
	case "catalog":
		return b.showCatalog(ctx, chatID, user)
	case "new":
		b.mu.Lock()
		b.conversations[chatID] = &conversationState{stage: stageTitle}
		b.mu.Unlock()
		return b.send(chatID, "Card title?")
	case "cancel":
		b.mu.Lock()
		delete(b.conversations, chatID)
		b.mu.Unlock()
		return b.send(chatID, "Cancelled.")
	case "finish":
		return b.confirmFinish(chatID)
	case "streak":
		streak, err := b.deckSvc.Streak(ctx, user.ID)
		if err != nil {
			return err
		}
		return b.sendHTML(chatID, service.RenderStreak(*streak))
	case "templates":
		return b.showTemplates(ctx, chatID, user)
	case "savetemplate":
		name := strings.TrimSpace(msg.CommandArguments())
		template, err := b.deckSvc.SaveTemplate(ctx, user.ID, name)
		if err != nil {
			return b.send(chatID, "Could not save: "+err.Error())
		}
		return b.send(chatID, fmt.Sprintf("Saved template %q with %d cards.", template.Name, len(template.Cards)))
	default:
		return b.send(chatID, "Unknown command, see /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.Message == nil || query.From == nil {
		return nil
	}
	user, err := b.resolveUser(ctx, query.From)
	if err != nil {
		return err
	}
	chatID := query.Message.Chat.ID
	data := query.Data

	// Acknowledge the tap regardless of outcome.
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			log.Printf("ack callback: %v", err)
		}
	}()

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		if _, err := b.deckSvc.SetCompletionByInstance(ctx, user.ID, data[len(cbDonePrefix):], true); err != nil {
			return err
		}
		return b.showDeck(ctx, chatID, user)
	case strings.HasPrefix(data, cbUndoPrefix):
		if _, err := b.deckSvc.SetCompletionByInstance(ctx, user.ID, data[len(cbUndoPrefix):], false); err != nil {
			return err
		}
		return b.showDeck(ctx, chatID, user)
	case strings.HasPrefix(data, cbTimerPrefix):
		if _, err := b.deckSvc.ToggleTimerByInstance(ctx, user.ID, data[len(cbTimerPrefix):]); err != nil {
			return err
		}
		return b.showDeck(ctx, chatID, user)
	case strings.HasPrefix(data, cbDropPrefix):
		if _, err := b.deckSvc.RemoveByInstance(ctx, user.ID, data[len(cbDropPrefix):]); err != nil {
			return err
		}
		return b.showDeck(ctx, chatID, user)
	case strings.HasPrefix(data, cbAddPrefix):
		return b.addFromCatalog(ctx, chatID, user, data[len(cbAddPrefix):])
	case strings.HasPrefix(data, cbLoadPrefix):
		dropped, err := b.deckSvc.LoadTemplate(ctx, user.ID, data[len(cbLoadPrefix):])
		if err != nil {
			return err
		}
		if dropped > 0 {
			if err := b.send(chatID, fmt.Sprintf("%d card(s) from the template no longer exist and were skipped.", dropped)); err != nil {
				return err
			}
		}
		return b.showDeck(ctx, chatID, user)
	case data == cbFinishYes:
		return b.finishDay(ctx, chatID, user)
	case data == cbFinishCancel:
		return b.send(chatID, "Not finishing yet. Keep going!")
	default:
		return nil
	}
}

func (b *Bot) addFromCatalog(ctx context.Context, chatID int64, user *model.User, payload string) error {
	// payload is "<category>:<cardID>"
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	outcome, err := b.deckSvc.AddToDeck(ctx, user.ID, parts[1], parts[0])
	if err != nil {
		return err
	}
	if !outcome.Changed {
		// The availability shown at render time no longer holds; the
		// commit-time check is authoritative.
		return b.send(chatID, "That card is no longer available today.")
	}
	return b.showDeck(ctx, chatID, user)
}

func (b *Bot) showDeck(ctx context.Context, chatID int64, user *model.User) error {
	st, err := b.deckSvc.LoadState(ctx, user.ID)
	if err != nil {
		return err
	}

	now := time.Now().In(b.config.Timezone)
	text := service.RenderDeck(st.Deck, now)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, entry := range st.Deck {
		label := fmt.Sprintf("%d. %s", i+1, truncate(entry.Title, 24))
		var action tgbotapi.InlineKeyboardButton
		if entry.Completed {
			action = tgbotapi.NewInlineKeyboardButtonData("↩️ "+label, cbUndoPrefix+entry.InstanceID)
		} else {
			action = tgbotapi.NewInlineKeyboardButtonData("✅ "+label, cbDonePrefix+entry.InstanceID)
		}
		row := []tgbotapi.InlineKeyboardButton{action}
		if !entry.Completed {
			timerLabel := "▶️"
			if entry.TimerStartedAt != nil {
				timerLabel = "⏸"
			}
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData(timerLabel, cbTimerPrefix+entry.InstanceID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbDropPrefix+entry.InstanceID),
			)
		}
		rows = append(rows, row)
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) showCatalog(ctx context.Context, chatID int64, user *model.User) error {
	views, err := b.catalogSvc.AvailabilityView(ctx, user.ID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("📂 <b>Catalog</b>\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	empty := true
	for _, view := range views {
		if len(view.Available) == 0 && len(view.Exhausted) == 0 {
			continue
		}
		empty = false
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(view.Category.Name)))
		for _, card := range view.Available {
			sb.WriteString("• " + html.EscapeString(card.Title))
			if card.Recurrence == model.RecurrenceScheduled {
				sb.WriteString(" <i>(" + b.catalogSvc.DescribeRule(card.Rule) + ")</i>")
			}
			sb.WriteByte('\n')
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(
					"➕ "+truncate(card.Title, 28),
					cbAddPrefix+view.Category.Key+":"+card.ID,
				),
			})
		}
		for _, card := range view.Exhausted {
			sb.WriteString("• <s>" + html.EscapeString(card.Title) + "</s>\n")
		}
	}
	if empty {
		sb.WriteString("\nNo cards yet. Create one with /new.")
	}

	reply := tgbotapi.NewMessage(chatID, strings.TrimSpace(sb.String()))
	reply.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) showTemplates(ctx context.Context, chatID int64, user *model.User) error {
	templates, err := b.deckSvc.ListTemplates(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return b.send(chatID, "No templates yet. Build a deck and run /savetemplate <name>.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, template := range templates {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📋 %s (%d cards)", truncate(template.Name, 24), len(template.Cards)),
				cbLoadPrefix+template.ID,
			),
		})
	}

	reply := tgbotapi.NewMessage(chatID, "Pick a template to load. Loading replaces the current deck.")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) confirmFinish(chatID int64) error {
	reply := tgbotapi.NewMessage(chatID, "Finish the day and record the results?")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", cbFinishYes),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbFinishCancel),
		),
	)
	_, err := b.api.Send(reply)
	return err
}

func (b *Bot) finishDay(ctx context.Context, chatID int64, user *model.User) error {
	summary, streak, err := b.deckSvc.CompleteDay(ctx, user.ID)
	if err != nil {
		return err
	}
	catNames, err := b.reportSvc.CategoryNames(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendHTML(chatID, service.RenderDayResult(summary, streak, catNames))
}

func (b *Bot) handleConversation(ctx context.Context, chatID int64, user *model.User, conv *conversationState, text string) error {
	switch conv.stage {
	case stageTitle:
		if text == "" {
			return b.send(chatID, "Title cannot be empty. Card title?")
		}
		conv.input.Title = text
		conv.stage = stageDescription
		return b.send(chatID, "Description? (or 'skip')")
	case stageDescription:
		if !strings.EqualFold(text, btnSkip) {
			conv.input.Description = text
		}
		conv.stage = stageDuration
		return b.send(chatID, "Estimated minutes? (or 'skip')")
	case stageDuration:
		if !strings.EqualFold(text, btnSkip) {
			minutes, err := strconv.Atoi(text)
			if err != nil || minutes <= 0 {
				return b.send(chatID, "Enter a positive number of minutes, or 'skip'.")
			}
			conv.input.Duration = &minutes
		}
		conv.stage = stageCategory
		return b.askCategory(ctx, chatID, user)
	case stageCategory:
		if _, err := b.categoryRepo.FindByKey(ctx, user.ID, strings.ToLower(text)); err != nil {
			return b.askCategory(ctx, chatID, user)
		}
		conv.input.Category = strings.ToLower(text)
		conv.stage = stageRecurrence
		return b.send(chatID, "Recurrence: always, once, limited or scheduled?")
	case stageRecurrence:
		switch model.RecurrenceType(strings.ToLower(text)) {
		case model.RecurrenceAlways, model.RecurrenceOnce:
			conv.input.Recurrence = model.RecurrenceType(strings.ToLower(text))
			return b.createCard(ctx, chatID, user, conv)
		case model.RecurrenceLimited:
			conv.input.Recurrence = model.RecurrenceLimited
			conv.stage = stageMaxUses
			return b.send(chatID, "How many times per day? (or 'skip' for 1)")
		case model.RecurrenceScheduled:
			conv.input.Recurrence = model.RecurrenceScheduled
			conv.stage = stageRule
			return b.send(chatID, "Recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO,WE")
		default:
			return b.send(chatID, "Please answer: always, once, limited or scheduled.")
		}
	case stageMaxUses:
		if !strings.EqualFold(text, btnSkip) {
			uses, err := strconv.Atoi(text)
			if err != nil || uses < 1 {
				return b.send(chatID, "Enter a positive number, or 'skip' for 1.")
			}
			conv.input.MaxUses = &uses
		}
		return b.createCard(ctx, chatID, user, conv)
	case stageRule:
		conv.input.Rule = text
		return b.createCard(ctx, chatID, user, conv)
	default:
		b.mu.Lock()
		delete(b.conversations, chatID)
		b.mu.Unlock()
		return nil
	}
}

func (b *Bot) askCategory(ctx context.Context, chatID int64, user *model.User) error {
	categories, err := b.catalogSvc.Categories(ctx, user.ID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		keys = append(keys, c.Key)
	}
	return b.send(chatID, "Category? One of: "+strings.Join(keys, ", "))
}

func (b *Bot) createCard(ctx context.Context, chatID int64, user *model.User, conv *conversationState) error {
	b.mu.Lock()
	delete(b.conversations, chatID)
	b.mu.Unlock()

	card, err := b.catalogSvc.CreateCard(ctx, user.ID, conv.input)
	if err != nil {
		return b.send(chatID, "Could not create the card: "+err.Error())
	}
	return b.send(chatID, fmt.Sprintf("Created %q in %s. See it with /catalog.", card.Title, card.Category))
}

func (b *Bot) resolveUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	user, err := b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
	if err != nil {
		return nil, err
	}
	if err := b.categoryRepo.EnsureDefaults(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) sendHTML(chatID int64, text string) error {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(reply)
	return err
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

const helpText = `Daily Deck — plan your day as a deck of cards.

/deck — today's working set
/catalog — browse cards and add them to the deck
/new — create a catalog card
/finish — complete the day and record your streak
/streak — current and longest streaks
/templates — load a saved deck composition
/savetemplate <name> — save the current deck as a template
/cancel — abort card creation`
