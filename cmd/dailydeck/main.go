package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-deck/internal/bot"
	"daily-deck/internal/config"
	"daily-deck/internal/engine"
	"daily-deck/internal/repository"
	"daily-deck/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	cardRepo := repository.NewCardRepository(db)
	deckRepo := repository.NewDeckRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	flusher := repository.NewFlusher(2 * time.Second)
	defer flusher.Close()

	clock := engine.NewClock(cfg.Timezone, log.Default())
	eng := engine.New(clock)

	deckSvc := service.NewDeckService(cardRepo, categoryRepo, deckRepo, templateRepo, completionRepo, eng, flusher, cfg.Timezone)
	catalogSvc := service.NewCatalogService(cardRepo, categoryRepo, deckRepo, eng, clock, cfg.Timezone)
	reportSvc := service.NewReportService(deckRepo, completionRepo, categoryRepo, cfg.Timezone)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, categoryRepo, catalogSvc, deckSvc, reportSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(cfg.Timezone)

	if _, err := scheduler.ScheduleDaily(cfg.DayRollover, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		rolloverDecks(jobCtx, userRepo, deckSvc)
	}); err != nil {
		log.Fatalf("schedule rollover: %v", err)
	}

	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Daily deck bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

// rolloverDecks clears every user's deck at the day boundary; each day
// starts from an empty working set.
func rolloverDecks(ctx context.Context, userRepo *repository.UserRepository, deckSvc *service.DeckService) {
	users, err := userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("rollover: list users: %v", err)
		return
	}
	for _, user := range users {
		if err := deckSvc.StartNewDay(ctx, user.ID); err != nil {
			log.Printf("rollover: user %d: %v", user.ID, err)
		}
	}
	log.Printf("[info] rollover complete for %d users", len(users))
}
