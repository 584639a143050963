package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staffbot-backend/internal/bot"
	"staffbot-backend/internal/config"
	"staffbot-backend/internal/logger"
	"staffbot-backend/internal/repository/postgres"
	"staffbot-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()

	db, err := postgres.Open(cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := postgres.NewStore(db)

	// Notifications go out through a send-only client so the polling
	// client owns the update stream alone.
	sender, err := bot.NewSender(cfg.Bot.Token)
	if err != nil {
		log.Error("failed to create sender client", "error", err)
		os.Exit(1)
	}
	notifier := bot.NewNotifier(sender)

	invitationSvc := service.NewInvitationService(store.Users, store.Invitations, cfg.Bot.Username, cfg.Invites.ValidDays, log)
	enrollmentSvc := service.NewEnrollmentService(store.Users, store.Invitations, store.JoinReqs, notifier, log)
	profileSvc := service.NewProfileService(store.Users, store.JoinReqs, store.Enrollments, log)
	staffSvc := service.NewStaffService(store.Users, log)

	sessions := bot.NewSessionStore(30 * time.Minute)
	handler := bot.NewHandler(invitationSvc, enrollmentSvc, profileSvc, staffSvc, sessions, log)

	b, err := bot.New(cfg.Bot.Token, handler, log)
	if err != nil {
		log.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("bot started", "username", cfg.Bot.Username)
	bot.Run(ctx, b)
	log.Info("bot stopped")
}
