package main

import (
	"context"
	"errors"
	"flag"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "staffbot-backend/internal/api/http"
	"staffbot-backend/internal/bot"
	"staffbot-backend/internal/config"
	"staffbot-backend/internal/jobs"
	"staffbot-backend/internal/logger"
	"staffbot-backend/internal/repository/postgres"
	"staffbot-backend/internal/scheduler"
	"staffbot-backend/internal/security"
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

	sender, err := bot.NewSender(cfg.Bot.Token)
	if err != nil {
		log.Error("failed to create sender client", "error", err)
		os.Exit(1)
	}
	notifier := bot.NewNotifier(sender)

	tokens := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationMinutes)*time.Minute)
	authSvc := service.NewDashboardAuthService(store.Users, store.Credentials, tokens, log)
	reportSvc := service.NewReportService(store.Users, store.Reports, log)
	enrollmentSvc := service.NewEnrollmentService(store.Users, store.Invitations, store.JoinReqs, notifier, log)

	initDataMaxAge := time.Duration(cfg.Scheduler.InitDataMaxAgeHours) * time.Hour
	server := httpapi.NewServer(authSvc, reportSvc, store.Users, tokens, cfg.Bot.Token, initDataMaxAge, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		runner := jobs.NewJobRunner(5*time.Minute, log)
		sched := scheduler.New(runner, log)
		if err := sched.Register(cfg.Scheduler.ExpirySweepCron, jobs.NewExpireRequestsJob(enrollmentSvc, log)); err != nil {
			log.Error("failed to register expiry sweep", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	if err := server.Start(ctx, cfg.GetServerAddress()); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
