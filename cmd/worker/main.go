package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/db"
	"github.com/unclebandit/cardscan-backend/internal/google"
	"github.com/unclebandit/cardscan-backend/internal/logger"
	"github.com/unclebandit/cardscan-backend/internal/queue"
	"github.com/unclebandit/cardscan-backend/internal/repository"
	"github.com/unclebandit/cardscan-backend/internal/service"
)

// The worker consumes queued campaigns from RabbitMQ and runs them through
// the same dispatcher as synchronous sends.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.load_error", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if cfg.Queue.AMQPURL == "" {
		log.Error("worker.config_error", "error", "AMQP_URL is required")
		os.Exit(1)
	}

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Error("db.open_error", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	userRepo := &repository.UserRepository{DB: conn}
	oauth := google.NewOAuth(cfg.Google, userRepo, log)
	gmail := google.NewGmailClient(oauth, log)

	campaignService := &service.CampaignService{
		CampaignRepo:  &repository.CampaignRepository{DB: conn},
		CardRepo:      &repository.CardRepository{DB: conn},
		SentEmailRepo: &repository.SentEmailRepository{DB: conn},
		Drafts:        gmail,
		Dispatcher:    service.NewDispatcher(gmail, cfg.Dispatch.EmailPacing, log),
		Logger:        log,
	}

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, log)
	if err != nil {
		log.Error("queue.dial_error", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	if err := service.NewWorker(campaignService, log).Start(q, cfg.Queue.CampaignQueue); err != nil {
		log.Error("worker.start_error", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("worker.stopping")
}
