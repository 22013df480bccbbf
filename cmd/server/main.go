// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/controller"
	"github.com/unclebandit/cardscan-backend/internal/db"
	"github.com/unclebandit/cardscan-backend/internal/google"
	"github.com/unclebandit/cardscan-backend/internal/logger"
	"github.com/unclebandit/cardscan-backend/internal/queue"
	"github.com/unclebandit/cardscan-backend/internal/repository"
	"github.com/unclebandit/cardscan-backend/internal/service"
	"github.com/unclebandit/cardscan-backend/internal/storage"
	"github.com/unclebandit/cardscan-backend/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.load_error", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	// Init DB
	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Error("db.open_error", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			log.Error("db.migrate_error", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Error("storage.init_error", "error", err)
		os.Exit(1)
	}

	extractor, err := vision.NewOrchestrator(cfg.Vision, log)
	if err != nil {
		log.Error("vision.init_error", "error", err)
		os.Exit(1)
	}

	userRepo := &repository.UserRepository{DB: conn}
	cardRepo := &repository.CardRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	sentEmailRepo := &repository.SentEmailRepository{DB: conn}

	oauth := google.NewOAuth(cfg.Google, userRepo, log)
	gmail := google.NewGmailClient(oauth, log)
	contacts := google.NewContactsClient(oauth, log)

	// Campaigns go to RabbitMQ when configured, otherwise to an in-process
	// queue drained by a worker in this process.
	var q queue.Queue
	inProcess := cfg.Queue.AMQPURL == ""
	if inProcess {
		q = queue.NewInMemoryQueue(log)
	} else {
		q, err = queue.DialAMQP(cfg.Queue.AMQPURL, log)
		if err != nil {
			log.Error("queue.dial_error", "error", err)
			os.Exit(1)
		}
	}

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		CardRepo:      cardRepo,
		SentEmailRepo: sentEmailRepo,
		Drafts:        gmail,
		Dispatcher:    service.NewDispatcher(gmail, cfg.Dispatch.EmailPacing, log),
		Queue:         q,
		Topic:         cfg.Queue.CampaignQueue,
		Logger:        log,
	}
	if inProcess {
		if err := service.NewWorker(campaignService, log).Start(q, cfg.Queue.CampaignQueue); err != nil {
			log.Error("worker.start_error", "error", err)
			os.Exit(1)
		}
	}

	cardService := service.NewCardService(cardRepo, extractor, images, contacts, cfg.Dispatch.ContactSyncPacing, log)

	router := controller.NewRouter(controller.Routes{
		Auth: &controller.AuthController{
			Google:      oauth,
			Users:       userRepo,
			JWTSecret:   cfg.Auth.JWTSecret,
			TokenTTL:    cfg.Auth.TokenTTL,
			FrontendURL: cfg.Server.FrontendURL,
			Logger:      log,
		},
		Cards: &controller.CardController{
			CardService:    cardService,
			ExportService:  service.NewExportService(cardRepo, log),
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		},
		Campaigns: &controller.CampaignController{CampaignService: campaignService},
		Gmail:     &controller.GmailController{Drafts: gmail},
		JWTSecret: cfg.Auth.JWTSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server.started", "addr", cfg.Server.Addr, "vision_provider", cfg.Vision.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server.listen_error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server.shutdown_error", "error", err)
	}
	// In-flight campaigns finish before the queue closes.
	if err := q.Close(); err != nil {
		log.Error("queue.close_error", "error", err)
	}
	log.Info("server.stopped")
}
