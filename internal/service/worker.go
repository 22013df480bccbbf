package service

import (
	"context"
	"log/slog"

	"github.com/unclebandit/cardscan-backend/internal/queue"
)

// CampaignRunner is the part of the campaign service the worker needs.
type CampaignRunner interface {
	RunCampaign(ctx context.Context, job queue.CampaignJob) error
}

// Worker processes queued campaign jobs
type Worker struct {
	Runner CampaignRunner
	Logger *slog.Logger
}

func NewWorker(runner CampaignRunner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{Runner: runner, Logger: logger}
}

// Start subscribes the worker to topic on q.
func (w *Worker) Start(q queue.Queue, topic string) error {
	if err := q.Subscribe(topic, w.Handle); err != nil {
		return err
	}
	w.Logger.Info("worker.started", "topic", topic)
	return nil
}

// Handle decodes and runs one job. Malformed payloads are dropped rather
// than retried.
func (w *Worker) Handle(payload []byte) error {
	job, err := queue.DecodeCampaignJob(payload)
	if err != nil {
		w.Logger.Error("worker.job.invalid", "error", err)
		return nil
	}

	w.Logger.Info("worker.job.start", "campaign_id", job.CampaignID, "recipients", len(job.CardIDs))
	if err := w.Runner.RunCampaign(context.Background(), job); err != nil {
		w.Logger.Error("worker.job.error", "campaign_id", job.CampaignID, "error", err)
		return err
	}
	w.Logger.Info("worker.job.done", "campaign_id", job.CampaignID)
	return nil
}
