package queue

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Queue carries opaque job payloads between publishers and subscribers.
type Queue interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte) error) error
	Close() error
}

// InMemoryQueue delivers jobs to in-process subscribers with retry.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(payload []byte) error
	wg         sync.WaitGroup
	MaxRetries int
	Backoff    time.Duration
	logger     *slog.Logger
}

func NewInMemoryQueue(logger *slog.Logger) *InMemoryQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload []byte) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    []byte
	RetryCount int
	MaxRetries int
}

// Publish hands the payload to every subscriber of topic.
func (q *InMemoryQueue) Publish(topic string, payload []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		handler := handler
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.processJob(handler, job)
		}()
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload []byte) error, job JobPayload) {
	for {
		err := handler(job.Payload)
		if err == nil {
			q.logger.Debug("queue.job.ok", "topic", job.Topic, "attempt", job.RetryCount+1)
			return
		}

		job.RetryCount++
		q.logger.Warn("queue.job.failed",
			"topic", job.Topic,
			"attempt", job.RetryCount,
			"max_retries", job.MaxRetries,
			"error", err,
		)
		if job.RetryCount > job.MaxRetries {
			q.logger.Error("queue.job.dropped", "topic", job.Topic, "attempts", job.RetryCount)
			return
		}
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close waits for in-flight jobs.
func (q *InMemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}
