package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/pkg/logger"
)

var ErrMailQueueFull = errors.New("mail queue is full")

type mailTask struct {
	email    string
	link     string
	attempts int
}

// MailQueue delivers reset links through mailer off the request path,
// retrying failed sends with the configured delays.
type MailQueue struct {
	mailer Mailer
	config config.MailConfig
	queue  chan mailTask
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewMailQueue(mailer Mailer, cfg config.MailConfig) *MailQueue {
	if cfg.QueueBufferSize <= 0 {
		cfg.QueueBufferSize = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	q := &MailQueue{
		mailer: mailer,
		config: cfg,
		queue:  make(chan mailTask, cfg.QueueBufferSize),
		done:   make(chan struct{}),
	}
	go q.processQueue()
	return q
}

func (q *MailQueue) SendPasswordReset(_ context.Context, email, link string) error {
	if !q.enqueue(mailTask{email: email, link: link}) {
		logger.Warn("mail_queue_full", map[string]interface{}{"email": email})
		return ErrMailQueueFull
	}
	return nil
}

func (q *MailQueue) enqueue(task mailTask) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.queue <- task:
		return true
	default:
		return false
	}
}

func (q *MailQueue) processQueue() {
	defer close(q.done)
	for task := range q.queue {
		q.deliver(task)
	}
}

func (q *MailQueue) deliver(task mailTask) {
	err := q.mailer.SendPasswordReset(context.Background(), task.email, task.link)
	if err == nil {
		logger.Info("mail_delivered", map[string]interface{}{
			"email":    task.email,
			"attempts": task.attempts + 1,
		})
		return
	}
	q.markFailed(task, err)
}

func (q *MailQueue) markFailed(task mailTask, sendErr error) {
	task.attempts++
	if task.attempts >= q.config.MaxAttempts {
		logger.Error("mail_final_failure", sendErr, map[string]interface{}{
			"email":    task.email,
			"attempts": task.attempts,
		})
		return
	}

	delay := time.Duration(0)
	if n := len(q.config.RetryDelays); n > 0 {
		delayIndex := task.attempts - 1
		if delayIndex >= n {
			delayIndex = n - 1
		}
		delay = q.config.RetryDelays[delayIndex]
	}

	logger.Warn("mail_retry_scheduled", map[string]interface{}{
		"email":        task.email,
		"attempts":     task.attempts,
		"max_attempts": q.config.MaxAttempts,
		"delay_ms":     delay.Milliseconds(),
		"error":        sendErr.Error(),
	})

	time.AfterFunc(delay, func() {
		if !q.enqueue(task) {
			logger.Warn("mail_retry_dropped", map[string]interface{}{"email": task.email})
		}
	})
}

// Close stops accepting mail and waits for queued sends to finish or ctx
// to expire. Pending retries are dropped.
func (q *MailQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
