package services

import (
	"context"
	"sync"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/pkg/logger"
	"gorm.io/gorm"
)

type AuditEntry struct {
	UserID       *uint
	Action       string
	ResourceType string
	ResourceID   *uint
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// AuditService writes audit rows off the request path through a bounded
// queue; entries are dropped with a warning when the queue is full.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AuditLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB) *AuditService {
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, 1000),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	if s == nil {
		return
	}

	row := models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("audit_log_after_close", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx
// to expire. Entries logged after Close are dropped.
func (s *AuditService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent returns the newest audit rows of userID, newest first.
func (s *AuditService) Recent(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
