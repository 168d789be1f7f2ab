package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditEvent describes something worth keeping in the audit trail.
type AuditEvent struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Before     interface{}
	After      interface{}
	IP         string
	UserAgent  string
}

// AuditService writes audit entries asynchronously on a bounded worker queue.
// A nil *AuditService discards events.
type AuditService struct {
	repo   auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the service and its queue. Call Start before
// recording and Stop on shutdown.
func NewAuditService(repo auditWriter, logger *zap.Logger, cfg jobs.QueueConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (s *AuditService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Record queues event. It never blocks the caller; when the queue is full or
// stopped the event is logged and dropped.
func (s *AuditService) Record(event AuditEvent) {
	if s == nil {
		return
	}
	entry, err := s.toLog(event)
	if err != nil {
		s.logger.Warn("audit event not encodable", zap.String("action", event.Action), zap.Error(err))
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry}); err != nil {
		s.logger.Warn("audit event dropped", zap.String("action", event.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.repo.Create(ctx, entry)
}

func (s *AuditService) toLog(event AuditEvent) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    event.Action,
		Resource:  event.Resource,
		IPAddress: event.IP,
		UserAgent: event.UserAgent,
	}
	if event.UserID != "" {
		id := event.UserID
		entry.UserID = &id
	}
	if event.ResourceID != "" {
		id := event.ResourceID
		entry.ResourceID = &id
	}
	if event.Before != nil {
		raw, err := json.Marshal(event.Before)
		if err != nil {
			return nil, err
		}
		entry.OldValues = raw
	}
	if event.After != nil {
		raw, err := json.Marshal(event.After)
		if err != nil {
			return nil, err
		}
		entry.NewValues = raw
	}
	return entry, nil
}
