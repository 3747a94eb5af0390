package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sauvini/securefiles/internal/app/models"
)

// AuditService appends access log entries and answers anomaly queries over
// the trailing window. Logging is best-effort: a failed append must never
// fail the access it describes.
type AuditService struct {
	logs      AccessLogStore
	window    time.Duration
	threshold int
	logger    zerolog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(logs AccessLogStore, window time.Duration, threshold int, logger zerolog.Logger) *AuditService {
	return &AuditService{
		logs:      logs,
		window:    window,
		threshold: threshold,
		logger:    logger,
	}
}

// Record appends one entry, filling in the ID and timestamp when the caller
// left them zero. Persistence errors are logged and swallowed.
func (s *AuditService) Record(ctx context.Context, entry *models.AccessLogEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("fileId", entry.FileID.String()).
			Int64("userId", entry.UserID).
			Str("action", string(entry.Action)).
			Msg("Failed to append access log entry")
	}
}

// IsSuspicious reports whether the (file, user) pair exceeded the configured
// access count inside the trailing window ending at now. Query errors are
// logged and read as not suspicious so the detector can never lock users out
// by failing.
func (s *AuditService) IsSuspicious(ctx context.Context, fileID uuid.UUID, userID int64, now time.Time) bool {
	count, err := s.logs.CountSince(ctx, fileID, userID, now.Add(-s.window))
	if err != nil {
		s.logger.Error().Err(err).
			Str("fileId", fileID.String()).
			Int64("userId", userID).
			Msg("Anomaly window query failed")
		return false
	}

	if count >= s.threshold {
		s.logger.Warn().
			Str("fileId", fileID.String()).
			Int64("userId", userID).
			Int("count", count).
			Dur("window", s.window).
			Msg("Suspicious access pattern detected")
		return true
	}

	return false
}
