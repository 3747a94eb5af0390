package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/pkg/logger"
)

// AccessLogRepository handles the append-only audit log. Rows are inserted
// and counted, never updated or deleted.
type AccessLogRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAccessLogRepository creates a new AccessLogRepository
func NewAccessLogRepository(db *pgxpool.Pool) *AccessLogRepository {
	return &AccessLogRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends one audit entry.
func (r *AccessLogRepository) Insert(ctx context.Context, entry *models.AccessLogEntry) error {
	sql, args, err := r.sb.Insert("file_access_logs").
		Columns(
			"id", "file_id", "user_id", "action", "ip_address", "user_agent",
			"referer", "success", "error_message", "response_code",
			"timestamp", "duration_ms",
		).
		Values(
			entry.ID, entry.FileID, entry.UserID, entry.Action,
			entry.IPAddress, entry.UserAgent, entry.Referer, entry.Success,
			entry.ErrorMessage, entry.ResponseCode, entry.Timestamp,
			entry.DurationMs,
		).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building insert access log SQL")
		return fmt.Errorf("failed to build insert access log query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing insert access log query")
		return fmt.Errorf("error inserting access log: %w", err)
	}

	return nil
}

// CountSince counts entries for a (file, user) pair at or after the cutoff.
// Used by the anomaly detector's trailing-window check.
func (r *AccessLogRepository) CountSince(ctx context.Context, fileID uuid.UUID, userID int64, since time.Time) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("file_access_logs").
		Where(squirrel.Eq{"file_id": fileID, "user_id": userID}).
		Where(squirrel.GtOrEq{"timestamp": since}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building count access logs SQL")
		return 0, fmt.Errorf("failed to build count access logs query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error counting access logs")
		return 0, fmt.Errorf("error counting access logs: %w", err)
	}

	return count, nil
}
