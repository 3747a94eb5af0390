package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/pkg/dberrors"
	"github.com/sauvini/securefiles/internal/pkg/logger"
)

// Session repository errors
var (
	ErrSessionNotFound = ErrNotFound
	ErrSessionClaimed  = errors.New("upload session already claimed")
	ErrTokenExists     = errors.New("upload token already exists")
)

// UploadSessionRepository handles database operations for upload sessions
type UploadSessionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUploadSessionRepository creates a new UploadSessionRepository
func NewUploadSessionRepository(db *pgxpool.Pool) *UploadSessionRepository {
	return &UploadSessionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var sessionColumns = []string{
	"id", "user_id", "file_name", "file_size", "file_type", "mime_type",
	"access_level", "course_id", "chapter_id", "lesson_id", "token",
	"ip_address", "status", "created_at", "expires_at", "completed_at",
	"file_id", "error_message",
}

func scanSession(row pgx.Row) (*models.UploadSession, error) {
	var s models.UploadSession
	err := row.Scan(
		&s.ID, &s.UserID, &s.FileName, &s.FileSize, &s.FileType, &s.MimeType,
		&s.AccessLevel, &s.CourseID, &s.ChapterID, &s.LessonID, &s.Token,
		&s.IPAddress, &s.Status, &s.CreatedAt, &s.ExpiresAt, &s.CompletedAt,
		&s.FileID, &s.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persists a new pending upload session.
func (r *UploadSessionRepository) Create(ctx context.Context, session *models.UploadSession) error {
	sql, args, err := r.sb.Insert("upload_sessions").
		Columns(sessionColumns...).
		Values(
			session.ID, session.UserID, session.FileName, session.FileSize,
			session.FileType, session.MimeType, session.AccessLevel,
			session.CourseID, session.ChapterID, session.LessonID,
			session.Token, session.IPAddress, session.Status,
			session.CreatedAt, session.ExpiresAt, session.CompletedAt,
			session.FileID, session.ErrorMessage,
		).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building insert upload session SQL")
		return fmt.Errorf("failed to build insert upload session query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "upload_sessions_token_key") {
			return ErrTokenExists
		}
		logger.Error().Err(err).Msg("Error executing insert upload session query")
		return fmt.Errorf("error creating upload session: %w", err)
	}

	return nil
}

// GetByID retrieves an upload session by its ID.
func (r *UploadSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadSession, error) {
	sql, args, err := r.sb.Select(sessionColumns...).
		From("upload_sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get upload session SQL")
		return nil, fmt.Errorf("failed to build get upload session query: %w", err)
	}

	session, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		logger.Error().Err(err).Msg("Error getting upload session")
		return nil, fmt.Errorf("error getting upload session: %w", err)
	}

	return session, nil
}

// ClaimForUpload transitions a session from pending to uploading. Exactly one
// caller wins the transition; everyone else gets ErrSessionClaimed. A session
// that does not exist at all reports ErrSessionNotFound.
func (r *UploadSessionRepository) ClaimForUpload(ctx context.Context, id uuid.UUID) (*models.UploadSession, error) {
	sql, args, err := r.sb.Update("upload_sessions").
		Set("status", models.UploadStatusUploading).
		Where(squirrel.Eq{"id": id, "status": models.UploadStatusPending}).
		Suffix("RETURNING " + joinColumns(sessionColumns)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building claim upload session SQL")
		return nil, fmt.Errorf("failed to build claim upload session query: %w", err)
	}

	session, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a never-existed session from one already claimed.
			if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrSessionNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, ErrSessionClaimed
		}
		logger.Error().Err(err).Msg("Error claiming upload session")
		return nil, fmt.Errorf("error claiming upload session: %w", err)
	}

	return session, nil
}

// MarkCompleted finalizes a session after its file row exists.
func (r *UploadSessionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, fileID uuid.UUID, completedAt time.Time) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status":       models.UploadStatusCompleted,
		"file_id":      fileID,
		"completed_at": completedAt,
	})
}

// MarkFailed records a terminal failure with its cause.
func (r *UploadSessionRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status":        models.UploadStatusFailed,
		"error_message": errMsg,
	})
}

// MarkCancelled moves a session to the cancelled terminal state.
func (r *UploadSessionRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status": models.UploadStatusCancelled,
	})
}

func (r *UploadSessionRepository) setStatus(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	sql, args, err := r.sb.Update("upload_sessions").
		SetMap(fields).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update upload session SQL")
		return fmt.Errorf("failed to build update upload session query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error updating upload session")
		return fmt.Errorf("error updating upload session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// SweepExpired cancels every non-terminal session whose expiry has passed.
// Returns the number of sessions swept.
func (r *UploadSessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := r.sb.Update("upload_sessions").
		Set("status", models.UploadStatusCancelled).
		Where(squirrel.Eq{"status": []models.UploadSessionStatus{
			models.UploadStatusPending,
			models.UploadStatusUploading,
		}}).
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building sweep upload sessions SQL")
		return 0, fmt.Errorf("failed to build sweep upload sessions query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error sweeping expired upload sessions")
		return 0, fmt.Errorf("error sweeping expired upload sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
