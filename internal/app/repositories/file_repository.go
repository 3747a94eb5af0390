package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/pkg/logger"
)

// File error types
var (
	// ErrFileNotFound is returned when a file is not found.
	ErrFileNotFound = ErrNotFound
	// ErrStoragePathExists is returned when the storage path collides with an
	// existing file. Paths are generated from UUIDs, so this indicates a bug.
	ErrStoragePathExists = errors.New("file with this storage path already exists")
)

var fileColumns = []string{
	"id", "name", "original_name", "storage_path", "file_type", "file_size",
	"mime_type", "access_level", "course_id", "chapter_id", "lesson_id",
	"is_encrypted", "encryption_key", "checksum", "uploaded_by",
	"created_at", "updated_at", "is_active",
	"allow_download", "allow_streaming", "max_downloads", "expires_at",
}

// FileRepository handles file database operations
type FileRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique violation error.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // 23505 is unique_violation
}

func scanFile(row pgx.Row) (*models.File, error) {
	file := &models.File{}
	err := row.Scan(
		&file.ID, &file.Name, &file.OriginalName, &file.StoragePath,
		&file.FileType, &file.FileSize, &file.MimeType, &file.AccessLevel,
		&file.CourseID, &file.ChapterID, &file.LessonID,
		&file.IsEncrypted, &file.EncryptionKey, &file.Checksum,
		&file.UploadedBy, &file.CreatedAt, &file.UpdatedAt, &file.IsActive,
		&file.AllowDownload, &file.AllowStream, &file.MaxDownloads, &file.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Create inserts a new file record.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	sql, args, err := r.sb.Insert("secure_files").
		Columns(
			"id", "name", "original_name", "storage_path", "file_type",
			"file_size", "mime_type", "access_level", "course_id",
			"chapter_id", "lesson_id", "is_encrypted", "encryption_key",
			"checksum", "uploaded_by", "is_active", "allow_download",
			"allow_streaming", "max_downloads", "expires_at",
		).
		Values(
			file.ID, file.Name, file.OriginalName, file.StoragePath,
			file.FileType, file.FileSize, file.MimeType, file.AccessLevel,
			file.CourseID, file.ChapterID, file.LessonID,
			file.IsEncrypted, file.EncryptionKey, file.Checksum,
			file.UploadedBy, file.IsActive, file.AllowDownload,
			file.AllowStream, file.MaxDownloads, file.ExpiresAt,
		).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create file SQL")
		return fmt.Errorf("failed to build create file query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrStoragePathExists
		}
		logger.Error().Err(err).Msg("Error executing create file query")
		return fmt.Errorf("error creating file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID, active or not. Liveness is an access policy
// concern, not a lookup concern.
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	sql, args, err := r.sb.Select(fileColumns...).
		From("secure_files").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get file by ID SQL")
		return nil, fmt.Errorf("failed to build get file query: %w", err)
	}

	file, err := scanFile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		logger.Error().Err(err).Str("fileID", id.String()).Msg("Error scanning file row")
		return nil, fmt.Errorf("error getting file by ID: %w", err)
	}

	return file, nil
}

// ListByOwner retrieves all active files uploaded by the given user, newest
// first.
func (r *FileRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.File, error) {
	sql, args, err := r.sb.Select(fileColumns...).
		From("secure_files").
		Where(squirrel.Eq{"uploaded_by": userID, "is_active": true}).
		OrderBy("created_at DESC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list files SQL")
		return nil, fmt.Errorf("failed to build list files query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list files query")
		return nil, fmt.Errorf("error querying files: %w", err)
	}
	defer rows.Close()

	files := []*models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning file row during list")
			return nil, fmt.Errorf("error scanning file row: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating file rows")
		return nil, fmt.Errorf("error iterating file rows: %w", err)
	}

	return files, nil
}

// SoftDelete flips is_active to false. Deleting an already-inactive file is
// a no-op success; grants and access logs keep referencing the row.
func (r *FileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.sb.Update("secure_files").
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building soft delete file SQL")
		return fmt.Errorf("failed to build soft delete query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("fileID", id.String()).Msg("Error executing soft delete file query")
		return fmt.Errorf("error soft deleting file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrFileNotFound
	}

	return nil
}
