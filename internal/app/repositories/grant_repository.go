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
	"github.com/sauvini/securefiles/internal/pkg/logger"
)

// ErrGrantNotFound is returned when no grant exists for a (file, user,
// action) tuple. Absence of a grant is an expected state, not a failure.
var ErrGrantNotFound = ErrNotFound

var grantColumns = []string{
	"id", "file_id", "user_id", "action", "granted_at", "expires_at",
	"granted_by", "usage_count", "last_used_at",
}

// GrantRepository handles access grant database operations
type GrantRepository struct {
	db         *pgxpool.Pool
	sb         squirrel.StatementBuilderType
	defaultTTL time.Duration
}

// NewGrantRepository creates a new GrantRepository. defaultTTL bounds grants
// created implicitly by usage tracking; explicit grants carry their own
// expiry.
func NewGrantRepository(db *pgxpool.Pool, defaultTTL time.Duration) *GrantRepository {
	return &GrantRepository{
		db:         db,
		sb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		defaultTTL: defaultTTL,
	}
}

func scanGrant(row pgx.Row) (*models.AccessGrant, error) {
	grant := &models.AccessGrant{}
	err := row.Scan(
		&grant.ID, &grant.FileID, &grant.UserID, &grant.Action,
		&grant.GrantedAt, &grant.ExpiresAt, &grant.GrantedBy,
		&grant.UsageCount, &grant.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// Get retrieves the grant for a (file, user, action) tuple.
func (r *GrantRepository) Get(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction) (*models.AccessGrant, error) {
	sql, args, err := r.sb.Select(grantColumns...).
		From("file_grants").
		Where(squirrel.Eq{"file_id": fileID, "user_id": userID, "action": action}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get grant SQL")
		return nil, fmt.Errorf("failed to build get grant query: %w", err)
	}

	grant, err := scanGrant(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		logger.Error().Err(err).Msg("Error scanning grant row")
		return nil, fmt.Errorf("error getting grant: %w", err)
	}

	return grant, nil
}

// Upsert creates or updates an explicit grant. Re-granting an existing
// (file, user, action) tuple updates expiry and granter instead of
// duplicating the row; the usage counter is preserved.
func (r *GrantRepository) Upsert(ctx context.Context, grant *models.AccessGrant) error {
	sql, args, err := r.sb.Insert("file_grants").
		Columns("id", "file_id", "user_id", "action", "expires_at", "granted_by").
		Values(grant.ID, grant.FileID, grant.UserID, grant.Action, grant.ExpiresAt, grant.GrantedBy).
		Suffix(`ON CONFLICT (file_id, user_id, action)
			DO UPDATE SET expires_at = EXCLUDED.expires_at, granted_by = EXCLUDED.granted_by`).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert grant SQL")
		return fmt.Errorf("failed to build upsert grant query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing upsert grant query")
		return fmt.Errorf("error upserting grant: %w", err)
	}

	return nil
}

// recordUsageQuery builds the conditional upsert for one allowed access. A
// first access inserts the grant with the default expiry; later accesses
// only bump the counter, leaving expiry and granter untouched.
func (r *GrantRepository) recordUsageQuery(fileID uuid.UUID, userID int64, action models.AccessAction, grantedBy int64, now time.Time) (string, []interface{}, error) {
	return r.sb.Insert("file_grants").
		Columns("id", "file_id", "user_id", "action", "expires_at", "granted_by", "usage_count", "last_used_at").
		Values(uuid.New(), fileID, userID, action, now.Add(r.defaultTTL), grantedBy, 1, now).
		Suffix(`ON CONFLICT (file_id, user_id, action)
			DO UPDATE SET usage_count = file_grants.usage_count + 1, last_used_at = now()`).
		ToSql()
}

// RecordUsage lazily creates the grant on first allowed access and bumps its
// usage counter. The increment is a single conditional statement, so
// concurrent allowed accesses to the same key serialize on the row and each
// one counts exactly once.
func (r *GrantRepository) RecordUsage(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction, grantedBy int64) error {
	sql, args, err := r.recordUsageQuery(fileID, userID, action, grantedBy, time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("Error building record usage SQL")
		return fmt.Errorf("failed to build record usage query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).
			Str("fileID", fileID.String()).
			Int64("userID", userID).
			Msg("Error recording grant usage")
		return fmt.Errorf("error recording grant usage: %w", err)
	}

	return nil
}
