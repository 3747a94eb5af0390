// Package services holds the business logic between the HTTP controllers and
// the repositories. Services depend on narrow store interfaces so tests can
// substitute mocks; the concrete pgx repositories satisfy them.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sauvini/securefiles/internal/app/models"
)

// FileStore is the slice of FileRepository the services consume.
type FileStore interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	ListByOwner(ctx context.Context, userID int64) ([]*models.File, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// GrantStore is the slice of GrantRepository the services consume.
type GrantStore interface {
	Get(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction) (*models.AccessGrant, error)
	Upsert(ctx context.Context, grant *models.AccessGrant) error
	RecordUsage(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction, grantedBy int64) error
}

// AccessLogStore is the slice of AccessLogRepository the services consume.
type AccessLogStore interface {
	Insert(ctx context.Context, entry *models.AccessLogEntry) error
	CountSince(ctx context.Context, fileID uuid.UUID, userID int64, since time.Time) (int, error)
}

// SessionStore is the slice of UploadSessionRepository the services consume.
type SessionStore interface {
	Create(ctx context.Context, session *models.UploadSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadSession, error)
	ClaimForUpload(ctx context.Context, id uuid.UUID) (*models.UploadSession, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, fileID uuid.UUID, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContentAuthorizer answers whether a principal may reach content associated
// with a course, chapter, or lesson. Enrollment lives outside this subsystem;
// the default implementation admits everyone and deployments plug in their
// own.
type ContentAuthorizer interface {
	Allowed(ctx context.Context, principal models.Principal, file *models.File) (bool, error)
}

// PermissiveContentAuthorizer admits every principal to associated content.
type PermissiveContentAuthorizer struct{}

func (PermissiveContentAuthorizer) Allowed(_ context.Context, _ models.Principal, _ *models.File) (bool, error) {
	return true, nil
}
