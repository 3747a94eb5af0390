package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sauvini/securefiles/internal/app/models"
)

type mockFileStore struct {
	mock.Mock
}

func (m *mockFileStore) Create(ctx context.Context, file *models.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *mockFileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

func (m *mockFileStore) ListByOwner(ctx context.Context, userID int64) ([]*models.File, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.File), args.Error(1)
}

func (m *mockFileStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockGrantStore struct {
	mock.Mock
}

func (m *mockGrantStore) Get(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction) (*models.AccessGrant, error) {
	args := m.Called(ctx, fileID, userID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessGrant), args.Error(1)
}

func (m *mockGrantStore) Upsert(ctx context.Context, grant *models.AccessGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *mockGrantStore) RecordUsage(ctx context.Context, fileID uuid.UUID, userID int64, action models.AccessAction, grantedBy int64) error {
	args := m.Called(ctx, fileID, userID, action, grantedBy)
	return args.Error(0)
}

type mockAccessLogStore struct {
	mock.Mock
}

func (m *mockAccessLogStore) Insert(ctx context.Context, entry *models.AccessLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAccessLogStore) CountSince(ctx context.Context, fileID uuid.UUID, userID int64, since time.Time) (int, error) {
	args := m.Called(ctx, fileID, userID, since)
	return args.Int(0), args.Error(1)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, session *models.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadSession), args.Error(1)
}

func (m *mockSessionStore) ClaimForUpload(ctx context.Context, id uuid.UUID) (*models.UploadSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadSession), args.Error(1)
}

func (m *mockSessionStore) MarkCompleted(ctx context.Context, id uuid.UUID, fileID uuid.UUID, completedAt time.Time) error {
	args := m.Called(ctx, id, fileID, completedAt)
	return args.Error(0)
}

func (m *mockSessionStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *mockSessionStore) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, path, r, size, contentType)
	// Drain the reader so TeeReader side effects (checksumming) happen the
	// way a real store write would make them happen.
	if args.Error(0) == nil {
		_, _ = io.Copy(io.Discard, r)
	}
	return args.Error(0)
}

func (m *mockGateway) PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, path, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *mockGateway) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockContentAuthorizer struct {
	mock.Mock
}

func (m *mockContentAuthorizer) Allowed(ctx context.Context, principal models.Principal, file *models.File) (bool, error) {
	args := m.Called(ctx, principal, file)
	return args.Bool(0), args.Error(1)
}
