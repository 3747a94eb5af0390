package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/app/repositories"
	"github.com/sauvini/securefiles/internal/pkg/apperrors"
)

type accessFixture struct {
	files   *mockFileStore
	grants  *mockGrantStore
	logs    *mockAccessLogStore
	store   *mockGateway
	content *mockContentAuthorizer
	svc     *AccessService
}

func newAccessFixture(t *testing.T, enforce bool) *accessFixture {
	t.Helper()
	f := &accessFixture{
		files:   new(mockFileStore),
		grants:  new(mockGrantStore),
		logs:    new(mockAccessLogStore),
		store:   new(mockGateway),
		content: new(mockContentAuthorizer),
	}
	audit := NewAuditService(f.logs, 5*time.Minute, 20, zerolog.Nop())
	f.svc = NewAccessService(f.files, f.grants, audit, f.store, f.content, time.Hour, enforce, zerolog.Nop())
	return f
}

func activeFile(level models.AccessLevel, fileType models.FileType) *models.File {
	return &models.File{
		ID:            uuid.New(),
		Name:          "lecture01.pdf",
		StoragePath:   "7/lecture01.pdf",
		FileType:      fileType,
		FileSize:      1024,
		MimeType:      "application/pdf",
		AccessLevel:   level,
		UploadedBy:    7,
		IsActive:      true,
		AllowDownload: true,
		AllowStream:   true,
	}
}

func TestRequestAccess_AllowedDownload(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.grants.On("RecordUsage", mock.Anything, file.ID, int64(42), models.ActionDownload, int64(7)).Return(nil)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return e.Success && e.Action == models.LogActionDownload && e.UserID == 42
	})).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	assert.Equal(t, "https://store/signed", result.SignedURL)
	assert.Equal(t, models.ActionDownload, result.Action)
	assert.Equal(t, time.Hour, result.ExpiresIn)

	f.logs.AssertNumberOfCalls(t, "Insert", 1)
	f.grants.AssertExpectations(t)
}

func TestRequestAccess_VideoDefaultsToStream(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypeVideo)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionStream).Return(nil, repositories.ErrGrantNotFound)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.grants.On("RecordUsage", mock.Anything, file.ID, int64(42), models.ActionStream, int64(7)).Return(nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	assert.Equal(t, models.ActionStream, result.Action)
}

func TestRequestAccess_ExplicitActionOverridesDefault(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypeVideo)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.grants.On("RecordUsage", mock.Anything, file.ID, int64(42), models.ActionDownload, int64(7)).Return(nil)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return e.Success && e.Action == models.LogActionDownload
	})).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, models.ActionDownload, models.ClientContext{})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	assert.Equal(t, models.ActionDownload, result.Action)
}

func TestRequestAccess_ExplicitActionHitsCapabilityFlag(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypeVideo)
	file.AllowDownload = false
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, models.ActionDownload, models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonDownloadDisabled, result.Reason)
}

func TestRequestAccess_UnknownActionRejected(t *testing.T) {
	f := newAccessFixture(t, false)

	_, err := f.svc.RequestAccess(context.Background(), uuid.New(), models.Principal{UserID: 42, Role: models.RoleStudent}, models.AccessAction("teleport"), models.ClientContext{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	f.files.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.logs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRequestAccess_UnknownFileNotAudited(t *testing.T) {
	f := newAccessFixture(t, false)
	id := uuid.New()

	f.files.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrFileNotFound)

	result, err := f.svc.RequestAccess(context.Background(), id, models.Principal{UserID: 42, Role: models.RoleStudent}, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonNotFound, result.Reason)

	f.logs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRequestAccess_UnavailableFileAuditedAsMissing(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypePDF)
	file.IsActive = false

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return !e.Success && e.ResponseCode == 404 && e.ErrorMessage == string(dto.DenyReasonFileUnavailable)
	})).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, models.Principal{Role: models.RoleAnonymous}, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonFileUnavailable, result.Reason)

	f.logs.AssertNumberOfCalls(t, "Insert", 1)
}

func TestRequestAccess_PresignFailureAuditedAsStorageFault(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("", assert.AnError)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return !e.Success && e.ResponseCode == 502 && e.ErrorMessage == "storage read failed"
	})).Return(nil)

	_, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	assert.ErrorIs(t, err, apperrors.ErrStorageRead)

	f.logs.AssertNumberOfCalls(t, "Insert", 1)
	f.grants.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAccess_InsufficientTierAudited(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelProfessor, models.FileTypePDF)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return !e.Success && e.ErrorMessage == string(dto.DenyReasonInsufficientTier)
	})).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonInsufficientTier, result.Reason)

	f.logs.AssertNumberOfCalls(t, "Insert", 1)
	f.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
	f.grants.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAccess_QuotaExhausted(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	maxDownloads := 3
	file.MaxDownloads = &maxDownloads
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	grant := &models.AccessGrant{
		ID:         uuid.New(),
		FileID:     file.ID,
		UserID:     42,
		Action:     models.ActionDownload,
		UsageCount: 3,
	}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(grant, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonQuotaExceeded, result.Reason)

	f.grants.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.logs.AssertNumberOfCalls(t, "Insert", 1)
}

func TestRequestAccess_AnonymousSkipsGrantLookup(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypePDF)

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, models.Principal{Role: models.RoleAnonymous}, "", models.ClientContext{})
	require.NoError(t, err)
	require.True(t, result.Allowed)

	f.grants.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.grants.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.logs.AssertNotCalled(t, "CountSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAccess_AnomalyEnforced(t *testing.T) {
	f := newAccessFixture(t, true)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(20, nil)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return !e.Success && e.ErrorMessage == string(dto.DenyReasonSuspiciousActivity)
	})).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonSuspiciousActivity, result.Reason)

	f.grants.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAccess_AnomalyAdvisoryStillAllows(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(50, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.grants.On("RecordUsage", mock.Anything, file.ID, int64(42), models.ActionDownload, int64(7)).Return(nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRequestAccess_ContentRestricted(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	courseID := uuid.New()
	file.CourseID = &courseID
	principal := models.Principal{UserID: 42, Role: models.RoleStudent}

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.logs.On("CountSince", mock.Anything, file.ID, int64(42), mock.Anything).Return(0, nil)
	f.grants.On("Get", mock.Anything, file.ID, int64(42), models.ActionDownload).Return(nil, repositories.ErrGrantNotFound)
	f.content.On("Allowed", mock.Anything, principal, file).Return(false, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, principal, "", models.ClientContext{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, dto.DenyReasonContentRestricted, result.Reason)
}

func TestRequestAccess_AuditFailureDoesNotFailRequest(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelPublic, models.FileTypePDF)

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.store.On("PresignGet", mock.Anything, file.StoragePath, time.Hour).Return("https://store/signed", nil)
	f.logs.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	result, err := f.svc.RequestAccess(context.Background(), file.ID, models.Principal{Role: models.RoleAnonymous}, "", models.ClientContext{})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestGrantAccess_OwnerAndAdminOnly(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)

	_, err := f.svc.GrantAccess(context.Background(), models.Principal{UserID: 99, Role: models.RoleStudent}, file.ID, 42, models.ActionDownload, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	f.grants.On("Upsert", mock.Anything, mock.MatchedBy(func(g *models.AccessGrant) bool {
		return g.FileID == file.ID && g.UserID == 42 && g.Action == models.ActionDownload && g.GrantedBy == 7
	})).Return(nil)

	grant, err := f.svc.GrantAccess(context.Background(), models.Principal{UserID: 7, Role: models.RoleProfessor}, file.ID, 42, models.ActionDownload, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), grant.UserID)
}

func TestDeleteFile_OwnerSoftDeletes(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)
	f.files.On("SoftDelete", mock.Anything, file.ID).Return(nil)
	f.logs.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.AccessLogEntry) bool {
		return e.Action == models.LogActionDelete && e.Success
	})).Return(nil)

	err := f.svc.DeleteFile(context.Background(), file.ID, models.Principal{UserID: 7, Role: models.RoleProfessor}, models.ClientContext{})
	require.NoError(t, err)
	f.files.AssertExpectations(t)
}

func TestDeleteFile_NonOwnerDenied(t *testing.T) {
	f := newAccessFixture(t, false)
	file := activeFile(models.AccessLevelStudent, models.FileTypePDF)

	f.files.On("GetByID", mock.Anything, file.ID).Return(file, nil)

	err := f.svc.DeleteFile(context.Background(), file.ID, models.Principal{UserID: 99, Role: models.RoleStudent}, models.ClientContext{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	f.files.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestDeleteFile_Idempotent(t *testing.T) {
	f := newAccessFixture(t, false)
	id := uuid.New()

	f.files.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrFileNotFound)

	err := f.svc.DeleteFile(context.Background(), id, models.Principal{UserID: 7, Role: models.RoleProfessor}, models.ClientContext{})
	assert.NoError(t, err)

	f2 := newAccessFixture(t, false)
	inactive := activeFile(models.AccessLevelStudent, models.FileTypePDF)
	inactive.IsActive = false
	f2.files.On("GetByID", mock.Anything, inactive.ID).Return(inactive, nil)

	err = f2.svc.DeleteFile(context.Background(), inactive.ID, models.Principal{UserID: 7, Role: models.RoleProfessor}, models.ClientContext{})
	assert.NoError(t, err)
	f2.files.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
