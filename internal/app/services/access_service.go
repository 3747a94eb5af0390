package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/app/policy"
	"github.com/sauvini/securefiles/internal/app/repositories"
	"github.com/sauvini/securefiles/internal/pkg/apperrors"
	"github.com/sauvini/securefiles/internal/pkg/objectstore"
)

// AccessResult is the outcome of one access request. Exactly one of the two
// shapes is populated: an allowance with a signed URL, or a denial with a
// reason code.
type AccessResult struct {
	Allowed   bool
	Reason    dto.DenyReason
	File      *models.File
	Action    models.AccessAction
	SignedURL string
	ExpiresIn time.Duration
}

// AccessService is the facade in front of the policy evaluator: it gathers
// the state the evaluator needs, acts on the decision and writes the audit
// trail.
type AccessService struct {
	files          FileStore
	grants         GrantStore
	audit          *AuditService
	store          objectstore.Gateway
	content        ContentAuthorizer
	signedURLTTL   time.Duration
	anomalyEnforce bool
	logger         zerolog.Logger
}

// NewAccessService creates a new AccessService
func NewAccessService(
	files FileStore,
	grants GrantStore,
	audit *AuditService,
	store objectstore.Gateway,
	content ContentAuthorizer,
	signedURLTTL time.Duration,
	anomalyEnforce bool,
	logger zerolog.Logger,
) *AccessService {
	return &AccessService{
		files:          files,
		grants:         grants,
		audit:          audit,
		store:          store,
		content:        content,
		signedURLTTL:   signedURLTTL,
		anomalyEnforce: anomalyEnforce,
		logger:         logger,
	}
}

// RequestAccess decides whether the principal may reach the file and, when
// allowed, returns a presigned URL. The caller may name the action; when it
// is empty the file type's default applies (videos stream, the rest
// download). Every decision against an existing file produces exactly one
// audit entry; an unknown ID produces none, there being no file row for it
// to reference.
func (s *AccessService) RequestAccess(ctx context.Context, fileID uuid.UUID, principal models.Principal, requested models.AccessAction, client models.ClientContext) (*AccessResult, error) {
	if requested != "" && !requested.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidationFailed, requested)
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return &AccessResult{Reason: dto.DenyReasonNotFound}, nil
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	action := requested
	if action == "" {
		action = file.FileType.DefaultAction()
	}
	now := time.Now()

	// Anomaly gate runs before the policy so a rampaging client is cut off
	// even on files it could otherwise reach. Advisory mode only logs.
	if !principal.IsAnonymous() && s.audit.IsSuspicious(ctx, fileID, principal.UserID, now) && s.anomalyEnforce {
		return s.deny(ctx, file, principal, action, client, dto.DenyReasonSuspiciousActivity), nil
	}

	var grant *models.AccessGrant
	if !principal.IsAnonymous() {
		grant, err = s.grants.Get(ctx, fileID, principal.UserID, action)
		if err != nil && !errors.Is(err, repositories.ErrGrantNotFound) {
			return nil, fmt.Errorf("failed to load grant: %w", err)
		}
	}

	contentAllowed := true
	if file.HasContentAssociation() {
		contentAllowed, err = s.content.Allowed(ctx, principal, file)
		if err != nil {
			s.logger.Error().Err(err).Str("fileId", fileID.String()).Msg("Content authorizer failed")
			contentAllowed = false
		}
	}

	decision := policy.Decide(policy.Input{
		File:           file,
		Principal:      principal,
		Action:         action,
		Grant:          grant,
		ContentAllowed: contentAllowed,
		Now:            now,
	})

	if !decision.Allowed {
		return s.deny(ctx, file, principal, action, client, decision.Reason), nil
	}

	signedURL, err := s.store.PresignGet(ctx, file.StoragePath, s.signedURLTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("fileId", fileID.String()).Msg("Failed to presign URL")
		s.recordDecision(ctx, file, principal, action, client, false, "storage read failed", 502)
		return nil, apperrors.ErrStorageRead
	}

	if !principal.IsAnonymous() {
		if err := s.grants.RecordUsage(ctx, fileID, principal.UserID, action, file.UploadedBy); err != nil {
			s.logger.Error().Err(err).Str("fileId", fileID.String()).Msg("Failed to record grant usage")
		}
	}

	s.recordDecision(ctx, file, principal, action, client, true, "", 200)

	return &AccessResult{
		Allowed:   true,
		File:      file,
		Action:    action,
		SignedURL: signedURL,
		ExpiresIn: s.signedURLTTL,
	}, nil
}

func (s *AccessService) deny(ctx context.Context, file *models.File, principal models.Principal, action models.AccessAction, client models.ClientContext, reason dto.DenyReason) *AccessResult {
	// Audited status matches what the HTTP layer answers: unavailable files
	// are reported as missing, every other denial is a 403.
	code := 403
	if reason == dto.DenyReasonFileUnavailable {
		code = 404
	}
	s.recordDecision(ctx, file, principal, action, client, false, string(reason), code)
	return &AccessResult{Reason: reason, File: file, Action: action}
}

func (s *AccessService) recordDecision(ctx context.Context, file *models.File, principal models.Principal, action models.AccessAction, client models.ClientContext, success bool, errMsg string, code int) {
	logAction := models.LogActionView
	switch action {
	case models.ActionDownload:
		logAction = models.LogActionDownload
	case models.ActionStream:
		logAction = models.LogActionStream
	}

	s.audit.Record(ctx, &models.AccessLogEntry{
		FileID:       file.ID,
		UserID:       principal.UserID,
		Action:       logAction,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		Referer:      client.Referer,
		Success:      success,
		ErrorMessage: errMsg,
		ResponseCode: code,
	})
}

// GrantAccess upserts an explicit grant. Only the file's owner or an admin
// may grant; re-granting refreshes the expiry and preserves accumulated
// usage.
func (s *AccessService) GrantAccess(ctx context.Context, principal models.Principal, fileID uuid.UUID, userID int64, action models.AccessAction, expiresAt *time.Time) (*models.AccessGrant, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidationFailed, action)
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	if principal.Role != models.RoleAdmin && principal.UserID != file.UploadedBy {
		return nil, apperrors.ErrPermissionDenied
	}

	grant := &models.AccessGrant{
		ID:        uuid.New(),
		FileID:    fileID,
		UserID:    userID,
		Action:    action,
		GrantedAt: time.Now(),
		ExpiresAt: expiresAt,
		GrantedBy: principal.UserID,
	}

	if err := s.grants.Upsert(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to upsert grant: %w", err)
	}

	s.logger.Info().
		Str("fileId", fileID.String()).
		Int64("userId", userID).
		Str("action", string(action)).
		Int64("grantedBy", principal.UserID).
		Msg("Access grant issued")

	return grant, nil
}

// ListUserFiles returns the caller's own active files, newest first.
func (s *AccessService) ListUserFiles(ctx context.Context, userID int64) ([]*models.File, error) {
	files, err := s.files.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// DeleteFile soft-deletes a file. Owners and admins only; deleting an
// already-deleted or unknown file succeeds without effect.
func (s *AccessService) DeleteFile(ctx context.Context, fileID uuid.UUID, principal models.Principal, client models.ClientContext) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load file: %w", err)
	}

	if principal.Role != models.RoleAdmin && principal.UserID != file.UploadedBy {
		return apperrors.ErrPermissionDenied
	}

	if !file.IsActive {
		return nil
	}

	if err := s.files.SoftDelete(ctx, fileID); err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.audit.Record(ctx, &models.AccessLogEntry{
		FileID:       fileID,
		UserID:       principal.UserID,
		Action:       models.LogActionDelete,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		Referer:      client.Referer,
		Success:      true,
		ResponseCode: 200,
	})

	s.logger.Info().
		Str("fileId", fileID.String()).
		Int64("userId", principal.UserID).
		Msg("File soft-deleted")

	return nil
}
