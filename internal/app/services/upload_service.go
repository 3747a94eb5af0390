package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/app/repositories"
	"github.com/sauvini/securefiles/internal/pkg/apperrors"
	"github.com/sauvini/securefiles/internal/pkg/auth"
	"github.com/sauvini/securefiles/internal/pkg/objectstore"
)

// UploadService manages the two-phase upload protocol: a signed session is
// created first, then the bytes arrive under that session's token.
type UploadService struct {
	sessions      SessionStore
	files         FileStore
	store         objectstore.Gateway
	tokens        *auth.UploadTokenService
	audit         *AuditService
	maxFileSize   int64
	sweepInterval time.Duration
	logger        zerolog.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(
	sessions SessionStore,
	files FileStore,
	store objectstore.Gateway,
	tokens *auth.UploadTokenService,
	audit *AuditService,
	maxFileSize int64,
	sweepInterval time.Duration,
	logger zerolog.Logger,
) *UploadService {
	return &UploadService{
		sessions:      sessions,
		files:         files,
		store:         store,
		tokens:        tokens,
		audit:         audit,
		maxFileSize:   maxFileSize,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

// MaxFileSize is the configured upload size cap in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.maxFileSize
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// validateSessionRequest checks the declared metadata before anything is
// persisted. Failures here are client input errors: no session, no audit row.
func (s *UploadService) validateSessionRequest(req *dto.CreateUploadSessionRequest) (models.FileType, models.AccessLevel, error) {
	if req.FileSize <= 0 || req.FileSize > s.maxFileSize {
		return "", "", fmt.Errorf("%w: file size must be between 1 and %d bytes", apperrors.ErrInvalidUploadRequest, s.maxFileSize)
	}

	fileType := models.FileType(req.FileType)
	if !fileType.IsValid() {
		return "", "", fmt.Errorf("%w: unknown file type %q", apperrors.ErrInvalidUploadRequest, req.FileType)
	}

	if req.MimeType == "" {
		return "", "", fmt.Errorf("%w: mime type is required", apperrors.ErrInvalidUploadRequest)
	}

	accessLevel := models.AccessLevelStudent
	if req.AccessLevel != "" {
		accessLevel = models.AccessLevel(req.AccessLevel)
		if !accessLevel.IsValid() {
			return "", "", fmt.Errorf("%w: unknown access level %q", apperrors.ErrInvalidUploadRequest, req.AccessLevel)
		}
	}

	return fileType, accessLevel, nil
}

// CreateSession validates the declared metadata, issues a signed upload token
// and persists the pending session. Returns the session together with the
// token to hand back to the client.
func (s *UploadService) CreateSession(ctx context.Context, principal models.Principal, req *dto.CreateUploadSessionRequest, client models.ClientContext) (*models.UploadSession, string, error) {
	fileType, accessLevel, err := s.validateSessionRequest(req)
	if err != nil {
		return nil, "", err
	}

	courseID, err := parseOptionalUUID(req.CourseID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid course id", apperrors.ErrInvalidUploadRequest)
	}
	chapterID, err := parseOptionalUUID(req.ChapterID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid chapter id", apperrors.ErrInvalidUploadRequest)
	}
	lessonID, err := parseOptionalUUID(req.LessonID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid lesson id", apperrors.ErrInvalidUploadRequest)
	}

	sessionID := uuid.New()
	token, err := s.tokens.Issue(principal.UserID, sessionID, req.FileName, req.FileSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign upload token")
		return nil, "", fmt.Errorf("failed to issue upload token: %w", err)
	}

	now := time.Now()
	session := &models.UploadSession{
		ID:          sessionID,
		UserID:      principal.UserID,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		FileType:    fileType,
		MimeType:    req.MimeType,
		AccessLevel: accessLevel,
		CourseID:    courseID,
		ChapterID:   chapterID,
		LessonID:    lessonID,
		Token:       token,
		IPAddress:   client.IPAddress,
		Status:      models.UploadStatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.tokens.TTL()),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create upload session: %w", err)
	}

	s.logger.Debug().
		Str("sessionId", sessionID.String()).
		Int64("userId", principal.UserID).
		Str("fileName", req.FileName).
		Msg("Upload session created")

	return session, token, nil
}

// Upload verifies the token, claims the session and streams the bytes into
// the object store, producing the finalized File record. The session must
// belong to the authenticated principal: a leaked token is useless from
// another account.
func (s *UploadService) Upload(ctx context.Context, principal models.Principal, tokenString string, body io.Reader, size int64, client models.ClientContext) (*models.File, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.UserID != principal.UserID {
		return nil, apperrors.ErrSessionInvalid
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load upload session: %w", err)
	}

	if session.UserID != claims.UserID {
		return nil, apperrors.ErrSessionInvalid
	}

	// Lazy expiry: a dead session is cancelled on first touch rather than
	// waiting for the sweeper.
	now := time.Now()
	if session.IsExpired(now) {
		if !session.Status.IsTerminal() {
			if cErr := s.sessions.MarkCancelled(ctx, session.ID); cErr != nil {
				s.logger.Error().Err(cErr).Str("sessionId", session.ID.String()).Msg("Failed to cancel expired session")
			}
		}
		return nil, apperrors.ErrSessionExpired
	}

	session, err = s.sessions.ClaimForUpload(ctx, session.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionClaimed) {
			return nil, apperrors.ErrSessionConsumed
		}
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to claim upload session: %w", err)
	}

	// The received byte count must match what the session declared. Checked
	// before anything reaches the store so a mismatch leaves no orphan
	// object behind.
	if size != session.FileSize {
		s.failSession(ctx, session.ID, fmt.Sprintf("size mismatch: declared %d, received %d", session.FileSize, size))
		return nil, apperrors.ErrSizeMismatch
	}

	fileID := uuid.New()
	storagePath := fmt.Sprintf("%d/%s%s", session.UserID, fileID, filepath.Ext(session.FileName))

	hasher := sha256.New()
	reader := io.TeeReader(body, hasher)

	if err := s.store.Put(ctx, storagePath, reader, size, session.MimeType); err != nil {
		s.logger.Error().Err(err).Str("sessionId", session.ID.String()).Msg("Object store write failed")
		s.failSession(ctx, session.ID, "storage write failed")
		return nil, apperrors.ErrStorageWrite
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))

	file := &models.File{
		ID:            fileID,
		Name:          session.FileName,
		OriginalName:  session.FileName,
		StoragePath:   storagePath,
		FileType:      session.FileType,
		FileSize:      size,
		MimeType:      session.MimeType,
		AccessLevel:   session.AccessLevel,
		CourseID:      session.CourseID,
		ChapterID:     session.ChapterID,
		LessonID:      session.LessonID,
		Checksum:      checksum,
		UploadedBy:    session.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		AllowDownload: true,
		AllowStream:   true,
	}

	if err := s.files.Create(ctx, file); err != nil {
		s.failSession(ctx, session.ID, "file record creation failed")
		if rmErr := s.store.Remove(ctx, storagePath); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("path", storagePath).Msg("Failed to remove orphaned object")
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	if err := s.sessions.MarkCompleted(ctx, session.ID, fileID, time.Now()); err != nil {
		s.logger.Error().Err(err).Str("sessionId", session.ID.String()).Msg("Failed to mark session completed")
	}

	s.audit.Record(ctx, &models.AccessLogEntry{
		FileID:       fileID,
		UserID:       session.UserID,
		Action:       models.LogActionUpload,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		Referer:      client.Referer,
		Success:      true,
		ResponseCode: 201,
	})

	s.logger.Info().
		Str("fileId", fileID.String()).
		Str("sessionId", session.ID.String()).
		Int64("userId", session.UserID).
		Int64("size", size).
		Msg("File upload completed")

	return file, nil
}

func (s *UploadService) failSession(ctx context.Context, id uuid.UUID, reason string) {
	if err := s.sessions.MarkFailed(ctx, id, reason); err != nil {
		s.logger.Error().Err(err).Str("sessionId", id.String()).Msg("Failed to mark session failed")
	}
}

// StartSweeper runs the periodic expiry sweep until ctx is cancelled.
func (s *UploadService) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := s.sessions.SweepExpired(ctx, time.Now())
				if err != nil {
					s.logger.Error().Err(err).Msg("Upload session sweep failed")
					continue
				}
				if swept > 0 {
					s.logger.Info().Int64("count", swept).Msg("Cancelled expired upload sessions")
				}
			}
		}
	}()
}
