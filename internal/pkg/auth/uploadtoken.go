package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sauvini/securefiles/internal/pkg/apperrors"
)

// UploadClaims is the payload of a signed upload token. The token binds the
// owner, the declared file name and size, and the session it belongs to. It
// is verifiable offline, but state transitions always go through the session
// row: forging a token is not enough to reach the store.
type UploadClaims struct {
	UserID    int64  `json:"userId"`
	SessionID string `json:"sessionId"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	jwt.RegisteredClaims
}

// UploadTokenService issues and verifies signed upload tokens.
type UploadTokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewUploadTokenService creates an UploadTokenService with the given signing
// key and token lifetime.
func NewUploadTokenService(secretKey, issuer string, ttl time.Duration) *UploadTokenService {
	return &UploadTokenService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
	}
}

// TTL returns the configured upload window.
func (s *UploadTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new upload token for one session.
func (s *UploadTokenService) Issue(userID int64, sessionID uuid.UUID, fileName string, fileSize int64) (string, error) {
	now := time.Now()
	claims := &UploadClaims{
		UserID:    userID,
		SessionID: sessionID.String(),
		FileName:  fileName,
		FileSize:  fileSize,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its claims.
// Returns apperrors.ErrTokenExpired or apperrors.ErrTokenInvalid so callers
// can surface the protocol failure directly.
func (s *UploadTokenService) Verify(tokenString string) (*UploadClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UploadClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*UploadClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}

	if claims.UserID <= 0 || claims.SessionID == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}
