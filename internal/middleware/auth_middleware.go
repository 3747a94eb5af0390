package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/pkg/auth"
)

const principalKey = "principal"

// AuthMiddleware resolves the caller's principal from the Authorization
// header. Identity is issued elsewhere; this subsystem only verifies the
// signature and reads the role claim.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(principalKey, models.Principal{UserID: claims.UserID, Role: models.Role(claims.Role)})
		c.Next()
	}
}

// OptionalAuth resolves a principal when a valid token is present and falls
// back to the anonymous principal otherwise. A present-but-invalid token is
// still rejected rather than silently downgraded.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(principalKey, models.Principal{Role: models.RoleAnonymous})
			c.Next()
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(principalKey, models.Principal{UserID: claims.UserID, Role: models.Role(claims.Role)})
		c.Next()
	}
}

// PrincipalFromContext returns the principal resolved by the auth middleware,
// defaulting to anonymous when none was set.
func PrincipalFromContext(c *gin.Context) models.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Principal{Role: models.RoleAnonymous}
}

// ClientContextFromRequest extracts the request metadata recorded in the
// audit log.
func ClientContextFromRequest(c *gin.Context) models.ClientContext {
	return models.ClientContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}
}
