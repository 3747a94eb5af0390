package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/pkg/apperrors"
)

// HandleAPIError maps service errors onto the standard error envelope.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"),
		})
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(403, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeAccessDenied, "Permission denied"),
		})
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Upload token expired"),
		})
	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid upload token"),
		})
	case errors.Is(err, apperrors.ErrSessionExpired):
		c.JSON(410, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeSessionExpired, "Upload session expired"),
		})
	case errors.Is(err, apperrors.ErrSessionConsumed):
		c.JSON(409, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeSessionConsumed, "Upload session already used"),
		})
	case errors.Is(err, apperrors.ErrSessionInvalid):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeSessionInvalid, "Upload session not found"),
		})
	case errors.Is(err, apperrors.ErrSizeMismatch):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeSizeMismatch, "Uploaded size does not match the declared size"),
		})
	case errors.Is(err, apperrors.ErrInvalidUploadRequest):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid upload request").WithDetails(err.Error()),
		})
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed"),
		})
	case errors.Is(err, apperrors.ErrStorageWrite), errors.Is(err, apperrors.ErrStorageRead):
		c.JSON(502, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeStorageFault, "Object storage unavailable"),
		})
	default:
		c.JSON(500, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}
