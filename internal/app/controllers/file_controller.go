package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/app/services"
	"github.com/sauvini/securefiles/internal/middleware"
)

// parseUUIDParam parses a UUID parameter from the request path
func parseUUIDParam(ctx *gin.Context, paramName string) (uuid.UUID, error) {
	return uuid.Parse(ctx.Param(paramName))
}

// FileController handles secure file operations
type FileController struct {
	accessService *services.AccessService
	uploadService *services.UploadService
}

// NewFileController creates a new FileController
func NewFileController(accessService *services.AccessService, uploadService *services.UploadService) *FileController {
	return &FileController{
		accessService: accessService,
		uploadService: uploadService,
	}
}

// CreateUploadSession godoc
// @Summary Open an upload session
// @Description Validate the declared file metadata and issue a signed, single-use upload token
// @Tags files
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateUploadSessionRequest true "Declared file metadata"
// @Success 201 {object} dto.APIResponse{data=dto.UploadSessionResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files/upload/session [post]
func (c *FileController) CreateUploadSession(ctx *gin.Context) {
	var req dto.CreateUploadSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request body").WithDetails(err.Error()),
		})
		return
	}

	principal := middleware.PrincipalFromContext(ctx)
	session, token, err := c.uploadService.CreateSession(ctx, principal, &req, middleware.ClientContextFromRequest(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.UploadSessionResponse{
			UploadSessionID: session.ID.String(),
			UploadToken:     token,
			UploadURL:       "/api/v1/files/upload/" + token,
			ExpiresAt:       session.ExpiresAt,
			MaxFileSize:     c.uploadService.MaxFileSize(),
		},
	})
}

// Upload godoc
// @Summary Upload file bytes under a session token
// @Description Stream the file body for a previously opened upload session; the token is single-use
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param token path string true "Upload token"
// @Param file formData file true "File content"
// @Success 201 {object} dto.APIResponse{data=dto.UploadResultResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 410 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files/upload/{token} [post]
func (c *FileController) Upload(ctx *gin.Context) {
	token := ctx.Param("token")

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Missing file in multipart form"),
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Unreadable file in multipart form"),
		})
		return
	}
	defer src.Close()

	principal := middleware.PrincipalFromContext(ctx)
	file, err := c.uploadService.Upload(ctx, principal, token, src, fileHeader.Size, middleware.ClientContextFromRequest(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.UploadResultResponse{
			FileID:      file.ID.String(),
			FileName:    file.Name,
			FileType:    string(file.FileType),
			FileSize:    file.FileSize,
			AccessLevel: string(file.AccessLevel),
			Checksum:    file.Checksum,
		},
	})
}

// RequestAccess godoc
// @Summary Request access to a file
// @Description Evaluate the access policy and return a presigned URL; the action defaults from the file type when omitted
// @Tags files
// @Produce json
// @Param fileId path string true "File ID"
// @Param action query string false "Requested action (read, download, stream or edit)"
// @Success 200 {object} dto.APIResponse{data=dto.FileAccessResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{data=dto.AccessDeniedResponse}
// @Failure 404 {object} dto.APIResponse{data=dto.AccessDeniedResponse}
// @Router /files/{fileId}/access [get]
func (c *FileController) RequestAccess(ctx *gin.Context) {
	fileID, err := parseUUIDParam(ctx, "fileId")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid file ID"),
		})
		return
	}

	action := models.AccessAction(ctx.Query("action"))
	if action != "" && !action.IsValid() {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid action"),
		})
		return
	}

	principal := middleware.PrincipalFromContext(ctx)
	result, err := c.accessService.RequestAccess(ctx, fileID, principal, action, middleware.ClientContextFromRequest(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if !result.Allowed {
		// Unknown and unavailable files answer identically so callers
		// cannot probe for soft-deleted content.
		status := http.StatusForbidden
		if result.Reason == dto.DenyReasonNotFound || result.Reason == dto.DenyReasonFileUnavailable {
			status = http.StatusNotFound
		}
		ctx.JSON(status, dto.APIResponse{
			Data: dto.AccessDeniedResponse{Denied: true, Reason: result.Reason},
		})
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.FileAccessResponse{
			FileID:     result.File.ID.String(),
			FileName:   result.File.Name,
			FileType:   string(result.File.FileType),
			FileSize:   result.File.FileSize,
			SignedURL:  result.SignedURL,
			ExpiresIn:  int(result.ExpiresIn.Seconds()),
			AccessType: string(result.Action),
		},
	})
}

// ListMyFiles godoc
// @Summary List the caller's files
// @Description Get the caller's own active files, newest first
// @Tags files
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.FilesResponse}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files/my-files [get]
func (c *FileController) ListMyFiles(ctx *gin.Context) {
	principal := middleware.PrincipalFromContext(ctx)

	files, err := c.accessService.ListUserFiles(ctx, principal.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.FilesResponse{Files: make([]dto.FileResponse, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, dto.FileResponse{
			ID:          f.ID.String(),
			Name:        f.Name,
			FileType:    string(f.FileType),
			FileSize:    f.FileSize,
			MimeType:    f.MimeType,
			AccessLevel: string(f.AccessLevel),
			Checksum:    f.Checksum,
			CreatedAt:   f.CreatedAt,
			ExpiresAt:   f.ExpiresAt,
		})
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GrantAccess godoc
// @Summary Grant a user explicit access to a file
// @Description Upsert an explicit (file, user, action) grant; owner or admin only
// @Tags files
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param fileId path string true "File ID"
// @Param request body dto.GrantRequest true "Grant parameters"
// @Success 201 {object} dto.APIResponse{data=dto.GrantResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files/{fileId}/grants [post]
func (c *FileController) GrantAccess(ctx *gin.Context) {
	fileID, err := parseUUIDParam(ctx, "fileId")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid file ID"),
		})
		return
	}

	var req dto.GrantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request body").WithDetails(err.Error()),
		})
		return
	}

	principal := middleware.PrincipalFromContext(ctx)
	grant, err := c.accessService.GrantAccess(ctx, principal, fileID, req.UserID, models.AccessAction(req.Action), req.ExpiresAt)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.GrantResponse{
			ID:        grant.ID.String(),
			FileID:    grant.FileID.String(),
			UserID:    grant.UserID,
			Action:    string(grant.Action),
			GrantedAt: grant.GrantedAt,
			ExpiresAt: grant.ExpiresAt,
			GrantedBy: grant.GrantedBy,
		},
	})
}

// DeleteFile godoc
// @Summary Delete a file
// @Description Soft-delete a file; owner or admin only, idempotent
// @Tags files
// @Produce json
// @Security ApiKeyAuth
// @Param fileId path string true "File ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files/{fileId} [delete]
func (c *FileController) DeleteFile(ctx *gin.Context) {
	fileID, err := parseUUIDParam(ctx, "fileId")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid file ID"),
		})
		return
	}

	principal := middleware.PrincipalFromContext(ctx)
	if err := c.accessService.DeleteFile(ctx, fileID, principal, middleware.ClientContextFromRequest(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.SuccessResponse{Message: "File deleted"},
	})
}
