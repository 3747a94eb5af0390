package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sauvini/securefiles/internal/app/controllers"
	"github.com/sauvini/securefiles/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	fileController *controllers.FileController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	files := v1.Group("/files")
	{
		// Access requests accept anonymous callers; the policy decides what
		// an anonymous principal may reach.
		optional := files.Group("")
		optional.Use(authMiddleware.OptionalAuth())
		{
			optional.GET("/:fileId/access", fileController.RequestAccess)
		}

		authenticated := files.Group("")
		authenticated.Use(authMiddleware.RequireAuth())
		{
			authenticated.POST("/upload/session", fileController.CreateUploadSession)
			authenticated.POST("/upload/:token", fileController.Upload)
			authenticated.GET("/my-files", fileController.ListMyFiles)
			authenticated.POST("/:fileId/grants", fileController.GrantAccess)
			authenticated.DELETE("/:fileId", fileController.DeleteFile)
		}
	}
}
