package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/sauvini/securefiles/internal/app/controllers"
	appMigrations "github.com/sauvini/securefiles/internal/app/migrations"
	appRepos "github.com/sauvini/securefiles/internal/app/repositories"
	appRoutes "github.com/sauvini/securefiles/internal/app/routes"
	appServices "github.com/sauvini/securefiles/internal/app/services"
	"github.com/sauvini/securefiles/internal/config"
	"github.com/sauvini/securefiles/internal/db"
	appMiddleware "github.com/sauvini/securefiles/internal/middleware"
	pkgAuth "github.com/sauvini/securefiles/internal/pkg/auth"
	"github.com/sauvini/securefiles/internal/pkg/helpers"
	"github.com/sauvini/securefiles/internal/pkg/logger"
	"github.com/sauvini/securefiles/internal/pkg/objectstore"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	ObjectStore    objectstore.Gateway
	JWTService     *pkgAuth.JWTService
	UploadTokens   *pkgAuth.UploadTokenService
	AuditService   *appServices.AuditService
	UploadService  *appServices.UploadService
	AccessService  *appServices.AccessService
	FileController *appControllers.FileController
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return dbPool, nil
}

// BuildDependencies initializes repositories, the object store gateway,
// services and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	defaultGrantTTL := helpers.ParseDuration(cfg.Access.DefaultGrantTTL, 720*time.Hour)
	deps.Repos = appRepos.NewRepositories(dbPool, defaultGrantTTL)

	gateway, err := objectstore.NewMinioGateway(objectstore.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gateway.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
	}
	deps.ObjectStore = gateway

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})

	sessionTTL := helpers.ParseDuration(cfg.Upload.SessionTTL, time.Hour)
	deps.UploadTokens = pkgAuth.NewUploadTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, sessionTTL)

	anomalyWindow := helpers.ParseDuration(cfg.Anomaly.Window, 5*time.Minute)
	deps.AuditService = appServices.NewAuditService(
		deps.Repos.AccessLogRepository,
		anomalyWindow,
		cfg.Anomaly.Threshold,
		lgr,
	)

	sweepInterval := helpers.ParseDuration(cfg.Upload.SweepInterval, 10*time.Minute)
	deps.UploadService = appServices.NewUploadService(
		deps.Repos.UploadSessionRepository,
		deps.Repos.FileRepository,
		deps.ObjectStore,
		deps.UploadTokens,
		deps.AuditService,
		cfg.Upload.MaxFileSize,
		sweepInterval,
		lgr,
	)

	signedURLTTL := helpers.ParseDuration(cfg.Access.SignedURLTTL, time.Hour)
	maxSignedURLTTL := helpers.ParseDuration(cfg.Access.MaxSignedURLTTL, 24*time.Hour)
	if signedURLTTL > maxSignedURLTTL {
		signedURLTTL = maxSignedURLTTL
	}
	deps.AccessService = appServices.NewAccessService(
		deps.Repos.FileRepository,
		deps.Repos.GrantRepository,
		deps.AuditService,
		deps.ObjectStore,
		appServices.PermissiveContentAuthorizer{},
		signedURLTTL,
		cfg.Anomaly.Enforce,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.FileController = appControllers.NewFileController(deps.AccessService, deps.UploadService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router, deps.FileController, deps.AuthMiddleware)

	return router
}
