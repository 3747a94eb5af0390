package repositories

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is the shared not-found sentinel for all repositories.
var ErrNotFound = errors.New("record not found")

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// Repositories holds all the repository instances
type Repositories struct {
	FileRepository          *FileRepository
	GrantRepository         *GrantRepository
	AccessLogRepository     *AccessLogRepository
	UploadSessionRepository *UploadSessionRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool, defaultGrantTTL time.Duration) *Repositories {
	return &Repositories{
		FileRepository:          NewFileRepository(db),
		GrantRepository:         NewGrantRepository(db, defaultGrantTTL),
		AccessLogRepository:     NewAccessLogRepository(db),
		UploadSessionRepository: NewUploadSessionRepository(db),
	}
}
