package models

import (
	"time"

	"github.com/google/uuid"
)

// LogAction is the audited operation kind.
type LogAction string

const (
	LogActionView     LogAction = "view"
	LogActionDownload LogAction = "download"
	LogActionStream   LogAction = "stream"
	LogActionUpload   LogAction = "upload"
	LogActionDelete   LogAction = "delete"
)

// AccessLogEntry is one append-only audit record. Rows are written once,
// ordered by timestamp, and never mutated or deleted by normal operation.
type AccessLogEntry struct {
	ID     uuid.UUID `json:"id" db:"id"`
	FileID uuid.UUID `json:"fileId" db:"file_id"`
	UserID int64     `json:"userId" db:"user_id"`
	Action LogAction `json:"action" db:"action"`

	IPAddress string `json:"ipAddress" db:"ip_address"`
	UserAgent string `json:"userAgent" db:"user_agent"`
	Referer   string `json:"referer,omitempty" db:"referer"`

	Success      bool   `json:"success" db:"success"`
	ErrorMessage string `json:"errorMessage,omitempty" db:"error_message"`
	ResponseCode int    `json:"responseCode" db:"response_code"`

	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	DurationMs int       `json:"durationMs" db:"duration_ms"`
}
