package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadSessionStatus is the lifecycle state of an upload session.
type UploadSessionStatus string

const (
	UploadStatusPending   UploadSessionStatus = "pending"
	UploadStatusUploading UploadSessionStatus = "uploading"
	UploadStatusCompleted UploadSessionStatus = "completed"
	UploadStatusFailed    UploadSessionStatus = "failed"
	UploadStatusCancelled UploadSessionStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s UploadSessionStatus) IsTerminal() bool {
	switch s {
	case UploadStatusCompleted, UploadStatusFailed, UploadStatusCancelled:
		return true
	}
	return false
}

// UploadSession tracks one file's journey from declared intent to finalized
// stored object. The token is a signed bearer credential verifiable offline,
// but state transitions are always driven by the database row so a forged
// token alone cannot bypass the session-existence check.
type UploadSession struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID int64     `json:"userId" db:"user_id"`

	FileName string   `json:"fileName" db:"file_name"`
	FileSize int64    `json:"fileSize" db:"file_size"`
	FileType FileType `json:"fileType" db:"file_type"`
	MimeType string   `json:"mimeType" db:"mime_type"`

	AccessLevel AccessLevel `json:"accessLevel" db:"access_level"`
	CourseID    *uuid.UUID  `json:"courseId,omitempty" db:"course_id"`
	ChapterID   *uuid.UUID  `json:"chapterId,omitempty" db:"chapter_id"`
	LessonID    *uuid.UUID  `json:"lessonId,omitempty" db:"lesson_id"`

	Token     string `json:"-" db:"token"`
	IPAddress string `json:"ipAddress" db:"ip_address"`

	Status UploadSessionStatus `json:"status" db:"status"`

	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt   time.Time  `json:"expiresAt" db:"expires_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`

	FileID       *uuid.UUID `json:"fileId,omitempty" db:"file_id"`
	ErrorMessage string     `json:"errorMessage,omitempty" db:"error_message"`
}

// IsExpired reports whether the session's upload window has elapsed.
func (s *UploadSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
