package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessLevel is the role tier required to touch a file.
type AccessLevel string

const (
	AccessLevelPublic    AccessLevel = "public"
	AccessLevelStudent   AccessLevel = "student"
	AccessLevelProfessor AccessLevel = "professor"
	AccessLevelAdmin     AccessLevel = "admin"
)

// IsValid reports whether the access level is a known constant.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevelPublic, AccessLevelStudent, AccessLevelProfessor, AccessLevelAdmin:
		return true
	}
	return false
}

// MinimumRole returns the least privileged role the level admits.
func (l AccessLevel) MinimumRole() Role {
	switch l {
	case AccessLevelPublic:
		return RoleAnonymous
	case AccessLevelStudent:
		return RoleStudent
	case AccessLevelProfessor:
		return RoleProfessor
	default:
		return RoleAdmin
	}
}

// FileType is the declared content category of a file.
type FileType string

const (
	FileTypeVideo    FileType = "video"
	FileTypePDF      FileType = "pdf"
	FileTypeDocument FileType = "document"
	FileTypeImage    FileType = "image"
	FileTypeAudio    FileType = "audio"
)

// IsValid reports whether the file type is a known constant.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypeVideo, FileTypePDF, FileTypeDocument, FileTypeImage, FileTypeAudio:
		return true
	}
	return false
}

// DefaultAction returns the access action implied by the file type when the
// caller does not specify one: videos stream, everything else downloads.
func (t FileType) DefaultAction() AccessAction {
	if t == FileTypeVideo {
		return ActionStream
	}
	return ActionDownload
}

// File is the immutable-identity record of one stored object.
// The storage path is globally unique and the checksum, once set, never
// changes. Deletion only flips IsActive; grants and access logs keep
// referencing the inactive row as historical records.
type File struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	OriginalName string      `json:"originalName" db:"original_name"`
	StoragePath  string      `json:"-" db:"storage_path"`
	FileType     FileType    `json:"fileType" db:"file_type"`
	FileSize     int64       `json:"fileSize" db:"file_size"`
	MimeType     string      `json:"mimeType" db:"mime_type"`
	AccessLevel  AccessLevel `json:"accessLevel" db:"access_level"`

	// Weak references to course content. Informational only; entitlement
	// checks on them are answered by the enrollment collaborator.
	CourseID  *uuid.UUID `json:"courseId,omitempty" db:"course_id"`
	ChapterID *uuid.UUID `json:"chapterId,omitempty" db:"chapter_id"`
	LessonID  *uuid.UUID `json:"lessonId,omitempty" db:"lesson_id"`

	IsEncrypted   bool   `json:"isEncrypted" db:"is_encrypted"`
	EncryptionKey string `json:"-" db:"encryption_key"`
	Checksum      string `json:"checksum" db:"checksum"`

	UploadedBy int64     `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	IsActive   bool      `json:"isActive" db:"is_active"`

	AllowDownload bool       `json:"allowDownload" db:"allow_download"`
	AllowStream   bool       `json:"allowStream" db:"allow_streaming"`
	MaxDownloads  *int       `json:"maxDownloads,omitempty" db:"max_downloads"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
}

// IsExpired reports whether the file's hard expiry has passed.
func (f *File) IsExpired(now time.Time) bool {
	return f.ExpiresAt != nil && now.After(*f.ExpiresAt)
}

// HasContentAssociation reports whether the file is linked to any course,
// chapter or lesson.
func (f *File) HasContentAssociation() bool {
	return f.CourseID != nil || f.ChapterID != nil || f.LessonID != nil
}
