package dto

import "time"

// CreateUploadSessionRequest is the body of POST /files/upload/session.
type CreateUploadSessionRequest struct {
	FileName    string  `json:"fileName" binding:"required"`                                          // Original file name as declared by the client
	FileSize    int64   `json:"fileSize" binding:"required,gt=0"`                                     // Declared size in bytes
	FileType    string  `json:"fileType" binding:"required" enums:"video,pdf,document,image,audio"`   // Declared content category
	MimeType    string  `json:"mimeType" binding:"required"`                                          // Declared MIME type
	AccessLevel string  `json:"accessLevel,omitempty" enums:"public,student,professor,admin"`         // Access tier of the finalized file (default: student)
	CourseID    *string `json:"courseId,omitempty"`                                                   // Optional weak reference to a course
	ChapterID   *string `json:"chapterId,omitempty"`                                                  // Optional weak reference to a chapter
	LessonID    *string `json:"lessonId,omitempty"`                                                   // Optional weak reference to a lesson
}

// UploadSessionResponse is returned when an upload session is created.
type UploadSessionResponse struct {
	UploadSessionID string    `json:"uploadSessionId" example:"a2f1c0de-8c1b-4f6e-9f1a-bb1c0de8c1b4"`
	UploadToken     string    `json:"uploadToken"`
	UploadURL       string    `json:"uploadUrl" example:"/api/v1/files/upload/eyJhbGciOi..."`
	ExpiresAt       time.Time `json:"expiresAt"`
	MaxFileSize     int64     `json:"maxFileSize" example:"10485760"`
}

// UploadResultResponse is returned after a successful upload finalization.
type UploadResultResponse struct {
	FileID      string `json:"fileId" example:"a2f1c0de-8c1b-4f6e-9f1a-bb1c0de8c1b4"`
	FileName    string `json:"fileName" example:"lecture01.pdf"`
	FileType    string `json:"fileType" example:"pdf"`
	FileSize    int64  `json:"fileSize" example:"10485760"`
	AccessLevel string `json:"accessLevel" example:"student"`
	Checksum    string `json:"checksum" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
}

// FileAccessResponse is returned when access to a file is granted.
type FileAccessResponse struct {
	FileID     string `json:"fileId" example:"a2f1c0de-8c1b-4f6e-9f1a-bb1c0de8c1b4"`
	FileName   string `json:"fileName" example:"lecture01.mp4"`
	FileType   string `json:"fileType" example:"video"`
	FileSize   int64  `json:"fileSize" example:"52428800"`
	SignedURL  string `json:"signedUrl"`
	ExpiresIn  int    `json:"expiresIn" example:"3600"` // Seconds until the signed URL expires
	AccessType string `json:"accessType" example:"stream"`
}

// AccessDeniedResponse is returned when the policy evaluator denies access.
type AccessDeniedResponse struct {
	Denied bool       `json:"denied" example:"true"`
	Reason DenyReason `json:"reason" example:"insufficient_tier"`
}

// FileResponse represents one file record owned by the caller.
type FileResponse struct {
	ID          string     `json:"id" example:"a2f1c0de-8c1b-4f6e-9f1a-bb1c0de8c1b4"`
	Name        string     `json:"name" example:"lecture01.pdf"`
	FileType    string     `json:"fileType" example:"pdf"`
	FileSize    int64      `json:"fileSize" example:"10485760"`
	MimeType    string     `json:"mimeType" example:"application/pdf"`
	AccessLevel string     `json:"accessLevel" example:"student"`
	Checksum    string     `json:"checksum,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// FilesResponse represents a collection of files
type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

// GrantRequest is the body of POST /files/{fileId}/grants.
type GrantRequest struct {
	UserID    int64      `json:"userId" binding:"required"`
	Action    string     `json:"action" binding:"required" enums:"read,download,stream,edit"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// GrantResponse describes an issued access grant.
type GrantResponse struct {
	ID        string     `json:"id" example:"a2f1c0de-8c1b-4f6e-9f1a-bb1c0de8c1b4"`
	FileID    string     `json:"fileId"`
	UserID    int64      `json:"userId" example:"42"`
	Action    string     `json:"action" example:"download"`
	GrantedAt time.Time  `json:"grantedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	GrantedBy int64      `json:"grantedBy" example:"7"`
}
