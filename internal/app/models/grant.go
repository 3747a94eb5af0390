package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessAction is the kind of access a grant or request refers to.
type AccessAction string

const (
	ActionRead     AccessAction = "read"
	ActionDownload AccessAction = "download"
	ActionStream   AccessAction = "stream"
	ActionEdit     AccessAction = "edit"
)

// IsValid reports whether the action is a known constant.
func (a AccessAction) IsValid() bool {
	switch a {
	case ActionRead, ActionDownload, ActionStream, ActionEdit:
		return true
	}
	return false
}

// AccessGrant is an explicit per-user, per-action permission on a file.
// At most one grant exists per (file, user, action); re-granting updates the
// existing row. Absence of a grant is not a denial, the decision falls back
// to the file's tier.
type AccessGrant struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	FileID    uuid.UUID    `json:"fileId" db:"file_id"`
	UserID    int64        `json:"userId" db:"user_id"`
	Action    AccessAction `json:"action" db:"action"`
	GrantedAt time.Time    `json:"grantedAt" db:"granted_at"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty" db:"expires_at"`
	GrantedBy int64        `json:"grantedBy" db:"granted_by"`

	UsageCount int        `json:"usageCount" db:"usage_count"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
}

// IsExpired reports whether the grant's expiry has passed.
func (g *AccessGrant) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}
