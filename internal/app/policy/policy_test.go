package policy_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
	"github.com/sauvini/securefiles/internal/app/policy"
)

func activeFile(level models.AccessLevel) *models.File {
	return &models.File{
		AccessLevel:   level,
		IsActive:      true,
		AllowDownload: true,
		AllowStream:   true,
	}
}

func TestDecide_TierMonotonicity(t *testing.T) {
	roles := []models.Role{models.RoleAnonymous, models.RoleStudent, models.RoleProfessor, models.RoleAdmin}

	// minAllowed[level] is the least privileged role index the tier admits.
	minAllowed := map[models.AccessLevel]int{
		models.AccessLevelPublic:    0,
		models.AccessLevelStudent:   1,
		models.AccessLevelProfessor: 2,
		models.AccessLevelAdmin:     3,
	}

	for level, min := range minAllowed {
		for i, role := range roles {
			d := policy.Decide(policy.Input{
				File:      activeFile(level),
				Principal: models.Principal{UserID: 1, Role: role},
				Action:    models.ActionRead,
				Now:       time.Now(),
			})

			if i >= min {
				assert.True(t, d.Allowed, "role %s should be allowed at level %s", role, level)
			} else {
				assert.False(t, d.Allowed, "role %s should be denied at level %s", role, level)
				assert.Equal(t, dto.DenyReasonInsufficientTier, d.Reason)
			}
		}
	}
}

func TestDecide_AnonymousAdminFile(t *testing.T) {
	file := activeFile(models.AccessLevelAdmin)

	denied := policy.Decide(policy.Input{
		File:      file,
		Principal: models.Principal{Role: models.RoleAnonymous},
		Action:    models.ActionDownload,
		Now:       time.Now(),
	})
	assert.False(t, denied.Allowed)
	assert.Equal(t, dto.DenyReasonInsufficientTier, denied.Reason)

	allowed := policy.Decide(policy.Input{
		File:      file,
		Principal: models.Principal{UserID: 9, Role: models.RoleAdmin},
		Action:    models.ActionDownload,
		Now:       time.Now(),
	})
	assert.True(t, allowed.Allowed)
}

func TestDecide_Liveness(t *testing.T) {
	now := time.Now()

	inactive := activeFile(models.AccessLevelPublic)
	inactive.IsActive = false
	d := policy.Decide(policy.Input{
		File:      inactive,
		Principal: models.Principal{UserID: 1, Role: models.RoleAdmin},
		Action:    models.ActionRead,
		Now:       now,
	})
	assert.Equal(t, dto.DenyReasonFileUnavailable, d.Reason)

	past := now.Add(-time.Minute)
	expired := activeFile(models.AccessLevelPublic)
	expired.ExpiresAt = &past
	d = policy.Decide(policy.Input{
		File:      expired,
		Principal: models.Principal{UserID: 1, Role: models.RoleAdmin},
		Action:    models.ActionRead,
		Now:       now,
	})
	assert.Equal(t, dto.DenyReasonFileUnavailable, d.Reason)
}

func TestDecide_CapabilityFlags(t *testing.T) {
	file := activeFile(models.AccessLevelStudent)
	file.AllowDownload = false
	file.AllowStream = false
	principal := models.Principal{UserID: 1, Role: models.RoleStudent}

	d := policy.Decide(policy.Input{File: file, Principal: principal, Action: models.ActionDownload, Now: time.Now()})
	assert.Equal(t, dto.DenyReasonDownloadDisabled, d.Reason)

	d = policy.Decide(policy.Input{File: file, Principal: principal, Action: models.ActionStream, Now: time.Now()})
	assert.Equal(t, dto.DenyReasonStreamDisabled, d.Reason)

	// read is governed only by tier and liveness
	d = policy.Decide(policy.Input{File: file, Principal: principal, Action: models.ActionRead, Now: time.Now()})
	assert.True(t, d.Allowed)
}

func TestDecide_GrantExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	d := policy.Decide(policy.Input{
		File:      activeFile(models.AccessLevelStudent),
		Principal: models.Principal{UserID: 1, Role: models.RoleStudent},
		Action:    models.ActionDownload,
		Grant:     &models.AccessGrant{UserID: 1, Action: models.ActionDownload, ExpiresAt: &past},
		Now:       now,
	})
	assert.False(t, d.Allowed)
	assert.Equal(t, dto.DenyReasonGrantExpired, d.Reason)
}

func TestDecide_DownloadQuota(t *testing.T) {
	quota := 3
	file := activeFile(models.AccessLevelStudent)
	file.MaxDownloads = &quota
	principal := models.Principal{UserID: 1, Role: models.RoleStudent}

	under := policy.Decide(policy.Input{
		File:      file,
		Principal: principal,
		Action:    models.ActionDownload,
		Grant:     &models.AccessGrant{UserID: 1, Action: models.ActionDownload, UsageCount: 2},
		Now:       time.Now(),
	})
	assert.True(t, under.Allowed)

	at := policy.Decide(policy.Input{
		File:      file,
		Principal: principal,
		Action:    models.ActionDownload,
		Grant:     &models.AccessGrant{UserID: 1, Action: models.ActionDownload, UsageCount: 3},
		Now:       time.Now(),
	})
	assert.False(t, at.Allowed)
	assert.Equal(t, dto.DenyReasonQuotaExceeded, at.Reason)

	// The quota binds the grant holder only; a principal without a grant
	// falls back to the tier result.
	fresh := policy.Decide(policy.Input{
		File:      file,
		Principal: models.Principal{UserID: 2, Role: models.RoleStudent},
		Action:    models.ActionDownload,
		Now:       time.Now(),
	})
	assert.True(t, fresh.Allowed)
}

func TestDecide_QuotaIgnoredForStreaming(t *testing.T) {
	quota := 1
	file := activeFile(models.AccessLevelStudent)
	file.MaxDownloads = &quota

	d := policy.Decide(policy.Input{
		File:      file,
		Principal: models.Principal{UserID: 1, Role: models.RoleStudent},
		Action:    models.ActionStream,
		Grant:     &models.AccessGrant{UserID: 1, Action: models.ActionStream, UsageCount: 50},
		Now:       time.Now(),
	})
	assert.True(t, d.Allowed)
}

func TestDecide_ContentAssociation(t *testing.T) {
	courseID := uuid.New()
	file := activeFile(models.AccessLevelStudent)
	file.CourseID = &courseID
	principal := models.Principal{UserID: 1, Role: models.RoleStudent}

	blocked := policy.Decide(policy.Input{
		File:           file,
		Principal:      principal,
		Action:         models.ActionRead,
		ContentAllowed: false,
		Now:            time.Now(),
	})
	assert.Equal(t, dto.DenyReasonContentRestricted, blocked.Reason)

	enrolled := policy.Decide(policy.Input{
		File:           file,
		Principal:      principal,
		Action:         models.ActionRead,
		ContentAllowed: true,
		Now:            time.Now(),
	})
	assert.True(t, enrolled.Allowed)
}
