// Package policy implements the access decision algorithm for stored files.
// Decide is a pure function: every piece of state it needs (the file, the
// resolved principal, an optional grant, the enrollment collaborator's answer)
// is passed in, and the caller performs all side effects such as audit
// logging and usage-counter increments.
package policy

import (
	"time"

	"github.com/sauvini/securefiles/internal/app/models"
	"github.com/sauvini/securefiles/internal/app/models/dto"
)

// Decision is the outcome of an access policy evaluation. A denial is a
// first-class outcome, not an error; it always carries a stable reason code.
type Decision struct {
	Allowed bool
	Reason  dto.DenyReason
}

// Allow is the affirmative decision.
var Allow = Decision{Allowed: true}

// Deny creates a denial with the given reason.
func Deny(reason dto.DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Input carries everything the evaluator consults for one decision.
type Input struct {
	File      *models.File
	Principal models.Principal
	Action    models.AccessAction

	// Grant is the explicit (file, user, action) grant, or nil when none
	// exists. Absence is not a denial; the tier check governs instead.
	Grant *models.AccessGrant

	// ContentAllowed is the enrollment collaborator's answer for files with
	// a course/chapter/lesson association. Ignored for unassociated files.
	ContentAllowed bool

	Now time.Time
}

// Decide evaluates the access rules in order, short-circuiting on the first
// denial: liveness, tier, capability flags, grant expiry and quota, content
// association.
func Decide(in Input) Decision {
	f := in.File

	// Liveness: inactive or hard-expired files are gone from the caller's
	// point of view regardless of who is asking.
	if !f.IsActive || f.IsExpired(in.Now) {
		return Deny(dto.DenyReasonFileUnavailable)
	}

	if !in.Principal.Role.AtLeast(f.AccessLevel.MinimumRole()) {
		return Deny(dto.DenyReasonInsufficientTier)
	}

	// Per-file capability flags.
	if in.Action == models.ActionDownload && !f.AllowDownload {
		return Deny(dto.DenyReasonDownloadDisabled)
	}
	if in.Action == models.ActionStream && !f.AllowStream {
		return Deny(dto.DenyReasonStreamDisabled)
	}

	if in.Grant != nil {
		if in.Grant.IsExpired(in.Now) {
			return Deny(dto.DenyReasonGrantExpired)
		}
		if in.Action == models.ActionDownload && f.MaxDownloads != nil && in.Grant.UsageCount >= *f.MaxDownloads {
			return Deny(dto.DenyReasonQuotaExceeded)
		}
	}

	// Content association is a pass-through hook: files without an
	// association always pass, associated files defer to the enrollment
	// collaborator's answer.
	if f.HasContentAssociation() && !in.ContentAllowed {
		return Deny(dto.DenyReasonContentRestricted)
	}

	return Allow
}
