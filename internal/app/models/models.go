package models

// Role is the coarse-grained role of a principal, resolved once per request
// by the identity layer and passed into this subsystem as a value.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

// rolePrivilege orders roles for tier comparisons. Higher is more privileged.
var rolePrivilege = map[Role]int{
	RoleAnonymous: 0,
	RoleStudent:   1,
	RoleProfessor: 2,
	RoleAdmin:     3,
}

// IsValid reports whether the role is one of the known constants.
func (r Role) IsValid() bool {
	_, ok := rolePrivilege[r]
	return ok
}

// AtLeast reports whether r has equal or greater privilege than other.
func (r Role) AtLeast(other Role) bool {
	return rolePrivilege[r] >= rolePrivilege[other]
}

// Principal identifies the caller of an access or upload request.
// An anonymous caller has a zero UserID and RoleAnonymous.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAnonymous reports whether the principal is unauthenticated.
func (p Principal) IsAnonymous() bool {
	return p.Role == RoleAnonymous || p.UserID == 0
}

// ClientContext carries request metadata recorded in the audit log.
type ClientContext struct {
	IPAddress string
	UserAgent string
	Referer   string
}
