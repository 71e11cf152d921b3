package tenant

import (
	"errors"
	"time"
)

// Source identifies which signal supplied the effective company for a user.
type Source string

const (
	SourceClaim         Source = "claim"
	SourceImpersonation Source = "impersonation"
	SourceTenantSession Source = "tenant_session"
	SourceEmployee      Source = "employee"
	SourceNone          Source = "none"
)

// Both spellings appear in historical role data; matching is exact-case on
// purpose. Do not add aliases without product sign-off.
var superAdminRoles = map[string]struct{}{
	"super_admin": {},
	"superadmin":  {},
}

// SessionClaims is the decoded payload of a bearer token. Decoding performs no
// signature verification, so these values are for display and decision support
// only. The signed verification path in the auth service stays the gate.
type SessionClaims struct {
	SubjectID string `json:"subject_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// IsExpiredAt reports whether the claims are expired at the given instant.
// A missing expiry counts as expired.
func (c SessionClaims) IsExpiredAt(now time.Time) bool {
	if c.ExpiresAt == 0 {
		return true
	}
	return c.ExpiresAt*1000 < now.UnixMilli()
}

func (c SessionClaims) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}

// ResolutionSources carries the three lookup results that may scope a user to
// a company when the token itself does not. The caller performs the lookups;
// the resolver only ranks them.
type ResolutionSources struct {
	ImpersonationTargetID  string `json:"impersonation_target_id"`
	TenantSessionCompanyID string `json:"tenant_session_company_id"`
	EmployeeCompanyID      string `json:"employee_company_id"`
}

// EffectiveContext is the single resolved tenant decision for a request.
type EffectiveContext struct {
	CompanyID    string `json:"company_id"`
	Source       Source `json:"source"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	IsExpired    bool   `json:"is_expired"`
}

// ImpersonationSession records a super admin actively acting as a company.
type ImpersonationSession struct {
	ID              string
	AdminUserID     string
	TargetCompanyID string
	StartedAt       time.Time
	EndedAt         *time.Time
}

// TenantSession records a super admin who switched into tenant mode.
type TenantSession struct {
	ID        string
	UserID    string
	CompanyID string
	StartedAt time.Time
	EndedAt   *time.Time
}

var (
	ErrMalformedToken       = errors.New("malformed session token")
	ErrImpersonationAlready = errors.New("an impersonation session is already active")
	ErrNoActiveSession      = errors.New("no active session found")
	ErrCompanyNotFound      = errors.New("company not found")
)
