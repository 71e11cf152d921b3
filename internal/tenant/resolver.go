package tenant

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// rawClaims mirrors the token payload key names as issued by the auth service.
type rawClaims struct {
	Sub       string `json:"sub"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// DecodeSessionClaims decodes the payload segment of a three-segment bearer
// token. The signature segment is ignored entirely: this is not verification,
// and the result must never be used as the sole authorization gate. Malformed
// input yields ErrMalformedToken, never a panic.
func DecodeSessionClaims(token string) (SessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return SessionClaims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: payload is not base64url: %v", ErrMalformedToken, err)
	}

	var raw rawClaims
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SessionClaims{}, fmt.Errorf("%w: payload is not a flat JSON object: %v", ErrMalformedToken, err)
	}

	return SessionClaims{
		SubjectID: raw.Sub,
		CompanyID: raw.CompanyID,
		Role:      raw.Role,
		IssuedAt:  raw.IssuedAt,
		ExpiresAt: raw.ExpiresAt,
	}, nil
}

type candidate struct {
	source    Source
	companyID string
}

// ResolveEffectiveTenant picks the single authoritative company for the user
// by strict precedence: token claim, then active impersonation, then tenant
// session, then the employee record. The first non-empty candidate wins and
// the rest are ignored; nothing is merged. The function is total: any input,
// including zero values, produces a fully populated context.
func ResolveEffectiveTenant(claims SessionClaims, sources ResolutionSources) EffectiveContext {
	return resolveAt(claims, sources, time.Now())
}

func resolveAt(claims SessionClaims, sources ResolutionSources, now time.Time) EffectiveContext {
	ctx := EffectiveContext{
		Source:    SourceNone,
		IsExpired: claims.IsExpiredAt(now),
	}

	candidates := []candidate{
		{SourceClaim, claims.CompanyID},
		{SourceImpersonation, sources.ImpersonationTargetID},
		{SourceTenantSession, sources.TenantSessionCompanyID},
		{SourceEmployee, sources.EmployeeCompanyID},
	}

	for _, c := range candidates {
		if c.companyID != "" {
			ctx.CompanyID = c.companyID
			ctx.Source = c.source
			break
		}
	}

	_, roleMatch := superAdminRoles[claims.Role]
	// An identity without any tenant scope is treated as unscoped elevated
	// access, matching how platform operators are provisioned.
	ctx.IsSuperAdmin = roleMatch || (ctx.CompanyID == "" && claims.SubjectID != "")

	return ctx
}

// CandidateAudit is one precedence slot in a resolution audit.
type CandidateAudit struct {
	Source    Source `json:"source"`
	CompanyID string `json:"company_id,omitempty"`
	Selected  bool   `json:"selected"`
}

// ResolutionAudit is a human-inspectable snapshot of every input and the
// decision taken. Diagnostics only; never feed it back into authorization.
type ResolutionAudit struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Claims      SessionClaims     `json:"claims"`
	Expired     bool              `json:"expired"`
	Sources     ResolutionSources `json:"sources"`
	Candidates  []CandidateAudit  `json:"candidates"`
	Resolved    EffectiveContext  `json:"resolved"`
}

// AuditResolution assembles the diagnostics snapshot for a resolution that
// already happened. Pure data aggregation, no decisions of its own.
func AuditResolution(claims SessionClaims, sources ResolutionSources, resolved EffectiveContext) ResolutionAudit {
	candidates := []candidate{
		{SourceClaim, claims.CompanyID},
		{SourceImpersonation, sources.ImpersonationTargetID},
		{SourceTenantSession, sources.TenantSessionCompanyID},
		{SourceEmployee, sources.EmployeeCompanyID},
	}

	audit := ResolutionAudit{
		GeneratedAt: time.Now(),
		Claims:      claims,
		Expired:     resolved.IsExpired,
		Sources:     sources,
		Resolved:    resolved,
	}

	for _, c := range candidates {
		audit.Candidates = append(audit.Candidates, CandidateAudit{
			Source:    c.source,
			CompanyID: c.companyID,
			Selected:  c.source == resolved.Source,
		})
	}

	return audit
}
