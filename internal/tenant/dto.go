package tenant

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// ImpersonateDTO is the request body for starting an impersonation session.
type ImpersonateDTO struct {
	CompanyID string `json:"company_id"`
	Reason    string `json:"reason,omitempty"`
}

func (d ImpersonateDTO) Validate() error {
	if d.CompanyID == "" {
		return ValidationError{Msg: "company_id is required"}
	}
	return nil
}

// TenantSessionDTO is the request body for switching into tenant mode.
type TenantSessionDTO struct {
	CompanyID string `json:"company_id"`
}

func (d TenantSessionDTO) Validate() error {
	if d.CompanyID == "" {
		return ValidationError{Msg: "company_id is required"}
	}
	return nil
}

// ContextResponse is the API shape of a resolved tenant context.
type ContextResponse struct {
	CompanyID    *string `json:"company_id"`
	Source       string  `json:"source"`
	IsSuperAdmin bool    `json:"is_super_admin"`
	IsExpired    bool    `json:"is_expired"`
}

// ToResponse converts the resolver output to its API shape. An unresolved
// company is surfaced as JSON null rather than an empty string.
func (c EffectiveContext) ToResponse() ContextResponse {
	resp := ContextResponse{
		Source:       string(c.Source),
		IsSuperAdmin: c.IsSuperAdmin,
		IsExpired:    c.IsExpired,
	}
	if c.CompanyID != "" {
		companyID := c.CompanyID
		resp.CompanyID = &companyID
	}
	return resp
}
