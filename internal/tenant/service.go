package tenant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/core/events"
)

// Repository is the persistence boundary for the lookup tables feeding the
// resolver, plus the session rows mutated by impersonation and tenant mode.
type Repository interface {
	ActiveImpersonationTarget(ctx context.Context, adminUserID string) (string, error)
	ActiveTenantSessionCompany(ctx context.Context, userID string) (string, error)
	EmployeeCompany(ctx context.Context, userID string) (string, error)
	CompanyExists(ctx context.Context, companyID string) (bool, error)

	CreateImpersonation(ctx context.Context, session *ImpersonationSession) error
	EndImpersonation(ctx context.Context, adminUserID string, endedAt time.Time) (string, error)
	CreateTenantSession(ctx context.Context, session *TenantSession) error
	EndTenantSession(ctx context.Context, userID string, endedAt time.Time) (string, error)
}

type ServiceAPI interface {
	ResolveForToken(ctx context.Context, token string) EffectiveContext
	AuditForToken(ctx context.Context, token string) ResolutionAudit
	StartImpersonation(ctx context.Context, token string, dto ImpersonateDTO) (*ImpersonationSession, error)
	StopImpersonation(ctx context.Context, token string) error
	StartTenantSession(ctx context.Context, token string, dto TenantSessionDTO) (*TenantSession, error)
	StopTenantSession(ctx context.Context, token string) error
}

type Service struct {
	repo   Repository
	events *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventBus,
		logger: logger,
	}
}

// ResolveForToken decodes the token, gathers the lookup sources for its
// subject, and runs the precedence resolver. It degrades instead of failing:
// a malformed token or a broken lookup yields an unprivileged context, never
// an error. A broken token must mean no access, not a 500.
func (s *Service) ResolveForToken(ctx context.Context, token string) EffectiveContext {
	claims, sources := s.gatherSources(ctx, token)
	return ResolveEffectiveTenant(claims, sources)
}

// AuditForToken returns the diagnostics snapshot for the same resolution
// ResolveForToken would perform.
func (s *Service) AuditForToken(ctx context.Context, token string) ResolutionAudit {
	claims, sources := s.gatherSources(ctx, token)
	resolved := ResolveEffectiveTenant(claims, sources)
	return AuditResolution(claims, sources, resolved)
}

func (s *Service) gatherSources(ctx context.Context, token string) (SessionClaims, ResolutionSources) {
	claims, err := DecodeSessionClaims(token)
	if err != nil {
		s.logger.Warn("session token could not be decoded", "error", err)
		return SessionClaims{}, ResolutionSources{}
	}

	var sources ResolutionSources
	if claims.SubjectID == "" {
		return claims, sources
	}

	if target, err := s.repo.ActiveImpersonationTarget(ctx, claims.SubjectID); err != nil {
		s.logger.Warn("impersonation lookup failed", "error", err, "user_id", claims.SubjectID)
	} else {
		sources.ImpersonationTargetID = target
	}

	if companyID, err := s.repo.ActiveTenantSessionCompany(ctx, claims.SubjectID); err != nil {
		s.logger.Warn("tenant session lookup failed", "error", err, "user_id", claims.SubjectID)
	} else {
		sources.TenantSessionCompanyID = companyID
	}

	if companyID, err := s.repo.EmployeeCompany(ctx, claims.SubjectID); err != nil {
		s.logger.Warn("employee lookup failed", "error", err, "user_id", claims.SubjectID)
	} else {
		sources.EmployeeCompanyID = companyID
	}

	return claims, sources
}

// StartImpersonation opens an impersonation session for a super admin. Only
// one session may be active per admin; the target company must exist.
func (s *Service) StartImpersonation(ctx context.Context, token string, dto ImpersonateDTO) (*ImpersonationSession, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, resolved, err := s.requireSuperAdmin(ctx, token)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CompanyExists(ctx, dto.CompanyID)
	if err != nil {
		s.logger.Error("company lookup failed", "error", err, "company_id", dto.CompanyID)
		return nil, apperrors.NewInternalError("could not verify company", err)
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("Company not found", apperrors.ErrCodeCompanyNotFound)
	}

	if active, err := s.repo.ActiveImpersonationTarget(ctx, claims.SubjectID); err == nil && active != "" {
		return nil, apperrors.NewConflictError("An impersonation session is already active", apperrors.ErrCodeAlreadyImpersonate)
	}

	session := &ImpersonationSession{
		ID:              uuid.New().String(),
		AdminUserID:     claims.SubjectID,
		TargetCompanyID: dto.CompanyID,
		StartedAt:       time.Now(),
	}

	if err := s.repo.CreateImpersonation(ctx, session); err != nil {
		s.logger.Error("failed to create impersonation session", "error", err, "admin_user_id", claims.SubjectID)
		return nil, apperrors.NewInternalError("could not start impersonation", err)
	}

	s.logger.Info("impersonation started",
		"admin_user_id", claims.SubjectID,
		"target_company_id", dto.CompanyID,
		"previous_source", resolved.Source)

	s.events.Publish(ctx, events.NewImpersonationStartedEvent(claims.SubjectID, dto.CompanyID))

	return session, nil
}

// StopImpersonation ends the admin's active impersonation session.
func (s *Service) StopImpersonation(ctx context.Context, token string) error {
	claims, _, err := s.requireSuperAdmin(ctx, token)
	if err != nil {
		return err
	}

	target, err := s.repo.EndImpersonation(ctx, claims.SubjectID, time.Now())
	if err != nil {
		if err == ErrNoActiveSession {
			return apperrors.NewNotFoundError("No active impersonation session", apperrors.ErrCodeSessionNotFound)
		}
		s.logger.Error("failed to end impersonation session", "error", err, "admin_user_id", claims.SubjectID)
		return apperrors.NewInternalError("could not stop impersonation", err)
	}

	s.logger.Info("impersonation stopped", "admin_user_id", claims.SubjectID, "target_company_id", target)
	s.events.Publish(ctx, events.NewImpersonationStoppedEvent(claims.SubjectID, target))

	return nil
}

// StartTenantSession switches a super admin into tenant mode for a company.
func (s *Service) StartTenantSession(ctx context.Context, token string, dto TenantSessionDTO) (*TenantSession, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, _, err := s.requireSuperAdmin(ctx, token)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CompanyExists(ctx, dto.CompanyID)
	if err != nil {
		s.logger.Error("company lookup failed", "error", err, "company_id", dto.CompanyID)
		return nil, apperrors.NewInternalError("could not verify company", err)
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("Company not found", apperrors.ErrCodeCompanyNotFound)
	}

	// Switching companies replaces any previous tenant session.
	if _, err := s.repo.EndTenantSession(ctx, claims.SubjectID, time.Now()); err != nil && err != ErrNoActiveSession {
		s.logger.Error("failed to end previous tenant session", "error", err, "user_id", claims.SubjectID)
		return nil, apperrors.NewInternalError("could not switch tenant session", err)
	}

	session := &TenantSession{
		ID:        uuid.New().String(),
		UserID:    claims.SubjectID,
		CompanyID: dto.CompanyID,
		StartedAt: time.Now(),
	}

	if err := s.repo.CreateTenantSession(ctx, session); err != nil {
		s.logger.Error("failed to create tenant session", "error", err, "user_id", claims.SubjectID)
		return nil, apperrors.NewInternalError("could not start tenant session", err)
	}

	s.logger.Info("tenant session started", "user_id", claims.SubjectID, "company_id", dto.CompanyID)
	s.events.Publish(ctx, events.NewTenantSessionStartedEvent(claims.SubjectID, dto.CompanyID))

	return session, nil
}

// StopTenantSession ends the caller's active tenant session.
func (s *Service) StopTenantSession(ctx context.Context, token string) error {
	claims, _, err := s.requireSuperAdmin(ctx, token)
	if err != nil {
		return err
	}

	companyID, err := s.repo.EndTenantSession(ctx, claims.SubjectID, time.Now())
	if err != nil {
		if err == ErrNoActiveSession {
			return apperrors.NewNotFoundError("No active tenant session", apperrors.ErrCodeSessionNotFound)
		}
		s.logger.Error("failed to end tenant session", "error", err, "user_id", claims.SubjectID)
		return apperrors.NewInternalError("could not stop tenant session", err)
	}

	s.logger.Info("tenant session stopped", "user_id", claims.SubjectID, "company_id", companyID)
	s.events.Publish(ctx, events.NewTenantSessionStoppedEvent(claims.SubjectID, companyID))

	return nil
}

func (s *Service) requireSuperAdmin(ctx context.Context, token string) (SessionClaims, EffectiveContext, error) {
	claims, sources := s.gatherSources(ctx, token)
	resolved := ResolveEffectiveTenant(claims, sources)

	if claims.SubjectID == "" || !resolved.IsSuperAdmin {
		s.logger.Warn("super admin action denied",
			"user_id", claims.SubjectID,
			"role", claims.Role,
			"source", resolved.Source)
		return claims, resolved, apperrors.ErrNotSuperAdmin
	}

	return claims, resolved, nil
}
