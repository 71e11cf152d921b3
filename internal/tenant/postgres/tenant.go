package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	tenantDatamodel "github.com/frahmantamala/workforce-management/internal/core/datamodel/tenant"
	"github.com/frahmantamala/workforce-management/internal/tenant"
)

// TenantRepository implements the tenant.Repository interface using GORM.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) tenant.Repository {
	return &TenantRepository{db: db}
}

// ActiveImpersonationTarget returns the company the admin is currently
// impersonating, or empty when no session is open.
func (r *TenantRepository) ActiveImpersonationTarget(ctx context.Context, adminUserID string) (string, error) {
	var session tenantDatamodel.ImpersonationSession
	err := r.db.WithContext(ctx).
		Where("admin_user_id = ? AND ended_at IS NULL", adminUserID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return session.TargetCompanyID, nil
}

// ActiveTenantSessionCompany returns the company of the user's open tenant
// session, or empty when none exists.
func (r *TenantRepository) ActiveTenantSessionCompany(ctx context.Context, userID string) (string, error) {
	var session tenantDatamodel.TenantSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return session.CompanyID, nil
}

// EmployeeCompany returns the company the user's employee record belongs to,
// or empty when the user has no employee record.
func (r *TenantRepository) EmployeeCompany(ctx context.Context, userID string) (string, error) {
	var employee tenantDatamodel.Employee
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return employee.CompanyID, nil
}

func (r *TenantRepository) CompanyExists(ctx context.Context, companyID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&tenantDatamodel.Company{}).
		Where("id = ? AND is_active = ?", companyID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TenantRepository) CreateImpersonation(ctx context.Context, session *tenant.ImpersonationSession) error {
	row := &tenantDatamodel.ImpersonationSession{
		ID:              session.ID,
		AdminUserID:     session.AdminUserID,
		TargetCompanyID: session.TargetCompanyID,
		StartedAt:       session.StartedAt,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// EndImpersonation closes the admin's open impersonation session and returns
// the company that was being impersonated.
func (r *TenantRepository) EndImpersonation(ctx context.Context, adminUserID string, endedAt time.Time) (string, error) {
	var session tenantDatamodel.ImpersonationSession
	err := r.db.WithContext(ctx).
		Where("admin_user_id = ? AND ended_at IS NULL", adminUserID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tenant.ErrNoActiveSession
		}
		return "", err
	}

	err = r.db.WithContext(ctx).
		Model(&tenantDatamodel.ImpersonationSession{}).
		Where("id = ?", session.ID).
		Update("ended_at", endedAt).Error
	if err != nil {
		return "", err
	}
	return session.TargetCompanyID, nil
}

func (r *TenantRepository) CreateTenantSession(ctx context.Context, session *tenant.TenantSession) error {
	row := &tenantDatamodel.TenantSession{
		ID:        session.ID,
		UserID:    session.UserID,
		CompanyID: session.CompanyID,
		StartedAt: session.StartedAt,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// EndTenantSession closes the user's open tenant session and returns the
// company it pointed at.
func (r *TenantRepository) EndTenantSession(ctx context.Context, userID string, endedAt time.Time) (string, error) {
	var session tenantDatamodel.TenantSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tenant.ErrNoActiveSession
		}
		return "", err
	}

	err = r.db.WithContext(ctx).
		Model(&tenantDatamodel.TenantSession{}).
		Where("id = ?", session.ID).
		Update("ended_at", endedAt).Error
	if err != nil {
		return "", err
	}
	return session.CompanyID, nil
}
