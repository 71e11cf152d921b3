package tenant

import "time"

// Company is a tenant row.
type Company struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Company) TableName() string {
	return "companies"
}

// Employee maps a user to the company they belong to. This is the lowest
// precedence tenant signal.
type Employee struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          string     `gorm:"column:user_id;not null"`
	CompanyID       string     `gorm:"column:company_id;not null"`
	WorkTimeModelID *string    `gorm:"column:work_time_model_id"`
	HiredAt         *time.Time `gorm:"column:hired_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

// ImpersonationSession is an active or ended impersonation by a super admin.
type ImpersonationSession struct {
	ID              string     `gorm:"primaryKey;column:id"`
	AdminUserID     string     `gorm:"column:admin_user_id;not null"`
	TargetCompanyID string     `gorm:"column:target_company_id;not null"`
	StartedAt       time.Time  `gorm:"column:started_at;default:now()"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
}

func (ImpersonationSession) TableName() string {
	return "impersonation_sessions"
}

// TenantSession is a super admin switched into tenant mode for a company.
type TenantSession struct {
	ID        string     `gorm:"primaryKey;column:id"`
	UserID    string     `gorm:"column:user_id;not null"`
	CompanyID string     `gorm:"column:company_id;not null"`
	StartedAt time.Time  `gorm:"column:started_at;default:now()"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

func (TenantSession) TableName() string {
	return "tenant_sessions"
}
