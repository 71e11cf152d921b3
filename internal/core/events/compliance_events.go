package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTimeEntryFlagged     = "time_entry.flagged"
	EventTypeImpersonationStarted  = "tenant.impersonation_started"
	EventTypeImpersonationStopped  = "tenant.impersonation_stopped"
	EventTypeTenantSessionStarted  = "tenant.session_started"
	EventTypeTenantSessionStopped  = "tenant.session_stopped"
)

// TimeEntryFlaggedEvent is published when a persisted time entry carried
// warnings, so compliance reviewers get an audit trail without blocking the
// employee.
type TimeEntryFlaggedEvent struct {
	BaseEvent
	EntryID   int64    `json:"entry_id"`
	UserID    string   `json:"user_id"`
	CompanyID string   `json:"company_id"`
	WorkHours float64  `json:"work_hours"`
	Warnings  []string `json:"warnings"`
}

func NewTimeEntryFlaggedEvent(entryID int64, userID, companyID string, workHours float64, warnings []string) *TimeEntryFlaggedEvent {
	return &TimeEntryFlaggedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTimeEntryFlagged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":   entryID,
				"user_id":    userID,
				"company_id": companyID,
				"work_hours": workHours,
				"warnings":   warnings,
			},
		},
		EntryID:   entryID,
		UserID:    userID,
		CompanyID: companyID,
		WorkHours: workHours,
		Warnings:  warnings,
	}
}

type ImpersonationEvent struct {
	BaseEvent
	AdminUserID     string `json:"admin_user_id"`
	TargetCompanyID string `json:"target_company_id"`
}

func NewImpersonationStartedEvent(adminUserID, targetCompanyID string) *ImpersonationEvent {
	return newImpersonationEvent(EventTypeImpersonationStarted, adminUserID, targetCompanyID)
}

func NewImpersonationStoppedEvent(adminUserID, targetCompanyID string) *ImpersonationEvent {
	return newImpersonationEvent(EventTypeImpersonationStopped, adminUserID, targetCompanyID)
}

func newImpersonationEvent(eventType, adminUserID, targetCompanyID string) *ImpersonationEvent {
	return &ImpersonationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"admin_user_id":     adminUserID,
				"target_company_id": targetCompanyID,
			},
		},
		AdminUserID:     adminUserID,
		TargetCompanyID: targetCompanyID,
	}
}

type TenantSessionEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
}

func NewTenantSessionStartedEvent(userID, companyID string) *TenantSessionEvent {
	return newTenantSessionEvent(EventTypeTenantSessionStarted, userID, companyID)
}

func NewTenantSessionStoppedEvent(userID, companyID string) *TenantSessionEvent {
	return newTenantSessionEvent(EventTypeTenantSessionStopped, userID, companyID)
}

func newTenantSessionEvent(eventType, userID, companyID string) *TenantSessionEvent {
	return &TenantSessionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"company_id": companyID,
			},
		},
		UserID:    userID,
		CompanyID: companyID,
	}
}
