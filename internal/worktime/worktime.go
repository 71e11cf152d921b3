package worktime

import (
	"errors"
	"time"

	worktimeDatamodel "github.com/frahmantamala/workforce-management/internal/core/datamodel/worktime"
)

// TimeEntry is one working-time interval of a user. EndTime nil means the
// entry is still open.
type TimeEntry struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	CompanyID    string     `json:"company_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (e *TimeEntry) IsOpen() bool {
	return e.EndTime == nil
}

// WorkHours returns the net worked hours of a closed entry: the gross span
// minus the recorded break. Open entries have no determinate duration and
// report zero.
func (e *TimeEntry) WorkHours() float64 {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime).Hours() - float64(e.BreakMinutes)/60
}

// SameISOWeek reports whether the entry starts in the ISO week (Monday to
// Sunday) containing the given time.
func (e *TimeEntry) SameISOWeek(t time.Time) bool {
	entryYear, entryWeek := e.StartTime.ISOWeek()
	year, week := t.ISOWeek()
	return entryYear == year && entryWeek == week
}

var (
	ErrEntryNotFound  = errors.New("time entry not found")
	ErrNoEmployeeRow  = errors.New("no employee record for user")
	ErrEntryNotOwned  = errors.New("time entry belongs to another user")
	ErrEntryClosed    = errors.New("time entry is already closed")
	ErrModelNotFound  = errors.New("work time model not found")
	ErrModelExists    = errors.New("work time model already registered")
	ErrInvalidModelID = errors.New("work time model id is required")
)

func ToDataModel(e *TimeEntry) *worktimeDatamodel.TimeEntry {
	return &worktimeDatamodel.TimeEntry{
		ID:           e.ID,
		UserID:       e.UserID,
		CompanyID:    e.CompanyID,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		BreakMinutes: e.BreakMinutes,
		Description:  e.Description,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModel(e *worktimeDatamodel.TimeEntry) *TimeEntry {
	return &TimeEntry{
		ID:           e.ID,
		UserID:       e.UserID,
		CompanyID:    e.CompanyID,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		BreakMinutes: e.BreakMinutes,
		Description:  e.Description,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
