package worktime

import (
	"time"
)

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// CreateTimeEntryDTO is the request payload for recording a time entry.
// EndTime may be omitted to open a running entry.
type CreateTimeEntryDTO struct {
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	Description  string     `json:"description,omitempty"`
}

func (d CreateTimeEntryDTO) Validate() error {
	if d.StartTime.IsZero() {
		return ValidationError{Msg: "start_time is required"}
	}
	if d.EndTime != nil && !d.EndTime.After(d.StartTime) {
		return ValidationError{Msg: "end_time must be after start_time"}
	}
	if d.BreakMinutes < 0 {
		return ValidationError{Msg: "break_minutes cannot be negative"}
	}
	if d.EndTime != nil {
		span := d.EndTime.Sub(d.StartTime).Minutes()
		if float64(d.BreakMinutes) >= span {
			return ValidationError{Msg: "break_minutes cannot cover the whole entry"}
		}
	}
	return nil
}

// CloseTimeEntryDTO closes a running entry.
type CloseTimeEntryDTO struct {
	EndTime      time.Time `json:"end_time"`
	BreakMinutes *int      `json:"break_minutes,omitempty"`
}

func (d CloseTimeEntryDTO) Validate() error {
	if d.EndTime.IsZero() {
		return ValidationError{Msg: "end_time is required"}
	}
	if d.BreakMinutes != nil && *d.BreakMinutes < 0 {
		return ValidationError{Msg: "break_minutes cannot be negative"}
	}
	return nil
}

// CreateModelDTO registers a custom work-time model.
type CreateModelDTO struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	DailyHours     float64    `json:"daily_hours"`
	WeeklyHours    float64    `json:"weekly_hours"`
	MaxDailyHours  float64    `json:"max_daily_hours"`
	MaxWeeklyHours float64    `json:"max_weekly_hours"`
	BreakRules     BreakRules `json:"break_rules"`
	CoreTimeStart  string     `json:"core_time_start,omitempty"`
	CoreTimeEnd    string     `json:"core_time_end,omitempty"`
}

func (d CreateModelDTO) Validate() error {
	if d.ID == "" {
		return ValidationError{Msg: "id is required"}
	}
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.DailyHours <= 0 || d.WeeklyHours <= 0 {
		return ValidationError{Msg: "daily_hours and weekly_hours must be positive"}
	}
	if (d.CoreTimeStart == "") != (d.CoreTimeEnd == "") {
		return ValidationError{Msg: "core_time_start and core_time_end must be set together"}
	}
	return nil
}

func (d CreateModelDTO) ToModel() WorkTimeModel {
	return WorkTimeModel{
		ID:             d.ID,
		Name:           d.Name,
		Type:           ModelType(d.Type),
		DailyHours:     d.DailyHours,
		WeeklyHours:    d.WeeklyHours,
		MaxDailyHours:  d.MaxDailyHours,
		MaxWeeklyHours: d.MaxWeeklyHours,
		BreakRules:     d.BreakRules,
		CoreTimeStart:  d.CoreTimeStart,
		CoreTimeEnd:    d.CoreTimeEnd,
	}
}

// AssignModelDTO binds an employee to a model.
type AssignModelDTO struct {
	ModelID string `json:"model_id"`
}

func (d AssignModelDTO) Validate() error {
	if d.ModelID == "" {
		return ValidationError{Msg: "model_id is required"}
	}
	return nil
}

// WeeklySummary aggregates one ISO week of a user's entries against their
// model targets.
type WeeklySummary struct {
	WeekStart      time.Time `json:"week_start"`
	WeekEnd        time.Time `json:"week_end"`
	TotalHours     float64   `json:"total_hours"`
	TargetHours    float64   `json:"target_hours"`
	MaxHours       float64   `json:"max_hours"`
	RemainingHours float64   `json:"remaining_hours"`
	OvertimeHours  float64   `json:"overtime_hours"`
	EntryCount     int       `json:"entry_count"`
	OpenEntries    int       `json:"open_entries"`
	ModelID        string    `json:"model_id"`
}
