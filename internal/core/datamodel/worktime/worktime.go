package worktime

import "time"

// TimeEntry is a persisted working-time interval. A NULL end_time means the
// entry is still open.
type TimeEntry struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       string     `gorm:"column:user_id;not null"`
	CompanyID    string     `gorm:"column:company_id;not null"`
	StartTime    time.Time  `gorm:"column:start_time;not null"`
	EndTime      *time.Time `gorm:"column:end_time"`
	BreakMinutes int        `gorm:"column:break_minutes;default:0"`
	Description  string     `gorm:"column:description"`
	CreatedAt    time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;default:now()"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// WorkTimeModel is a persisted statutory/contractual ruleset. Break minima are
// stored flat; the core-time columns are empty for models without a window.
type WorkTimeModel struct {
	ID              string    `gorm:"primaryKey;column:id"`
	Name            string    `gorm:"column:name;not null"`
	Type            string    `gorm:"column:type;not null"`
	DailyHours      float64   `gorm:"column:daily_hours;not null"`
	WeeklyHours     float64   `gorm:"column:weekly_hours;not null"`
	MaxDailyHours   float64   `gorm:"column:max_daily_hours;not null"`
	MaxWeeklyHours  float64   `gorm:"column:max_weekly_hours;not null"`
	MinBreakAfter6h int       `gorm:"column:min_break_after_6h;not null"`
	MinBreakAfter9h int       `gorm:"column:min_break_after_9h;not null"`
	CoreTimeStart   string    `gorm:"column:core_time_start"`
	CoreTimeEnd     string    `gorm:"column:core_time_end"`
	CreatedAt       time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time `gorm:"column:updated_at;default:now()"`
}

func (WorkTimeModel) TableName() string {
	return "work_time_models"
}
