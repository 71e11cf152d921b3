package worktime

import (
	"fmt"
	"time"
)

// Statutory thresholds from the German Arbeitszeitgesetz. The 8h daily and
// 48h weekly figures apply regardless of the contractual model.
const (
	statutoryDailyHours  = 8.0
	statutoryWeeklyHours = 48.0
	minRestHours         = 11.0
)

// Issue codes, stable identifiers for callers that map them to UI severity.
const (
	IssueDailyCapExceeded    = "daily_cap_exceeded"
	IssueDailyLimitExceeded  = "statutory_daily_limit_exceeded"
	IssueBreakAfter9h        = "break_below_minimum_9h"
	IssueBreakAfter6h        = "break_below_minimum_6h"
	IssueRestPeriodTooShort  = "rest_period_too_short"
	IssueWeeklyCapExceeded   = "weekly_cap_exceeded"
	IssueWeeklyTargetReached = "weekly_target_exceeded"
	IssueCoreTimeNotCovered  = "core_time_not_covered"
)

type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of validating one time entry. Errors are hard
// statutory violations and block persistence; warnings and suggestions never
// do. IsValid holds exactly when Errors is empty.
type Result struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []Issue  `json:"errors"`
	Warnings    []Issue  `json:"warnings"`
	Suggestions []string `json:"suggestions"`
	WorkHours   float64  `json:"work_hours"`
	WeekHours   float64  `json:"week_hours"`
}

func (r *Result) addError(code, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addWarning(code, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Validate checks one candidate entry against a work-time model and the
// user's entry history. It is pure: no I/O, no mutation of its inputs, and it
// never panics; every independent violation accumulates its own error instead
// of short-circuiting. History may contain the candidate itself (matched by
// ID); it is skipped so totals are not double counted.
func Validate(entry TimeEntry, model WorkTimeModel, history []TimeEntry) Result {
	result := Result{IsValid: true}

	// Open entries have no determinate duration yet.
	if entry.EndTime == nil {
		return result
	}

	workHours := entry.WorkHours()
	result.WorkHours = workHours

	if workHours > model.MaxDailyHours {
		result.addError(IssueDailyCapExceeded,
			"daily working time of %.2fh exceeds the %.1fh cap", workHours, model.MaxDailyHours)
	} else if workHours > statutoryDailyHours {
		result.addWarning(IssueDailyLimitExceeded,
			"daily working time of %.2fh exceeds the regular 8h limit", workHours)
	}

	// Break minima are mutually exclusive, most restrictive first.
	if workHours > 9 && entry.BreakMinutes < model.BreakRules.MinBreakAfter9h {
		result.addError(IssueBreakAfter9h,
			"over 9h worked requires at least %d min break, got %d", model.BreakRules.MinBreakAfter9h, entry.BreakMinutes)
	} else if workHours > 6 && entry.BreakMinutes < model.BreakRules.MinBreakAfter6h {
		result.addError(IssueBreakAfter6h,
			"over 6h worked requires at least %d min break, got %d", model.BreakRules.MinBreakAfter6h, entry.BreakMinutes)
	}

	if prior := previousDayEnd(entry, history); prior != nil {
		restHours := entry.StartTime.Sub(*prior).Hours()
		if restHours < minRestHours {
			result.addError(IssueRestPeriodTooShort,
				"rest period of %.2fh is below the statutory %.0fh minimum", restHours, minRestHours)
		}
	}

	weekHours := workHours
	for i := range history {
		e := &history[i]
		if entry.ID != 0 && e.ID == entry.ID {
			continue
		}
		if e.SameISOWeek(entry.StartTime) {
			weekHours += e.WorkHours()
		}
	}
	result.WeekHours = weekHours

	if weekHours > statutoryWeeklyHours {
		result.addError(IssueWeeklyCapExceeded,
			"weekly working time of %.2fh exceeds the statutory %.0fh cap", weekHours, statutoryWeeklyHours)
	} else if weekHours > model.WeeklyHours {
		result.addWarning(IssueWeeklyTargetReached,
			"weekly working time of %.2fh exceeds the contractual %.1fh target", weekHours, model.WeeklyHours)
	}

	if model.Type == ModelFlexTime && model.HasCoreTime() {
		if !coversCoreTime(entry, model) {
			result.addWarning(IssueCoreTimeNotCovered,
				"entry does not cover the core time window %s-%s", model.CoreTimeStart, model.CoreTimeEnd)
		}
	}

	if workHours < model.DailyHours*0.8 {
		result.Suggestions = append(result.Suggestions,
			"worked time is well below the daily target, consider reviewing your planning")
	}
	if entry.BreakMinutes == 0 && workHours > 4 {
		result.Suggestions = append(result.Suggestions,
			"no break recorded for over 4h of work, consider recording one")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// previousDayEnd finds the end of the most recent prior entry that ended on a
// different calendar day than the candidate starts on. Entries ending earlier
// the same calendar day do not count toward the rest period.
func previousDayEnd(entry TimeEntry, history []TimeEntry) *time.Time {
	var latest *time.Time
	for i := range history {
		e := &history[i]
		if e.EndTime == nil {
			continue
		}
		if entry.ID != 0 && e.ID == entry.ID {
			continue
		}
		if !e.EndTime.Before(entry.StartTime) {
			continue
		}
		if sameCalendarDay(*e.EndTime, entry.StartTime) {
			continue
		}
		if latest == nil || e.EndTime.After(*latest) {
			latest = e.EndTime
		}
	}
	return latest
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// coversCoreTime reports whether the entry's clock-time span fully contains
// the model's core window. Comparison is on minutes of day.
func coversCoreTime(entry TimeEntry, model WorkTimeModel) bool {
	coreStart, err := parseClockMinutes(model.CoreTimeStart)
	if err != nil {
		return true
	}
	coreEnd, err := parseClockMinutes(model.CoreTimeEnd)
	if err != nil {
		return true
	}

	entryStart := entry.StartTime.Hour()*60 + entry.StartTime.Minute()
	entryEnd := entry.EndTime.Hour()*60 + entry.EndTime.Minute()

	return entryStart <= coreStart && entryEnd >= coreEnd
}

func parseClockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
