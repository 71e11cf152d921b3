package worktime

import (
	"fmt"
	"sort"
	"sync"

	worktimeDatamodel "github.com/frahmantamala/workforce-management/internal/core/datamodel/worktime"
)

// ModelType classifies a work-time model.
type ModelType string

const (
	ModelFlexTime         ModelType = "flex_time"
	ModelFixedTime        ModelType = "fixed_time"
	ModelTrustTime        ModelType = "trust_time"
	ModelShiftWork        ModelType = "shift_work"
	ModelPartTime         ModelType = "part_time"
	ModelOnCall           ModelType = "on_call"
	ModelIndustrySpecific ModelType = "industry_specific"
)

var validModelTypes = map[ModelType]struct{}{
	ModelFlexTime:         {},
	ModelFixedTime:        {},
	ModelTrustTime:        {},
	ModelShiftWork:        {},
	ModelPartTime:         {},
	ModelOnCall:           {},
	ModelIndustrySpecific: {},
}

// BreakRules holds the statutory break minima in minutes, keyed by the worked
// duration that triggers them.
type BreakRules struct {
	MinBreakAfter6h int `json:"min_break_after_6h"`
	MinBreakAfter9h int `json:"min_break_after_9h"`
}

// WorkTimeModel is a named ruleset the validator evaluates entries against.
// DailyHours and WeeklyHours are contractual targets; the Max values are hard
// caps. CoreTime fields are "HH:MM" clock times and only meaningful for
// flex_time models; empty means no core-time window.
type WorkTimeModel struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           ModelType  `json:"type"`
	DailyHours     float64    `json:"daily_hours"`
	WeeklyHours    float64    `json:"weekly_hours"`
	MaxDailyHours  float64    `json:"max_daily_hours"`
	MaxWeeklyHours float64    `json:"max_weekly_hours"`
	BreakRules     BreakRules `json:"break_rules"`
	CoreTimeStart  string     `json:"core_time_start,omitempty"`
	CoreTimeEnd    string     `json:"core_time_end,omitempty"`
}

func (m WorkTimeModel) HasCoreTime() bool {
	return m.CoreTimeStart != "" && m.CoreTimeEnd != ""
}

func (m WorkTimeModel) Validate() error {
	if m.ID == "" {
		return ErrInvalidModelID
	}
	if _, ok := validModelTypes[m.Type]; !ok {
		return fmt.Errorf("unknown model type %q", m.Type)
	}
	if m.MaxDailyHours < m.DailyHours {
		return fmt.Errorf("max daily hours (%.1f) below daily target (%.1f)", m.MaxDailyHours, m.DailyHours)
	}
	if m.MaxWeeklyHours < m.WeeklyHours {
		return fmt.Errorf("max weekly hours (%.1f) below weekly target (%.1f)", m.MaxWeeklyHours, m.WeeklyHours)
	}
	return nil
}

// Registry is a caller-owned catalog of work-time models. It is deliberately
// not a package-level singleton so tests and tenants can hold isolated
// catalogs. Models are never deleted, only added.
type Registry struct {
	mu     sync.RWMutex
	models map[string]WorkTimeModel
}

func NewRegistry(models ...WorkTimeModel) *Registry {
	r := &Registry{models: make(map[string]WorkTimeModel, len(models))}
	for _, m := range models {
		r.models[m.ID] = m
	}
	return r
}

func (r *Registry) Register(m WorkTimeModel) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.ID]; exists {
		return ErrModelExists
	}
	r.models[m.ID] = m
	return nil
}

func (r *Registry) Get(id string) (WorkTimeModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	return m, ok
}

func (r *Registry) List() []WorkTimeModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]WorkTimeModel, 0, len(r.models))
	for _, m := range r.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// DefaultModelID is assigned to employees without an explicit model.
const DefaultModelID = "flex-standard"

// DefaultModels is the seed catalog. Break minima follow ArbZG §4 (30 min
// over six hours, 45 min over nine); the weekly hard cap of 48 hours is
// enforced by the validator itself regardless of model.
func DefaultModels() []WorkTimeModel {
	return []WorkTimeModel{
		{
			ID:             "flex-standard",
			Name:           "Gleitzeit Standard",
			Type:           ModelFlexTime,
			DailyHours:     8,
			WeeklyHours:    40,
			MaxDailyHours:  10,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
			CoreTimeStart:  "09:00",
			CoreTimeEnd:    "15:00",
		},
		{
			ID:             "fixed-standard",
			Name:           "Festarbeitszeit Standard",
			Type:           ModelFixedTime,
			DailyHours:     8,
			WeeklyHours:    40,
			MaxDailyHours:  10,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
		},
		{
			ID:             "trust-based",
			Name:           "Vertrauensarbeitszeit",
			Type:           ModelTrustTime,
			DailyHours:     8,
			WeeklyHours:    40,
			MaxDailyHours:  10,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
		},
		{
			ID:             "shift-rotating",
			Name:           "Wechselschicht",
			Type:           ModelShiftWork,
			DailyHours:     7.7,
			WeeklyHours:    38.5,
			MaxDailyHours:  10,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
		},
		{
			ID:             "part-time-20",
			Name:           "Teilzeit 20h",
			Type:           ModelPartTime,
			DailyHours:     4,
			WeeklyHours:    20,
			MaxDailyHours:  10,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
		},
		{
			ID:             "on-call-duty",
			Name:           "Rufbereitschaft",
			Type:           ModelOnCall,
			DailyHours:     8,
			WeeklyHours:    40,
			MaxDailyHours:  12,
			MaxWeeklyHours: 48,
			BreakRules:     BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
		},
	}
}

func ModelToDataModel(m WorkTimeModel) *worktimeDatamodel.WorkTimeModel {
	return &worktimeDatamodel.WorkTimeModel{
		ID:              m.ID,
		Name:            m.Name,
		Type:            string(m.Type),
		DailyHours:      m.DailyHours,
		WeeklyHours:     m.WeeklyHours,
		MaxDailyHours:   m.MaxDailyHours,
		MaxWeeklyHours:  m.MaxWeeklyHours,
		MinBreakAfter6h: m.BreakRules.MinBreakAfter6h,
		MinBreakAfter9h: m.BreakRules.MinBreakAfter9h,
		CoreTimeStart:   m.CoreTimeStart,
		CoreTimeEnd:     m.CoreTimeEnd,
	}
}

func ModelFromDataModel(m *worktimeDatamodel.WorkTimeModel) WorkTimeModel {
	return WorkTimeModel{
		ID:             m.ID,
		Name:           m.Name,
		Type:           ModelType(m.Type),
		DailyHours:     m.DailyHours,
		WeeklyHours:    m.WeeklyHours,
		MaxDailyHours:  m.MaxDailyHours,
		MaxWeeklyHours: m.MaxWeeklyHours,
		BreakRules: BreakRules{
			MinBreakAfter6h: m.MinBreakAfter6h,
			MinBreakAfter9h: m.MinBreakAfter9h,
		},
		CoreTimeStart: m.CoreTimeStart,
		CoreTimeEnd:   m.CoreTimeEnd,
	}
}
