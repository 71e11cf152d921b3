package worktime

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/core/events"
)

// Repository is the persistence boundary for time entries and the employee
// model assignment.
type Repository interface {
	Create(ctx context.Context, entry *TimeEntry) error
	GetByID(ctx context.Context, id int64) (*TimeEntry, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*TimeEntry, error)
	HistoryForUser(ctx context.Context, userID string) ([]*TimeEntry, error)
	Update(ctx context.Context, entry *TimeEntry) error
	ModelIDForUser(ctx context.Context, userID string) (string, error)
	AssignModelToUser(ctx context.Context, userID, modelID string) error
}

// ModelRepository persists custom work-time models across restarts; the
// in-memory registry stays the runtime source of truth.
type ModelRepository interface {
	Save(ctx context.Context, model WorkTimeModel) error
	All(ctx context.Context) ([]WorkTimeModel, error)
}

type ServiceAPI interface {
	CreateEntry(ctx context.Context, userID, companyID string, dto CreateTimeEntryDTO) (*TimeEntry, *Result, error)
	ValidateEntry(ctx context.Context, userID string, dto CreateTimeEntryDTO) (*Result, error)
	CloseEntry(ctx context.Context, userID string, entryID int64, dto CloseTimeEntryDTO) (*TimeEntry, *Result, error)
	ListEntries(ctx context.Context, userID string, limit, offset int) ([]*TimeEntry, error)
	WeeklySummary(ctx context.Context, userID string, at time.Time) (*WeeklySummary, error)
	Models() []WorkTimeModel
	AddModel(ctx context.Context, dto CreateModelDTO) (WorkTimeModel, error)
	AssignModel(ctx context.Context, userID string, dto AssignModelDTO) error
}

// Service evaluates and persists time entries. Validation always runs before
// persistence: hard errors block the write, warnings are persisted but
// published as compliance events.
type Service struct {
	repo      Repository
	modelRepo ModelRepository
	registry  *Registry
	events    *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, modelRepo ModelRepository, registry *Registry, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		modelRepo: modelRepo,
		registry:  registry,
		events:    eventBus,
		logger:    logger,
	}
}

// LoadPersistedModels merges custom models stored in the database into the
// registry. Called once at startup after seeding the defaults.
func (s *Service) LoadPersistedModels(ctx context.Context) error {
	models, err := s.modelRepo.All(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		if err := s.registry.Register(m); err != nil && err != ErrModelExists {
			s.logger.Warn("skipping persisted model", "model_id", m.ID, "error", err)
		}
	}
	s.logger.Info("work time model catalog loaded", "models", s.registry.Len())
	return nil
}

// CreateEntry validates and persists a new time entry. The returned Result is
// non-nil for closed entries even on success so callers can surface warnings.
func (s *Service) CreateEntry(ctx context.Context, userID, companyID string, dto CreateTimeEntryDTO) (*TimeEntry, *Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}

	entry := &TimeEntry{
		UserID:       userID,
		CompanyID:    companyID,
		StartTime:    dto.StartTime,
		EndTime:      dto.EndTime,
		BreakMinutes: dto.BreakMinutes,
		Description:  dto.Description,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	result, err := s.evaluate(ctx, userID, *entry)
	if err != nil {
		return nil, nil, err
	}

	if !result.IsValid {
		s.logger.Warn("time entry blocked by statutory violation",
			"user_id", userID,
			"work_hours", result.WorkHours,
			"errors", len(result.Errors))
		return nil, &result, apperrors.NewComplianceError("time entry violates statutory working time limits", result)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to create time entry", "error", err, "user_id", userID)
		return nil, nil, apperrors.NewInternalError("could not save time entry", err)
	}

	if len(result.Warnings) > 0 {
		warnings := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			warnings[i] = w.Code
		}
		s.events.Publish(ctx, events.NewTimeEntryFlaggedEvent(entry.ID, userID, companyID, result.WorkHours, warnings))
	}

	s.logger.Info("time entry created",
		"entry_id", entry.ID,
		"user_id", userID,
		"work_hours", result.WorkHours,
		"warnings", len(result.Warnings))

	return entry, &result, nil
}

// ValidateEntry runs the compliance check without persisting anything.
func (s *Service) ValidateEntry(ctx context.Context, userID string, dto CreateTimeEntryDTO) (*Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	entry := TimeEntry{
		UserID:       userID,
		StartTime:    dto.StartTime,
		EndTime:      dto.EndTime,
		BreakMinutes: dto.BreakMinutes,
	}

	result, err := s.evaluate(ctx, userID, entry)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CloseEntry sets the end time of a running entry, subject to the same
// validation as creation.
func (s *Service) CloseEntry(ctx context.Context, userID string, entryID int64, dto CloseTimeEntryDTO) (*TimeEntry, *Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}

	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, nil, apperrors.ErrEntryNotFound
	}
	if entry.UserID != userID {
		s.logger.Warn("close denied: entry belongs to another user", "entry_id", entryID, "user_id", userID)
		return nil, nil, apperrors.ErrEntryNotFound
	}
	if !entry.IsOpen() {
		return nil, nil, apperrors.ErrEntryAlreadyDone
	}
	if !dto.EndTime.After(entry.StartTime) {
		return nil, nil, ValidationError{Msg: "end_time must be after start_time"}
	}

	candidate := *entry
	endTime := dto.EndTime
	candidate.EndTime = &endTime
	if dto.BreakMinutes != nil {
		candidate.BreakMinutes = *dto.BreakMinutes
	}

	result, err := s.evaluate(ctx, userID, candidate)
	if err != nil {
		return nil, nil, err
	}

	if !result.IsValid {
		return nil, &result, apperrors.NewComplianceError("closing this entry violates statutory working time limits", result)
	}

	candidate.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, &candidate); err != nil {
		s.logger.Error("failed to close time entry", "error", err, "entry_id", entryID)
		return nil, nil, apperrors.NewInternalError("could not close time entry", err)
	}

	if len(result.Warnings) > 0 {
		warnings := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			warnings[i] = w.Code
		}
		s.events.Publish(ctx, events.NewTimeEntryFlaggedEvent(candidate.ID, userID, candidate.CompanyID, result.WorkHours, warnings))
	}

	return &candidate, &result, nil
}

func (s *Service) ListEntries(ctx context.Context, userID string, limit, offset int) ([]*TimeEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list time entries", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("could not list time entries", err)
	}
	return entries, nil
}

// WeeklySummary totals the ISO week containing the given instant.
func (s *Service) WeeklySummary(ctx context.Context, userID string, at time.Time) (*WeeklySummary, error) {
	model, err := s.modelForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.HistoryForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load entry history", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("could not load entry history", err)
	}

	summary := &WeeklySummary{
		WeekStart:   startOfISOWeek(at),
		TargetHours: model.WeeklyHours,
		MaxHours:    statutoryWeeklyHours,
		ModelID:     model.ID,
	}
	summary.WeekEnd = summary.WeekStart.AddDate(0, 0, 7).Add(-time.Nanosecond)

	for _, e := range history {
		if !e.SameISOWeek(at) {
			continue
		}
		summary.EntryCount++
		if e.IsOpen() {
			summary.OpenEntries++
			continue
		}
		summary.TotalHours += e.WorkHours()
	}

	summary.RemainingHours = statutoryWeeklyHours - summary.TotalHours
	if summary.RemainingHours < 0 {
		summary.RemainingHours = 0
	}
	if summary.TotalHours > model.WeeklyHours {
		summary.OvertimeHours = summary.TotalHours - model.WeeklyHours
	}

	return summary, nil
}

func (s *Service) Models() []WorkTimeModel {
	return s.registry.List()
}

// AddModel registers a custom model and persists it.
func (s *Service) AddModel(ctx context.Context, dto CreateModelDTO) (WorkTimeModel, error) {
	if err := dto.Validate(); err != nil {
		return WorkTimeModel{}, err
	}

	model := dto.ToModel()
	if err := s.registry.Register(model); err != nil {
		if err == ErrModelExists {
			return WorkTimeModel{}, apperrors.NewConflictError("Work time model already exists", apperrors.ErrCodeInvalidModelType)
		}
		return WorkTimeModel{}, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeInvalidModelType)
	}

	if err := s.modelRepo.Save(ctx, model); err != nil {
		s.logger.Error("failed to persist work time model", "error", err, "model_id", model.ID)
		return WorkTimeModel{}, apperrors.NewInternalError("could not save work time model", err)
	}

	s.logger.Info("work time model registered", "model_id", model.ID, "type", model.Type)
	return model, nil
}

// AssignModel binds the user's employee record to a registered model.
func (s *Service) AssignModel(ctx context.Context, userID string, dto AssignModelDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, ok := s.registry.Get(dto.ModelID); !ok {
		return apperrors.ErrModelNotFound
	}

	if err := s.repo.AssignModelToUser(ctx, userID, dto.ModelID); err != nil {
		if err == ErrNoEmployeeRow {
			return apperrors.ErrEmployeeNotFound
		}
		s.logger.Error("failed to assign work time model", "error", err, "user_id", userID, "model_id", dto.ModelID)
		return apperrors.NewInternalError("could not assign work time model", err)
	}

	s.logger.Info("work time model assigned", "user_id", userID, "model_id", dto.ModelID)
	return nil
}

func (s *Service) evaluate(ctx context.Context, userID string, entry TimeEntry) (Result, error) {
	model, err := s.modelForUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	history, err := s.repo.HistoryForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load entry history", "error", err, "user_id", userID)
		return Result{}, apperrors.NewInternalError("could not load entry history", err)
	}

	entries := make([]TimeEntry, len(history))
	for i, e := range history {
		entries[i] = *e
	}

	return Validate(entry, model, entries), nil
}

func (s *Service) modelForUser(ctx context.Context, userID string) (WorkTimeModel, error) {
	modelID, err := s.repo.ModelIDForUser(ctx, userID)
	if err != nil {
		s.logger.Warn("model lookup failed, falling back to default", "error", err, "user_id", userID)
		modelID = ""
	}
	if modelID == "" {
		modelID = DefaultModelID
	}

	model, ok := s.registry.Get(modelID)
	if !ok {
		// Assigned model vanished from the catalog; the default keeps
		// validation running rather than blocking time tracking.
		s.logger.Warn("assigned model not in registry, using default", "model_id", modelID, "user_id", userID)
		model, ok = s.registry.Get(DefaultModelID)
		if !ok {
			return WorkTimeModel{}, apperrors.ErrModelNotFound
		}
	}
	return model, nil
}

// startOfISOWeek returns midnight on the Monday of the ISO week containing t.
func startOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}
