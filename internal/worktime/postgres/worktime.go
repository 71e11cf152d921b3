package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	tenantDatamodel "github.com/frahmantamala/workforce-management/internal/core/datamodel/tenant"
	worktimeDatamodel "github.com/frahmantamala/workforce-management/internal/core/datamodel/worktime"
	"github.com/frahmantamala/workforce-management/internal/worktime"
)

// TimeEntryRepository implements the worktime.Repository interface using GORM.
type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) worktime.Repository {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) Create(ctx context.Context, entry *worktime.TimeEntry) error {
	row := worktime.ToDataModel(entry)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	return nil
}

func (r *TimeEntryRepository) GetByID(ctx context.Context, id int64) (*worktime.TimeEntry, error) {
	var row worktimeDatamodel.TimeEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, worktime.ErrEntryNotFound
		}
		return nil, err
	}
	return worktime.FromDataModel(&row), nil
}

func (r *TimeEntryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*worktime.TimeEntry, error) {
	var rows []worktimeDatamodel.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*worktime.TimeEntry, len(rows))
	for i := range rows {
		entries[i] = worktime.FromDataModel(&rows[i])
	}
	return entries, nil
}

// HistoryForUser returns the user's full entry history, newest first. The
// rest-period rule needs to look beyond the current week, so no window is
// applied here.
func (r *TimeEntryRepository) HistoryForUser(ctx context.Context, userID string) ([]*worktime.TimeEntry, error) {
	var rows []worktimeDatamodel.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*worktime.TimeEntry, len(rows))
	for i := range rows {
		entries[i] = worktime.FromDataModel(&rows[i])
	}
	return entries, nil
}

func (r *TimeEntryRepository) Update(ctx context.Context, entry *worktime.TimeEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(worktime.ToDataModel(entry)).Error
}

func (r *TimeEntryRepository) ModelIDForUser(ctx context.Context, userID string) (string, error) {
	var employee tenantDatamodel.Employee
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if employee.WorkTimeModelID == nil {
		return "", nil
	}
	return *employee.WorkTimeModelID, nil
}

func (r *TimeEntryRepository) AssignModelToUser(ctx context.Context, userID, modelID string) error {
	result := r.db.WithContext(ctx).
		Model(&tenantDatamodel.Employee{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"work_time_model_id": modelID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return worktime.ErrNoEmployeeRow
	}
	return nil
}

// WorkTimeModelRepository implements worktime.ModelRepository using GORM.
type WorkTimeModelRepository struct {
	db *gorm.DB
}

func NewWorkTimeModelRepository(db *gorm.DB) worktime.ModelRepository {
	return &WorkTimeModelRepository{db: db}
}

func (r *WorkTimeModelRepository) Save(ctx context.Context, model worktime.WorkTimeModel) error {
	return r.db.WithContext(ctx).Save(worktime.ModelToDataModel(model)).Error
}

func (r *WorkTimeModelRepository) All(ctx context.Context) ([]worktime.WorkTimeModel, error) {
	var rows []worktimeDatamodel.WorkTimeModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	models := make([]worktime.WorkTimeModel, len(rows))
	for i := range rows {
		models[i] = worktime.ModelFromDataModel(&rows[i])
	}
	return models, nil
}
