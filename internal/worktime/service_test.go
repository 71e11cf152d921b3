package worktime_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/core/events"
	"github.com/frahmantamala/workforce-management/internal/worktime"
)

// Mock repository for testing
type mockEntryRepository struct {
	entries     map[int64]*worktime.TimeEntry
	modelByUser map[string]string
	nextID      int64

	createError  error
	historyError error
	updateError  error
	assignError  error
}

func newMockEntryRepository() *mockEntryRepository {
	return &mockEntryRepository{
		entries:     make(map[int64]*worktime.TimeEntry),
		modelByUser: make(map[string]string),
		nextID:      1,
	}
}

func (m *mockEntryRepository) Create(_ context.Context, entry *worktime.TimeEntry) error {
	if m.createError != nil {
		return m.createError
	}
	entry.ID = m.nextID
	m.nextID++
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockEntryRepository) GetByID(_ context.Context, id int64) (*worktime.TimeEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, errors.New("entry not found")
	}
	copied := *entry
	return &copied, nil
}

func (m *mockEntryRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*worktime.TimeEntry, error) {
	var out []*worktime.TimeEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockEntryRepository) HistoryForUser(_ context.Context, userID string) ([]*worktime.TimeEntry, error) {
	if m.historyError != nil {
		return nil, m.historyError
	}
	return m.ListByUser(nil, userID, 0, 0)
}

func (m *mockEntryRepository) Update(_ context.Context, entry *worktime.TimeEntry) error {
	if m.updateError != nil {
		return m.updateError
	}
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockEntryRepository) ModelIDForUser(_ context.Context, userID string) (string, error) {
	return m.modelByUser[userID], nil
}

func (m *mockEntryRepository) AssignModelToUser(_ context.Context, userID, modelID string) error {
	if m.assignError != nil {
		return m.assignError
	}
	m.modelByUser[userID] = modelID
	return nil
}

type mockModelRepository struct {
	saved     []worktime.WorkTimeModel
	saveError error
	allError  error
}

func (m *mockModelRepository) Save(_ context.Context, model worktime.WorkTimeModel) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.saved = append(m.saved, model)
	return nil
}

func (m *mockModelRepository) All(_ context.Context) ([]worktime.WorkTimeModel, error) {
	if m.allError != nil {
		return nil, m.allError
	}
	return m.saved, nil
}

var _ = Describe("WorktimeService", func() {
	var (
		service   *worktime.Service
		mockRepo  *mockEntryRepository
		modelRepo *mockModelRepository
		ctx       context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockEntryRepository()
		modelRepo = &mockModelRepository{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		registry := worktime.NewRegistry(worktime.DefaultModels()...)
		service = worktime.NewService(mockRepo, modelRepo, registry, events.NewEventBus(logger), logger)
		ctx = context.Background()
	})

	closedDTO := func(dayOffset int, startClock, endClock string, breakMinutes int) worktime.CreateTimeEntryDTO {
		e := entryOn(dayOffset, startClock, endClock, breakMinutes)
		return worktime.CreateTimeEntryDTO{
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
			BreakMinutes: e.BreakMinutes,
		}
	}

	Describe("CreateEntry", func() {
		It("should persist a compliant entry", func() {
			entry, result, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(0, "08:00", "16:30", 30))
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.ID).NotTo(BeZero())
			Expect(result.IsValid).To(BeTrue())
			Expect(mockRepo.entries).To(HaveLen(1))
		})

		It("should persist an open entry without validation issues", func() {
			dto := worktime.CreateTimeEntryDTO{StartTime: anchorDay.Add(8 * time.Hour)}
			entry, result, err := service.CreateEntry(ctx, "user-1", "company-acme", dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.IsOpen()).To(BeTrue())
			Expect(result.IsValid).To(BeTrue())
		})

		It("should block an entry with statutory violations and not persist it", func() {
			_, result, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(0, "07:00", "19:00", 30))
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(422))
			Expect(result).NotTo(BeNil())
			Expect(result.IsValid).To(BeFalse())
			Expect(mockRepo.entries).To(BeEmpty())
		})

		It("should persist an entry that only has warnings", func() {
			entry, result, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(0, "08:00", "17:45", 45))
			Expect(err).NotTo(HaveOccurred())
			Expect(entry).NotTo(BeNil())
			Expect(result.Warnings).NotTo(BeEmpty())
			Expect(mockRepo.entries).To(HaveLen(1))
		})

		It("should reject a DTO whose break covers the whole span", func() {
			dto := closedDTO(0, "08:00", "09:00", 60)
			_, _, err := service.CreateEntry(ctx, "user-1", "company-acme", dto)
			var validationErr worktime.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})
	})

	Describe("ValidateEntry", func() {
		It("should report violations without persisting", func() {
			result, err := service.ValidateEntry(ctx, "user-1", closedDTO(0, "07:00", "19:00", 30))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeFalse())
			Expect(mockRepo.entries).To(BeEmpty())
		})

		It("should consider existing entries of the same week", func() {
			for day := 0; day < 4; day++ {
				_, _, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(day, "08:00", "18:30", 30))
				Expect(err).NotTo(HaveOccurred())
			}
			result, err := service.ValidateEntry(ctx, "user-1", closedDTO(4, "08:00", "17:31", 30))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeFalse())
		})
	})

	Describe("CloseEntry", func() {
		var openID int64

		BeforeEach(func() {
			dto := worktime.CreateTimeEntryDTO{StartTime: anchorDay.Add(8 * time.Hour)}
			entry, _, err := service.CreateEntry(ctx, "user-1", "company-acme", dto)
			Expect(err).NotTo(HaveOccurred())
			openID = entry.ID
		})

		It("should close an open entry", func() {
			breakMinutes := 30
			entry, result, err := service.CloseEntry(ctx, "user-1", openID, worktime.CloseTimeEntryDTO{
				EndTime:      anchorDay.Add(16*time.Hour + 30*time.Minute),
				BreakMinutes: &breakMinutes,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.IsOpen()).To(BeFalse())
			Expect(result.WorkHours).To(BeNumerically("~", 8.0, 1e-9))
			Expect(mockRepo.entries[openID].EndTime).NotTo(BeNil())
		})

		It("should refuse to close another user's entry", func() {
			_, _, err := service.CloseEntry(ctx, "user-2", openID, worktime.CloseTimeEntryDTO{
				EndTime: anchorDay.Add(16 * time.Hour),
			})
			Expect(err).To(Equal(apperrors.ErrEntryNotFound))
		})

		It("should refuse to close an already closed entry", func() {
			breakMinutes := 30
			_, _, err := service.CloseEntry(ctx, "user-1", openID, worktime.CloseTimeEntryDTO{
				EndTime:      anchorDay.Add(16 * time.Hour),
				BreakMinutes: &breakMinutes,
			})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.CloseEntry(ctx, "user-1", openID, worktime.CloseTimeEntryDTO{
				EndTime: anchorDay.Add(17 * time.Hour),
			})
			Expect(err).To(Equal(apperrors.ErrEntryAlreadyDone))
		})

		It("should block a close that violates statutory limits and keep the entry open", func() {
			breakMinutes := 30
			_, result, err := service.CloseEntry(ctx, "user-1", openID, worktime.CloseTimeEntryDTO{
				EndTime:      anchorDay.Add(20 * time.Hour),
				BreakMinutes: &breakMinutes,
			})
			Expect(err).To(HaveOccurred())
			Expect(result.IsValid).To(BeFalse())
			Expect(mockRepo.entries[openID].EndTime).To(BeNil())
		})

		It("should reject an end before the start", func() {
			_, _, err := service.CloseEntry(ctx, "user-1", openID, worktime.CloseTimeEntryDTO{
				EndTime: anchorDay.Add(7 * time.Hour),
			})
			var validationErr worktime.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})
	})

	Describe("WeeklySummary", func() {
		It("should total only the requested ISO week", func() {
			_, _, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(0, "08:00", "16:30", 30))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(1, "08:00", "16:30", 30))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(-3, "08:00", "16:30", 30))
			Expect(err).NotTo(HaveOccurred())

			summary, err := service.WeeklySummary(ctx, "user-1", anchorDay.Add(12*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TotalHours).To(BeNumerically("~", 16.0, 1e-9))
			Expect(summary.EntryCount).To(Equal(2))
			Expect(summary.TargetHours).To(Equal(40.0))
			Expect(summary.MaxHours).To(Equal(48.0))
			Expect(summary.RemainingHours).To(BeNumerically("~", 32.0, 1e-9))
			Expect(summary.WeekStart.Weekday()).To(Equal(time.Monday))
		})

		It("should count open entries separately", func() {
			dto := worktime.CreateTimeEntryDTO{StartTime: anchorDay.Add(8 * time.Hour)}
			_, _, err := service.CreateEntry(ctx, "user-1", "company-acme", dto)
			Expect(err).NotTo(HaveOccurred())

			summary, err := service.WeeklySummary(ctx, "user-1", anchorDay.Add(12*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.OpenEntries).To(Equal(1))
			Expect(summary.TotalHours).To(BeZero())
		})

		It("should report overtime beyond the contractual target", func() {
			for day := 0; day < 5; day++ {
				_, _, err := service.CreateEntry(ctx, "user-1", "company-acme", closedDTO(day, "08:00", "17:30", 30))
				Expect(err).NotTo(HaveOccurred())
			}
			summary, err := service.WeeklySummary(ctx, "user-1", anchorDay.Add(12*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TotalHours).To(BeNumerically("~", 45.0, 1e-9))
			Expect(summary.OvertimeHours).To(BeNumerically("~", 5.0, 1e-9))
		})
	})

	Describe("model administration", func() {
		It("should register and persist a custom model", func() {
			model, err := service.AddModel(ctx, worktime.CreateModelDTO{
				ID:             "night-shift",
				Name:           "Nachtschicht",
				Type:           string(worktime.ModelShiftWork),
				DailyHours:     7,
				WeeklyHours:    35,
				MaxDailyHours:  9,
				MaxWeeklyHours: 48,
				BreakRules:     worktime.BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(model.ID).To(Equal("night-shift"))
			Expect(modelRepo.saved).To(HaveLen(1))
			Expect(service.Models()).To(ContainElement(model))
		})

		It("should reject a duplicate model ID", func() {
			dto := worktime.CreateModelDTO{
				ID:             worktime.DefaultModelID,
				Name:           "Duplicate",
				Type:           string(worktime.ModelFlexTime),
				DailyHours:     8,
				WeeklyHours:    40,
				MaxDailyHours:  10,
				MaxWeeklyHours: 48,
			}
			_, err := service.AddModel(ctx, dto)
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
		})

		It("should assign a registered model to an employee", func() {
			Expect(service.AssignModel(ctx, "user-1", worktime.AssignModelDTO{ModelID: "trust-based"})).To(Succeed())
			Expect(mockRepo.modelByUser["user-1"]).To(Equal("trust-based"))
		})

		It("should reject assigning an unknown model", func() {
			err := service.AssignModel(ctx, "user-1", worktime.AssignModelDTO{ModelID: "ghost"})
			Expect(err).To(Equal(apperrors.ErrModelNotFound))
		})

		It("should surface a missing employee row", func() {
			mockRepo.assignError = worktime.ErrNoEmployeeRow
			err := service.AssignModel(ctx, "user-1", worktime.AssignModelDTO{ModelID: "trust-based"})
			Expect(err).To(Equal(apperrors.ErrEmployeeNotFound))
		})

		It("should validate entries against the assigned model", func() {
			Expect(service.AssignModel(ctx, "user-1", worktime.AssignModelDTO{ModelID: "on-call-duty"})).To(Succeed())

			// 11h net is over the flex cap but within the on-call cap.
			result, err := service.ValidateEntry(ctx, "user-1", closedDTO(0, "07:00", "18:45", 45))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeTrue())
		})
	})

	Describe("LoadPersistedModels", func() {
		It("should merge stored custom models into the registry", func() {
			modelRepo.saved = []worktime.WorkTimeModel{{
				ID:             "tenant-custom",
				Name:           "Tenant Custom",
				Type:           worktime.ModelFixedTime,
				DailyHours:     7,
				WeeklyHours:    35,
				MaxDailyHours:  9,
				MaxWeeklyHours: 48,
			}}
			Expect(service.LoadPersistedModels(ctx)).To(Succeed())
			_, ok := worktime.NewRegistry().Get("tenant-custom")
			Expect(ok).To(BeFalse())

			found := false
			for _, m := range service.Models() {
				if m.ID == "tenant-custom" {
					found = true
				}
			}
			Expect(found).To(BeTrue())
		})
	})
})
