package worktime_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/go-chi/chi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/core/events"
	"github.com/frahmantamala/workforce-management/internal/worktime"
	worktimePostgres "github.com/frahmantamala/workforce-management/internal/worktime/postgres"
)

type sqliteTimeEntry struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       string     `gorm:"column:user_id;not null"`
	CompanyID    string     `gorm:"column:company_id;not null"`
	StartTime    time.Time  `gorm:"column:start_time;not null"`
	EndTime      *time.Time `gorm:"column:end_time"`
	BreakMinutes int        `gorm:"column:break_minutes;default:0"`
	Description  string     `gorm:"column:description"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (sqliteTimeEntry) TableName() string { return "time_entries" }

type sqliteEmployee struct {
	ID              int64     `gorm:"primaryKey"`
	UserID          string    `gorm:"column:user_id;not null"`
	CompanyID       string    `gorm:"column:company_id;not null"`
	WorkTimeModelID *string   `gorm:"column:work_time_model_id"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (sqliteEmployee) TableName() string { return "employees" }

type sqliteWorkTimeModel struct {
	ID              string    `gorm:"primaryKey;column:id"`
	Name            string    `gorm:"column:name;not null"`
	Type            string    `gorm:"column:type;not null"`
	DailyHours      float64   `gorm:"column:daily_hours"`
	WeeklyHours     float64   `gorm:"column:weekly_hours"`
	MaxDailyHours   float64   `gorm:"column:max_daily_hours"`
	MaxWeeklyHours  float64   `gorm:"column:max_weekly_hours"`
	MinBreakAfter6h int       `gorm:"column:min_break_after_6h"`
	MinBreakAfter9h int       `gorm:"column:min_break_after_9h"`
	CoreTimeStart   string    `gorm:"column:core_time_start"`
	CoreTimeEnd     string    `gorm:"column:core_time_end"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (sqliteWorkTimeModel) TableName() string { return "work_time_models" }

var _ = Describe("Worktime Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *worktime.Handler
		router  *chi.Mux
	)

	authed := func(req *http.Request) *http.Request {
		ctx := apperrors.ContextWithUserID(req.Context(), "user-1")
		ctx = apperrors.ContextWithCompanyID(ctx, "company-acme")
		return req.WithContext(ctx)
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteTimeEntry{}, &sqliteEmployee{}, &sqliteWorkTimeModel{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&sqliteEmployee{UserID: "user-1", CompanyID: "company-acme"}).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		registry := worktime.NewRegistry(worktime.DefaultModels()...)
		service := worktime.NewService(
			worktimePostgres.NewTimeEntryRepository(db),
			worktimePostgres.NewWorkTimeModelRepository(db),
			registry,
			events.NewEventBus(slogger),
			slogger,
		)
		handler = worktime.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/time-entries", handler.CreateEntry)
		router.Post("/time-entries/validate", handler.ValidateEntry)
		router.Patch("/time-entries/{id}/close", handler.CloseEntry)
		router.Get("/time-entries", handler.ListEntries)
		router.Get("/time-entries/summary", handler.WeeklySummary)
		router.Get("/work-time-models", handler.ListModels)
		router.Post("/work-time-models", handler.CreateModel)
		router.Patch("/employees/{userID}/work-time-model", handler.AssignModel)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	postJSON := func(path string, payload interface{}) *httptest.ResponseRecorder {
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		req := authed(httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("POST /time-entries", func() {
		It("should create a compliant entry", func() {
			start := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
			end := start.Add(8*time.Hour + 30*time.Minute)
			w := postJSON("/time-entries", worktime.CreateTimeEntryDTO{
				StartTime:    start,
				EndTime:      &end,
				BreakMinutes: 30,
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp struct {
				Entry      worktime.TimeEntry `json:"entry"`
				Validation worktime.Result    `json:"validation"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Entry.ID).NotTo(BeZero())
			Expect(resp.Validation.IsValid).To(BeTrue())
		})

		It("should return 422 with the violations for a non-compliant entry", func() {
			start := time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC)
			end := start.Add(12 * time.Hour)
			w := postJSON("/time-entries", worktime.CreateTimeEntryDTO{
				StartTime:    start,
				EndTime:      &end,
				BreakMinutes: 30,
			})

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("should return 400 for an invalid body", func() {
			req := authed(httptest.NewRequest(http.MethodPost, "/time-entries", bytes.NewReader([]byte("{"))))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 401 without a user identity", func() {
			req := httptest.NewRequest(http.MethodPost, "/time-entries", bytes.NewReader([]byte(`{"start_time":"2025-03-03T08:00:00Z"}`)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /time-entries/validate", func() {
		It("should report violations without persisting", func() {
			start := time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC)
			end := start.Add(12 * time.Hour)
			w := postJSON("/time-entries/validate", worktime.CreateTimeEntryDTO{
				StartTime:    start,
				EndTime:      &end,
				BreakMinutes: 30,
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			var result worktime.Result
			Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
			Expect(result.IsValid).To(BeFalse())

			var count int64
			Expect(db.Model(&sqliteTimeEntry{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("PATCH /time-entries/{id}/close", func() {
		It("should close an open entry", func() {
			start := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
			w := postJSON("/time-entries", worktime.CreateTimeEntryDTO{StartTime: start})
			Expect(w.Code).To(Equal(http.StatusCreated))
			var created struct {
				Entry worktime.TimeEntry `json:"entry"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

			breakMinutes := 30
			body, err := json.Marshal(worktime.CloseTimeEntryDTO{
				EndTime:      start.Add(8*time.Hour + 30*time.Minute),
				BreakMinutes: &breakMinutes,
			})
			Expect(err).NotTo(HaveOccurred())

			path := fmt.Sprintf("/time-entries/%d/close", created.Entry.ID)
			req := authed(httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should return 404 for a missing entry", func() {
			body := []byte(`{"end_time":"2025-03-03T16:00:00Z"}`)
			req := authed(httptest.NewRequest(http.MethodPatch, "/time-entries/999/close", bytes.NewReader(body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /time-entries", func() {
		It("should list only the caller's entries, newest first", func() {
			first := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
			firstEnd := first.Add(8 * time.Hour)
			second := time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC)
			secondEnd := second.Add(8 * time.Hour)

			Expect(postJSON("/time-entries", worktime.CreateTimeEntryDTO{
				StartTime: first, EndTime: &firstEnd, BreakMinutes: 30,
			}).Code).To(Equal(http.StatusCreated))
			Expect(postJSON("/time-entries", worktime.CreateTimeEntryDTO{
				StartTime: second, EndTime: &secondEnd, BreakMinutes: 30,
			}).Code).To(Equal(http.StatusCreated))

			otherEnd := first.Add(7 * time.Hour)
			Expect(db.Create(&sqliteTimeEntry{
				UserID: "user-2", CompanyID: "company-acme",
				StartTime: first, EndTime: &otherEnd,
			}).Error).To(Succeed())

			req := authed(httptest.NewRequest(http.MethodGet, "/time-entries", nil))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp struct {
				Entries []worktime.TimeEntry `json:"entries"`
				Limit   int                  `json:"limit"`
				Offset  int                  `json:"offset"`
			}
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Entries).To(HaveLen(2))
			Expect(resp.Entries[0].StartTime).To(BeTemporally("==", second))
			Expect(resp.Entries[1].StartTime).To(BeTemporally("==", first))
			for _, entry := range resp.Entries {
				Expect(entry.UserID).To(Equal("user-1"))
			}
		})

		It("should honor limit and offset parameters", func() {
			for day := 3; day <= 5; day++ {
				start := time.Date(2025, time.March, day, 8, 0, 0, 0, time.UTC)
				end := start.Add(8 * time.Hour)
				Expect(postJSON("/time-entries", worktime.CreateTimeEntryDTO{
					StartTime: start, EndTime: &end, BreakMinutes: 30,
				}).Code).To(Equal(http.StatusCreated))
			}

			req := authed(httptest.NewRequest(http.MethodGet, "/time-entries?limit=1&offset=1", nil))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp struct {
				Entries []worktime.TimeEntry `json:"entries"`
				Limit   int                  `json:"limit"`
			}
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Limit).To(Equal(1))
			Expect(resp.Entries).To(HaveLen(1))
			Expect(resp.Entries[0].StartTime.Day()).To(Equal(4))
		})
	})

	Describe("GET /time-entries/summary", func() {
		It("should total the requested week", func() {
			start := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
			end := start.Add(8*time.Hour + 30*time.Minute)
			w := postJSON("/time-entries", worktime.CreateTimeEntryDTO{
				StartTime:    start,
				EndTime:      &end,
				BreakMinutes: 30,
			})
			Expect(w.Code).To(Equal(http.StatusCreated))

			req := authed(httptest.NewRequest(http.MethodGet, "/time-entries/summary?at=2025-03-05T12:00:00Z", nil))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var summary worktime.WeeklySummary
			Expect(json.NewDecoder(rec.Body).Decode(&summary)).To(Succeed())
			Expect(summary.TotalHours).To(BeNumerically("~", 8.0, 1e-9))
			Expect(summary.EntryCount).To(Equal(1))
		})

		It("should reject a malformed at parameter", func() {
			req := authed(httptest.NewRequest(http.MethodGet, "/time-entries/summary?at=yesterday", nil))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("work time model endpoints", func() {
		It("should list the catalog", func() {
			req := httptest.NewRequest(http.MethodGet, "/work-time-models", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp struct {
				Models []worktime.WorkTimeModel `json:"models"`
			}
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(len(resp.Models)).To(Equal(len(worktime.DefaultModels())))
		})

		It("should create a custom model", func() {
			w := postJSON("/work-time-models", worktime.CreateModelDTO{
				ID:             "night-shift",
				Name:           "Nachtschicht",
				Type:           string(worktime.ModelShiftWork),
				DailyHours:     7,
				WeeklyHours:    35,
				MaxDailyHours:  9,
				MaxWeeklyHours: 48,
				BreakRules:     worktime.BreakRules{MinBreakAfter6h: 30, MinBreakAfter9h: 45},
			})
			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("should assign a model to an employee", func() {
			body := []byte(`{"model_id":"trust-based"}`)
			req := authed(httptest.NewRequest(http.MethodPatch, "/employees/user-1/work-time-model", bytes.NewReader(body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			var employee sqliteEmployee
			Expect(db.Where("user_id = ?", "user-1").First(&employee).Error).To(Succeed())
			Expect(employee.WorkTimeModelID).NotTo(BeNil())
			Expect(*employee.WorkTimeModelID).To(Equal("trust-based"))
		})

		It("should return 404 when assigning to a user without an employee row", func() {
			body := []byte(`{"model_id":"trust-based"}`)
			req := authed(httptest.NewRequest(http.MethodPatch, "/employees/ghost/work-time-model", bytes.NewReader(body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
