package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/workforce-management/internal/worktime"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := gorm.Open(gormpostgres.Open(cfg.Database.Source), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open db: %v", err)
		}

		if clearData {
			for _, table := range []string{"time_entries", "impersonation_sessions", "tenant_sessions", "employees", "users", "companies"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		companies := []struct {
			ID   string
			Name string
		}{
			{"company-acme", "Acme Logistics GmbH"},
			{"company-nordwind", "Nordwind Software AG"},
		}
		for _, c := range companies {
			var exists int
			if err := db.Raw("SELECT 1 FROM companies WHERE id = ?", c.ID).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO companies (id, name, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())", c.ID, c.Name).Error; err != nil {
				log.Fatalf("failed to insert company %s: %v", c.ID, err)
			}
			fmt.Println("Seeded company:", c.Name)
		}

		users := []struct {
			Email     string
			Name      string
			Role      string
			CompanyID string
			ModelID   string
		}{
			{"root@suite.example", "Platform Admin", "super_admin", "", ""},
			{"anna@acme.example", "Anna Schmidt", "employee", "company-acme", worktime.DefaultModelID},
			{"jonas@acme.example", "Jonas Weber", "manager", "company-acme", "trust-based"},
			{"mia@nordwind.example", "Mia Fischer", "employee", "company-nordwind", "part-time-20"},
		}

		for _, u := range users {
			var userID string
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&userID); err != nil {
				userID = uuid.NewString()
				companyID := any(u.CompanyID)
				if u.CompanyID == "" {
					companyID = nil
				}
				if err := db.Exec(
					"INSERT INTO users (id, email, name, password_hash, role, company_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, now(), now())",
					userID, u.Email, u.Name, string(hash), u.Role, companyID,
				).Error; err != nil {
					log.Fatalf("failed to insert user %s: %v", u.Email, err)
				}
				fmt.Println("Seeded user:", u.Email)
			}

			if u.CompanyID == "" {
				continue
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM employees WHERE user_id = ?", userID).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec(
				"INSERT INTO employees (user_id, company_id, work_time_model_id, hired_at, created_at, updated_at) VALUES (?, ?, ?, now(), now(), now())",
				userID, u.CompanyID, u.ModelID,
			).Error; err != nil {
				log.Fatalf("failed to insert employee row for %s: %v", u.Email, err)
			}
		}

		for _, m := range worktime.DefaultModels() {
			var exists int
			if err := db.Raw("SELECT 1 FROM work_time_models WHERE id = ?", m.ID).Row().Scan(&exists); err == nil {
				continue
			}
			row := worktime.ModelToDataModel(m)
			if err := db.Exec(
				"INSERT INTO work_time_models (id, name, type, daily_hours, weekly_hours, max_daily_hours, max_weekly_hours, min_break_after_6h, min_break_after_9h, core_time_start, core_time_end, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now())",
				row.ID, row.Name, row.Type, row.DailyHours, row.WeeklyHours, row.MaxDailyHours, row.MaxWeeklyHours, row.MinBreakAfter6h, row.MinBreakAfter9h, row.CoreTimeStart, row.CoreTimeEnd,
			).Error; err != nil {
				log.Fatalf("failed to insert work time model %s: %v", m.ID, err)
			}
			fmt.Println("Seeded work time model:", m.Name)
		}

		fmt.Println("Seeding complete. Demo login password is \"password\".")
	},
}
