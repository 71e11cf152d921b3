package postgres

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/workforce-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetUserByID(userID string) (*auth.User, error) {
	var user auth.User
	var companyID sql.NullString
	var role sql.NullString

	query := `SELECT id, email, role, company_id FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &role, &companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	if role.Valid {
		user.Role = role.String
	}
	if companyID.Valid {
		user.CompanyID = companyID.String
	}

	return &user, nil
}
