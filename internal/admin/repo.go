package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/gymcore/license-server/internal/repo"
	"github.com/gymcore/license-server/pkg/db/models"
)

// Repository exposes admin-user persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs an admin-user repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByUsername loads an admin user by exact username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var row models.AdminUser
	if err := r.DB(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new admin user.
func (r *Repository) Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Save persists the full admin-user row.
func (r *Repository) Save(ctx context.Context, user *models.AdminUser) error {
	return r.DB(ctx).Save(user).Error
}
