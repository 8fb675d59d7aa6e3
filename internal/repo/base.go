package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle shared by the registry, admin and vendor
// repositories.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection for embedding in a domain repository.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to ctx so cancellation reaches the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
