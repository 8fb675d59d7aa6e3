package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorProfile is the singleton support-contact record shown by the client's
// about screen. Version is an optimistic counter bumped on every write.
type VendorProfile struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyName  string    `gorm:"column:company_name;not null"`
	SupportEmail string    `gorm:"column:support_email;not null"`
	SupportPhone string    `gorm:"column:support_phone"`
	Website      string    `gorm:"column:website"`
	Version      int       `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
