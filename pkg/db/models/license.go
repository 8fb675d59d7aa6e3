package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/pkg/enums"
)

// License grants one installed client the right to run, bounded by a device
// quota and an optional expiry. A nil ExpiresAt means perpetual.
type License struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key              string              `gorm:"column:key;not null;unique"`
	Status           enums.LicenseStatus `gorm:"column:status;type:license_status;not null;default:'inactive'"`
	Tier             enums.LicenseTier   `gorm:"column:tier;type:license_tier;not null;default:'standard'"`
	OwnerName        string              `gorm:"column:owner_name;not null"`
	OwnerEmail       string              `gorm:"column:owner_email;not null"`
	GymName          string              `gorm:"column:gym_name;not null"`
	MemberQuota      int                 `gorm:"column:member_quota;not null;default:0"`
	DeviceLimit      int                 `gorm:"column:device_limit;not null;default:1"`
	ExpiresAt        *time.Time          `gorm:"column:expires_at"`
	ActivatedAt      *time.Time          `gorm:"column:activated_at"`
	LastCheckedAt    *time.Time          `gorm:"column:last_checked_at"`
	LastSeenIP       string              `gorm:"column:last_seen_ip"`
	LastSeenVersion  string              `gorm:"column:last_seen_version"`
	RevocationReason string              `gorm:"column:revocation_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpiredAt reports whether the license's expiry has passed at the given
// instant. Status is not consulted; expiry is evaluated lazily by callers.
func (l *License) IsExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
