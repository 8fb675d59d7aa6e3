package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/pkg/enums"
)

// Device binds one client-reported machine fingerprint to a license. The
// (license_id, fingerprint) pair is unique: a known fingerprint is always
// upserted, never duplicated.
type Device struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LicenseID   uuid.UUID          `gorm:"column:license_id;type:uuid;not null;uniqueIndex:idx_devices_license_fingerprint"`
	Fingerprint string             `gorm:"column:fingerprint;not null;uniqueIndex:idx_devices_license_fingerprint"`
	Name        string             `gorm:"column:name"`
	Platform    string             `gorm:"column:platform"`
	AppVersion  string             `gorm:"column:app_version"`
	Status      enums.DeviceStatus `gorm:"column:status;type:device_status;not null;default:'approved'"`
	FirstSeenAt time.Time          `gorm:"column:first_seen_at;not null"`
	LastSeenAt  time.Time          `gorm:"column:last_seen_at;not null"`
	LastSeenIP  string             `gorm:"column:last_seen_ip"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
