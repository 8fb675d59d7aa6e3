package activation

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
)

// LicenseSummary is the client-facing view of a license.
type LicenseSummary struct {
	Key             string              `json:"key"`
	Status          enums.LicenseStatus `json:"status"`
	Tier            enums.LicenseTier   `json:"tier"`
	GymName         string              `json:"gym_name"`
	OwnerName       string              `json:"owner_name"`
	MemberQuota     int                 `json:"member_quota"`
	DeviceLimit     int                 `json:"device_limit"`
	ApprovedDevices int64               `json:"approved_devices"`
	ExpiresAt       *time.Time          `json:"expires_at,omitempty"`
	ActivatedAt     *time.Time          `json:"activated_at,omitempty"`
}

// DeviceSnapshot is the client-facing view of one device binding.
type DeviceSnapshot struct {
	ID          uuid.UUID          `json:"id"`
	Fingerprint string             `json:"fingerprint"`
	Name        string             `json:"name,omitempty"`
	Platform    string             `json:"platform,omitempty"`
	AppVersion  string             `json:"app_version,omitempty"`
	Status      enums.DeviceStatus `json:"status"`
	FirstSeenAt time.Time          `json:"first_seen_at"`
	LastSeenAt  time.Time          `json:"last_seen_at"`
}

// ActivateResult is returned by a successful activation.
type ActivateResult struct {
	License LicenseSummary `json:"license"`
	Device  DeviceSnapshot `json:"device"`
}

// ValidateResult is returned by a successful heartbeat. GracePeriodDays and
// NextCheckRequired are advisory; the server never forces expiry on a missed
// heartbeat.
type ValidateResult struct {
	Valid             bool           `json:"valid"`
	License           LicenseSummary `json:"license"`
	Device            DeviceSnapshot `json:"device"`
	GracePeriodDays   int            `json:"grace_period_days"`
	NextCheckRequired time.Time      `json:"next_check_required"`
}

// StatusResult is the lightweight status snapshot, no device context.
type StatusResult struct {
	License LicenseSummary `json:"license"`
}

func newLicenseSummary(license *models.License, approvedDevices int64) LicenseSummary {
	return LicenseSummary{
		Key:             license.Key,
		Status:          license.Status,
		Tier:            license.Tier,
		GymName:         license.GymName,
		OwnerName:       license.OwnerName,
		MemberQuota:     license.MemberQuota,
		DeviceLimit:     license.DeviceLimit,
		ApprovedDevices: approvedDevices,
		ExpiresAt:       license.ExpiresAt,
		ActivatedAt:     license.ActivatedAt,
	}
}

func newDeviceSnapshot(device *models.Device) DeviceSnapshot {
	return DeviceSnapshot{
		ID:          device.ID,
		Fingerprint: device.Fingerprint,
		Name:        device.Name,
		Platform:    device.Platform,
		AppVersion:  device.AppVersion,
		Status:      device.Status,
		FirstSeenAt: device.FirstSeenAt,
		LastSeenAt:  device.LastSeenAt,
	}
}
