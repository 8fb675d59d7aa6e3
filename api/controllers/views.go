package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/internal/admin"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
)

type licenseResponse struct {
	ID               uuid.UUID           `json:"id"`
	Key              string              `json:"key"`
	Status           enums.LicenseStatus `json:"status"`
	Tier             enums.LicenseTier   `json:"tier"`
	OwnerName        string              `json:"owner_name"`
	OwnerEmail       string              `json:"owner_email"`
	GymName          string              `json:"gym_name"`
	MemberQuota      int                 `json:"member_quota"`
	DeviceLimit      int                 `json:"device_limit"`
	ExpiresAt        *time.Time          `json:"expires_at,omitempty"`
	ActivatedAt      *time.Time          `json:"activated_at,omitempty"`
	LastCheckedAt    *time.Time          `json:"last_checked_at,omitempty"`
	LastSeenIP       string              `json:"last_seen_ip,omitempty"`
	LastSeenVersion  string              `json:"last_seen_version,omitempty"`
	RevocationReason string              `json:"revocation_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

type licenseListEntry struct {
	licenseResponse
	ApprovedDevices int64 `json:"approved_devices"`
	TotalDevices    int64 `json:"total_devices"`
}

type deviceResponse struct {
	ID          uuid.UUID          `json:"id"`
	LicenseID   uuid.UUID          `json:"license_id"`
	Fingerprint string             `json:"fingerprint"`
	Name        string             `json:"name,omitempty"`
	Platform    string             `json:"platform,omitempty"`
	AppVersion  string             `json:"app_version,omitempty"`
	Status      enums.DeviceStatus `json:"status"`
	FirstSeenAt time.Time          `json:"first_seen_at"`
	LastSeenAt  time.Time          `json:"last_seen_at"`
	LastSeenIP  string             `json:"last_seen_ip,omitempty"`
}

type vendorProfileResponse struct {
	CompanyName  string `json:"company_name"`
	SupportEmail string `json:"support_email"`
	SupportPhone string `json:"support_phone,omitempty"`
	Website      string `json:"website,omitempty"`
	Version      int    `json:"version"`
}

func licenseResponseFromModel(license *models.License) licenseResponse {
	return licenseResponse{
		ID:               license.ID,
		Key:              license.Key,
		Status:           license.Status,
		Tier:             license.Tier,
		OwnerName:        license.OwnerName,
		OwnerEmail:       license.OwnerEmail,
		GymName:          license.GymName,
		MemberQuota:      license.MemberQuota,
		DeviceLimit:      license.DeviceLimit,
		ExpiresAt:        license.ExpiresAt,
		ActivatedAt:      license.ActivatedAt,
		LastCheckedAt:    license.LastCheckedAt,
		LastSeenIP:       license.LastSeenIP,
		LastSeenVersion:  license.LastSeenVersion,
		RevocationReason: license.RevocationReason,
		CreatedAt:        license.CreatedAt,
	}
}

func licenseListEntryFromRow(row admin.LicenseRow) licenseListEntry {
	return licenseListEntry{
		licenseResponse: licenseResponseFromModel(&row.License),
		ApprovedDevices: row.ApprovedDevices,
		TotalDevices:    row.TotalDevices,
	}
}

func deviceResponseFromModel(device *models.Device) deviceResponse {
	return deviceResponse{
		ID:          device.ID,
		LicenseID:   device.LicenseID,
		Fingerprint: device.Fingerprint,
		Name:        device.Name,
		Platform:    device.Platform,
		AppVersion:  device.AppVersion,
		Status:      device.Status,
		FirstSeenAt: device.FirstSeenAt,
		LastSeenAt:  device.LastSeenAt,
		LastSeenIP:  device.LastSeenIP,
	}
}

func vendorProfileResponseFromModel(profile *models.VendorProfile) vendorProfileResponse {
	return vendorProfileResponse{
		CompanyName:  profile.CompanyName,
		SupportEmail: profile.SupportEmail,
		SupportPhone: profile.SupportPhone,
		Website:      profile.Website,
		Version:      profile.Version,
	}
}
