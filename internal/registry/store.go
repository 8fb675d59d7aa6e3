package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
)

// DeviceCounts holds per-license device tallies for listing pages.
type DeviceCounts struct {
	Approved int64
	Total    int64
}

// Store is the persistence surface consumed by the engine and admin services.
// *Repository is the production implementation; tests provide in-memory stubs.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error

	CreateLicense(ctx context.Context, license *models.License) (*models.License, error)
	FindLicenseByKey(ctx context.Context, key string) (*models.License, error)
	FindLicenseByKeyForUpdate(ctx context.Context, key string) (*models.License, error)
	FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	UpdateLicense(ctx context.Context, license *models.License) error
	ListLicenses(ctx context.Context, opts ListQuery) ([]models.License, error)
	TouchLicenseSeen(ctx context.Context, licenseID uuid.UUID, at time.Time, ip, version string) error

	FindDevice(ctx context.Context, licenseID uuid.UUID, fingerprint string) (*models.Device, error)
	FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error)
	ListDevices(ctx context.Context, licenseID uuid.UUID) ([]models.Device, error)
	CountApprovedDevices(ctx context.Context, licenseID uuid.UUID) (int64, error)
	CountDevices(ctx context.Context, licenseID uuid.UUID) (int64, error)
	CountDevicesByLicense(ctx context.Context, licenseIDs []uuid.UUID) (map[uuid.UUID]DeviceCounts, error)
	CreateDevice(ctx context.Context, device *models.Device) (*models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	SetDeviceStatus(ctx context.Context, deviceID uuid.UUID, status enums.DeviceStatus) error
	OldestApprovedDevice(ctx context.Context, licenseID uuid.UUID) (*models.Device, error)
	RevokeAllDevices(ctx context.Context, licenseID uuid.UUID) (int64, error)

	AppendLog(ctx context.Context, entry *models.ActivityLog) error
	ListLogs(ctx context.Context, licenseID uuid.UUID, limit int) ([]models.ActivityLog, error)
}
