package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymcore/license-server/internal/repo"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
)

// Repository exposes license, device, and audit-log persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a registry repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Transact runs fn inside one database transaction. Callers receive a Store
// bound to the transaction so every read and write shares it.
func (r *Repository) Transact(ctx context.Context, fn func(tx Store) error) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// CreateLicense inserts a new license row.
func (r *Repository) CreateLicense(ctx context.Context, license *models.License) (*models.License, error) {
	if err := r.DB(ctx).Create(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

// FindLicenseByKey loads a license by its key.
func (r *Repository) FindLicenseByKey(ctx context.Context, key string) (*models.License, error) {
	var row models.License
	if err := r.DB(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindLicenseByKeyForUpdate loads a license by key under a row lock. Only
// meaningful inside Transact; concurrent activations for the same key
// serialize on this lock. SQLite has no row locks and serializes on its
// single writer, so the clause is skipped there.
func (r *Repository) FindLicenseByKeyForUpdate(ctx context.Context, key string) (*models.License, error) {
	query := r.DB(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.License
	if err := query.Where("key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindLicenseByID loads a license by primary key.
func (r *Repository) FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var row models.License
	if err := r.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateLicense persists the full license row.
func (r *Repository) UpdateLicense(ctx context.Context, license *models.License) error {
	return r.DB(ctx).Save(license).Error
}

// ListLicenses returns licenses using cursor pagination, optionally filtered
// by status.
func (r *Repository) ListLicenses(ctx context.Context, opts ListQuery) ([]models.License, error) {
	query := r.DB(ctx).Model(&models.License{})

	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.Cursor.CreatedAt, opts.Cursor.CreatedAt, opts.Cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.Limit)

	var rows []models.License
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindDevice loads the device bound to (licenseID, fingerprint).
func (r *Repository) FindDevice(ctx context.Context, licenseID uuid.UUID, fingerprint string) (*models.Device, error) {
	var row models.Device
	if err := r.DB(ctx).Where("license_id = ? AND fingerprint = ?", licenseID, fingerprint).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDeviceByID loads a device by primary key.
func (r *Repository) FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	var row models.Device
	if err := r.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListDevices returns every device bound to a license, oldest last-seen first.
func (r *Repository) ListDevices(ctx context.Context, licenseID uuid.UUID) ([]models.Device, error) {
	var rows []models.Device
	if err := r.DB(ctx).Where("license_id = ?", licenseID).Order("last_seen_at ASC").Order("first_seen_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountApprovedDevices returns how many approved devices a license has.
func (r *Repository) CountApprovedDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Device{}).
		Where("license_id = ? AND status = ?", licenseID, enums.DeviceStatusApproved).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountDevices returns how many devices a license has in any status.
func (r *Repository) CountDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Device{}).
		Where("license_id = ?", licenseID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountDevicesByLicense tallies devices for a set of licenses in one grouped
// query. Licenses with no devices are absent from the result.
func (r *Repository) CountDevicesByLicense(ctx context.Context, licenseIDs []uuid.UUID) (map[uuid.UUID]DeviceCounts, error) {
	out := make(map[uuid.UUID]DeviceCounts, len(licenseIDs))
	if len(licenseIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		LicenseID uuid.UUID
		Approved  int64
		Total     int64
	}
	err := r.DB(ctx).Model(&models.Device{}).
		Select("license_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS approved", enums.DeviceStatusApproved).
		Where("license_id IN ?", licenseIDs).
		Group("license_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.LicenseID] = DeviceCounts{Approved: row.Approved, Total: row.Total}
	}
	return out, nil
}

// CreateDevice inserts a new device row.
func (r *Repository) CreateDevice(ctx context.Context, device *models.Device) (*models.Device, error) {
	if err := r.DB(ctx).Create(device).Error; err != nil {
		return nil, err
	}
	return device, nil
}

// UpdateDevice persists the full device row.
func (r *Repository) UpdateDevice(ctx context.Context, device *models.Device) error {
	return r.DB(ctx).Save(device).Error
}

// SetDeviceStatus flips one device's status.
func (r *Repository) SetDeviceStatus(ctx context.Context, deviceID uuid.UUID, status enums.DeviceStatus) error {
	return r.DB(ctx).Model(&models.Device{}).
		Where("id = ?", deviceID).
		Update("status", status).Error
}

// OldestApprovedDevice returns the approved device that would be evicted
// first: least recently seen, ties broken by earliest first_seen_at.
func (r *Repository) OldestApprovedDevice(ctx context.Context, licenseID uuid.UUID) (*models.Device, error) {
	var row models.Device
	err := r.DB(ctx).
		Where("license_id = ? AND status = ?", licenseID, enums.DeviceStatusApproved).
		Order("last_seen_at ASC").Order("first_seen_at ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RevokeAllDevices marks every approved device on the license revoked and
// returns how many rows changed.
func (r *Repository) RevokeAllDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.Device{}).
		Where("license_id = ? AND status = ?", licenseID, enums.DeviceStatusApproved).
		Update("status", enums.DeviceStatusRevoked)
	return res.RowsAffected, res.Error
}

// AppendLog writes one audit-trail row. The table is append-only.
func (r *Repository) AppendLog(ctx context.Context, entry *models.ActivityLog) error {
	return r.DB(ctx).Create(entry).Error
}

// ListLogs returns a license's audit trail, newest first.
func (r *Repository) ListLogs(ctx context.Context, licenseID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	var rows []models.ActivityLog
	err := r.DB(ctx).Where("license_id = ?", licenseID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TouchLicenseSeen stamps last-contact bookkeeping on the license row.
func (r *Repository) TouchLicenseSeen(ctx context.Context, licenseID uuid.UUID, at time.Time, ip, version string) error {
	updates := map[string]any{
		"last_checked_at": at,
	}
	if ip != "" {
		updates["last_seen_ip"] = ip
	}
	if version != "" {
		updates["last_seen_version"] = version
	}
	return r.DB(ctx).Model(&models.License{}).Where("id = ?", licenseID).Updates(updates).Error
}
