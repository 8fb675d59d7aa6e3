// Package registrytest provides an in-memory registry.Store for service
// tests. Transact runs against the same store; rollback fidelity is covered
// by the repository tests.
package registrytest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gymcore/license-server/internal/registry"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
)

// Store is an in-memory registry.Store.
type Store struct {
	Licenses map[uuid.UUID]*models.License
	Devices  map[uuid.UUID]*models.Device
	Logs     []*models.ActivityLog
}

var _ registry.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		Licenses: map[uuid.UUID]*models.License{},
		Devices:  map[uuid.UUID]*models.Device{},
	}
}

// Actions returns the logged action sequence for one license, oldest first.
func (m *Store) Actions(licenseID uuid.UUID) []enums.ActivityAction {
	var out []enums.ActivityAction
	for _, entry := range m.Logs {
		if entry.LicenseID == licenseID {
			out = append(out, entry.Action)
		}
	}
	return out
}

func (m *Store) Transact(ctx context.Context, fn func(tx registry.Store) error) error {
	return fn(m)
}

func (m *Store) CreateLicense(ctx context.Context, license *models.License) (*models.License, error) {
	for _, l := range m.Licenses {
		if l.Key == license.Key {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	if license.ID == uuid.Nil {
		license.ID = uuid.New()
	}
	if license.CreatedAt.IsZero() {
		license.CreatedAt = time.Now().UTC()
	}
	cp := *license
	m.Licenses[license.ID] = &cp
	return license, nil
}

func (m *Store) FindLicenseByKey(ctx context.Context, key string) (*models.License, error) {
	for _, l := range m.Licenses {
		if l.Key == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Store) FindLicenseByKeyForUpdate(ctx context.Context, key string) (*models.License, error) {
	return m.FindLicenseByKey(ctx, key)
}

func (m *Store) FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	l, ok := m.Licenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *Store) UpdateLicense(ctx context.Context, license *models.License) error {
	cp := *license
	m.Licenses[license.ID] = &cp
	return nil
}

func (m *Store) ListLicenses(ctx context.Context, opts registry.ListQuery) ([]models.License, error) {
	var out []models.License
	for _, l := range m.Licenses {
		if opts.Status != "" && string(l.Status) != opts.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *Store) TouchLicenseSeen(ctx context.Context, licenseID uuid.UUID, at time.Time, ip, version string) error {
	l, ok := m.Licenses[licenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.LastCheckedAt = &at
	if ip != "" {
		l.LastSeenIP = ip
	}
	if version != "" {
		l.LastSeenVersion = version
	}
	return nil
}

func (m *Store) FindDevice(ctx context.Context, licenseID uuid.UUID, fingerprint string) (*models.Device, error) {
	for _, d := range m.Devices {
		if d.LicenseID == licenseID && d.Fingerprint == fingerprint {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Store) FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	d, ok := m.Devices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Store) ListDevices(ctx context.Context, licenseID uuid.UUID) ([]models.Device, error) {
	var out []models.Device
	for _, d := range m.Devices {
		if d.LicenseID == licenseID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *Store) CountApprovedDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	for _, d := range m.Devices {
		if d.LicenseID == licenseID && d.Status == enums.DeviceStatusApproved {
			count++
		}
	}
	return count, nil
}

func (m *Store) CountDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	for _, d := range m.Devices {
		if d.LicenseID == licenseID {
			count++
		}
	}
	return count, nil
}

func (m *Store) CountDevicesByLicense(ctx context.Context, licenseIDs []uuid.UUID) (map[uuid.UUID]registry.DeviceCounts, error) {
	out := make(map[uuid.UUID]registry.DeviceCounts, len(licenseIDs))
	for _, id := range licenseIDs {
		counts := registry.DeviceCounts{}
		for _, d := range m.Devices {
			if d.LicenseID != id {
				continue
			}
			counts.Total++
			if d.Status == enums.DeviceStatusApproved {
				counts.Approved++
			}
		}
		if counts.Total > 0 {
			out[id] = counts
		}
	}
	return out, nil
}

func (m *Store) CreateDevice(ctx context.Context, device *models.Device) (*models.Device, error) {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	cp := *device
	m.Devices[device.ID] = &cp
	return device, nil
}

func (m *Store) UpdateDevice(ctx context.Context, device *models.Device) error {
	cp := *device
	m.Devices[device.ID] = &cp
	return nil
}

func (m *Store) SetDeviceStatus(ctx context.Context, deviceID uuid.UUID, status enums.DeviceStatus) error {
	d, ok := m.Devices[deviceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.Status = status
	return nil
}

func (m *Store) OldestApprovedDevice(ctx context.Context, licenseID uuid.UUID) (*models.Device, error) {
	var oldest *models.Device
	for _, d := range m.Devices {
		if d.LicenseID != licenseID || d.Status != enums.DeviceStatusApproved {
			continue
		}
		if oldest == nil ||
			d.LastSeenAt.Before(oldest.LastSeenAt) ||
			(d.LastSeenAt.Equal(oldest.LastSeenAt) && d.FirstSeenAt.Before(oldest.FirstSeenAt)) {
			oldest = d
		}
	}
	if oldest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (m *Store) RevokeAllDevices(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var affected int64
	for _, d := range m.Devices {
		if d.LicenseID == licenseID && d.Status == enums.DeviceStatusApproved {
			d.Status = enums.DeviceStatusRevoked
			affected++
		}
	}
	return affected, nil
}

func (m *Store) AppendLog(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	m.Logs = append(m.Logs, &cp)
	return nil
}

func (m *Store) ListLogs(ctx context.Context, licenseID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	for i := len(m.Logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Logs[i].LicenseID == licenseID {
			out = append(out, *m.Logs[i])
		}
	}
	return out, nil
}
