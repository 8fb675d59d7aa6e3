package activation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/license-server/internal/registry"
	"github.com/gymcore/license-server/internal/registry/registrytest"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, store registry.Store, now time.Time) *service {
	t.Helper()

	svc, err := NewService(store, testLogger(), config.ValidationConfig{
		GracePeriodDays:   7,
		NextCheckInterval: 24 * time.Hour,
	})
	require.NoError(t, err)

	impl := svc.(*service)
	impl.now = func() time.Time { return now }
	return impl
}

func seedStoreLicense(store *registrytest.Store, mutate func(*models.License)) *models.License {
	row := &models.License{
		ID:          uuid.New(),
		Key:         "GYM-TEST-TEST-TEST",
		Status:      enums.LicenseStatusInactive,
		Tier:        enums.LicenseTierStandard,
		OwnerName:   "Jordan Li",
		OwnerEmail:  "jordan@example.com",
		GymName:     "South Gym",
		DeviceLimit: 1,
	}
	if mutate != nil {
		mutate(row)
	}
	store.Licenses[row.ID] = row
	return row
}

func TestActivate_UnknownKey(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())

	_, err := svc.Activate(context.Background(), "GYM-NONE-NONE-NONE", "fp", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestActivate_FirstActivation(t *testing.T) {
	store := registrytest.New()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	lic := seedStoreLicense(store, nil)

	res, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{
		DeviceName: "Front Desk",
		Platform:   "windows",
		AppVersion: "3.0.0",
		IP:         "203.0.113.4",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.LicenseStatusActive, res.License.Status)
	assert.Equal(t, int64(1), res.License.ApprovedDevices)
	assert.Equal(t, enums.DeviceStatusApproved, res.Device.Status)

	stored := store.Licenses[lic.ID]
	assert.Equal(t, enums.LicenseStatusActive, stored.Status)
	require.NotNil(t, stored.ActivatedAt)
	assert.Equal(t, now, *stored.ActivatedAt)

	assert.Equal(t, []enums.ActivityAction{enums.ActivityActivated}, store.Actions(lic.ID))
}

func TestActivate_Idempotent(t *testing.T) {
	store := registrytest.New()
	first := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, first)
	lic := seedStoreLicense(store, nil)

	_, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	require.NoError(t, err)

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	res, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{AppVersion: "3.1.0"})
	require.NoError(t, err)

	assert.Len(t, store.Devices, 1)
	assert.Equal(t, int64(1), res.License.ApprovedDevices)

	stored := store.Licenses[lic.ID]
	require.NotNil(t, stored.ActivatedAt)
	assert.Equal(t, first, *stored.ActivatedAt, "activated_at is set once")
}

func TestActivate_DeviceLimitReached(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())
	lic := seedStoreLicense(store, nil)

	_, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), lic.Key, "fp-b", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDeviceLimit, appErr.Code())

	assert.Len(t, store.Devices, 1, "rejected fingerprint is never persisted")
	assert.Contains(t, store.Actions(lic.ID), enums.ActivityActivationFailed)
}

func TestActivate_SuspendedAndRevokedRejectWithoutMutation(t *testing.T) {
	cases := []struct {
		status enums.LicenseStatus
		code   pkgerrors.Code
	}{
		{enums.LicenseStatusSuspended, pkgerrors.CodeSuspended},
		{enums.LicenseStatusRevoked, pkgerrors.CodeRevoked},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			store := registrytest.New()
			svc := newTestService(t, store, time.Now())
			lic := seedStoreLicense(store, func(l *models.License) { l.Status = tc.status })

			_, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tc.code, appErr.Code())

			assert.Empty(t, store.Devices)
			assert.Equal(t, tc.status, store.Licenses[lic.ID].Status)
			assert.Contains(t, store.Actions(lic.ID), enums.ActivityActivationFailed)
		})
	}
}

func TestActivate_LazyExpiry(t *testing.T) {
	store := registrytest.New()
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)

	expiry := now.Add(-time.Hour)
	lic := seedStoreLicense(store, func(l *models.License) {
		l.Status = enums.LicenseStatusActive
		l.ExpiresAt = &expiry
	})

	// Storage still says active until this call evaluates expiry.
	assert.Equal(t, enums.LicenseStatusActive, store.Licenses[lic.ID].Status)

	_, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeExpired, appErr.Code())

	assert.Equal(t, enums.LicenseStatusExpired, store.Licenses[lic.ID].Status)
}

func TestValidate_InactiveRequiresActivation(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())
	lic := seedStoreLicense(store, nil)

	_, err := svc.Validate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotActivated, appErr.Code())
	assert.Contains(t, store.Actions(lic.ID), enums.ActivityValidationFailed)
}

func TestValidate_UnknownFingerprint(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())
	lic := seedStoreLicense(store, func(l *models.License) { l.Status = enums.LicenseStatusActive })

	_, err := svc.Validate(context.Background(), lic.Key, "fp-unknown", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDeviceNotApproved, appErr.Code())
}

func TestValidate_RevokedDeviceFailsNextCall(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())
	lic := seedStoreLicense(store, nil)

	res, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	require.NoError(t, err)

	// Admin flips the device out-of-band between two heartbeats.
	require.NoError(t, store.SetDeviceStatus(context.Background(), res.Device.ID, enums.DeviceStatusRevoked))

	_, err = svc.Validate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDeviceNotApproved, appErr.Code(), "no cross-request caching of device state")
}

func TestValidate_Success(t *testing.T) {
	store := registrytest.New()
	start := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, start)
	lic := seedStoreLicense(store, nil)

	_, err := svc.Activate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	require.NoError(t, err)

	later := start.Add(6 * time.Hour)
	svc.now = func() time.Time { return later }

	res, err := svc.Validate(context.Background(), lic.Key, "fp-a", DeviceMeta{AppVersion: "3.2.0", IP: "198.51.100.20"})
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, 7, res.GracePeriodDays)
	assert.Equal(t, later.Add(24*time.Hour), res.NextCheckRequired)
	assert.Equal(t, later, res.Device.LastSeenAt)

	stored := store.Licenses[lic.ID]
	require.NotNil(t, stored.LastCheckedAt)
	assert.Equal(t, later, *stored.LastCheckedAt)
	assert.Equal(t, "3.2.0", stored.LastSeenVersion)
	assert.Contains(t, store.Actions(lic.ID), enums.ActivityValidated)
}

func TestValidate_LazyExpiryFlipsStatus(t *testing.T) {
	store := registrytest.New()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)

	expiry := now.Add(-time.Minute)
	lic := seedStoreLicense(store, func(l *models.License) {
		l.Status = enums.LicenseStatusActive
		l.ExpiresAt = &expiry
	})

	_, err := svc.Validate(context.Background(), lic.Key, "fp-a", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeExpired, appErr.Code())
	assert.Equal(t, enums.LicenseStatusExpired, store.Licenses[lic.ID].Status)
}

func TestStatus_Snapshot(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())
	lic := seedStoreLicense(store, func(l *models.License) { l.Status = enums.LicenseStatusActive })

	res, err := svc.Status(context.Background(), lic.Key)
	require.NoError(t, err)
	assert.Equal(t, enums.LicenseStatusActive, res.License.Status)
	assert.Equal(t, lic.Key, res.License.Key)
}

func TestStatus_AppliesLazyExpiry(t *testing.T) {
	store := registrytest.New()
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)

	expiry := now.Add(-time.Hour)
	lic := seedStoreLicense(store, func(l *models.License) {
		l.Status = enums.LicenseStatusActive
		l.ExpiresAt = &expiry
	})

	res, err := svc.Status(context.Background(), lic.Key)
	require.NoError(t, err)
	assert.Equal(t, enums.LicenseStatusExpired, res.License.Status)
	assert.Equal(t, enums.LicenseStatusExpired, store.Licenses[lic.ID].Status)
}

func TestValidate_InputValidation(t *testing.T) {
	store := registrytest.New()
	svc := newTestService(t, store, time.Now())

	_, err := svc.Validate(context.Background(), "", "fp", DeviceMeta{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Validate(context.Background(), "GYM-TEST-TEST-TEST", "  ", DeviceMeta{})
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
