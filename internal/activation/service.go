package activation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gymcore/license-server/internal/registry"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/security"
	"github.com/gymcore/license-server/pkg/types"
)

// DeviceMeta carries the client-reported device details on activate/validate.
type DeviceMeta struct {
	DeviceName string
	Platform   string
	AppVersion string
	IP         string
}

// Service binds devices to licenses and re-validates them periodically.
type Service interface {
	Activate(ctx context.Context, licenseKey, fingerprint string, meta DeviceMeta) (*ActivateResult, error)
	Validate(ctx context.Context, licenseKey, fingerprint string, meta DeviceMeta) (*ValidateResult, error)
	Status(ctx context.Context, licenseKey string) (*StatusResult, error)
}

type service struct {
	store registry.Store
	logg  *logger.Logger
	cfg   config.ValidationConfig
	now   func() time.Time
}

// NewService builds the activation engine backed by the provided store.
func NewService(store registry.Store, logg *logger.Logger, cfg config.ValidationConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registry store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store: store,
		logg:  logg,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

func (s *service) Activate(ctx context.Context, licenseKey, fingerprint string, meta DeviceMeta) (*ActivateResult, error) {
	key := security.NormalizeLicenseKey(licenseKey)
	fingerprint = strings.TrimSpace(fingerprint)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license_key is required")
	}
	if fingerprint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fingerprint is required")
	}

	ctx = s.logg.WithLicenseKey(ctx, key)
	ctx = s.logg.WithFingerprint(ctx, fingerprint)

	var result *ActivateResult
	var failure *activateRejection
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		license, err := tx.FindLicenseByKeyForUpdate(ctx, key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		now := s.now().UTC()

		// Activation is the call that leaves inactive, so it passes the gate.
		if code := rejectionCode(license, now, true); code != "" {
			device, derr := tx.FindDevice(ctx, license.ID, fingerprint)
			if derr != nil && !errors.Is(derr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, derr, "lookup device")
			}
			failure = &activateRejection{license: license, device: device, code: code}
			return pkgerrors.New(code, validationMessage(code))
		}

		device, err := tx.FindDevice(ctx, license.ID, fingerprint)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup device")
		}

		// Admission only applies to fingerprints without an approved binding.
		// Auto-admission never evicts; over-limit claims are rejected whole.
		if device == nil || device.Status != enums.DeviceStatusApproved {
			approved, err := tx.CountApprovedDevices(ctx, license.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved devices")
			}
			if approved >= int64(license.DeviceLimit) {
				failure = &activateRejection{license: license, device: device, code: pkgerrors.CodeDeviceLimit}
				return pkgerrors.New(pkgerrors.CodeDeviceLimit, "device limit reached")
			}
		}

		if device == nil {
			device = &models.Device{
				LicenseID:   license.ID,
				Fingerprint: fingerprint,
				Name:        meta.DeviceName,
				Platform:    meta.Platform,
				AppVersion:  meta.AppVersion,
				Status:      enums.DeviceStatusApproved,
				FirstSeenAt: now,
				LastSeenAt:  now,
				LastSeenIP:  meta.IP,
			}
			if _, err := tx.CreateDevice(ctx, device); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create device")
			}
		} else {
			device.Status = enums.DeviceStatusApproved
			device.LastSeenAt = now
			if meta.DeviceName != "" {
				device.Name = meta.DeviceName
			}
			if meta.Platform != "" {
				device.Platform = meta.Platform
			}
			if meta.AppVersion != "" {
				device.AppVersion = meta.AppVersion
			}
			if meta.IP != "" {
				device.LastSeenIP = meta.IP
			}
			if err := tx.UpdateDevice(ctx, device); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update device")
			}
		}

		license.Status = enums.LicenseStatusActive
		if license.ActivatedAt == nil {
			license.ActivatedAt = &now
		}
		license.LastCheckedAt = &now
		if meta.IP != "" {
			license.LastSeenIP = meta.IP
		}
		if meta.AppVersion != "" {
			license.LastSeenVersion = meta.AppVersion
		}
		if err := tx.UpdateLicense(ctx, license); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update license")
		}

		entry := &models.ActivityLog{
			LicenseID: license.ID,
			DeviceID:  &device.ID,
			Action:    enums.ActivityActivated,
			IP:        meta.IP,
			Details: types.JSONMap{
				"fingerprint": fingerprint,
				"platform":    device.Platform,
				"app_version": device.AppVersion,
			},
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity log")
		}

		approved, err := tx.CountApprovedDevices(ctx, license.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved devices")
		}

		result = &ActivateResult{
			License: newLicenseSummary(license, approved),
			Device:  newDeviceSnapshot(device),
		}
		return nil
	})
	if err != nil {
		// The transaction rolls back on rejection, so the expiry flip and
		// the audit entry are persisted in their own unit of work here.
		if failure != nil {
			s.lazyExpire(ctx, s.store, failure.license)
			s.logFailure(ctx, s.store, failure.license, failure.device, enums.ActivityActivationFailed, failure.code, fingerprint, meta.IP)
		}
		return nil, err
	}

	s.logg.Info(ctx, "license activated")
	return result, nil
}

func (s *service) Validate(ctx context.Context, licenseKey, fingerprint string, meta DeviceMeta) (*ValidateResult, error) {
	key := security.NormalizeLicenseKey(licenseKey)
	fingerprint = strings.TrimSpace(fingerprint)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license_key is required")
	}
	if fingerprint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fingerprint is required")
	}

	ctx = s.logg.WithLicenseKey(ctx, key)
	ctx = s.logg.WithFingerprint(ctx, fingerprint)

	license, err := s.store.FindLicenseByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	device, err := s.store.FindDevice(ctx, license.ID, fingerprint)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup device")
	}

	if code := rejectionCode(license, s.now().UTC(), false); code != "" {
		s.lazyExpire(ctx, s.store, license)
		s.logFailure(ctx, s.store, license, device, enums.ActivityValidationFailed, code, fingerprint, meta.IP)
		return nil, pkgerrors.New(code, validationMessage(code))
	}

	if device == nil || device.Status != enums.DeviceStatusApproved {
		s.logFailure(ctx, s.store, license, device, enums.ActivityValidationFailed, pkgerrors.CodeDeviceNotApproved, fingerprint, meta.IP)
		return nil, pkgerrors.New(pkgerrors.CodeDeviceNotApproved, "device is not approved for this license")
	}

	now := s.now().UTC()
	device.LastSeenAt = now
	if meta.IP != "" {
		device.LastSeenIP = meta.IP
	}
	if meta.AppVersion != "" {
		device.AppVersion = meta.AppVersion
	}
	if err := s.store.UpdateDevice(ctx, device); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update device")
	}
	if err := s.store.TouchLicenseSeen(ctx, license.ID, now, meta.IP, meta.AppVersion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch license")
	}

	entry := &models.ActivityLog{
		LicenseID: license.ID,
		DeviceID:  &device.ID,
		Action:    enums.ActivityValidated,
		IP:        meta.IP,
		Details:   types.JSONMap{"fingerprint": fingerprint, "app_version": device.AppVersion},
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity log")
	}

	approved, err := s.store.CountApprovedDevices(ctx, license.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved devices")
	}

	return &ValidateResult{
		Valid:             true,
		License:           newLicenseSummary(license, approved),
		Device:            newDeviceSnapshot(device),
		GracePeriodDays:   s.cfg.GracePeriodDays,
		NextCheckRequired: now.Add(s.cfg.NextCheckInterval),
	}, nil
}

func (s *service) Status(ctx context.Context, licenseKey string) (*StatusResult, error) {
	key := security.NormalizeLicenseKey(licenseKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license_key is required")
	}

	license, err := s.store.FindLicenseByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	s.lazyExpire(ctx, s.store, license)

	approved, err := s.store.CountApprovedDevices(ctx, license.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved devices")
	}

	return &StatusResult{License: newLicenseSummary(license, approved)}, nil
}

// activateRejection captures a policy failure raised inside the activation
// transaction so its audit entry survives the rollback.
type activateRejection struct {
	license *models.License
	device  *models.Device
	code    pkgerrors.Code
}

// rejectionCode maps the license row's state to a rejection code. Empty
// string means the call may proceed. Expiry persistence is the caller's job.
func rejectionCode(license *models.License, now time.Time, activating bool) pkgerrors.Code {
	switch license.Status {
	case enums.LicenseStatusSuspended:
		return pkgerrors.CodeSuspended
	case enums.LicenseStatusRevoked:
		return pkgerrors.CodeRevoked
	case enums.LicenseStatusExpired:
		return pkgerrors.CodeExpired
	}

	if license.IsExpiredAt(now) {
		return pkgerrors.CodeExpired
	}

	if !activating && license.Status == enums.LicenseStatusInactive {
		return pkgerrors.CodeNotActivated
	}
	return ""
}

// lazyExpire flips a past-expiry license to expired in storage. No background
// timer exists; this is the only place expiry is materialized.
func (s *service) lazyExpire(ctx context.Context, store registry.Store, license *models.License) {
	if !license.IsExpiredAt(s.now().UTC()) || license.Status == enums.LicenseStatusExpired {
		return
	}
	if !license.Status.CanTransitionTo(enums.LicenseStatusExpired) {
		return
	}
	license.Status = enums.LicenseStatusExpired
	if err := store.UpdateLicense(ctx, license); err != nil {
		s.logg.Error(ctx, "persist lazy expiry", err)
	}
}

func (s *service) logFailure(ctx context.Context, store registry.Store, license *models.License, device *models.Device, action enums.ActivityAction, code pkgerrors.Code, fingerprint, ip string) {
	entry := &models.ActivityLog{
		LicenseID: license.ID,
		Action:    action,
		IP:        ip,
		Details:   types.JSONMap{"code": string(code), "fingerprint": fingerprint},
	}
	if device != nil {
		entry.DeviceID = &device.ID
	}
	if err := store.AppendLog(ctx, entry); err != nil {
		s.logg.Error(ctx, "append failure log", err)
	}
}

func validationMessage(code pkgerrors.Code) string {
	switch code {
	case pkgerrors.CodeSuspended:
		return "license is suspended"
	case pkgerrors.CodeRevoked:
		return "license has been revoked"
	case pkgerrors.CodeExpired:
		return "license has expired"
	case pkgerrors.CodeNotActivated:
		return "license has not been activated"
	default:
		return "license check failed"
	}
}
