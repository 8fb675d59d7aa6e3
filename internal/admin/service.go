package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gymcore/license-server/internal/registry"
	"github.com/gymcore/license-server/pkg/auth"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/enums"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/pagination"
	"github.com/gymcore/license-server/pkg/security"
	"github.com/gymcore/license-server/pkg/types"
)

const keyGenerationAttempts = 5

type adminUsersRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Save(ctx context.Context, user *models.AdminUser) error
}

// Service exposes operator authentication and license/device administration.
type Service interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	CreateLicense(ctx context.Context, input CreateLicenseInput) (*models.License, error)
	UpdateLicenseStatus(ctx context.Context, licenseID uuid.UUID, status enums.LicenseStatus, reason, actor string) (*models.License, error)
	ListLicenses(ctx context.Context, params ListParams) (*ListResult, error)
	ListDevices(ctx context.Context, licenseID uuid.UUID) ([]models.Device, error)
	ApproveDevice(ctx context.Context, deviceID uuid.UUID, actor string) (*ApproveDeviceResult, error)
	ApproveFingerprint(ctx context.Context, licenseID uuid.UUID, fingerprint, actor string) (*ApproveDeviceResult, error)
	RevokeDevice(ctx context.Context, deviceID uuid.UUID, actor string) (*models.Device, error)
	ResetDevices(ctx context.Context, licenseID uuid.UUID, actor string) (int64, error)
}

type service struct {
	store     registry.Store
	admins    adminUsersRepository
	logg      *logger.Logger
	jwtCfg    config.JWTConfig
	passCfg   config.PasswordConfig
	defaults  config.ValidationConfig
	dummyHash string
	now       func() time.Time
}

// LoginResult carries a freshly minted admin token.
type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateLicenseInput holds the fields an operator supplies when issuing a
// license. Key is optional; a random one is generated when absent.
type CreateLicenseInput struct {
	Key         string
	Tier        enums.LicenseTier
	OwnerName   string
	OwnerEmail  string
	GymName     string
	MemberQuota int
	DeviceLimit int
	ExpiresAt   *time.Time
	Actor       string
}

// ListParams holds license listing inputs.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// LicenseRow is one listing entry with device counts.
type LicenseRow struct {
	models.License
	ApprovedDevices int64 `json:"approved_devices"`
	TotalDevices    int64 `json:"total_devices"`
}

// ListResult is one license listing page.
type ListResult struct {
	Licenses   []LicenseRow `json:"licenses"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ApproveDeviceResult reports an admin approval and the devices it displaced.
type ApproveDeviceResult struct {
	Device  *models.Device  `json:"device"`
	Evicted []models.Device `json:"evicted"`
}

// NewService builds the admin service.
func NewService(store registry.Store, admins adminUsersRepository, logg *logger.Logger, jwtCfg config.JWTConfig, passCfg config.PasswordConfig, defaults config.ValidationConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registry store required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	// Verified against when the username is unknown so both login failure
	// paths cost one argon2 evaluation.
	dummyHash, err := security.HashPassword("gymcore-login-pad", passCfg)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &service{
		store:     store,
		admins:    admins,
		logg:      logg,
		jwtCfg:    jwtCfg,
		passCfg:   passCfg,
		defaults:  defaults,
		dummyHash: dummyHash,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid username or password")
	}

	user, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, _ = security.VerifyPassword(password, s.dummyHash)
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid username or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid username or password")
	}

	now := s.now().UTC()
	token, err := auth.MintAdminToken(s.jwtCfg, now, user.ID, user.Username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin token")
	}

	user.LastLoginAt = &now
	if err := s.admins.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}

	s.logg.Info(s.logg.WithAdmin(ctx, user.Username), "admin logged in")
	return &LoginResult{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
	}, nil
}

func (s *service) CreateLicense(ctx context.Context, input CreateLicenseInput) (*models.License, error) {
	if strings.TrimSpace(input.OwnerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner_name is required")
	}
	if strings.TrimSpace(input.OwnerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner_email is required")
	}
	if strings.TrimSpace(input.GymName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gym_name is required")
	}
	tier := input.Tier
	if tier == "" {
		tier = enums.LicenseTierStandard
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid license tier")
	}
	deviceLimit := input.DeviceLimit
	if deviceLimit == 0 {
		deviceLimit = s.defaults.DefaultDeviceLimit
	}
	if deviceLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device_limit must be at least 1")
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(s.now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future")
	}

	explicitKey := security.NormalizeLicenseKey(input.Key)

	row := &models.License{
		Status:      enums.LicenseStatusInactive,
		Tier:        tier,
		OwnerName:   strings.TrimSpace(input.OwnerName),
		OwnerEmail:  strings.TrimSpace(input.OwnerEmail),
		GymName:     strings.TrimSpace(input.GymName),
		MemberQuota: input.MemberQuota,
		DeviceLimit: deviceLimit,
		ExpiresAt:   input.ExpiresAt,
	}

	created, err := s.insertWithKey(ctx, row, explicitKey)
	if err != nil {
		return nil, err
	}

	entry := &models.ActivityLog{
		LicenseID: created.ID,
		Action:    enums.ActivityLicenseCreated,
		Details: types.JSONMap{
			"key":          created.Key,
			"tier":         string(created.Tier),
			"device_limit": created.DeviceLimit,
			"admin":        input.Actor,
		},
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity log")
	}

	s.logg.Info(s.logg.WithLicenseKey(ctx, created.Key), "license created")
	return created, nil
}

// insertWithKey inserts the row with the explicit key, or retries generated
// keys on collision. Explicit-key collisions surface KEY_EXISTS.
func (s *service) insertWithKey(ctx context.Context, row *models.License, explicitKey string) (*models.License, error) {
	if explicitKey != "" {
		row.Key = explicitKey
		created, err := s.store.CreateLicense(ctx, row)
		if err != nil {
			if isKeyCollision(err) {
				return nil, pkgerrors.New(pkgerrors.CodeKeyExists, "license key already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
		}
		return created, nil
	}

	for attempt := 0; attempt < keyGenerationAttempts; attempt++ {
		key, err := security.GenerateLicenseKey()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate license key")
		}
		row.Key = key
		created, err := s.store.CreateLicense(ctx, row)
		if err == nil {
			return created, nil
		}
		if !isKeyCollision(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not generate a unique license key")
}

func (s *service) UpdateLicenseStatus(ctx context.Context, licenseID uuid.UUID, status enums.LicenseStatus, reason, actor string) (*models.License, error) {
	if licenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid license status")
	}
	if status == enums.LicenseStatusRevoked && strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "revocation reason required")
	}

	var updated *models.License
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		license, err := tx.FindLicenseByID(ctx, licenseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		if !license.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot transition license from %s to %s", license.Status, status))
		}

		from := license.Status
		license.Status = status
		if status == enums.LicenseStatusRevoked {
			license.RevocationReason = strings.TrimSpace(reason)
		}
		if err := tx.UpdateLicense(ctx, license); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update license")
		}

		entry := &models.ActivityLog{
			LicenseID: license.ID,
			Action:    enums.ActivityStatusChanged,
			Details: types.JSONMap{
				"from":   string(from),
				"to":     string(status),
				"reason": strings.TrimSpace(reason),
				"admin":  actor,
			},
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity log")
		}

		updated = license
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListLicenses(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := registry.ListQuery{
		Status: params.Status,
		Limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.store.ListLicenses(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licenses")
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.store.CountDevicesByLicense(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count devices")
	}

	out := make([]LicenseRow, 0, len(rows))
	for _, row := range rows {
		c := counts[row.ID]
		out = append(out, LicenseRow{License: row, ApprovedDevices: c.Approved, TotalDevices: c.Total})
	}

	result := &ListResult{Licenses: out}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) ListDevices(ctx context.Context, licenseID uuid.UUID) ([]models.Device, error) {
	if licenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	if _, err := s.store.FindLicenseByID(ctx, licenseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	devices, err := s.store.ListDevices(ctx, licenseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list devices")
	}
	return devices, nil
}

// ApproveDevice approves a device on an operator's authority. Unlike
// auto-admission it may exceed the license's device limit by evicting the
// least recently seen approved devices until exactly one slot frees.
func (s *service) ApproveDevice(ctx context.Context, deviceID uuid.UUID, actor string) (*ApproveDeviceResult, error) {
	if deviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}

	var result *ApproveDeviceResult
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		device, err := tx.FindDeviceByID(ctx, deviceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "device not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup device")
		}

		license, err := tx.FindLicenseByID(ctx, device.LicenseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		if device.Status == enums.DeviceStatusApproved {
			result = &ApproveDeviceResult{Device: device}
			return nil
		}

		res, err := s.approveWithEviction(ctx, tx, license, device, actor)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveFingerprint approves a fingerprint on an operator's authority even
// when the registry holds no row for it yet, which is the case after an
// over-limit activation attempt was refused.
func (s *service) ApproveFingerprint(ctx context.Context, licenseID uuid.UUID, fingerprint, actor string) (*ApproveDeviceResult, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if licenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	if fingerprint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fingerprint is required")
	}

	var result *ApproveDeviceResult
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		license, err := tx.FindLicenseByID(ctx, licenseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		device, err := tx.FindDevice(ctx, licenseID, fingerprint)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup device")
			}
			now := s.now().UTC()
			device = &models.Device{
				LicenseID:   licenseID,
				Fingerprint: fingerprint,
				Status:      enums.DeviceStatusRevoked,
				FirstSeenAt: now,
				LastSeenAt:  now,
			}
			if _, err := tx.CreateDevice(ctx, device); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create device")
			}
		}

		if device.Status == enums.DeviceStatusApproved {
			result = &ApproveDeviceResult{Device: device}
			return nil
		}

		res, err := s.approveWithEviction(ctx, tx, license, device, actor)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// approveWithEviction frees seats one at a time, oldest last-seen first with
// ties broken by earliest first-seen, then approves the target. Runs inside
// the caller's license-scoped transaction.
func (s *service) approveWithEviction(ctx context.Context, tx registry.Store, license *models.License, device *models.Device, actor string) (*ApproveDeviceResult, error) {
	var evicted []models.Device
	for {
		approved, err := tx.CountApprovedDevices(ctx, license.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved devices")
		}
		if approved < int64(license.DeviceLimit) {
			break
		}

		victim, err := tx.OldestApprovedDevice(ctx, license.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find eviction candidate")
		}
		if err := tx.SetDeviceStatus(ctx, victim.ID, enums.DeviceStatusRevoked); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "evict device")
		}

		entry := &models.ActivityLog{
			LicenseID: license.ID,
			DeviceID:  &victim.ID,
			Action:    enums.ActivityDeviceAutoRevokedForLimit,
			Details: types.JSONMap{
				"fingerprint":  victim.Fingerprint,
				"device_limit": license.DeviceLimit,
				"admin":        actor,
				"approved_for": device.Fingerprint,
			},
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append eviction log")
		}

		victim.Status = enums.DeviceStatusRevoked
		evicted = append(evicted, *victim)
	}

	if err := tx.SetDeviceStatus(ctx, device.ID, enums.DeviceStatusApproved); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve device")
	}
	device.Status = enums.DeviceStatusApproved

	entry := &models.ActivityLog{
		LicenseID: license.ID,
		DeviceID:  &device.ID,
		Action:    enums.ActivityDeviceApproved,
		Details: types.JSONMap{
			"fingerprint": device.Fingerprint,
			"admin":       actor,
		},
	}
	if err := tx.AppendLog(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append approval log")
	}

	return &ApproveDeviceResult{Device: device, Evicted: evicted}, nil
}

func (s *service) RevokeDevice(ctx context.Context, deviceID uuid.UUID, actor string) (*models.Device, error) {
	if deviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}

	var revoked *models.Device
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		device, err := tx.FindDeviceByID(ctx, deviceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "device not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup device")
		}

		if device.Status == enums.DeviceStatusRevoked {
			revoked = device
			return nil
		}

		if err := tx.SetDeviceStatus(ctx, device.ID, enums.DeviceStatusRevoked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke device")
		}
		device.Status = enums.DeviceStatusRevoked

		entry := &models.ActivityLog{
			LicenseID: device.LicenseID,
			DeviceID:  &device.ID,
			Action:    enums.ActivityDeviceRevoked,
			Details: types.JSONMap{
				"fingerprint": device.Fingerprint,
				"admin":       actor,
			},
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append revocation log")
		}

		revoked = device
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

func (s *service) ResetDevices(ctx context.Context, licenseID uuid.UUID, actor string) (int64, error) {
	if licenseID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}

	var affected int64
	err := s.store.Transact(ctx, func(tx registry.Store) error {
		if _, err := tx.FindLicenseByID(ctx, licenseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		count, err := tx.RevokeAllDevices(ctx, licenseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke devices")
		}
		affected = count

		entry := &models.ActivityLog{
			LicenseID: licenseID,
			Action:    enums.ActivityDevicesReset,
			Details: types.JSONMap{
				"revoked_count": count,
				"admin":         actor,
			},
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reset log")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func isKeyCollision(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, "")
}
