package enums

import "fmt"

// LicenseStatus maps to the license_status enum in Postgres.
type LicenseStatus string

const (
	LicenseStatusInactive  LicenseStatus = "inactive"
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusExpired   LicenseStatus = "expired"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusRevoked   LicenseStatus = "revoked"
)

var validLicenseStatuses = []LicenseStatus{
	LicenseStatusInactive,
	LicenseStatusActive,
	LicenseStatusExpired,
	LicenseStatusSuspended,
	LicenseStatusRevoked,
}

// String implements fmt.Stringer.
func (l LicenseStatus) String() string {
	return string(l)
}

// IsValid reports whether the value matches the canonical license_status enum.
func (l LicenseStatus) IsValid() bool {
	for _, candidate := range validLicenseStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLicenseStatus converts raw input into LicenseStatus.
func ParseLicenseStatus(value string) (LicenseStatus, error) {
	for _, candidate := range validLicenseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid license status %q", value)
}

// CanTransitionTo reports whether the edge from l to next exists in the
// license state machine. Revoked is terminal.
func (l LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	if !next.IsValid() || l == next {
		return false
	}
	switch l {
	case LicenseStatusInactive:
		return next == LicenseStatusActive || next == LicenseStatusExpired ||
			next == LicenseStatusSuspended || next == LicenseStatusRevoked
	case LicenseStatusActive:
		return next == LicenseStatusExpired || next == LicenseStatusSuspended || next == LicenseStatusRevoked
	case LicenseStatusExpired, LicenseStatusSuspended:
		return next == LicenseStatusActive || next == LicenseStatusRevoked ||
			(l == LicenseStatusExpired && next == LicenseStatusSuspended) ||
			(l == LicenseStatusSuspended && next == LicenseStatusExpired)
	case LicenseStatusRevoked:
		return false
	}
	return false
}
