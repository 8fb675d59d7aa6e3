package enums

import "fmt"

// LicenseTier maps to the license_tier enum in Postgres.
type LicenseTier string

const (
	LicenseTierStarter    LicenseTier = "starter"
	LicenseTierStandard   LicenseTier = "standard"
	LicenseTierEnterprise LicenseTier = "enterprise"
)

var validLicenseTiers = []LicenseTier{
	LicenseTierStarter,
	LicenseTierStandard,
	LicenseTierEnterprise,
}

// String implements fmt.Stringer.
func (l LicenseTier) String() string {
	return string(l)
}

// IsValid reports whether the value matches the canonical license_tier enum.
func (l LicenseTier) IsValid() bool {
	for _, candidate := range validLicenseTiers {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLicenseTier converts raw input into LicenseTier.
func ParseLicenseTier(value string) (LicenseTier, error) {
	for _, candidate := range validLicenseTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid license tier %q", value)
}
