package enums

import "testing"

func TestLicenseStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to LicenseStatus
		allowed  bool
	}{
		{LicenseStatusInactive, LicenseStatusActive, true},
		{LicenseStatusActive, LicenseStatusExpired, true},
		{LicenseStatusActive, LicenseStatusSuspended, true},
		{LicenseStatusActive, LicenseStatusRevoked, true},
		{LicenseStatusExpired, LicenseStatusActive, true},
		{LicenseStatusSuspended, LicenseStatusActive, true},
		{LicenseStatusRevoked, LicenseStatusActive, false},
		{LicenseStatusRevoked, LicenseStatusInactive, false},
		{LicenseStatusActive, LicenseStatusInactive, false},
		{LicenseStatusActive, LicenseStatus("bogus"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestParseLicenseStatus(t *testing.T) {
	if _, err := ParseLicenseStatus("active"); err != nil {
		t.Fatalf("active should parse: %v", err)
	}
	if _, err := ParseLicenseStatus("pending"); err == nil {
		t.Fatalf("pending is not a license status")
	}
}
