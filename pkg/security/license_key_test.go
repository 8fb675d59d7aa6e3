package security_test

import (
	"testing"

	"github.com/gymcore/license-server/pkg/security"
)

func TestGenerateLicenseKeyShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := security.GenerateLicenseKey()
		if err != nil {
			t.Fatalf("GenerateLicenseKey returned error: %v", err)
		}
		if !security.IsLicenseKeyFormat(key) {
			t.Fatalf("generated key %q does not match expected format", key)
		}
		if seen[key] {
			t.Fatalf("generated duplicate key %q within 50 draws", key)
		}
		seen[key] = true
	}
}

func TestNormalizeLicenseKey(t *testing.T) {
	if got := security.NormalizeLicenseKey("  gym-ab12-cd34-ef56 "); got != "GYM-AB12-CD34-EF56" {
		t.Fatalf("unexpected normalized key %q", got)
	}
}

func TestIsLicenseKeyFormatRejectsAmbiguous(t *testing.T) {
	if security.IsLicenseKeyFormat("GYM-AB10-CD34-EF56") {
		t.Fatal("keys containing 0 should not match the generated format")
	}
	if security.IsLicenseKeyFormat("CUSTOM-KEY") {
		t.Fatal("arbitrary strings should not match the generated format")
	}
}
