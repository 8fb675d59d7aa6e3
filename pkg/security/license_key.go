package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Key charset omits 0/O/1/I so keys stay human-typable over the phone.
const licenseKeyCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	licenseKeyPrefix = "GYM"
	licenseKeyGroups = 3
	licenseGroupLen  = 4
)

var licenseKeyPattern = regexp.MustCompile(`^GYM(-[A-HJ-NP-Z2-9]{4}){3}$`)

// GenerateLicenseKey produces a key of the form GYM-XXXX-XXXX-XXXX using
// crypto/rand.
func GenerateLicenseKey() (string, error) {
	parts := make([]string, 0, licenseKeyGroups+1)
	parts = append(parts, licenseKeyPrefix)
	for i := 0; i < licenseKeyGroups; i++ {
		group := make([]byte, licenseGroupLen)
		for j := range group {
			idx, err := randInt(len(licenseKeyCharset))
			if err != nil {
				return "", fmt.Errorf("generate license key: %w", err)
			}
			group[j] = licenseKeyCharset[idx]
		}
		parts = append(parts, string(group))
	}
	return strings.Join(parts, "-"), nil
}

// NormalizeLicenseKey upcases and trims a client-supplied key.
func NormalizeLicenseKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// IsLicenseKeyFormat reports whether the value matches the generated key
// shape. Explicit admin-supplied keys may use any non-empty string; this
// check only gates what Generate produces.
func IsLicenseKeyFormat(key string) bool {
	return licenseKeyPattern.MatchString(key)
}
