package enums

import "fmt"

// DeviceStatus maps to the device_status enum in Postgres. There is no
// pending state: a new fingerprint is either approved on admission or never
// persisted.
type DeviceStatus string

const (
	DeviceStatusApproved DeviceStatus = "approved"
	DeviceStatusRevoked  DeviceStatus = "revoked"
)

var validDeviceStatuses = []DeviceStatus{
	DeviceStatusApproved,
	DeviceStatusRevoked,
}

// String implements fmt.Stringer.
func (d DeviceStatus) String() string {
	return string(d)
}

// IsValid reports whether the value matches the canonical device_status enum.
func (d DeviceStatus) IsValid() bool {
	for _, candidate := range validDeviceStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceStatus converts raw input into DeviceStatus.
func ParseDeviceStatus(value string) (DeviceStatus, error) {
	for _, candidate := range validDeviceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device status %q", value)
}
