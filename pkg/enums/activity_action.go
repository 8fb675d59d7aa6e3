package enums

import "fmt"

// ActivityAction enumerates the append-only audit log actions.
type ActivityAction string

const (
	ActivityLicenseCreated            ActivityAction = "LICENSE_CREATED"
	ActivityStatusChanged             ActivityAction = "STATUS_CHANGED"
	ActivityActivated                 ActivityAction = "ACTIVATED"
	ActivityActivationFailed          ActivityAction = "ACTIVATION_FAILED"
	ActivityValidated                 ActivityAction = "VALIDATED"
	ActivityValidationFailed          ActivityAction = "VALIDATION_FAILED"
	ActivityDeviceApproved            ActivityAction = "DEVICE_APPROVED"
	ActivityDeviceRevoked             ActivityAction = "DEVICE_REVOKED"
	ActivityDeviceAutoRevokedForLimit ActivityAction = "DEVICE_AUTO_REVOKED_FOR_LIMIT"
	ActivityDevicesReset              ActivityAction = "DEVICES_RESET"
)

var validActivityActions = []ActivityAction{
	ActivityLicenseCreated,
	ActivityStatusChanged,
	ActivityActivated,
	ActivityActivationFailed,
	ActivityValidated,
	ActivityValidationFailed,
	ActivityDeviceApproved,
	ActivityDeviceRevoked,
	ActivityDeviceAutoRevokedForLimit,
	ActivityDevicesReset,
}

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known audit action.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
