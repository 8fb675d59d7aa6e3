package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

// Client code branches on these values, never on message text.
const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeNotFound           Code = "NOT_FOUND"
	CodeKeyExists          Code = "KEY_EXISTS"
	CodeConflict           Code = "CONFLICT"
	CodeNotActivated       Code = "NOT_ACTIVATED"
	CodeDeviceNotApproved  Code = "DEVICE_NOT_APPROVED"
	CodeDeviceLimit        Code = "DEVICE_LIMIT_REACHED"
	CodeExpired            Code = "EXPIRED"
	CodeSuspended          Code = "SUSPENDED"
	CodeRevoked            Code = "LICENSE_REVOKED"
	CodeRateLimit          Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeDependency         Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	PolicyFailure  bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthenticated: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid credentials",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeKeyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "license key already exists",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "resource version conflict",
	},
	CodeNotActivated: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "license has not been activated",
	},
	CodeDeviceNotApproved: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "device is not approved for this license",
	},
	CodeDeviceLimit: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "device limit reached",
	},
	CodeExpired: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "license has expired",
	},
	CodeSuspended: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "license is suspended",
	},
	CodeRevoked: {
		HTTPStatus:    http.StatusForbidden,
		PolicyFailure: true,
		PublicMessage: "license has been revoked",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "dependency unavailable",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// IsPolicyFailure reports whether the code represents a state-based rejection
// that must be mirrored into the activity log.
func IsPolicyFailure(code Code) bool {
	return MetadataFor(code).PolicyFailure
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
