package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		policy    bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthenticated, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeInvalidCredentials, status: http.StatusUnauthorized, publicMsg: "invalid credentials"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeKeyExists, status: http.StatusConflict, publicMsg: "license key already exists"},
		{code: CodeNotActivated, status: http.StatusForbidden, publicMsg: "license has not been activated", policy: true},
		{code: CodeDeviceNotApproved, status: http.StatusForbidden, publicMsg: "device is not approved for this license", policy: true},
		{code: CodeDeviceLimit, status: http.StatusForbidden, publicMsg: "device limit reached", policy: true},
		{code: CodeExpired, status: http.StatusForbidden, publicMsg: "license has expired", policy: true},
		{code: CodeSuspended, status: http.StatusForbidden, publicMsg: "license is suspended", policy: true},
		{code: CodeRevoked, status: http.StatusForbidden, publicMsg: "license has been revoked", policy: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable"},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.PolicyFailure != tt.policy {
			t.Fatalf("code %s expected policy failure %v got %v", tt.code, tt.policy, meta.PolicyFailure)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeKeyExists, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeKeyExists {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeSuspended, "no entry")
	if got := As(err); got == nil || got.Code() != CodeSuspended {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsPolicyFailure(t *testing.T) {
	if !IsPolicyFailure(CodeDeviceLimit) {
		t.Fatalf("device limit should be a policy failure")
	}
	if IsPolicyFailure(CodeNotFound) {
		t.Fatalf("not found is not a policy failure")
	}
}
