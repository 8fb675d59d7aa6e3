package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gymcore/license-server/api/middleware"
	"github.com/gymcore/license-server/api/responses"
	"github.com/gymcore/license-server/api/validators"
	"github.com/gymcore/license-server/internal/activation"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/metrics"
	"github.com/gymcore/license-server/pkg/signing"
)

func outcomeCode(err error) string {
	if err == nil {
		return "OK"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}

type activateRequest struct {
	LicenseKey  string `json:"license_key" validate:"required"`
	Fingerprint string `json:"fingerprint" validate:"required"`
	DeviceName  string `json:"device_name"`
	Platform    string `json:"platform"`
	AppVersion  string `json:"app_version"`
}

type validateRequest struct {
	LicenseKey  string `json:"license_key" validate:"required"`
	Fingerprint string `json:"fingerprint" validate:"required"`
	AppVersion  string `json:"app_version"`
}

// Activate binds a device fingerprint to a license. The response, success or
// failure, goes out inside the signed envelope.
func Activate(svc activation.Service, signer *signing.Signer, logg *logger.Logger, m *metrics.APIMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSignedError(ctx, logg, signer, w, pkgerrors.New(pkgerrors.CodeInternal, "activation service unavailable"))
			return
		}

		var payload activateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithLicenseKey(ctx, payload.LicenseKey)
			ctx = logg.WithFingerprint(ctx, payload.Fingerprint)
		}

		result, err := svc.Activate(ctx, payload.LicenseKey, payload.Fingerprint, activation.DeviceMeta{
			DeviceName: validators.SanitizeString(payload.DeviceName, 120),
			Platform:   validators.SanitizeString(payload.Platform, 60),
			AppVersion: validators.SanitizeString(payload.AppVersion, 60),
			IP:         middleware.ClientIP(r),
		})
		m.IncOutcome("activate", outcomeCode(err))
		if err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		responses.WriteSigned(ctx, logg, signer, w, result)
	}
}

// Validate is the periodic heartbeat. Every call re-reads license and device
// state; a device revoked between heartbeats is rejected on the next one.
func Validate(svc activation.Service, signer *signing.Signer, logg *logger.Logger, m *metrics.APIMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSignedError(ctx, logg, signer, w, pkgerrors.New(pkgerrors.CodeInternal, "activation service unavailable"))
			return
		}

		var payload validateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithLicenseKey(ctx, payload.LicenseKey)
			ctx = logg.WithFingerprint(ctx, payload.Fingerprint)
		}

		result, err := svc.Validate(ctx, payload.LicenseKey, payload.Fingerprint, activation.DeviceMeta{
			AppVersion: validators.SanitizeString(payload.AppVersion, 60),
			IP:         middleware.ClientIP(r),
		})
		m.IncOutcome("validate", outcomeCode(err))
		if err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		responses.WriteSigned(ctx, logg, signer, w, result)
	}
}

// LicenseStatus returns the lightweight license snapshot by key.
func LicenseStatus(svc activation.Service, signer *signing.Signer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSignedError(ctx, logg, signer, w, pkgerrors.New(pkgerrors.CodeInternal, "activation service unavailable"))
			return
		}

		key := strings.TrimSpace(chi.URLParam(r, "key"))
		if key == "" {
			responses.WriteSignedError(ctx, logg, signer, w, pkgerrors.New(pkgerrors.CodeValidation, "license key is required"))
			return
		}

		if logg != nil {
			ctx = logg.WithLicenseKey(ctx, key)
		}

		result, err := svc.Status(ctx, key)
		if err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		responses.WriteSigned(ctx, logg, signer, w, result)
	}
}
