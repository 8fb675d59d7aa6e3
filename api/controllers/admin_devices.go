package controllers

import (
	"net/http"
	"strings"

	"github.com/gymcore/license-server/api/middleware"
	"github.com/gymcore/license-server/api/responses"
	"github.com/gymcore/license-server/api/validators"
	"github.com/gymcore/license-server/internal/admin"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

type deviceApproveRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
}

// AdminDeviceList returns every device row bound to a license, approved and
// revoked alike, ordered oldest activity first.
func AdminDeviceList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		licenseID, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		devices, err := svc.ListDevices(ctx, licenseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]deviceResponse, 0, len(devices))
		for i := range devices {
			out = append(out, deviceResponseFromModel(&devices[i]))
		}
		responses.WriteSuccess(w, map[string]any{"devices": out})
	}
}

// AdminDeviceApprove approves a known device by id, evicting the
// oldest-activity approved devices if the license is at its limit.
func AdminDeviceApprove(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		deviceID, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ApproveDevice(ctx, deviceID, middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, approveResponse(result))
	}
}

// AdminFingerprintApprove pre-approves a fingerprint on a license, creating
// the device row if the fingerprint has never connected.
func AdminFingerprintApprove(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		licenseID, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload deviceApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ApproveFingerprint(ctx, licenseID, strings.TrimSpace(payload.Fingerprint), middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, approveResponse(result))
	}
}

// AdminDeviceRevoke revokes a single device binding.
func AdminDeviceRevoke(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		deviceID, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		device, err := svc.RevokeDevice(ctx, deviceID, middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, deviceResponseFromModel(device))
	}
}

// AdminDevicesReset revokes every device on a license so a gym can re-bind
// after a hardware migration.
func AdminDevicesReset(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		licenseID, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		revoked, err := svc.ResetDevices(ctx, licenseID, middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"revoked": revoked})
	}
}

func approveResponse(result *admin.ApproveDeviceResult) map[string]any {
	evicted := make([]deviceResponse, 0, len(result.Evicted))
	for i := range result.Evicted {
		evicted = append(evicted, deviceResponseFromModel(&result.Evicted[i]))
	}
	return map[string]any{
		"device":  deviceResponseFromModel(result.Device),
		"evicted": evicted,
	}
}
