package controllers

import (
	"net/http"

	"github.com/gymcore/license-server/api/responses"
	"github.com/gymcore/license-server/api/validators"
	"github.com/gymcore/license-server/internal/vendor"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/signing"
)

type vendorProfileUpdateRequest struct {
	CompanyName  string `json:"company_name" validate:"required"`
	SupportEmail string `json:"support_email" validate:"required,email"`
	SupportPhone string `json:"support_phone"`
	Website      string `json:"website"`
	Version      int    `json:"version" validate:"gte=0"`
}

// PublicVendorProfile serves the support-contact card to the client app,
// inside the signed envelope like the rest of the public surface.
func PublicVendorProfile(svc vendor.Service, signer *signing.Signer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSignedError(ctx, logg, signer, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		profile, err := svc.Get(ctx)
		if err != nil {
			responses.WriteSignedError(ctx, logg, signer, w, err)
			return
		}

		responses.WriteSigned(ctx, logg, signer, w, vendorProfileResponseFromModel(profile))
	}
}

// AdminVendorProfileGet returns the profile, including its version, so an
// operator can submit a matching conditional update.
func AdminVendorProfileGet(svc vendor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		profile, err := svc.Get(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorProfileResponseFromModel(profile))
	}
}

// AdminVendorProfilePut replaces the profile. The submitted version must
// match the stored one; a stale write comes back as CONFLICT.
func AdminVendorProfilePut(svc vendor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		var payload vendorProfileUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Update(ctx, vendor.UpdateInput{
			CompanyName:  validators.SanitizeString(payload.CompanyName, 200),
			SupportEmail: validators.SanitizeString(payload.SupportEmail, 200),
			SupportPhone: validators.SanitizeString(payload.SupportPhone, 40),
			Website:      validators.SanitizeString(payload.Website, 200),
			Version:      payload.Version,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorProfileResponseFromModel(profile))
	}
}
