package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymcore/license-server/api/middleware"
	"github.com/gymcore/license-server/api/responses"
	"github.com/gymcore/license-server/api/validators"
	"github.com/gymcore/license-server/internal/admin"
	"github.com/gymcore/license-server/pkg/enums"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

type licenseCreateRequest struct {
	Key         string     `json:"key"`
	Tier        string     `json:"tier"`
	OwnerName   string     `json:"owner_name" validate:"required"`
	OwnerEmail  string     `json:"owner_email" validate:"required,email"`
	GymName     string     `json:"gym_name" validate:"required"`
	MemberQuota int        `json:"member_quota" validate:"gte=0"`
	DeviceLimit int        `json:"device_limit" validate:"gte=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type licenseStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

func (r licenseCreateRequest) toInput(actor string) (admin.CreateLicenseInput, error) {
	tier := enums.LicenseTierStandard
	if trimmed := strings.TrimSpace(r.Tier); trimmed != "" {
		parsed, err := enums.ParseLicenseTier(trimmed)
		if err != nil {
			return admin.CreateLicenseInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid license tier")
		}
		tier = parsed
	}

	return admin.CreateLicenseInput{
		Key:         strings.TrimSpace(r.Key),
		Tier:        tier,
		OwnerName:   strings.TrimSpace(r.OwnerName),
		OwnerEmail:  strings.TrimSpace(r.OwnerEmail),
		GymName:     strings.TrimSpace(r.GymName),
		MemberQuota: r.MemberQuota,
		DeviceLimit: r.DeviceLimit,
		ExpiresAt:   r.ExpiresAt,
		Actor:       actor,
	}, nil
}

// AdminLicenseCreate issues a new license.
func AdminLicenseCreate(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var payload licenseCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateLicense(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, licenseResponseFromModel(created))
	}
}

// AdminLicenseList returns one page of licenses with device counts.
func AdminLicenseList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListLicenses(ctx, admin.ListParams{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries := make([]licenseListEntry, 0, len(result.Licenses))
		for _, row := range result.Licenses {
			entries = append(entries, licenseListEntryFromRow(row))
		}

		responses.WriteSuccess(w, map[string]any{
			"licenses":    entries,
			"next_cursor": result.NextCursor,
		})
	}
}

// AdminLicenseUpdateStatus applies an operator-driven status transition.
func AdminLicenseUpdateStatus(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload licenseStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseLicenseStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid license status"))
			return
		}

		updated, err := svc.UpdateLicenseStatus(ctx, licenseID, status, strings.TrimSpace(payload.Reason), middleware.AdminUsernameFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, licenseResponseFromModel(updated))
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
