package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/signing"
	"github.com/gymcore/license-server/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders an application error as a plain JSON envelope. Used by
// the admin and ops surfaces; public endpoints go through WriteSignedError.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed, payload := errorPayload(err)
	logError(ctx, logg, typed, err)
	writeJSON(w, pkgerrors.MetadataFor(typed.Code()).HTTPStatus, payload)
}

// WriteSigned wraps a public success payload in the HMAC envelope.
func WriteSigned(ctx context.Context, logg *logger.Logger, signer *signing.Signer, w http.ResponseWriter, data any) {
	env, err := signer.Envelope(types.SuccessEnvelope{Data: data}, time.Now())
	if err != nil {
		WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign response"))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// WriteSignedError renders a public failure inside the same HMAC envelope as
// success responses, so a client can trust a rejection is genuine.
func WriteSignedError(ctx context.Context, logg *logger.Logger, signer *signing.Signer, w http.ResponseWriter, err error) {
	typed, payload := errorPayload(err)
	logError(ctx, logg, typed, err)

	env, signErr := signer.Envelope(payload, time.Now())
	if signErr != nil {
		writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{
			Error: types.APIError{Code: string(pkgerrors.CodeInternal), Message: "internal server error"},
		})
		return
	}
	writeJSON(w, pkgerrors.MetadataFor(typed.Code()).HTTPStatus, env)
}

// errorPayload maps an error to its outward envelope. Storage failures keep
// the sanitized public message; caller-addressable codes surface their own.
func errorPayload(err error) (*pkgerrors.Error, types.ErrorEnvelope) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		// sanitized
	default:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}
	return typed, payload
}

func logError(ctx context.Context, logg *logger.Logger, typed *pkgerrors.Error, err error) {
	if logg == nil {
		return
	}

	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error":         dump.TopMessage,
		"error_code":    dump.Code,
		"error_chain":   dump.Chain,
		"pg_code":       dump.PGCode,
		"pg_detail":     dump.PGDetail,
		"pg_message":    dump.PGMessage,
		"pg_table":      dump.PGTable,
		"pg_column":     dump.PGColumn,
		"pg_constraint": dump.PGConstraint,
	}

	ctx = logg.WithFields(ctx, fields)
	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		logg.Error(ctx, "request.error", err)
	default:
		logg.Warn(ctx, "request.rejected")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
