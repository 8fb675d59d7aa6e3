package controllers

import (
	"net/http"

	"github.com/gymcore/license-server/api/responses"
	"github.com/gymcore/license-server/internal/manifest"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

const manifestSignatureHeader = "X-Manifest-Signature"

// GetManifest serves a published integrity manifest. The stored bytes are
// written verbatim so the detached ed25519 signature keeps verifying; this is
// the one public endpoint outside the HMAC envelope.
func GetManifest(pub *manifest.Publisher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if pub == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "manifest publisher unavailable"))
			return
		}

		result, err := pub.Get(ctx, r.URL.Query().Get("version"), r.URL.Query().Get("build_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(manifestSignatureHeader, result.Signature)
		w.WriteHeader(http.StatusOK)
		w.Write(result.Raw)
	}
}
