package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gymcore/license-server/internal/vendor"
	"github.com/gymcore/license-server/pkg/db/models"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
)

type stubVendorService struct {
	profile   *models.VendorProfile
	getErr    error
	updateErr error
	lastInput vendor.UpdateInput
}

func (s *stubVendorService) Get(ctx context.Context) (*models.VendorProfile, error) {
	return s.profile, s.getErr
}

func (s *stubVendorService) Update(ctx context.Context, input vendor.UpdateInput) (*models.VendorProfile, error) {
	s.lastInput = input
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.profile, nil
}

func TestPublicVendorProfile(t *testing.T) {
	signer := testSigner(t)
	svc := &stubVendorService{
		profile: &models.VendorProfile{CompanyName: "GymCore Ltd", SupportEmail: "support@gymcore.io", Version: 4},
	}
	handler := PublicVendorProfile(svc, signer, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/vendor-profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeSigned(t, signer, rec.Body.Bytes())

	var envelope struct {
		Data vendorProfileResponse `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if envelope.Data.CompanyName != "GymCore Ltd" {
		t.Fatalf("unexpected company: %s", envelope.Data.CompanyName)
	}
}

func TestPublicVendorProfile_NotConfigured(t *testing.T) {
	signer := testSigner(t)
	svc := &stubVendorService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not configured")}
	handler := PublicVendorProfile(svc, signer, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/vendor-profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	decodeSigned(t, signer, rec.Body.Bytes())
}

func TestAdminVendorProfilePut(t *testing.T) {
	svc := &stubVendorService{
		profile: &models.VendorProfile{CompanyName: "GymCore Ltd", SupportEmail: "support@gymcore.io", Version: 5},
	}
	handler := AdminVendorProfilePut(svc, nil)

	body := `{"company_name":"GymCore Ltd","support_email":"support@gymcore.io","version":4}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/vendor-profile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.Version != 4 {
		t.Fatalf("version not forwarded: %d", svc.lastInput.Version)
	}
}

func TestAdminVendorProfilePut_StaleVersionConflicts(t *testing.T) {
	svc := &stubVendorService{updateErr: pkgerrors.New(pkgerrors.CodeConflict, "vendor profile was modified concurrently")}
	handler := AdminVendorProfilePut(svc, nil)

	body := `{"company_name":"GymCore Ltd","support_email":"support@gymcore.io","version":1}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/vendor-profile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code: %s", envelope.Error.Code)
	}
}
