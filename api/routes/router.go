package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gymcore/license-server/api/controllers"
	"github.com/gymcore/license-server/api/middleware"
	"github.com/gymcore/license-server/internal/activation"
	"github.com/gymcore/license-server/internal/admin"
	"github.com/gymcore/license-server/internal/manifest"
	"github.com/gymcore/license-server/internal/vendor"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/metrics"
	"github.com/gymcore/license-server/pkg/redis"
	"github.com/gymcore/license-server/pkg/signing"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Signer     *signing.Signer
	Metrics    *metrics.APIMetrics
	Gatherer   prometheus.Gatherer
	Activation activation.Service
	Admin      admin.Service
	Vendor     vendor.Service
	Manifest   *manifest.Publisher
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Post("/activate", controllers.Activate(deps.Activation, deps.Signer, logg, deps.Metrics))
		r.Post("/validate", controllers.Validate(deps.Activation, deps.Signer, logg, deps.Metrics))
		r.Get("/status/{key}", controllers.LicenseStatus(deps.Activation, deps.Signer, logg))
		r.Get("/manifest", controllers.GetManifest(deps.Manifest, logg))
		r.With(middleware.PublicRateLimit(
			"vendor-profile",
			cfg.RateLimit.VendorProfileLimit,
			cfg.RateLimit.VendorProfileWindow,
			deps.Redis,
			deps.Signer,
			logg,
		)).Get("/vendor-profile", controllers.PublicVendorProfile(deps.Vendor, deps.Signer, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))

		r.With(middleware.LoginRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.AdminLogin(deps.Admin, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.JWT, logg))

			r.Route("/licenses", func(r chi.Router) {
				r.Get("/", controllers.AdminLicenseList(deps.Admin, logg))
				r.Post("/", controllers.AdminLicenseCreate(deps.Admin, logg))
				r.Patch("/{id}/status", controllers.AdminLicenseUpdateStatus(deps.Admin, logg))
				r.Get("/{id}/devices", controllers.AdminDeviceList(deps.Admin, logg))
				r.Post("/{id}/devices/approve", controllers.AdminFingerprintApprove(deps.Admin, logg))
				r.Post("/{id}/devices/reset", controllers.AdminDevicesReset(deps.Admin, logg))
			})

			r.Route("/devices", func(r chi.Router) {
				r.Post("/{id}/approve", controllers.AdminDeviceApprove(deps.Admin, logg))
				r.Post("/{id}/revoke", controllers.AdminDeviceRevoke(deps.Admin, logg))
			})

			r.Route("/vendor-profile", func(r chi.Router) {
				r.Get("/", controllers.AdminVendorProfileGet(deps.Vendor, logg))
				r.Put("/", controllers.AdminVendorProfilePut(deps.Vendor, logg))
			})
		})
	})

	return r
}
