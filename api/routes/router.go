package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	withdrawalcontrollers "github.com/vrcamacho/sitestock-backend/api/controllers/withdrawals"
	"github.com/vrcamacho/sitestock-backend/api/handlers"
	"github.com/vrcamacho/sitestock-backend/api/middleware"
	withdrawalsvc "github.com/vrcamacho/sitestock-backend/internal/withdrawals"
	"github.com/vrcamacho/sitestock-backend/pkg/auth/session"
	"github.com/vrcamacho/sitestock-backend/pkg/config"
	"github.com/vrcamacho/sitestock-backend/pkg/db"
	"github.com/vrcamacho/sitestock-backend/pkg/logger"
	"github.com/vrcamacho/sitestock-backend/pkg/redis"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       db.Pinger
	RedisPinger    redis.Pinger
	SessionChecker session.AccessSessionChecker
	Withdrawals    withdrawalsvc.Service
	Metrics        prometheus.Gatherer
}

// NewRouter assembles the HTTP surface: health endpoints, the metrics
// exporter, and the authenticated withdrawal API.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Get("/healthz", handlers.Healthz(deps.Config, deps.Logger))
	r.Get("/healthz/ready", handlers.Readyz(deps.Logger, deps.DBPinger, deps.RedisPinger))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, deps.SessionChecker, deps.Logger))

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", withdrawalcontrollers.Create(deps.Withdrawals, deps.Logger))
			r.Get("/", withdrawalcontrollers.List(deps.Withdrawals, deps.Logger))
			r.Get("/overdue", withdrawalcontrollers.Overdue(deps.Withdrawals, deps.Logger))
			r.Get("/report", withdrawalcontrollers.Report(deps.Withdrawals, deps.Logger))
			r.Get("/stats", withdrawalcontrollers.Stats(deps.Withdrawals, deps.Logger))
			r.Get("/stats/dashboard", withdrawalcontrollers.Dashboard(deps.Withdrawals, deps.Logger))

			r.Route("/{withdrawalId}", func(r chi.Router) {
				r.Get("/", withdrawalcontrollers.Detail(deps.Withdrawals, deps.Logger))
				r.Post("/verify", withdrawalcontrollers.Transition(deps.Withdrawals, deps.Logger, "verify"))
				r.Post("/approve", withdrawalcontrollers.Transition(deps.Withdrawals, deps.Logger, "approve"))
				r.Post("/release", withdrawalcontrollers.Transition(deps.Withdrawals, deps.Logger, "release"))
				r.Post("/return", withdrawalcontrollers.Transition(deps.Withdrawals, deps.Logger, "return"))
				r.Post("/cancel", withdrawalcontrollers.Cancel(deps.Withdrawals, deps.Logger))
			})
		})

		r.Route("/items/{itemId}", func(r chi.Router) {
			r.Get("/availability", withdrawalcontrollers.ItemAvailability(deps.Withdrawals, deps.Logger))
			r.Get("/withdrawals", withdrawalcontrollers.ItemHistory(deps.Withdrawals, deps.Logger))
		})

		r.Get("/projects/{projectId}/consumables", withdrawalcontrollers.ProjectConsumables(deps.Withdrawals, deps.Logger))
	})

	return r
}
