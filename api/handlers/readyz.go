package handlers

import (
	"net/http"

	"github.com/vrcamacho/sitestock-backend/api/responses"
	"github.com/vrcamacho/sitestock-backend/pkg/db"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
	"github.com/vrcamacho/sitestock-backend/pkg/logger"
	"github.com/vrcamacho/sitestock-backend/pkg/redis"
)

// Readyz reports whether the service can reach its backing stores.
func Readyz(logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg,
				w, pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
