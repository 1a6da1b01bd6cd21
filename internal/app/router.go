package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/masterdata"
	"github.com/fixbench-erp/fixbench/internal/platform/httpx"
	"github.com/fixbench-erp/fixbench/internal/purchasing"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	PurchasingHandler *purchasing.Handler
	MasterDataHandler *masterdata.Handler
	Pool              *pgxpool.Pool
}

// NewRouter constructs the chi.Router with FixBench defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if params.Pool != nil {
			if err := params.Pool.Ping(ctx); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/catalog", func(r chi.Router) {
		params.CatalogHandler.MountRoutes(r)
	})
	r.Route("/purchasing", func(r chi.Router) {
		params.PurchasingHandler.MountRoutes(r)
	})
	r.Route("/masterdata", func(r chi.Router) {
		params.MasterDataHandler.MountRoutes(r)
	})

	return r
}
