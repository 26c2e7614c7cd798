package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arefa/internal/assets"
	"arefa/internal/platform/health"
	"arefa/internal/registry/handler"
	request "arefa/pkg/platform/middleware/request"
)

// RecordRoutes is implemented by the per-kind registry handlers.
type RecordRoutes interface {
	Register(r chi.Router)
	RegisterExports(r chi.Router)
}

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config carries what the router needs from the rest of the process.
type Config struct {
	Logger         *slog.Logger
	Metrics        *request.Metrics
	Health         *health.Handler
	Assets         http.Handler
	Records        []RecordRoutes
	Stats          Registrar
	AllowedOrigins []string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware. The handlers stay
// thin and delegate to the registry services.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.LatencyMiddleware(cfg.Metrics))
	// Registered on the root router so preflight requests reach it even
	// though no OPTIONS route exists.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", handler.HeaderDocuments, handler.HeaderSkipped},
		MaxAge:         300,
	}))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Assets != nil {
		prefix := "/" + assets.URLPrefix
		r.Handle(prefix+"*", anyOrigin(http.StripPrefix(prefix, cfg.Assets)))
	}

	r.Group(func(api chi.Router) {
		if cfg.MaxUploadBytes > 0 {
			api.Use(request.BodyLimit(cfg.MaxUploadBytes))
		}

		// Archive builds run for as long as the lot takes; the client
		// disconnecting cancels them through the request context.
		for _, h := range cfg.Records {
			h.RegisterExports(api)
		}

		api.Group(func(crud chi.Router) {
			if cfg.RequestTimeout > 0 {
				crud.Use(request.Timeout(cfg.RequestTimeout))
			}
			for _, h := range cfg.Records {
				h.Register(crud)
			}
			if cfg.Stats != nil {
				cfg.Stats.Register(crud)
			}
		})
	})

	return r
}

// anyOrigin lets browsers on any origin draw photos into canvases.
func anyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		next.ServeHTTP(w, r)
	})
}
