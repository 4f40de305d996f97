// Package httpapi wires the HTTP surface of the listings server: routing,
// middleware, the image upload endpoint and the server lifecycle.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/imagestore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps collects what NewRouter mounts. ImagesDir is only set when
// images are stored on local disk and must be served by this process.
type RouterDeps struct {
	GraphQL    http.Handler
	Upload     http.Handler
	Logger     logging.Logger
	AccessLog  *zap.Logger
	JWTSecret  []byte
	CORSOrigin string
	ImagesDir  string
}

// NewRouter builds the chi router.
//
// Routes:
//
//	GET  /graphql      GraphiQL
//	POST /graphql      GraphQL queries and mutations
//	POST /post-images  multipart image upload
//	GET  /images/*     stored images (local storage only)
//	GET  /metrics      Prometheus exposition
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(d.AccessLog))
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(d.CORSOrigin),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(Authenticate(d.JWTSecret, d.Logger))

	r.Get("/graphql", d.GraphQL.ServeHTTP)
	r.With(middleware.AllowContentType("application/json")).Post("/graphql", d.GraphQL.ServeHTTP)
	r.Post("/post-images", d.Upload.ServeHTTP)

	if d.ImagesDir != "" {
		fs := http.StripPrefix(imagestore.PublicPath+"/", http.FileServer(http.Dir(d.ImagesDir)))
		r.Handle(imagestore.PublicPath+"/*", fs)
	}

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperr.Dispatch(respondTo(w), "Not found.", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apperr.Dispatch(respondTo(w), "Method not allowed.", http.StatusMethodNotAllowed)
	})

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
