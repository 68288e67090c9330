package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "latency",
	Help:    "Request latency",
	Buckets: prometheus.ExponentialBucketsRange(.05, 30, 20),
}, []string{"route", "status_code"})

var responseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "bytes_returned",
	Help:    "Bytes returned",
	Buckets: prometheus.ExponentialBucketsRange(1000, 100_000_000, 20),
}, []string{"route"})

func CreateMux(apiFunctions *LinkVaultAPI) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(PrometheusMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTION"},
		AllowedHeaders:   []string{"User-Agent", "Content-Type", "Accept", "Accept-Encoding", "Accept-Language", "Authorization", "Cache-Control", "Connection", "DNT", "Host", "Origin", "Pragma", "Referer"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Tokens come from the external identity provider; most routes only
	// use them when present, so verification failures are left to the
	// handlers instead of a blanket authenticator.
	r.Use(jwtauth.Verifier(apiFunctions.tokenAuth))

	r.Get("/healthcheck", apiFunctions.Healthcheck)
	r.Handle("/metrics", promhttp.Handler())

	api := chi.NewRouter()
	api.Post("/shares/upload", apiFunctions.Upload)
	api.Post("/shares/view/{shareID}", apiFunctions.View)
	api.Get("/shares/info/{shareID}", apiFunctions.Info)
	api.Get("/shares", apiFunctions.ListShares)
	api.Delete("/shares/{shareID}", apiFunctions.Delete)

	r.Mount("/api", api)

	return r
}
