// Package api exposes the dashboard over HTTP/JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sentitrack/sentitrack/internal/kpi"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
)

// TokenVerifier turns a bearer token into a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BrandResolver resolves and forgets per-user brand contexts.
type BrandResolver interface {
	Resolve(ctx context.Context, userID string) (session.BrandContext, error)
	Invalidate(ctx context.Context, userID string) error
}

// AccountStore manages brands and products.
type AccountStore interface {
	CreateBrand(ctx context.Context, brand *models.Brand) error
	ListProducts(ctx context.Context, brandID string) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, brandID, productID string) error
}

// Dashboard computes the dashboard figures.
type Dashboard interface {
	Compute(ctx context.Context, brand session.BrandContext, productFilter, period string) (*models.KPIResult, error)
	SentimentTrend(ctx context.Context, brand session.BrandContext, productFilter, period string) ([]models.TrendPoint, error)
	EmotionBreakdown(ctx context.Context, brand session.BrandContext, productFilter, period string) ([]models.EmotionShare, error)
}

// AlertWorkflow is the alert feed and resolution workflow.
type AlertWorkflow interface {
	List(ctx context.Context, brand session.BrandContext) ([]models.AlertView, error)
	Get(ctx context.Context, brand session.BrandContext, alertID string) (*models.AlertView, error)
	RequestMitigation(ctx context.Context, alert models.AlertView) ([]string, error)
	Resolve(ctx context.Context, brand session.BrandContext, alertID, comment string) (*models.AlertView, error)
}

// Jobs exposes the background job service.
type Jobs interface {
	GetMetrics() string
	RunCollection() error
	RunAnalysis() error
	RunDigest() error
	LatestDigest(ctx context.Context) (*models.Digest, error)
}

// Deps groups the collaborators of the HTTP server.
type Deps struct {
	Verifier  TokenVerifier
	Brands    BrandResolver
	Accounts  AccountStore
	Dashboard Dashboard
	Alerts    AlertWorkflow
	Jobs      Jobs
}

// Server holds the HTTP handlers
type Server struct {
	verifier  TokenVerifier
	brands    BrandResolver
	accounts  AccountStore
	dashboard Dashboard
	alerts    AlertWorkflow
	jobs      Jobs
	tracker   *kpi.Tracker
	now       func() time.Time
}

// NewServer creates a new HTTP server
func NewServer(deps Deps) *Server {
	return &Server{
		verifier:  deps.Verifier,
		brands:    deps.Brands,
		accounts:  deps.Accounts,
		dashboard: deps.Dashboard,
		alerts:    deps.Alerts,
		jobs:      deps.Jobs,
		tracker:   kpi.NewTracker(),
		now:       time.Now,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger)

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")

	trigger := router.PathPrefix("/trigger").Subrouter()
	trigger.Use(s.requireAuth)
	trigger.HandleFunc("/collection", s.triggerHandler("Collection", s.jobs.RunCollection)).Methods("POST")
	trigger.HandleFunc("/analysis", s.triggerHandler("Analysis", s.jobs.RunAnalysis)).Methods("POST")
	trigger.HandleFunc("/digest", s.triggerHandler("Digest", s.jobs.RunDigest)).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/brand", s.createBrandHandler).Methods("POST")
	api.HandleFunc("/logout", s.logoutHandler).Methods("POST")

	branded := api.NewRoute().Subrouter()
	branded.Use(s.requireBrand)
	branded.HandleFunc("/brand", s.getBrandHandler).Methods("GET")
	branded.HandleFunc("/products", s.listProductsHandler).Methods("GET")
	branded.HandleFunc("/products", s.createProductHandler).Methods("POST")
	branded.HandleFunc("/products/{id}", s.deleteProductHandler).Methods("DELETE")
	branded.HandleFunc("/dashboard/kpis", s.kpisHandler).Methods("GET")
	branded.HandleFunc("/dashboard/sentiment-trend", s.sentimentTrendHandler).Methods("GET")
	branded.HandleFunc("/dashboard/emotions", s.emotionsHandler).Methods("GET")
	branded.HandleFunc("/alerts", s.listAlertsHandler).Methods("GET")
	branded.HandleFunc("/alerts/{id}/mitigation", s.mitigationHandler).Methods("POST")
	branded.HandleFunc("/alerts/{id}/resolve", s.resolveHandler).Methods("POST")
	branded.HandleFunc("/digests/latest", s.latestDigestHandler).Methods("GET")

	return router
}

// NewHTTPServer wraps the router with the server timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
