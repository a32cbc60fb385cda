package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sentitrack/sentitrack/internal/alerts"
	"github.com/sentitrack/sentitrack/internal/kpi"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sentitrack/sentitrack/internal/timewindow"
	"github.com/sirupsen/logrus"
)

// viewHeader identifies one open dashboard view; a newer request for the same
// view supersedes an older one still in flight.
const viewHeader = "X-Dashboard-View"

const maxBodyBytes = 1 << 20

var industries = []string{"Technology", "Finance", "E-commerce", "Healthcare", "Retail", "Other"}

type brandRequest struct {
	BrandName string `json:"brand_name"`
	Industry  string `json:"industry"`
	Website   string `json:"website"`
}

type productRequest struct {
	ProductName string `json:"product_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	LaunchDate  string `json:"launch_date"` // YYYY-MM-DD
}

type resolveRequest struct {
	Comment string `json:"comment"`
}

type alertsResponse struct {
	Active   []models.AlertView `json:"active"`
	Resolved []models.AlertView `json:"resolved"`
}

type mitigationResponse struct {
	AlertID         string   `json:"alert_id"`
	Recommendations []string `json:"recommendations"`
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.jobs.GetMetrics()))
}

func (s *Server) triggerHandler(job string, run func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := run(); err != nil {
				logrus.Errorf("Manual %s trigger failed: %v", strings.ToLower(job), err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": job + " triggered successfully"})
	}
}

func (s *Server) getBrandHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, brandFrom(r.Context()))
}

func (s *Server) createBrandHandler(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.BrandName = strings.TrimSpace(req.BrandName)
	if req.BrandName == "" {
		writeError(w, fmt.Errorf("%w: brand_name is required", models.ErrInvalidInput))
		return
	}
	if req.Industry != "" && !validIndustry(req.Industry) {
		writeError(w, fmt.Errorf("%w: industry must be one of %s", models.ErrInvalidInput, strings.Join(industries, ", ")))
		return
	}

	userID := userIDFrom(r.Context())
	brand := &models.Brand{
		BrandName: req.BrandName,
		Industry:  req.Industry,
		Website:   strings.TrimSpace(req.Website),
		UserID:    userID,
	}
	if err := s.accounts.CreateBrand(r.Context(), brand); err != nil {
		writeError(w, err)
		return
	}
	if err := s.brands.Invalidate(r.Context(), userID); err != nil {
		logrus.Warnf("Failed to invalidate brand context for %s: %v", userID, err)
	}

	logrus.WithFields(logrus.Fields{"brand_id": brand.BrandID, "user_id": userID}).Info("Brand created")
	writeJSON(w, http.StatusCreated, session.FromBrand(*brand))
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.brands.Invalidate(r.Context(), userIDFrom(r.Context())); err != nil {
		logrus.Warnf("Failed to clear brand context on logout: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.accounts.ListProducts(r.Context(), brandFrom(r.Context()).BrandID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", models.ErrFetchFailure, err))
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	product := &models.Product{
		BrandID:     brandFrom(r.Context()).BrandID,
		ProductName: strings.TrimSpace(req.ProductName),
		Description: req.Description,
		Category:    req.Category,
	}
	if product.ProductName == "" {
		writeError(w, fmt.Errorf("%w: product_name is required", models.ErrInvalidInput))
		return
	}
	if req.LaunchDate != "" {
		launch, err := time.Parse(time.DateOnly, req.LaunchDate)
		if err != nil {
			writeError(w, fmt.Errorf("%w: launch_date must be YYYY-MM-DD", models.ErrInvalidInput))
			return
		}
		product.LaunchDate = &launch
	}

	if err := s.accounts.CreateProduct(r.Context(), product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.accounts.DeleteProduct(r.Context(), brandFrom(r.Context()).BrandID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) kpisHandler(w http.ResponseWriter, r *http.Request) {
	product, period := dashboardQuery(r)
	brand := brandFrom(r.Context())

	res, err := kpi.Latest(r.Context(), s.tracker, viewKey(r, "kpis"), func(ctx context.Context) (*models.KPIResult, error) {
		return s.dashboard.Compute(ctx, brand, product, period)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) sentimentTrendHandler(w http.ResponseWriter, r *http.Request) {
	product, period := dashboardQuery(r)
	brand := brandFrom(r.Context())

	points, err := kpi.Latest(r.Context(), s.tracker, viewKey(r, "sentiment-trend"), func(ctx context.Context) ([]models.TrendPoint, error) {
		return s.dashboard.SentimentTrend(ctx, brand, product, period)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) emotionsHandler(w http.ResponseWriter, r *http.Request) {
	product, period := dashboardQuery(r)
	brand := brandFrom(r.Context())

	shares, err := kpi.Latest(r.Context(), s.tracker, viewKey(r, "emotions"), func(ctx context.Context) ([]models.EmotionShare, error) {
		return s.dashboard.EmotionBreakdown(ctx, brand, product, period)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

func (s *Server) listAlertsHandler(w http.ResponseWriter, r *http.Request) {
	views, err := s.alerts.List(r.Context(), brandFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	active, resolved := alerts.Partition(views)
	writeJSON(w, http.StatusOK, alertsResponse{Active: active, Resolved: resolved})
}

func (s *Server) mitigationHandler(w http.ResponseWriter, r *http.Request) {
	brand := brandFrom(r.Context())
	view, err := s.alerts.Get(r.Context(), brand, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	recs, err := s.alerts.RequestMitigation(r.Context(), *view)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mitigationResponse{AlertID: view.AlertID, Recommendations: recs})
}

func (s *Server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := s.alerts.Resolve(r.Context(), brandFrom(r.Context()), mux.Vars(r)["id"], req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) latestDigestHandler(w http.ResponseWriter, r *http.Request) {
	digest, err := s.jobs.LatestDigest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	// Only the caller's own brand section is returned.
	brandID := brandFrom(r.Context()).BrandID
	scoped := *digest
	scoped.Brands = []models.BrandDigest{}
	for _, bd := range digest.Brands {
		if bd.Brand.BrandID == brandID {
			scoped.Brands = append(scoped.Brands, bd)
		}
	}
	writeJSON(w, http.StatusOK, scoped)
}

// dashboardQuery reads the product filter and period. Unknown periods pass
// through and resolve to all time.
func dashboardQuery(r *http.Request) (product, period string) {
	q := r.URL.Query()
	product = q.Get("product")
	if product == "" {
		product = kpi.AllProducts
	}
	period = q.Get("period")
	if period == "" {
		period = string(timewindow.LastWeek)
	}
	return product, period
}

func viewKey(r *http.Request, endpoint string) string {
	view := r.Header.Get(viewHeader)
	if view == "" {
		view = "default"
	}
	return userIDFrom(r.Context()) + "|" + view + "|" + endpoint
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("%w: malformed JSON at offset %d", models.ErrInvalidInput, syntaxErr.Offset)
		default:
			return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
	}
	return nil
}

func validIndustry(industry string) bool {
	for _, i := range industries {
		if i == industry {
			return true
		}
	}
	return false
}
