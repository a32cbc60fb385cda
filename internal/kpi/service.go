// Package kpi reduces a brand's sentiment, engagement and alert rows into the
// dashboard metrics and chart series.
package kpi

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sentitrack/sentitrack/internal/timewindow"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AllProducts is the product filter that selects every product of the brand.
const AllProducts = "all"

// engagementScale is applied to interactions per post. Kept as is so rates stay
// comparable with earlier snapshots.
const engagementScale = 0.01

// Reader is the slice of the data store the pipeline reads.
type Reader interface {
	ListProducts(ctx context.Context, brandID string) ([]models.Product, error)
	ListPostLinks(ctx context.Context, productIDs []string) ([]models.PostProduct, error)
	CountPostsSince(ctx context.Context, postIDs []string, since time.Time) (int, error)
	ListSentiments(ctx context.Context, postIDs []string, since time.Time) ([]models.Sentiment, error)
	ListEmotions(ctx context.Context, postIDs []string, since time.Time) ([]models.Emotion, error)
	ListEngagements(ctx context.Context, postIDs []string, since time.Time) ([]models.Engagement, error)
	ListAlerts(ctx context.Context, postIDs []string, since time.Time) ([]models.Alert, error)
}

// Service computes dashboard metrics
type Service struct {
	store Reader
	now   func() time.Time
}

// NewService creates a new KPI service
func NewService(store Reader) *Service {
	return &Service{store: store, now: time.Now}
}

// window holds the bounds of one computation.
type window struct {
	start     time.Time
	prevStart time.Time
	hasPrev   bool
	bounded   bool
}

// contains reports whether t falls in the current window. The all-time
// window holds every row, including ones stamped before Epoch.
func (w window) contains(t time.Time) bool {
	return !w.bounded || !t.Before(w.start)
}

// containsPrev reports whether t falls in the preceding window.
func (w window) containsPrev(t time.Time) bool {
	return w.hasPrev && !t.Before(w.prevStart) && t.Before(w.start)
}

// fetchFrom is the lower bound for reads covering both windows. Zero means
// unbounded.
func (w window) fetchFrom() time.Time {
	if w.hasPrev {
		return w.prevStart
	}
	if !w.bounded {
		return time.Time{}
	}
	return w.start
}

func newWindow(period timewindow.Period, now time.Time) window {
	prev, ok := period.PreviousStart(now)
	return window{start: period.Start(now), prevStart: prev, hasPrev: ok, bounded: period.Bounded()}
}

// Compute returns the four dashboard metrics for the brand, product filter and
// period. A scope without products or posts yields the zero result. Any read
// failure returns ErrFetchFailure and no metrics.
func (s *Service) Compute(ctx context.Context, brand session.BrandContext, productFilter, periodName string) (*models.KPIResult, error) {
	now := s.now().UTC()
	period := timewindow.Parse(periodName)
	win := newWindow(period, now)

	result := &models.KPIResult{
		BrandID:       brand.BrandID,
		ProductFilter: normalizeFilter(productFilter),
		Period:        string(period),
		WindowStart:   win.start,
		ComputedAt:    now,
	}

	postIDs, err := s.scopePosts(ctx, brand, productFilter)
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		result.Metrics = zeroMetrics()
		return result, nil
	}

	var (
		sentiments  []models.Sentiment
		engagements []models.Engagement
		alerts      []models.Alert
		newPosts    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sentiments, err = s.store.ListSentiments(gctx, postIDs, win.fetchFrom())
		return err
	})
	g.Go(func() error {
		var err error
		engagements, err = s.store.ListEngagements(gctx, postIDs, win.fetchFrom())
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.store.ListAlerts(gctx, postIDs, win.fetchFrom())
		return err
	})
	if period.Bounded() {
		g.Go(func() error {
			var err error
			newPosts, err = s.store.CountPostsSince(gctx, postIDs, win.start)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logrus.WithFields(logrus.Fields{
			"brand_id": brand.BrandID,
			"period":   period,
		}).Errorf("KPI fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	totalPosts := len(postIDs)

	var positive, prevPositive int
	for _, row := range sentiments {
		if row.Label != models.SentimentPositive {
			continue
		}
		switch {
		case win.contains(row.AnalysisTimestamp):
			positive++
		case win.containsPrev(row.AnalysisTimestamp):
			prevPositive++
		}
	}

	var interactions, prevInteractions int
	for _, row := range engagements {
		switch {
		case win.contains(row.RetrievedAt):
			interactions += row.Total()
		case win.containsPrev(row.RetrievedAt):
			prevInteractions += row.Total()
		}
	}

	var active, prevActive int
	for _, row := range alerts {
		if row.IsResolved {
			continue
		}
		switch {
		case win.contains(row.TriggeredAt):
			active++
		case win.containsPrev(row.TriggeredAt):
			prevActive++
		}
	}

	result.TotalPosts = totalPosts
	result.PositiveSentimentRate = percent(positive, totalPosts)
	result.EngagementRate = engagementRate(interactions, totalPosts)
	result.ActiveAlertCount = active

	posChange, engChange, alertChange, postChange := 0, 0.0, 0, 0
	if win.hasPrev {
		posChange = result.PositiveSentimentRate - percent(prevPositive, totalPosts)
		engChange = roundTenth(result.EngagementRate - engagementRate(prevInteractions, totalPosts))
		alertChange = active - prevActive
		postChange = newPosts
	}

	result.Metrics = []models.Metric{
		{
			Key:    models.MetricTotalPosts,
			Title:  "Total Posts",
			Value:  strconv.Itoa(totalPosts),
			Change: formatCount(postChange),
			Trend:  trend(float64(postChange)),
		},
		{
			Key:    models.MetricEngagementRate,
			Title:  "Engagement Rate",
			Value:  formatPercent(result.EngagementRate),
			Change: formatPercentChange(engChange),
			Trend:  trend(engChange),
		},
		{
			Key:    models.MetricPositiveSentiment,
			Title:  "Positive Sentiment",
			Value:  strconv.Itoa(result.PositiveSentimentRate) + "%",
			Change: formatPercentChange(float64(posChange)),
			Trend:  trend(float64(posChange)),
		},
		{
			Key:    models.MetricActiveAlerts,
			Title:  "Active Alerts",
			Value:  strconv.Itoa(active),
			Change: formatCount(alertChange),
			Trend:  trend(float64(alertChange)),
		},
	}

	logrus.WithFields(logrus.Fields{
		"brand_id":    brand.BrandID,
		"product":     result.ProductFilter,
		"period":      period,
		"total_posts": totalPosts,
	}).Debug("Computed KPIs")

	return result, nil
}

// scopePosts resolves the distinct post IDs linked to the in-scope products.
// A product filter the brand does not own yields an empty scope.
func (s *Service) scopePosts(ctx context.Context, brand session.BrandContext, productFilter string) ([]string, error) {
	products, err := s.store.ListProducts(ctx, brand.BrandID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	filter := normalizeFilter(productFilter)
	var productIDs []string
	for _, p := range products {
		if filter == AllProducts || p.ProductID == filter {
			productIDs = append(productIDs, p.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil, nil
	}

	links, err := s.store.ListPostLinks(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	seen := make(map[string]struct{}, len(links))
	postIDs := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link.PostID]; ok {
			continue
		}
		seen[link.PostID] = struct{}{}
		postIDs = append(postIDs, link.PostID)
	}
	return postIDs, nil
}

func normalizeFilter(productFilter string) string {
	if productFilter == "" {
		return AllProducts
	}
	return productFilter
}

func zeroMetrics() []models.Metric {
	return []models.Metric{
		{Key: models.MetricTotalPosts, Title: "Total Posts", Value: "0", Change: "0", Trend: "up"},
		{Key: models.MetricEngagementRate, Title: "Engagement Rate", Value: "0%", Change: "0%", Trend: "up"},
		{Key: models.MetricPositiveSentiment, Title: "Positive Sentiment", Value: "0%", Change: "0%", Trend: "up"},
		{Key: models.MetricActiveAlerts, Title: "Active Alerts", Value: "0", Change: "0", Trend: "up"},
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}

func engagementRate(interactions, totalPosts int) float64 {
	if totalPosts == 0 {
		return 0
	}
	return roundTenth(float64(interactions) / float64(totalPosts) * engagementScale)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(roundTenth(v), 'f', -1, 64) + "%"
}

func formatPercentChange(v float64) string {
	v = roundTenth(v)
	if v == 0 {
		return "0%"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64) + "%"
	if v > 0 {
		return "+" + s
	}
	return s
}

func formatCount(n int) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", n)
}

func trend(change float64) string {
	if change < 0 {
		return "down"
	}
	return "up"
}
