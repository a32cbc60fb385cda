// Package alerts implements the alert feed, mitigation suggestions and the
// one-way resolution workflow.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sirupsen/logrus"
)

// UnknownProduct labels alerts whose post links to none of the brand's products.
const UnknownProduct = "Unknown product"

// Store is the slice of the data store the workflow uses.
type Store interface {
	ListProducts(ctx context.Context, brandID string) ([]models.Product, error)
	ListPostLinks(ctx context.Context, productIDs []string) ([]models.PostProduct, error)
	ListAlerts(ctx context.Context, postIDs []string, since time.Time) ([]models.Alert, error)
	ResolveAlert(ctx context.Context, alertID, comment string, at time.Time) error
}

// Generator produces free-form text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier receives resolution notices.
type Notifier interface {
	SendResolution(alert *models.AlertView) error
}

// Service handles the alert feed
type Service struct {
	store     Store
	generator Generator
	notifier  Notifier
	now       func() time.Time
}

// NewService creates a new alert service. generator and notifier may be nil.
func NewService(store Store, generator Generator, notifier Notifier) *Service {
	return &Service{
		store:     store,
		generator: generator,
		notifier:  notifier,
		now:       time.Now,
	}
}

// List returns every alert on the brand's posts, most recent first.
func (s *Service) List(ctx context.Context, brand session.BrandContext) ([]models.AlertView, error) {
	products, err := s.store.ListProducts(ctx, brand.BrandID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}
	if len(products) == 0 {
		return []models.AlertView{}, nil
	}

	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ProductID)
	}

	links, err := s.store.ListPostLinks(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	idx := newProductIndex(products, links)
	if len(idx.postIDs) == 0 {
		return []models.AlertView{}, nil
	}

	rows, err := s.store.ListAlerts(ctx, idx.postIDs, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	views := make([]models.AlertView, 0, len(rows))
	for _, row := range rows {
		views = append(views, idx.annotate(row))
	}
	return views, nil
}

// Get returns one of the brand's alerts.
func (s *Service) Get(ctx context.Context, brand session.BrandContext, alertID string) (*models.AlertView, error) {
	views, err := s.List(ctx, brand)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].AlertID == alertID {
			return &views[i], nil
		}
	}
	return nil, models.ErrAlertNotFound
}

// Partition splits views into active and resolved, keeping their order.
func Partition(views []models.AlertView) (active, resolved []models.AlertView) {
	active = []models.AlertView{}
	resolved = []models.AlertView{}
	for _, v := range views {
		if v.Active() {
			active = append(active, v)
		} else {
			resolved = append(resolved, v)
		}
	}
	return active, resolved
}

// RequestMitigation asks the generator for up to four recommendations for an
// active alert. Generator failures and empty answers yield the fallback list.
func (s *Service) RequestMitigation(ctx context.Context, alert models.AlertView) ([]string, error) {
	if !alert.Active() {
		return nil, models.ErrAlertResolved
	}

	if s.generator == nil {
		return FallbackRecommendations(alert), nil
	}

	text, err := s.generator.Generate(ctx, mitigationPrompt(alert))
	if err != nil {
		logrus.WithField("alert_id", alert.AlertID).Warnf("Recommendation service unavailable, using fallback: %v", err)
		return FallbackRecommendations(alert), nil
	}

	recs := ParseRecommendations(text)
	if len(recs) == 0 {
		logrus.WithField("alert_id", alert.AlertID).Warn("Recommendation service returned no usable lines, using fallback")
		return FallbackRecommendations(alert), nil
	}
	return recs, nil
}

// Resolve records the comment and marks the alert resolved. The transition is
// final: resolving an already resolved alert returns ErrAlertResolved.
func (s *Service) Resolve(ctx context.Context, brand session.BrandContext, alertID, comment string) (*models.AlertView, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, models.ErrCommentRequired
	}

	view, err := s.Get(ctx, brand, alertID)
	if err != nil {
		return nil, err
	}
	if !view.Active() {
		return nil, models.ErrAlertResolved
	}

	at := s.now().UTC()
	if err := s.store.ResolveAlert(ctx, alertID, comment, at); err != nil {
		if errors.Is(err, models.ErrAlertResolved) || errors.Is(err, models.ErrAlertNotFound) {
			return nil, err
		}
		logrus.WithField("alert_id", alertID).Errorf("Failed to resolve alert: %v", err)
		return nil, fmt.Errorf("%w: %v", models.ErrResolutionFailure, err)
	}

	view.IsResolved = true
	view.ResolveMessage = &comment
	view.ResolvedAt = &at
	view.Status = models.AlertStatusResolved

	logrus.WithFields(logrus.Fields{
		"alert_id": alertID,
		"brand_id": brand.BrandID,
	}).Info("Alert resolved")

	if s.notifier != nil {
		if err := s.notifier.SendResolution(view); err != nil {
			logrus.Errorf("Failed to send resolution notice for %s: %v", alertID, err)
		}
	}
	return view, nil
}

// productIndex answers product questions about the brand's posts.
type productIndex struct {
	postIDs  []string
	byPost   map[string]models.Product
	mentions map[string]int
}

// newProductIndex picks one product per post: among the brand's products
// linked to the post, the one with the smallest name, ties broken by ID.
func newProductIndex(products []models.Product, links []models.PostProduct) productIndex {
	owned := make(map[string]models.Product, len(products))
	for _, p := range products {
		owned[p.ProductID] = p
	}

	idx := productIndex{
		byPost:   make(map[string]models.Product),
		mentions: make(map[string]int),
	}
	for _, link := range links {
		p, ok := owned[link.ProductID]
		if !ok {
			continue
		}
		idx.mentions[p.ProductID]++

		cur, seen := idx.byPost[link.PostID]
		if !seen {
			idx.postIDs = append(idx.postIDs, link.PostID)
		}
		if !seen || p.ProductName < cur.ProductName ||
			(p.ProductName == cur.ProductName && p.ProductID < cur.ProductID) {
			idx.byPost[link.PostID] = p
		}
	}
	return idx
}

func (idx productIndex) annotate(alert models.Alert) models.AlertView {
	severity := NormalizeSeverity(alert.AlertSeverity)
	view := models.AlertView{
		Alert:         alert,
		ProductName:   UnknownProduct,
		Severity:      severity,
		SeverityLevel: SeverityLevel(severity),
		Status:        models.AlertStatusActive,
	}
	if alert.IsResolved {
		view.Status = models.AlertStatusResolved
	}
	if p, ok := idx.byPost[alert.PostID]; ok {
		view.ProductID = p.ProductID
		view.ProductName = p.ProductName
		view.MentionVolume = idx.mentions[p.ProductID]
	}
	return view
}
