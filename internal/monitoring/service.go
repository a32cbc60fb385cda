package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sentitrack/sentitrack/internal/alerts"
	"github.com/sentitrack/sentitrack/internal/analysis"
	"github.com/sentitrack/sentitrack/internal/config"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/notifications"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sentitrack/sentitrack/internal/sources"
	"github.com/sentitrack/sentitrack/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// digestConcurrency bounds how many brands are summarized at once.
const digestConcurrency = 4

// BrandLister lists every brand to include in a digest.
type BrandLister interface {
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

// KPIComputer computes dashboard metrics for a brand.
type KPIComputer interface {
	Compute(ctx context.Context, brand session.BrandContext, productFilter, period string) (*models.KPIResult, error)
}

// AlertLister lists a brand's alerts.
type AlertLister interface {
	List(ctx context.Context, brand session.BrandContext) ([]models.AlertView, error)
}

// BatchAnalyzer analyzes posts that have no sentiment yet.
type BatchAnalyzer interface {
	RunBatch(ctx context.Context, limit int) (analysis.BatchResult, error)
}

// MentionCollector gathers new posts from the public sources.
type MentionCollector interface {
	Collect(ctx context.Context) (sources.CollectResult, error)
}

// Service runs the background jobs: mention collection, post analysis
// batches and digests
type Service struct {
	config              *config.Config
	collector           MentionCollector
	brands              BrandLister
	kpis                KPIComputer
	alerts              AlertLister
	analyzer            BatchAnalyzer
	archive             *storage.DigestArchive
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	lastDigest          *models.Digest
	mu                  sync.RWMutex
}

// Metrics holds job metrics
type Metrics struct {
	LastCollectionRun      time.Time `json:"last_collection_run"`
	LastCollectionDuration string    `json:"last_collection_duration"`
	PostsCollected         int       `json:"posts_collected"`
	LastAnalysisRun        time.Time `json:"last_analysis_run"`
	LastAnalysisDuration   string    `json:"last_analysis_duration"`
	PostsAnalyzed          int       `json:"posts_analyzed"`
	AnalysisFallbacks      int       `json:"analysis_fallbacks"`
	LastDigestRun          time.Time `json:"last_digest_run"`
	LastDigestDuration     string    `json:"last_digest_duration"`
	DigestsSent            int       `json:"digests_sent"`
	ErrorCount             int       `json:"error_count"`
}

// Deps groups the collaborators of the job service. Collector, Archive and
// Notifications may be nil.
type Deps struct {
	Collector     MentionCollector
	Brands        BrandLister
	KPIs          KPIComputer
	Alerts        AlertLister
	Analyzer      BatchAnalyzer
	Archive       *storage.DigestArchive
	Notifications notifications.NotificationInterface
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, deps Deps) *Service {
	return &Service{
		config:              cfg,
		collector:           deps.Collector,
		brands:              deps.Brands,
		kpis:                deps.KPIs,
		alerts:              deps.Alerts,
		analyzer:            deps.Analyzer,
		archive:             deps.Archive,
		notificationService: deps.Notifications,
		metrics:             &Metrics{},
	}
}

// RunCollection fetches new mentions of every product
func (s *Service) RunCollection() error {
	if s.collector == nil {
		return fmt.Errorf("mention collection is not configured")
	}

	start := time.Now()
	logrus.Info("Starting collection run")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := s.collector.Collect(ctx)

	s.mu.Lock()
	s.metrics.LastCollectionRun = start
	s.metrics.LastCollectionDuration = time.Since(start).String()
	s.metrics.PostsCollected += res.New
	s.metrics.ErrorCount += res.Failed
	if err != nil {
		s.metrics.ErrorCount++
	}
	s.mu.Unlock()

	if err != nil {
		logrus.Errorf("Collection run failed: %v", err)
		return err
	}

	logrus.Infof("Collection run completed in %v: %d new posts", time.Since(start), res.New)
	return nil
}

// RunAnalysis analyzes one batch of pending posts
func (s *Service) RunAnalysis() error {
	start := time.Now()
	logrus.Info("Starting analysis run")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := s.analyzer.RunBatch(ctx, s.config.AnalysisBatchSize)

	s.mu.Lock()
	s.metrics.LastAnalysisRun = start
	s.metrics.LastAnalysisDuration = time.Since(start).String()
	s.metrics.PostsAnalyzed += res.Analyzed
	s.metrics.AnalysisFallbacks += res.Fallbacks
	s.metrics.ErrorCount += res.Failed
	if err != nil {
		s.metrics.ErrorCount++
	}
	s.mu.Unlock()

	if err != nil {
		logrus.Errorf("Analysis run failed: %v", err)
		return err
	}

	logrus.Infof("Analysis run completed in %v", time.Since(start))
	return nil
}

// RunDigest builds a digest for every brand, archives it and sends it
func (s *Service) RunDigest() error {
	start := time.Now()
	logrus.Info("Starting digest run")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	digest, err := s.BuildDigest(ctx)
	if err != nil {
		s.recordDigest(start, false, 1)
		return err
	}

	errorCount := 0
	for _, bd := range digest.Brands {
		if bd.Error != "" {
			errorCount++
		}
	}

	if s.archive != nil {
		if _, err := s.archive.Save(ctx, digest); err != nil {
			logrus.Errorf("Failed to archive digest: %v", err)
			errorCount++
		} else if s.config.DigestRetention > 0 {
			if removed, err := s.archive.Prune(ctx, s.config.DigestRetention); err != nil {
				logrus.Errorf("Failed to prune digest archive: %v", err)
			} else if removed > 0 {
				logrus.Infof("Pruned %d old digests", removed)
			}
		}
	}

	s.mu.Lock()
	s.lastDigest = digest
	s.mu.Unlock()

	sent := false
	if s.notificationService != nil {
		if err := s.notificationService.SendDigest(digest); err != nil {
			logrus.Errorf("Failed to send digest: %v", err)
			s.recordDigest(start, false, errorCount+1)
			return err
		}
		sent = true
	}

	s.recordDigest(start, sent, errorCount)
	logrus.Infof("Digest run completed in %v", time.Since(start))
	return nil
}

// BuildDigest summarizes every brand for the configured period. A brand whose
// data cannot be loaded is reported with an error instead of failing the run.
func (s *Service) BuildDigest(ctx context.Context) (*models.Digest, error) {
	brands, err := s.brands.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	digest := &models.Digest{
		GeneratedAt: time.Now().UTC(),
		Schedule:    s.config.ReportSchedule,
		Period:      s.config.DigestPeriod,
		Brands:      make([]models.BrandDigest, len(brands)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(digestConcurrency)
	for i, brand := range brands {
		g.Go(func() error {
			digest.Brands[i] = s.summarizeBrand(gctx, brand)
			return nil
		})
	}
	_ = g.Wait()

	logrus.Infof("Built digest for %d brands", len(brands))
	return digest, nil
}

func (s *Service) summarizeBrand(ctx context.Context, brand models.Brand) models.BrandDigest {
	bd := models.BrandDigest{Brand: brand, ActiveAlerts: []models.AlertView{}}
	bc := session.FromBrand(brand)

	kpis, err := s.kpis.Compute(ctx, bc, "all", s.config.DigestPeriod)
	if err != nil {
		logrus.Errorf("Digest: failed to compute KPIs for %s: %v", brand.BrandName, err)
		bd.Error = err.Error()
		return bd
	}
	bd.KPIs = kpis

	views, err := s.alerts.List(ctx, bc)
	if err != nil {
		logrus.Errorf("Digest: failed to list alerts for %s: %v", brand.BrandName, err)
		bd.Error = err.Error()
		return bd
	}
	bd.ActiveAlerts, _ = alerts.Partition(views)
	return bd
}

func (s *Service) recordDigest(start time.Time, sent bool, errCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastDigestRun = start
	s.metrics.LastDigestDuration = time.Since(start).String()
	s.metrics.ErrorCount += errCount
	if sent {
		s.metrics.DigestsSent++
	}
}

// LatestDigest returns the newest archived digest, or the last one built by
// this process when no archive is configured.
func (s *Service) LatestDigest(ctx context.Context) (*models.Digest, error) {
	if s.archive != nil {
		return s.archive.Latest(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDigest == nil {
		return nil, storage.ErrNotFound
	}
	return s.lastDigest, nil
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// Snapshot returns a copy of the current metrics.
func (s *Service) Snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.metrics
}
