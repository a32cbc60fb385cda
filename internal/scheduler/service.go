package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sentitrack/sentitrack/internal/config"
	"github.com/sirupsen/logrus"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	RunCollection() error
	RunAnalysis() error
	RunDigest() error
}

// Service handles scheduling of background jobs
type Service struct {
	config *config.Config
	jobs   Jobs
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, jobs Jobs) *Service {
	return &Service{
		config: cfg,
		jobs:   jobs,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// DigestExpression returns the cron expression for a report schedule.
func DigestExpression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM UTC
		return "0 0 9 * * *"
	default:
		// Run weekly on Monday at 9 AM UTC
		return "0 0 9 * * MON"
	}
}

// Start registers the enabled jobs and begins scheduling
func (s *Service) Start() error {
	if s.config.EnableCollection {
		_, err := s.cron.AddFunc(s.config.CollectionSchedule, func() {
			logrus.Info("Starting scheduled collection run")
			if err := s.jobs.RunCollection(); err != nil {
				logrus.Errorf("Scheduled collection run failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid collection schedule %q: %w", s.config.CollectionSchedule, err)
		}
	}

	if s.config.EnableAnalysis {
		_, err := s.cron.AddFunc(s.config.AnalysisSchedule, func() {
			logrus.Info("Starting scheduled analysis run")
			if err := s.jobs.RunAnalysis(); err != nil {
				logrus.Errorf("Scheduled analysis run failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid analysis schedule %q: %w", s.config.AnalysisSchedule, err)
		}
	}

	if s.config.EnableDigest {
		_, err := s.cron.AddFunc(DigestExpression(s.config.ReportSchedule), func() {
			logrus.Info("Starting scheduled digest run")
			if err := s.jobs.RunDigest(); err != nil {
				logrus.Errorf("Scheduled digest run failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.WithFields(logrus.Fields{
		"collection":      s.config.EnableCollection,
		"collection_cron": s.config.CollectionSchedule,
		"analysis":        s.config.EnableAnalysis,
		"analysis_cron":   s.config.AnalysisSchedule,
		"digest":          s.config.EnableDigest,
		"report_schedule": s.config.ReportSchedule,
	}).Info("Scheduler started")
	return nil
}

// Entries returns the number of registered jobs.
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
