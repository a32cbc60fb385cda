package kpi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sentitrack/sentitrack/internal/timewindow"
)

type bucketing int

const (
	byDay bucketing = iota
	byWeek
	byMonth
)

func bucketingFor(period timewindow.Period) bucketing {
	switch period {
	case timewindow.LastWeek:
		return byDay
	case timewindow.LastMonth:
		return byWeek
	default:
		return byMonth
	}
}

// floor truncates t to the start of its bucket. Weeks start on Monday.
func (b bucketing) floor(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch b {
	case byWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case byMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func (b bucketing) next(t time.Time) time.Time {
	switch b {
	case byWeek:
		return t.AddDate(0, 0, 7)
	case byMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func (b bucketing) label(t time.Time) string {
	switch b {
	case byWeek:
		return "Week of " + t.Format("Jan 2")
	case byMonth:
		return t.Format("Jan 2006")
	default:
		return t.Format("Mon Jan 2")
	}
}

// SentimentTrend returns the positive/neutral/negative percentage split per
// bucket across the period: days for lastweek, weeks for lastmonth and months
// otherwise. The all-time series starts at the month of the oldest row.
func (s *Service) SentimentTrend(ctx context.Context, brand session.BrandContext, productFilter, periodName string) ([]models.TrendPoint, error) {
	now := s.now().UTC()
	period := timewindow.Parse(periodName)
	win := newWindow(period, now)
	b := bucketingFor(period)

	postIDs, err := s.scopePosts(ctx, brand, productFilter)
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []models.TrendPoint{}, nil
	}

	var since time.Time
	if period.Bounded() {
		since = win.start
	}
	rows, err := s.store.ListSentiments(ctx, postIDs, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	first := win.start
	if !period.Bounded() {
		if len(rows) == 0 {
			return []models.TrendPoint{}, nil
		}
		first = rows[0].AnalysisTimestamp
		for _, row := range rows[1:] {
			if row.AnalysisTimestamp.Before(first) {
				first = row.AnalysisTimestamp
			}
		}
	}

	var points []models.TrendPoint
	index := make(map[time.Time]int)
	for t := b.floor(first); !t.After(now); t = b.next(t) {
		index[t] = len(points)
		points = append(points, models.TrendPoint{Label: b.label(t), Start: t})
	}

	counts := make([][3]int, len(points))
	for _, row := range rows {
		i, ok := index[b.floor(row.AnalysisTimestamp)]
		if !ok {
			continue
		}
		switch row.Label {
		case models.SentimentPositive:
			counts[i][0]++
		case models.SentimentNeutral:
			counts[i][1]++
		case models.SentimentNegative:
			counts[i][2]++
		}
	}

	for i := range points {
		c := counts[i]
		total := c[0] + c[1] + c[2]
		points[i].Total = total
		points[i].Positive = percent(c[0], total)
		points[i].Neutral = percent(c[1], total)
		points[i].Negative = percent(c[2], total)
	}
	return points, nil
}

// EmotionBreakdown returns each emotion's share of the in-window emotion rows,
// largest first.
func (s *Service) EmotionBreakdown(ctx context.Context, brand session.BrandContext, productFilter, periodName string) ([]models.EmotionShare, error) {
	period := timewindow.Parse(periodName)
	win := newWindow(period, s.now().UTC())

	postIDs, err := s.scopePosts(ctx, brand, productFilter)
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []models.EmotionShare{}, nil
	}

	var since time.Time
	if period.Bounded() {
		since = win.start
	}
	rows, err := s.store.ListEmotions(ctx, postIDs, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		emotion := strings.ToLower(strings.TrimSpace(row.EmotionType))
		if emotion == "" {
			continue
		}
		counts[emotion]++
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	shares := make([]models.EmotionShare, 0, len(counts))
	for emotion, n := range counts {
		shares = append(shares, models.EmotionShare{
			Emotion: emotion,
			Count:   n,
			Percent: percent(n, total),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Emotion < shares[j].Emotion
	})
	return shares, nil
}
