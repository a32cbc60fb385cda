package datastore

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
)

// DemoOptions controls the size of the demo dataset.
type DemoOptions struct {
	UserID string
	Days   int // posts are spread over this many days before Now
	Posts  int // posts per product
	// Unanalyzed posts are created without sentiment so the analysis job has work.
	Unanalyzed int
	Now        time.Time
	Seed       int64
}

// DemoSummary counts what SeedDemo created.
type DemoSummary struct {
	Brand    models.Brand
	Products int
	Posts    int
	Alerts   int
}

type demoProduct struct {
	name, category, description string
	topics                      []string
}

var demoProducts = []demoProduct{
	{"EcoPhone X", "Smartphones", "Recycled-aluminium phone with a two day battery", []string{"battery life", "camera", "price", "screen"}},
	{"SmartWatch Pro", "Wearables", "Fitness watch with ECG and sleep tracking", []string{"strap", "heart rate sensor", "app sync", "battery"}},
	{"CloudSync", "Software", "Cross-device file sync service", []string{"sync speed", "pricing tiers", "outage", "sharing"}},
}

var (
	demoPlatforms = []string{"twitter", "reddit", "instagram", "facebook"}
	demoEmotions  = map[string][]string{
		models.SentimentPositive: {"joy", "trust", "anticipation"},
		models.SentimentNeutral:  {"neutral", "surprise"},
		models.SentimentNegative: {"anger", "fear", "sadness", "disgust"},
	}
	demoPhrases = map[string]string{
		models.SentimentPositive: "Really impressed with the %s on %s",
		models.SentimentNeutral:  "Anyone else tried the %s on %s yet?",
		models.SentimentNegative: "Disappointed by the %s on %s",
	}
)

// SeedDemo creates a demo brand for opts.UserID with three products, posts with
// analysis and engagement, and three open alerts.
func (r *Repository) SeedDemo(ctx context.Context, opts DemoOptions) (*DemoSummary, error) {
	if opts.Days <= 0 {
		opts.Days = 90
	}
	if opts.Posts <= 0 {
		opts.Posts = 40
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	brand := models.Brand{BrandName: "TechCorp", Industry: "Technology", Website: "https://techcorp.example", UserID: opts.UserID}
	if err := r.CreateBrand(ctx, &brand); err != nil {
		return nil, err
	}
	summary := &DemoSummary{Brand: brand}

	firstPost := make([]string, 0, len(demoProducts))
	for _, dp := range demoProducts {
		launch := opts.Now.AddDate(-1, 0, 0).UTC().Truncate(24 * time.Hour)
		product := models.Product{
			BrandID:     brand.BrandID,
			ProductName: dp.name,
			Description: dp.description,
			Category:    dp.category,
			LaunchDate:  &launch,
		}
		if err := r.CreateProduct(ctx, &product); err != nil {
			return nil, err
		}
		summary.Products++

		for i := 0; i < opts.Posts; i++ {
			age := time.Duration(rng.Int63n(int64(opts.Days) * int64(24*time.Hour)))
			postedAt := opts.Now.Add(-age)
			label := demoLabel(rng)
			topic := dp.topics[rng.Intn(len(dp.topics))]

			post := models.Post{
				Platform: demoPlatforms[rng.Intn(len(demoPlatforms))],
				Author:   fmt.Sprintf("user%04d", rng.Intn(10000)),
				Content:  fmt.Sprintf(demoPhrases[label], topic, dp.name),
				PostedAt: postedAt,
			}
			if err := r.CreatePost(ctx, &post, product.ProductID); err != nil {
				return nil, err
			}
			summary.Posts++
			if i == 0 {
				firstPost = append(firstPost, post.PostID)
			}
			if i >= opts.Posts-opts.Unanalyzed {
				continue
			}

			confidence := 0.55 + rng.Float64()*0.45
			emotions := demoEmotions[label]
			if err := r.SaveAnalysis(ctx,
				&models.Sentiment{PostID: post.PostID, Label: label, Confidence: confidence, AnalysisTimestamp: postedAt},
				&models.Emotion{PostID: post.PostID, EmotionType: emotions[rng.Intn(len(emotions))], Score: confidence, AnalysisTimestamp: postedAt},
			); err != nil {
				return nil, err
			}
			if err := r.AddEngagement(ctx, &models.Engagement{
				PostID:        post.PostID,
				LikesCount:    rng.Intn(500),
				SharesCount:   rng.Intn(80),
				CommentsCount: rng.Intn(120),
				RetrievedAt:   postedAt.Add(time.Hour),
			}); err != nil {
				return nil, err
			}
		}
	}

	alerts := []models.Alert{
		{PostID: firstPost[0], AlertType: "Negative Sentiment Spike", AlertSeverity: 78,
			AlertMessage: "Negative mentions of EcoPhone X battery life rose 40% in the last 24 hours", TriggeredAt: opts.Now.Add(-2 * time.Hour)},
		{PostID: firstPost[1], AlertType: "Mention Volume Drop", AlertSeverity: 35,
			AlertMessage: "SmartWatch Pro mentions fell 25% week over week", TriggeredAt: opts.Now.Add(-26 * time.Hour)},
		{PostID: firstPost[2], AlertType: "Competitor Comparison Trend", AlertSeverity: 62,
			AlertMessage: "CloudSync is increasingly compared with competitors on pricing", TriggeredAt: opts.Now.Add(-50 * time.Hour)},
	}
	for i := range alerts {
		if err := r.AddAlert(ctx, &alerts[i]); err != nil {
			return nil, err
		}
		summary.Alerts++
	}
	return summary, nil
}

// demoLabel draws a label: 55% positive, 25% neutral, 20% negative.
func demoLabel(rng *rand.Rand) string {
	switch n := rng.Intn(100); {
	case n < 55:
		return models.SentimentPositive
	case n < 80:
		return models.SentimentNeutral
	default:
		return models.SentimentNegative
	}
}
