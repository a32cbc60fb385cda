package datastore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sentitrack/sentitrack/internal/datastore/dstest"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_BrandLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	_, err := repo.GetBrandByUser(ctx, "user-1")
	assert.ErrorIs(t, err, models.ErrBrandNotFound)

	brand := &models.Brand{BrandName: "TechCorp", Industry: "Tech", Website: "https://techcorp.example", UserID: "user-1"}
	require.NoError(t, repo.CreateBrand(ctx, brand))
	assert.NotEmpty(t, brand.BrandID)

	got, err := repo.GetBrandByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "TechCorp", got.BrandName)

	err = repo.CreateBrand(ctx, &models.Brand{BrandName: "Second", UserID: "user-1"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	brands, err := repo.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 1)
}

func TestRepository_ProductsAndLinks(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	brand := &models.Brand{BrandName: "TechCorp", UserID: "user-1"}
	require.NoError(t, repo.CreateBrand(ctx, brand))

	watch := &models.Product{BrandID: brand.BrandID, ProductName: "SmartWatch Pro"}
	phone := &models.Product{BrandID: brand.BrandID, ProductName: "EcoPhone X"}
	require.NoError(t, repo.CreateProduct(ctx, watch))
	require.NoError(t, repo.CreateProduct(ctx, phone))

	products, err := repo.ListProducts(ctx, brand.BrandID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "EcoPhone X", products[0].ProductName)

	post := &models.Post{Content: "Battery lasts forever"}
	require.NoError(t, repo.CreatePost(ctx, post, phone.ProductID, watch.ProductID))

	links, err := repo.ListPostLinks(ctx, []string{phone.ProductID})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, post.PostID, links[0].PostID)

	assert.ErrorIs(t, repo.DeleteProduct(ctx, "other-brand", phone.ProductID), models.ErrProductNotFound)
	require.NoError(t, repo.DeleteProduct(ctx, brand.BrandID, phone.ProductID))

	links, err = repo.ListPostLinks(ctx, []string{phone.ProductID, watch.ProductID})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, watch.ProductID, links[0].ProductID)
}

func TestRepository_WindowedReads(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)
	now := time.Now().UTC()

	post := &models.Post{Content: "hello", PostedAt: now.Add(-48 * time.Hour)}
	require.NoError(t, repo.CreatePost(ctx, post))

	require.NoError(t, repo.AddSentiment(ctx, &models.Sentiment{PostID: post.PostID, Label: models.SentimentPositive, AnalysisTimestamp: now.Add(-time.Hour)}))
	require.NoError(t, repo.AddSentiment(ctx, &models.Sentiment{PostID: post.PostID, Label: models.SentimentNegative, AnalysisTimestamp: now.Add(-30 * 24 * time.Hour)}))
	require.NoError(t, repo.AddEngagement(ctx, &models.Engagement{PostID: post.PostID, LikesCount: 3, RetrievedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.AddEmotion(ctx, &models.Emotion{PostID: post.PostID, EmotionType: "joy", Score: 0.9, AnalysisTimestamp: now.Add(-time.Hour)}))

	older := &models.Alert{PostID: post.PostID, AlertType: "Spike", TriggeredAt: now.Add(-5 * time.Hour)}
	newer := &models.Alert{PostID: post.PostID, AlertType: "Drop", TriggeredAt: now.Add(-1 * time.Hour)}
	require.NoError(t, repo.AddAlert(ctx, older))
	require.NoError(t, repo.AddAlert(ctx, newer))

	weekAgo := now.Add(-7 * 24 * time.Hour)

	sentiments, err := repo.ListSentiments(ctx, []string{post.PostID}, weekAgo)
	require.NoError(t, err)
	require.Len(t, sentiments, 1)
	assert.Equal(t, models.SentimentPositive, sentiments[0].Label)

	all, err := repo.ListSentiments(ctx, []string{post.PostID}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	engagements, err := repo.ListEngagements(ctx, []string{post.PostID}, weekAgo)
	require.NoError(t, err)
	require.Len(t, engagements, 1)
	assert.Equal(t, 3, engagements[0].Total())

	emotions, err := repo.ListEmotions(ctx, []string{post.PostID}, weekAgo)
	require.NoError(t, err)
	assert.Len(t, emotions, 1)

	alerts, err := repo.ListAlerts(ctx, []string{post.PostID}, time.Time{})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, newer.AlertID, alerts[0].AlertID)

	count, err := repo.CountPostsSince(ctx, []string{post.PostID}, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	empty, err := repo.ListSentiments(ctx, nil, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_ResolveAlertIsOneWay(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	post := &models.Post{Content: "x"}
	require.NoError(t, repo.CreatePost(ctx, post))
	alert := &models.Alert{PostID: post.PostID, AlertType: "Negative spike", AlertSeverity: 78}
	require.NoError(t, repo.AddAlert(ctx, alert))

	require.NoError(t, repo.ResolveAlert(ctx, alert.AlertID, "Posted apology", time.Now()))

	got, err := repo.GetAlert(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.True(t, got.IsResolved)
	require.NotNil(t, got.ResolveMessage)
	assert.Equal(t, "Posted apology", *got.ResolveMessage)
	assert.NotNil(t, got.ResolvedAt)

	err = repo.ResolveAlert(ctx, alert.AlertID, "Overwrite attempt", time.Now())
	assert.ErrorIs(t, err, models.ErrAlertResolved)

	got, err = repo.GetAlert(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, "Posted apology", *got.ResolveMessage)

	assert.ErrorIs(t, repo.ResolveAlert(ctx, "missing", "x", time.Now()), models.ErrAlertNotFound)
}

func TestRepository_PendingAnalysis(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)
	now := time.Now().UTC()

	var posts []*models.Post
	for i := 0; i < 3; i++ {
		p := &models.Post{Content: fmt.Sprintf("post %d", i), PostedAt: now.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.CreatePost(ctx, p))
		posts = append(posts, p)
	}

	require.NoError(t, repo.SaveAnalysis(ctx,
		&models.Sentiment{PostID: posts[0].PostID, Label: models.SentimentNeutral, Confidence: 0.5},
		&models.Emotion{PostID: posts[0].PostID, EmotionType: "neutral", Score: 0.5},
	))

	pending, err := repo.ListPostsPendingAnalysis(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, posts[1].PostID, pending[0].PostID)

	pending, err = repo.ListPostsPendingAnalysis(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRepository_LargeScopeIsChunked(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	post := &models.Post{Content: "x"}
	require.NoError(t, repo.CreatePost(ctx, post))
	require.NoError(t, repo.AddSentiment(ctx, &models.Sentiment{PostID: post.PostID, Label: models.SentimentPositive}))

	ids := make([]string, 0, 1200)
	for i := 0; i < 1199; i++ {
		ids = append(ids, fmt.Sprintf("missing-%d", i))
	}
	ids = append(ids, post.PostID)

	sentiments, err := repo.ListSentiments(ctx, ids, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sentiments, 1)
}
