package datastore

import (
	"context"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
)

// Store defines the contract for the relational data store. Multi-step reads
// are independent queries; callers get no snapshot across them.
type Store interface {
	GetBrandByUser(ctx context.Context, userID string) (*models.Brand, error)
	CreateBrand(ctx context.Context, brand *models.Brand) error
	ListBrands(ctx context.Context) ([]models.Brand, error)

	ListProducts(ctx context.Context, brandID string) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, brandID, productID string) error

	ListPostLinks(ctx context.Context, productIDs []string) ([]models.PostProduct, error)
	CountPostsSince(ctx context.Context, postIDs []string, since time.Time) (int, error)

	// A zero since means unbounded.
	ListSentiments(ctx context.Context, postIDs []string, since time.Time) ([]models.Sentiment, error)
	ListEmotions(ctx context.Context, postIDs []string, since time.Time) ([]models.Emotion, error)
	ListEngagements(ctx context.Context, postIDs []string, since time.Time) ([]models.Engagement, error)
	ListAlerts(ctx context.Context, postIDs []string, since time.Time) ([]models.Alert, error)

	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ResolveAlert(ctx context.Context, alertID, comment string, at time.Time) error

	HasPost(ctx context.Context, postID string) (bool, error)
	CreatePost(ctx context.Context, post *models.Post, productIDs ...string) error
	AddEngagement(ctx context.Context, engagement *models.Engagement) error

	ListPostsPendingAnalysis(ctx context.Context, limit int) ([]models.Post, error)
	SaveAnalysis(ctx context.Context, sentiment *models.Sentiment, emotion *models.Emotion) error
}
