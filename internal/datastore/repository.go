package datastore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sentitrack/sentitrack/internal/models"
	"gorm.io/gorm"
)

// inChunkSize bounds the number of bind parameters in a single IN clause.
const inChunkSize = 500

// Repository implements Store on top of gorm
type Repository struct {
	db *gorm.DB
}

// Ensure Repository implements Store
var _ Store = (*Repository)(nil)

// NewRepository creates a new gorm-backed repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// GetBrandByUser returns the brand owned by userID.
func (r *Repository) GetBrandByUser(ctx context.Context, userID string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&brand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to load brand for user %s: %w", userID, err)
	}
	return &brand, nil
}

// CreateBrand stores a brand; a user may own at most one.
func (r *Repository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if brand.UserID == "" || brand.BrandName == "" {
		return fmt.Errorf("%w: brand name and user are required", models.ErrInvalidInput)
	}

	_, err := r.GetBrandByUser(ctx, brand.UserID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: user already has a brand", models.ErrInvalidInput)
	case !errors.Is(err, models.ErrBrandNotFound):
		return err
	}

	brand.BrandID = newID(brand.BrandID)
	brand.CreatedAt = utcOrNow(brand.CreatedAt)
	if err := r.db.WithContext(ctx).Create(brand).Error; err != nil {
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return nil
}

// ListBrands returns every brand.
func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.WithContext(ctx).Order("brand_name ASC").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// ListProducts returns the brand's products ordered by name.
func (r *Repository) ListProducts(ctx context.Context, brandID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("product_name ASC").Order("product_id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CreateProduct stores a product for its brand.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.BrandID == "" || product.ProductName == "" {
		return fmt.Errorf("%w: product name and brand are required", models.ErrInvalidInput)
	}
	product.ProductID = newID(product.ProductID)
	product.CreatedAt = utcOrNow(product.CreatedAt)
	if product.LaunchDate != nil {
		launch := product.LaunchDate.UTC()
		product.LaunchDate = &launch
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// DeleteProduct removes a brand-owned product and its post links.
func (r *Repository) DeleteProduct(ctx context.Context, brandID, productID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).
			Where("brand_id = ? AND product_id = ?", brandID, productID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product: %w", err)
		}
		if count == 0 {
			return models.ErrProductNotFound
		}

		if err := tx.Where("product_id = ?", productID).Delete(&models.PostProduct{}).Error; err != nil {
			return fmt.Errorf("failed to unlink posts: %w", err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

// ListPostLinks returns every post link of the given products.
func (r *Repository) ListPostLinks(ctx context.Context, productIDs []string) ([]models.PostProduct, error) {
	var links []models.PostProduct
	err := inChunks(productIDs, func(chunk []string) error {
		var rows []models.PostProduct
		if err := r.db.WithContext(ctx).Where("product_id IN ?", chunk).Find(&rows).Error; err != nil {
			return err
		}
		links = append(links, rows...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list post links: %w", err)
	}
	return links, nil
}

// CountPostsSince counts posts among postIDs published at or after since.
func (r *Repository) CountPostsSince(ctx context.Context, postIDs []string, since time.Time) (int, error) {
	var total int64
	err := inChunks(postIDs, func(chunk []string) error {
		var count int64
		q := r.db.WithContext(ctx).Model(&models.Post{}).Where("post_id IN ?", chunk)
		if !since.IsZero() {
			q = q.Where("posted_at >= ?", since.UTC())
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		total += count
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return int(total), nil
}

// ListSentiments returns sentiment rows analyzed at or after since.
func (r *Repository) ListSentiments(ctx context.Context, postIDs []string, since time.Time) ([]models.Sentiment, error) {
	rows, err := listSince[models.Sentiment](ctx, r.db, postIDs, "analysis_timestamp", since, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list sentiments: %w", err)
	}
	return rows, nil
}

// ListEmotions returns emotion rows analyzed at or after since.
func (r *Repository) ListEmotions(ctx context.Context, postIDs []string, since time.Time) ([]models.Emotion, error) {
	rows, err := listSince[models.Emotion](ctx, r.db, postIDs, "analysis_timestamp", since, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list emotions: %w", err)
	}
	return rows, nil
}

// ListEngagements returns engagement snapshots retrieved at or after since.
func (r *Repository) ListEngagements(ctx context.Context, postIDs []string, since time.Time) ([]models.Engagement, error) {
	rows, err := listSince[models.Engagement](ctx, r.db, postIDs, "retrieved_at", since, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}
	return rows, nil
}

// ListAlerts returns alerts triggered at or after since, most recent first.
func (r *Repository) ListAlerts(ctx context.Context, postIDs []string, since time.Time) ([]models.Alert, error) {
	rows, err := listSince[models.Alert](ctx, r.db, postIDs, "triggered_at", since, "triggered_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	// Chunked reads are only ordered within each chunk.
	if len(postIDs) > inChunkSize {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].TriggeredAt.After(rows[j].TriggeredAt)
		})
	}
	return rows, nil
}

// listSince loads rows whose post_id is in postIDs and whose column is at or
// after since. A zero since disables the time filter.
func listSince[T any](ctx context.Context, db *gorm.DB, postIDs []string, column string, since time.Time, order string) ([]T, error) {
	var result []T
	err := inChunks(postIDs, func(chunk []string) error {
		q := db.WithContext(ctx).Where("post_id IN ?", chunk)
		if !since.IsZero() {
			q = q.Where(column+" >= ?", since.UTC())
		}
		if order != "" {
			q = q.Order(order)
		}
		var rows []T
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		result = append(result, rows...)
		return nil
	})
	return result, err
}

// GetAlert returns a single alert.
func (r *Repository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).Where("alert_id = ?", alertID).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to load alert %s: %w", alertID, err)
	}
	return &alert, nil
}

// ResolveAlert flips an unresolved alert to resolved. The update only matches
// unresolved rows, so a resolved alert is never rewritten.
func (r *Repository) ResolveAlert(ctx context.Context, alertID, comment string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("alert_id = ? AND is_resolved = ?", alertID, false).
		Updates(map[string]any{
			"is_resolved":     true,
			"resolve_message": comment,
			"resolved_at":     at.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", alertID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetAlert(ctx, alertID); err != nil {
			return err
		}
		return models.ErrAlertResolved
	}
	return nil
}

// ListPostsPendingAnalysis returns the oldest posts without a sentiment row.
func (r *Repository) ListPostsPendingAnalysis(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM sentiment WHERE sentiment.post_id = post.post_id)").
		Order("posted_at ASC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts pending analysis: %w", err)
	}
	return posts, nil
}

// SaveAnalysis stores a sentiment row and, when present, an emotion row.
func (r *Repository) SaveAnalysis(ctx context.Context, sentiment *models.Sentiment, emotion *models.Emotion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sentiment.SentimentID = newID(sentiment.SentimentID)
		sentiment.AnalysisTimestamp = utcOrNow(sentiment.AnalysisTimestamp)
		if err := tx.Create(sentiment).Error; err != nil {
			return fmt.Errorf("failed to save sentiment: %w", err)
		}
		if emotion == nil {
			return nil
		}
		emotion.EmotionID = newID(emotion.EmotionID)
		emotion.AnalysisTimestamp = utcOrNow(emotion.AnalysisTimestamp)
		if err := tx.Create(emotion).Error; err != nil {
			return fmt.Errorf("failed to save emotion: %w", err)
		}
		return nil
	})
}

func inChunks(ids []string, fn func(chunk []string) error) error {
	for start := 0; start < len(ids); start += inChunkSize {
		end := start + inChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}
