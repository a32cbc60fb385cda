package datastore

import (
	"context"
	"fmt"

	"github.com/sentitrack/sentitrack/internal/models"
	"gorm.io/gorm"
)

// The writers below load rows produced by the collector and by the external
// alert detection process. They also back SeedDemo and the tests.

// CreatePost stores a post and links it to the given products.
func (r *Repository) CreatePost(ctx context.Context, post *models.Post, productIDs ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post.PostID = newID(post.PostID)
		post.PostedAt = utcOrNow(post.PostedAt)
		post.CreatedAt = utcOrNow(post.CreatedAt)
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		for _, productID := range productIDs {
			link := models.PostProduct{PostID: post.PostID, ProductID: productID, CreatedAt: post.CreatedAt}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link post %s to product %s: %w", post.PostID, productID, err)
			}
		}
		return nil
	})
}

// HasPost reports whether a post with postID is stored.
func (r *Repository) HasPost(ctx context.Context, postID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up post %s: %w", postID, err)
	}
	return count > 0, nil
}

// AddSentiment stores a sentiment row.
func (r *Repository) AddSentiment(ctx context.Context, sentiment *models.Sentiment) error {
	sentiment.SentimentID = newID(sentiment.SentimentID)
	sentiment.AnalysisTimestamp = utcOrNow(sentiment.AnalysisTimestamp)
	if err := r.db.WithContext(ctx).Create(sentiment).Error; err != nil {
		return fmt.Errorf("failed to add sentiment: %w", err)
	}
	return nil
}

// AddEmotion stores an emotion row.
func (r *Repository) AddEmotion(ctx context.Context, emotion *models.Emotion) error {
	emotion.EmotionID = newID(emotion.EmotionID)
	emotion.AnalysisTimestamp = utcOrNow(emotion.AnalysisTimestamp)
	if err := r.db.WithContext(ctx).Create(emotion).Error; err != nil {
		return fmt.Errorf("failed to add emotion: %w", err)
	}
	return nil
}

// AddEngagement stores an engagement snapshot.
func (r *Repository) AddEngagement(ctx context.Context, engagement *models.Engagement) error {
	engagement.EngagementID = newID(engagement.EngagementID)
	engagement.RetrievedAt = utcOrNow(engagement.RetrievedAt)
	if err := r.db.WithContext(ctx).Create(engagement).Error; err != nil {
		return fmt.Errorf("failed to add engagement: %w", err)
	}
	return nil
}

// AddAlert stores an alert.
func (r *Repository) AddAlert(ctx context.Context, alert *models.Alert) error {
	alert.AlertID = newID(alert.AlertID)
	alert.TriggeredAt = utcOrNow(alert.TriggeredAt)
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to add alert: %w", err)
	}
	return nil
}
