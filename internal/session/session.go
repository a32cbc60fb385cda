package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
)

// BrandContext identifies the brand a request operates on. It is resolved once
// per request and passed explicitly to every query.
type BrandContext struct {
	BrandID   string `json:"brand_id"`
	BrandName string `json:"brand_name"`
	Industry  string `json:"industry"`
	Website   string `json:"website"`
	UserID    string `json:"user_id"`
}

// FromBrand builds a context from a stored brand.
func FromBrand(b models.Brand) BrandContext {
	return BrandContext{
		BrandID:   b.BrandID,
		BrandName: b.BrandName,
		Industry:  b.Industry,
		Website:   b.Website,
		UserID:    b.UserID,
	}
}

// BrandLoader is the slice of the data store the resolver needs.
type BrandLoader interface {
	GetBrandByUser(ctx context.Context, userID string) (*models.Brand, error)
}

// Resolver resolves brand contexts, consulting an optional cache first.
type Resolver struct {
	store BrandLoader
	cache Cache
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(store BrandLoader, cache Cache) *Resolver {
	return &Resolver{store: store, cache: cache}
}

// Resolve returns the brand context for userID.
func (r *Resolver) Resolve(ctx context.Context, userID string) (BrandContext, error) {
	if userID == "" {
		return BrandContext{}, models.ErrAuthRequired
	}

	if r.cache != nil {
		bc, found, err := r.cache.Get(ctx, userID)
		if err != nil {
			logrus.Warnf("Brand context cache read failed for %s: %v", userID, err)
		} else if found {
			return bc, nil
		}
	}

	brand, err := r.store.GetBrandByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrBrandNotFound) {
			return BrandContext{}, err
		}
		return BrandContext{}, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}

	bc := FromBrand(*brand)
	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, bc); err != nil {
			logrus.Warnf("Brand context cache write failed for %s: %v", userID, err)
		}
	}
	return bc, nil
}

// Invalidate drops the cached context for userID, as on logout.
func (r *Resolver) Invalidate(ctx context.Context, userID string) error {
	if r.cache == nil {
		return nil
	}
	if err := r.cache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate brand context: %w", err)
	}
	return nil
}
