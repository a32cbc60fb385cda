package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// postNamespace derives stable post IDs from source IDs so re-collected
// mentions are recognized.
var postNamespace = uuid.MustParse("6f1c3a0e-5d7b-4f39-9a43-2a9c1e8d7b10")

// Store is the slice of the data store the collector writes to.
type Store interface {
	ListBrands(ctx context.Context) ([]models.Brand, error)
	ListProducts(ctx context.Context, brandID string) ([]models.Product, error)
	HasPost(ctx context.Context, postID string) (bool, error)
	CreatePost(ctx context.Context, post *models.Post, productIDs ...string) error
	AddEngagement(ctx context.Context, engagement *models.Engagement) error
}

// CollectResult summarizes one collection run
type CollectResult struct {
	Found      int            `json:"found"`
	New        int            `json:"new"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Sources    map[string]int `json:"sources"`
}

// Collector searches every enabled source for the names of all products and
// stores new matching posts linked to those products. A product name shared
// by several brands links the mention to each of those products.
type Collector struct {
	sources  []Source
	store    Store
	lookback time.Duration
	now      func() time.Time
}

// NewCollector creates a collector over the given sources.
func NewCollector(store Store, lookback time.Duration, sources ...Source) *Collector {
	return &Collector{sources: sources, store: store, lookback: lookback, now: time.Now}
}

// PostID returns the post ID used for a mention.
func PostID(m Mention) string {
	return uuid.NewSHA1(postNamespace, []byte(m.ExternalID)).String()
}

// Collect runs every enabled source once. A failing source is logged and
// skipped.
func (c *Collector) Collect(ctx context.Context) (CollectResult, error) {
	result := CollectResult{Sources: map[string]int{}}

	products, err := c.allProducts(ctx)
	if err != nil {
		return result, err
	}
	keywords := productKeywords(products)
	if len(keywords) == 0 {
		logrus.Info("No products to collect mentions for")
		return result, nil
	}

	var (
		mu       sync.Mutex
		mentions []Mention
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, source := range c.sources {
		if !source.IsEnabled() {
			logrus.Debugf("Source %s is disabled, skipping", source.GetName())
			continue
		}
		g.Go(func() error {
			found, err := source.FetchMentions(gctx, keywords, c.lookback)
			if err != nil {
				logrus.Errorf("Failed to fetch mentions from %s: %v", source.GetName(), err)
			}
			logrus.Infof("Found %d mentions from %s", len(found), source.GetName())

			mu.Lock()
			defer mu.Unlock()
			mentions = append(mentions, found...)
			result.Sources[source.GetName()] += len(found)
			return nil
		})
	}
	_ = g.Wait()

	mentions = deduplicateMentions(mentions)
	result.Found = len(mentions)

	for _, m := range mentions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		linked := matchProducts(m, products)
		if len(linked) == 0 {
			continue
		}

		stored, err := c.save(ctx, m, linked)
		switch {
		case err != nil:
			logrus.Errorf("Failed to store mention %s: %v", m.ExternalID, err)
			result.Failed++
		case stored:
			result.New++
		default:
			result.Duplicates++
		}
	}

	logrus.WithFields(logrus.Fields{
		"found":      result.Found,
		"new":        result.New,
		"duplicates": result.Duplicates,
		"failed":     result.Failed,
	}).Info("Collection completed")
	return result, nil
}

// save stores the post on first sight and appends an engagement snapshot on
// every pass. It reports whether the post was new.
func (c *Collector) save(ctx context.Context, m Mention, productIDs []string) (bool, error) {
	postID := PostID(m)
	exists, err := c.store.HasPost(ctx, postID)
	if err != nil {
		return false, err
	}

	if !exists {
		post := &models.Post{
			PostID:   postID,
			Platform: m.Source,
			Author:   m.Author,
			Content:  m.Content,
			URL:      m.URL,
			PostedAt: m.PostedAt,
		}
		if err := c.store.CreatePost(ctx, post, productIDs...); err != nil {
			return false, err
		}
	}

	engagement := &models.Engagement{
		PostID:        postID,
		LikesCount:    m.Score,
		CommentsCount: m.Comments,
		RetrievedAt:   c.now().UTC(),
	}
	if err := c.store.AddEngagement(ctx, engagement); err != nil {
		return !exists, fmt.Errorf("failed to record engagement snapshot: %w", err)
	}
	return !exists, nil
}

func (c *Collector) allProducts(ctx context.Context) ([]models.Product, error) {
	brands, err := c.store.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	var products []models.Product
	for _, b := range brands {
		p, err := c.store.ListProducts(ctx, b.BrandID)
		if err != nil {
			return nil, fmt.Errorf("failed to list products of %s: %w", b.BrandName, err)
		}
		products = append(products, p...)
	}
	return products, nil
}

// productKeywords returns the distinct product names, case-insensitively.
func productKeywords(products []models.Product) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, p := range products {
		key := strings.ToLower(strings.TrimSpace(p.ProductName))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keywords = append(keywords, p.ProductName)
	}
	sort.Strings(keywords)
	return keywords
}

// matchProducts returns the IDs of products whose name occurs in the mention.
func matchProducts(m Mention, products []models.Product) []string {
	content := strings.ToLower(m.Content)
	var ids []string
	for _, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.ProductName))
		if name != "" && strings.Contains(content, name) {
			ids = append(ids, p.ProductID)
		}
	}
	return ids
}
