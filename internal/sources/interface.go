// Package sources collects public posts that mention a brand's products.
package sources

import (
	"context"
	"time"
)

// Mention is a post found by a source.
type Mention struct {
	ExternalID string // "<source>_<id>", stable across runs
	Source     string
	Platform   string
	Author     string
	Content    string
	URL        string
	PostedAt   time.Time
	Score      int
	Comments   int
	Keywords   []string
}

// Source interface defines the contract for all data sources
type Source interface {
	GetName() string
	FetchMentions(ctx context.Context, keywords []string, since time.Duration) ([]Mention, error)
	IsEnabled() bool
}

const userAgent = "SentiTrack-Collector/1.0"

func deduplicateMentions(mentions []Mention) []Mention {
	seen := make(map[string]bool)
	var unique []Mention

	for _, mention := range mentions {
		if !seen[mention.ExternalID] {
			seen[mention.ExternalID] = true
			unique = append(unique, mention)
		}
	}

	return unique
}
