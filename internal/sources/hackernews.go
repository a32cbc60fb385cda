package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const hackerNewsSearchURL = "https://hn.algolia.com/api/v1"

// HackerNewsSource searches Hacker News stories and comments through the
// public Algolia search API.
type HackerNewsSource struct {
	baseURL string
	client  *resty.Client
}

type hackerNewsSearchResponse struct {
	Hits []hackerNewsHit `json:"hits"`
}

type hackerNewsHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	CreatedAtI  int64  `json:"created_at_i"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
}

// NewHackerNewsSource creates a new Hacker News source. An empty baseURL uses
// the public endpoint.
func NewHackerNewsSource(baseURL string) *HackerNewsSource {
	if baseURL == "" {
		baseURL = hackerNewsSearchURL
	}
	return &HackerNewsSource{
		baseURL: baseURL,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent),
	}
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // Hacker News search doesn't require authentication
}

func (h *HackerNewsSource) FetchMentions(ctx context.Context, keywords []string, since time.Duration) ([]Mention, error) {
	cutoff := time.Now().Add(-since)

	var allMentions []Mention
	for _, keyword := range keywords {
		hits, err := h.search(ctx, keyword, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return allMentions, ctx.Err()
			}
			logrus.Errorf("Failed to search Hacker News for %q: %v", keyword, err)
			continue
		}

		for _, hit := range hits {
			content := hit.Title
			if hit.StoryText != "" {
				content += "\n" + hit.StoryText
			}
			if hit.CommentText != "" {
				content = hit.CommentText
			}

			mention := Mention{
				ExternalID: "hackernews_" + hit.ObjectID,
				Source:     "hackernews",
				Platform:   "Hacker News",
				Author:     hit.Author,
				Content:    html.UnescapeString(content),
				URL:        "https://news.ycombinator.com/item?id=" + hit.ObjectID,
				PostedAt:   time.Unix(hit.CreatedAtI, 0).UTC(),
				Score:      hit.Points,
				Comments:   hit.NumComments,
				Keywords:   []string{keyword},
			}
			allMentions = append(allMentions, mention)
		}
	}

	return deduplicateMentions(allMentions), nil
}

func (h *HackerNewsSource) search(ctx context.Context, keyword string, cutoff time.Time) ([]hackerNewsHit, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":          fmt.Sprintf("%q", keyword),
			"tags":           "(story,comment)",
			"numericFilters": "created_at_i>" + strconv.FormatInt(cutoff.Unix(), 10),
			"hitsPerPage":    "100",
		}).
		Get(h.baseURL + "/search_by_date")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news search returned status %d", resp.StatusCode())
	}

	var searchResp hackerNewsSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, err
	}

	return searchResp.Hits, nil
}
