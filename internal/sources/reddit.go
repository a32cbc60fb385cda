package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	redditAuthURL = "https://www.reddit.com"
	redditAPIURL  = "https://oauth.reddit.com"
)

// RedditSource implements Reddit API source
type RedditSource struct {
	clientID     string
	clientSecret string
	authURL      string
	apiURL       string
	client       *resty.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      redditAuthURL,
		apiURL:       redditAPIURL,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) FetchMentions(ctx context.Context, keywords []string, since time.Duration) ([]Mention, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}

	token, err := r.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var allMentions []Mention
	cutoff := time.Now().Add(-since)

	for _, keyword := range keywords {
		mentions, err := r.searchKeyword(ctx, token, keyword, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return allMentions, ctx.Err()
			}
			logrus.Errorf("Failed to search Reddit for keyword '%s': %v", keyword, err)
			continue
		}
		allMentions = append(allMentions, mentions...)
	}

	return deduplicateMentions(allMentions), nil
}

// token returns a cached application token, refreshing it a minute before it expires.
func (r *RedditSource) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.expiresAt) {
		return r.accessToken, nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL + "/api/v1/access_token")

	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}
	if authResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	r.accessToken = authResp.AccessToken
	r.expiresAt = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - time.Minute)
	return r.accessToken, nil
}

func (r *RedditSource) searchKeyword(ctx context.Context, token, keyword string, cutoff time.Time) ([]Mention, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("User-Agent", userAgent).
		SetQueryParams(map[string]string{
			"q":     fmt.Sprintf("%q", keyword),
			"sort":  "new",
			"limit": "100",
		}).
		Get(r.apiURL + "/search.json")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, err
	}

	var mentions []Mention
	for _, child := range searchResp.Data.Children {
		post := child.Data
		createdAt := time.Unix(int64(post.Created), 0).UTC()

		// Skip posts older than our cutoff
		if createdAt.Before(cutoff) {
			continue
		}

		content := strings.TrimSpace(post.Title + "\n" + post.Selftext)
		if !strings.Contains(strings.ToLower(content), strings.ToLower(keyword)) {
			continue
		}

		mentions = append(mentions, Mention{
			ExternalID: "reddit_" + post.ID,
			Source:     "reddit",
			Platform:   "r/" + post.Subreddit,
			Author:     post.Author,
			Content:    content,
			URL:        "https://reddit.com" + post.Permalink,
			PostedAt:   createdAt,
			Score:      post.Score,
			Comments:   post.NumComments,
			Keywords:   []string{keyword},
		})
	}

	return mentions, nil
}
