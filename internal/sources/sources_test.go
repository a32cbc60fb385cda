package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentitrack/sentitrack/internal/datastore/dstest"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedditSource_GetName(t *testing.T) {
	source := NewRedditSource("client_id", "client_secret")
	assert.Equal(t, "reddit", source.GetName())
}

func TestRedditSource_IsEnabled(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		expected     bool
	}{
		{
			name:         "Both credentials provided",
			clientID:     "client_id",
			clientSecret: "client_secret",
			expected:     true,
		},
		{
			name:         "Missing client ID",
			clientID:     "",
			clientSecret: "client_secret",
			expected:     false,
		},
		{
			name:         "Missing client secret",
			clientID:     "client_id",
			clientSecret: "",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewRedditSource(tt.clientID, tt.clientSecret)
			assert.Equal(t, tt.expected, source.IsEnabled())
		})
	}
}

func TestRedditSource_FetchMentions(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	old := time.Now().Add(-72 * time.Hour).Unix()
	tokenRequests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			tokenRequests++
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "id", user)
			assert.Equal(t, "secret", pass)
			fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
		case "/search.json":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, `"EcoPhone X"`, r.URL.Query().Get("q"))
			fmt.Fprintf(w, `{"data":{"children":[
				{"data":{"id":"a1","title":"EcoPhone X battery is great","selftext":"","author":"sam","subreddit":"Android","permalink":"/r/Android/a1","created_utc":%d,"score":42,"num_comments":7}},
				{"data":{"id":"a2","title":"Unrelated phone","selftext":"","author":"kim","subreddit":"Android","permalink":"/r/Android/a2","created_utc":%d,"score":1,"num_comments":0}},
				{"data":{"id":"a3","title":"EcoPhone X from last week","selftext":"","author":"lee","subreddit":"Android","permalink":"/r/Android/a3","created_utc":%d,"score":3,"num_comments":1}}
			]}}`, recent, recent, old)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	source := NewRedditSource("id", "secret")
	source.authURL = server.URL
	source.apiURL = server.URL

	mentions, err := source.FetchMentions(context.Background(), []string{"EcoPhone X"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "reddit_a1", mentions[0].ExternalID)
	assert.Equal(t, "r/Android", mentions[0].Platform)
	assert.Equal(t, "https://reddit.com/r/Android/a1", mentions[0].URL)
	assert.Equal(t, 42, mentions[0].Score)
	assert.Equal(t, 7, mentions[0].Comments)

	_, err = source.FetchMentions(context.Background(), []string{"EcoPhone X"}, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRequests, "the access token is reused until it expires")
}

func TestRedditSource_DisabledFetchesNothing(t *testing.T) {
	mentions, err := NewRedditSource("", "").FetchMentions(context.Background(), []string{"x"}, time.Hour)
	assert.NoError(t, err)
	assert.Empty(t, mentions)
}

func TestHackerNewsSource_GetName(t *testing.T) {
	source := NewHackerNewsSource("")
	assert.Equal(t, "hackernews", source.GetName())
	assert.True(t, source.IsEnabled())
}

func TestHackerNewsSource_FetchMentions(t *testing.T) {
	created := time.Now().Add(-time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search_by_date", r.URL.Path)
		q := r.URL.Query()
		assert.Contains(t, q.Get("numericFilters"), "created_at_i>")
		switch q.Get("query") {
		case `"CloudSync"`:
			fmt.Fprintf(w, `{"hits":[
				{"objectID":"101","title":"CloudSync outage today","story_text":"","author":"pg","created_at_i":%d,"points":120,"num_comments":45},
				{"objectID":"102","comment_text":"CloudSync &amp; friends","author":"dang","created_at_i":%d}
			]}`, created, created)
		case `"SmartWatch Pro"`:
			// Same story matched by a second keyword.
			fmt.Fprintf(w, `{"hits":[{"objectID":"101","title":"CloudSync outage today","author":"pg","created_at_i":%d,"points":120,"num_comments":45}]}`, created)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	source := NewHackerNewsSource(server.URL)
	mentions, err := source.FetchMentions(context.Background(), []string{"CloudSync", "SmartWatch Pro", "broken"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, mentions, 2)

	assert.Equal(t, "hackernews_101", mentions[0].ExternalID)
	assert.Equal(t, "CloudSync outage today", mentions[0].Content)
	assert.Equal(t, 120, mentions[0].Score)
	assert.Equal(t, "https://news.ycombinator.com/item?id=101", mentions[0].URL)
	assert.Equal(t, "CloudSync & friends", mentions[1].Content)
}

func TestDeduplicateMentions(t *testing.T) {
	mentions := []Mention{
		{ExternalID: "1", Content: "First mention"},
		{ExternalID: "2", Content: "Second mention"},
		{ExternalID: "1", Content: "Duplicate mention"},
		{ExternalID: "3", Content: "Third mention"},
	}

	unique := deduplicateMentions(mentions)

	assert.Len(t, unique, 3)
	assert.Equal(t, "1", unique[0].ExternalID)
	assert.Equal(t, "2", unique[1].ExternalID)
	assert.Equal(t, "3", unique[2].ExternalID)
}

type stubSource struct {
	name     string
	enabled  bool
	mentions []Mention
	err      error
	keywords []string
}

func (s *stubSource) GetName() string { return s.name }
func (s *stubSource) IsEnabled() bool { return s.enabled }
func (s *stubSource) FetchMentions(ctx context.Context, keywords []string, since time.Duration) ([]Mention, error) {
	s.keywords = keywords
	return s.mentions, s.err
}

func TestCollector_Collect(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	brand := &models.Brand{BrandName: "TechCorp", UserID: "user-1"}
	require.NoError(t, repo.CreateBrand(ctx, brand))
	phone := &models.Product{BrandID: brand.BrandID, ProductName: "EcoPhone X"}
	watch := &models.Product{BrandID: brand.BrandID, ProductName: "SmartWatch Pro"}
	require.NoError(t, repo.CreateProduct(ctx, phone))
	require.NoError(t, repo.CreateProduct(ctx, watch))

	posted := time.Now().Add(-time.Hour).UTC()
	src := &stubSource{name: "stub", enabled: true, mentions: []Mention{
		{ExternalID: "stub_1", Source: "stub", Content: "My ecophone x pairs badly with the SmartWatch Pro", PostedAt: posted, Score: 10, Comments: 2},
		{ExternalID: "stub_2", Source: "stub", Content: "Nothing relevant here", PostedAt: posted},
		{ExternalID: "stub_1", Source: "stub", Content: "duplicate of the first"},
	}}
	failing := &stubSource{name: "failing", enabled: true, err: errors.New("rate limited")}
	disabled := &stubSource{name: "disabled"}

	collector := NewCollector(repo, 24*time.Hour, src, failing, disabled)
	res, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"EcoPhone X", "SmartWatch Pro"}, src.keywords)
	assert.Nil(t, disabled.keywords, "disabled sources are not called")
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, 3, res.Sources["stub"])

	links, err := repo.ListPostLinks(ctx, []string{phone.ProductID, watch.ProductID})
	require.NoError(t, err)
	require.Len(t, links, 2, "the post is linked to both products it names")
	postID := PostID(Mention{ExternalID: "stub_1"})
	for _, l := range links {
		assert.Equal(t, postID, l.PostID)
	}

	engagements, err := repo.ListEngagements(ctx, []string{postID}, time.Time{})
	require.NoError(t, err)
	require.Len(t, engagements, 1)
	assert.Equal(t, 10, engagements[0].LikesCount)
	assert.Equal(t, 2, engagements[0].CommentsCount)

	pending, err := repo.ListPostsPendingAnalysis(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "collected posts wait for analysis")

	// A later pass keeps the post but records a fresh engagement snapshot.
	src.mentions[0].Score = 14
	res, err = collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, 1, res.Duplicates)
	assert.Zero(t, res.Failed)

	engagements, err = repo.ListEngagements(ctx, []string{postID}, time.Time{})
	require.NoError(t, err)
	require.Len(t, engagements, 2)
	likes := []int{engagements[0].LikesCount, engagements[1].LikesCount}
	assert.ElementsMatch(t, []int{10, 14}, likes)

	links, err = repo.ListPostLinks(ctx, []string{phone.ProductID, watch.ProductID})
	require.NoError(t, err)
	assert.Len(t, links, 2, "duplicates add no links")
}

func TestCollector_SharedProductNameLinksEveryBrand(t *testing.T) {
	ctx := context.Background()
	repo := dstest.Open(t)

	acme := &models.Brand{BrandName: "Acme", UserID: "user-1"}
	rival := &models.Brand{BrandName: "Rival", UserID: "user-2"}
	require.NoError(t, repo.CreateBrand(ctx, acme))
	require.NoError(t, repo.CreateBrand(ctx, rival))
	ours := &models.Product{BrandID: acme.BrandID, ProductName: "Nova"}
	theirs := &models.Product{BrandID: rival.BrandID, ProductName: "nova"}
	require.NoError(t, repo.CreateProduct(ctx, ours))
	require.NoError(t, repo.CreateProduct(ctx, theirs))

	src := &stubSource{name: "stub", enabled: true, mentions: []Mention{
		{ExternalID: "stub_9", Source: "stub", Content: "Is the Nova worth it?", PostedAt: time.Now().UTC()},
	}}
	res, err := NewCollector(repo, time.Hour, src).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, []string{"Nova"}, src.keywords, "keywords are distinct case-insensitively")

	for _, p := range []*models.Product{ours, theirs} {
		links, err := repo.ListPostLinks(ctx, []string{p.ProductID})
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, p.ProductID, links[0].ProductID)
	}
}

func TestCollector_NoProducts(t *testing.T) {
	src := &stubSource{name: "stub", enabled: true}
	res, err := NewCollector(dstest.Open(t), time.Hour, src).Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Found)
	assert.Nil(t, src.keywords)
}
