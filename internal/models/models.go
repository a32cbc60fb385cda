package models

import "time"

// Brand is the account entity owning products and alerts
type Brand struct {
	BrandID   string    `gorm:"primaryKey;size:36" json:"brand_id"`
	BrandName string    `gorm:"not null" json:"brand_name"`
	Industry  string    `json:"industry"`
	Website   string    `json:"website"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex" json:"user_id"` // at most one brand per user
	CreatedAt time.Time `json:"created_at"`
}

func (Brand) TableName() string { return "brand" }

// Product is a brand's tracked item whose mentions are analyzed
type Product struct {
	ProductID   string     `gorm:"primaryKey;size:36" json:"product_id"`
	BrandID     string     `gorm:"size:36;not null;index" json:"brand_id"`
	ProductName string     `gorm:"not null" json:"product_name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	LaunchDate  *time.Time `json:"launch_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Product) TableName() string { return "product" }

// Post is a single social-media mention ingested for analysis
type Post struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	Platform  string    `json:"platform"` // "twitter", "reddit", ...
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	PostedAt  time.Time `gorm:"index" json:"posted_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string { return "post" }

// PostProduct links posts and products (many-to-many)
type PostProduct struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	ProductID string    `gorm:"primaryKey;size:36;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostProduct) TableName() string { return "post_products" }

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Sentiment is one labeled analysis result for a post
type Sentiment struct {
	SentimentID       string    `gorm:"primaryKey;size:36" json:"sentiment_id"`
	PostID            string    `gorm:"size:36;not null;index" json:"post_id"`
	Label             string    `gorm:"size:16;not null" json:"label"`
	Confidence        float64   `json:"confidence"`
	AnalysisTimestamp time.Time `gorm:"index" json:"analysis_timestamp"`
}

func (Sentiment) TableName() string { return "sentiment" }

// Emotion is one emotion classification for a post
type Emotion struct {
	EmotionID         string    `gorm:"primaryKey;size:36" json:"emotion_id"`
	PostID            string    `gorm:"size:36;not null;index" json:"post_id"`
	EmotionType       string    `gorm:"size:32;not null" json:"emotion_type"`
	Score             float64   `json:"score"`
	AnalysisTimestamp time.Time `gorm:"index" json:"analysis_timestamp"`
}

func (Emotion) TableName() string { return "emotion" }

// Engagement is a point-in-time interaction snapshot for a post
type Engagement struct {
	EngagementID  string    `gorm:"primaryKey;size:36" json:"engagement_id"`
	PostID        string    `gorm:"size:36;not null;index" json:"post_id"`
	LikesCount    int       `json:"likes_count"`
	SharesCount   int       `json:"shares_count"`
	CommentsCount int       `json:"comments_count"`
	RetrievedAt   time.Time `gorm:"index" json:"retrieved_at"`
}

func (Engagement) TableName() string { return "engagement" }

// Total returns likes + shares + comments.
func (e Engagement) Total() int {
	return e.LikesCount + e.SharesCount + e.CommentsCount
}

// Alert is a flagged sentiment anomaly requiring human triage
type Alert struct {
	AlertID        string     `gorm:"primaryKey;size:36" json:"alert_id"`
	PostID         string     `gorm:"size:36;not null;index" json:"post_id"`
	AlertType      string     `json:"alert_type"`
	TriggeredAt    time.Time  `gorm:"index" json:"triggered_at"`
	IsResolved     bool       `gorm:"not null;default:false" json:"is_resolved"`
	AlertSeverity  int        `json:"alert_severity"` // 0-100
	AlertMessage   string     `json:"alert_message"`
	ResolveMessage *string    `json:"resolve_message,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func (Alert) TableName() string { return "alert" }

// Alert statuses as shown in the feed
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// AlertView is an alert annotated for display
type AlertView struct {
	Alert
	ProductID     string  `json:"product_id,omitempty"`
	ProductName   string  `json:"product_name"`
	Severity      float64 `json:"severity"`       // normalized 0-1
	SeverityLevel string  `json:"severity_level"` // "critical", "high", "medium", "low"
	Status        string  `json:"status"`
	MentionVolume int     `json:"mention_volume"`
}

// Active reports whether the alert still awaits resolution.
func (a AlertView) Active() bool {
	return !a.IsResolved
}

// Metric keys in display order
const (
	MetricTotalPosts        = "total_posts"
	MetricEngagementRate    = "engagement_rate"
	MetricPositiveSentiment = "positive_sentiment"
	MetricActiveAlerts      = "active_alerts"
)

// Metric is a single dashboard KPI
type Metric struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  string `json:"trend"` // "up" or "down"
}

// KPIResult holds the four dashboard metrics
type KPIResult struct {
	BrandID               string    `json:"brand_id"`
	ProductFilter         string    `json:"product_filter"`
	Period                string    `json:"period"`
	WindowStart           time.Time `json:"window_start"`
	ComputedAt            time.Time `json:"computed_at"`
	TotalPosts            int       `json:"total_posts"`
	EngagementRate        float64   `json:"engagement_rate"`
	PositiveSentimentRate int       `json:"positive_sentiment_rate"`
	ActiveAlertCount      int       `json:"active_alert_count"`
	Metrics               []Metric  `json:"metrics"`
}

// TrendPoint is one bucket of the sentiment-over-time series. Positive,
// Neutral and Negative are percentages of Total.
type TrendPoint struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	Positive int       `json:"positive"`
	Neutral  int       `json:"neutral"`
	Negative int       `json:"negative"`
	Total    int       `json:"total"`
}

// EmotionShare is one slice of the emotion breakdown
type EmotionShare struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// BrandDigest summarizes one brand for the periodic digest
type BrandDigest struct {
	Brand        Brand       `json:"brand"`
	KPIs         *KPIResult  `json:"kpis,omitempty"`
	ActiveAlerts []AlertView `json:"active_alerts"`
	Error        string      `json:"error,omitempty"`
}

// Digest represents a periodic report across brands
type Digest struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Schedule    string        `json:"schedule"` // "daily" or "weekly"
	Period      string        `json:"period"`
	Brands      []BrandDigest `json:"brands"`
}
