// Package analysis labels ingested posts with a sentiment and an emotion.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sentitrack/sentitrack/internal/llm"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
)

// Emotions the analyzer may assign.
var Emotions = []string{"joy", "anger", "sadness", "fear", "surprise", "disgust", "neutral"}

// Result is the analysis of one post
type Result struct {
	Sentiment  string  `json:"sentiment"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"-"`
}

// FallbackResult is returned whenever the service fails or answers nonsense.
func FallbackResult() Result {
	return Result{
		Sentiment:  models.SentimentNeutral,
		Emotion:    "neutral",
		Confidence: 0.5,
		Fallback:   true,
	}
}

// Generator produces free-form text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the slice of the data store the batch job uses.
type Store interface {
	ListPostsPendingAnalysis(ctx context.Context, limit int) ([]models.Post, error)
	SaveAnalysis(ctx context.Context, sentiment *models.Sentiment, emotion *models.Emotion) error
}

// Analyzer classifies posts through the generative-language service
type Analyzer struct {
	generator Generator
	store     Store
	now       func() time.Time
}

// NewAnalyzer creates a new analyzer. store may be nil when only Analyze is used.
func NewAnalyzer(generator Generator, store Store) *Analyzer {
	return &Analyzer{generator: generator, store: store, now: time.Now}
}

func analysisPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following social media post and respond strictly as a JSON object:
Text: """%s"""
Respond with this structure:
{
  "sentiment": "positive"|"neutral"|"negative",
  "emotion": "%s",
  "confidence": 0-1
}`, content, strings.Join(Emotions, `"|"`))
}

// Analyze classifies content. It never fails: any error yields FallbackResult.
func (a *Analyzer) Analyze(ctx context.Context, content string) Result {
	if a.generator == nil {
		return FallbackResult()
	}

	text, err := a.generator.Generate(ctx, analysisPrompt(content))
	if err != nil {
		logrus.Warnf("Sentiment analysis failed, using neutral fallback: %v", err)
		return FallbackResult()
	}

	raw, err := llm.ExtractJSONObject(text)
	if err != nil {
		logrus.Warnf("Sentiment analysis returned no JSON, using neutral fallback")
		return FallbackResult()
	}

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		logrus.Warnf("Failed to parse sentiment analysis: %v", err)
		return FallbackResult()
	}
	return normalize(res)
}

func normalize(res Result) Result {
	res.Sentiment = strings.ToLower(strings.TrimSpace(res.Sentiment))
	switch res.Sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		res.Sentiment = models.SentimentNeutral
	}

	res.Emotion = strings.ToLower(strings.TrimSpace(res.Emotion))
	known := false
	for _, e := range Emotions {
		if res.Emotion == e {
			known = true
			break
		}
	}
	if !known {
		res.Emotion = "neutral"
	}

	switch {
	case res.Confidence < 0:
		res.Confidence = 0
	case res.Confidence > 1:
		res.Confidence = 1
	}
	return res
}

// BatchResult summarizes one RunBatch call
type BatchResult struct {
	Analyzed  int `json:"analyzed"`
	Fallbacks int `json:"fallbacks"`
	Failed    int `json:"failed"`
}

// RunBatch analyzes up to limit posts that have no sentiment yet and stores
// the results. Posts that fail to save are counted and skipped.
func (a *Analyzer) RunBatch(ctx context.Context, limit int) (BatchResult, error) {
	var out BatchResult

	posts, err := a.store.ListPostsPendingAnalysis(ctx, limit)
	if err != nil {
		return out, fmt.Errorf("failed to load pending posts: %w", err)
	}
	if len(posts) == 0 {
		logrus.Debug("No posts pending analysis")
		return out, nil
	}

	logrus.Infof("Analyzing %d posts", len(posts))
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res := a.Analyze(ctx, post.Content)
		at := a.now().UTC()
		sentiment := &models.Sentiment{
			PostID:            post.PostID,
			Label:             res.Sentiment,
			Confidence:        res.Confidence,
			AnalysisTimestamp: at,
		}
		emotion := &models.Emotion{
			PostID:            post.PostID,
			EmotionType:       res.Emotion,
			Score:             res.Confidence,
			AnalysisTimestamp: at,
		}
		if err := a.store.SaveAnalysis(ctx, sentiment, emotion); err != nil {
			logrus.Errorf("Failed to save analysis for post %s: %v", post.PostID, err)
			out.Failed++
			continue
		}

		out.Analyzed++
		if res.Fallback {
			out.Fallbacks++
		}
	}

	logrus.WithFields(logrus.Fields{
		"analyzed":  out.Analyzed,
		"fallbacks": out.Fallbacks,
		"failed":    out.Failed,
	}).Info("Analysis batch completed")
	return out, nil
}
