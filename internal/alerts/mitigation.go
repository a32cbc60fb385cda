package alerts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sentitrack/sentitrack/internal/models"
)

// MaxRecommendations caps the suggestions shown for one alert.
const MaxRecommendations = 4

var (
	// A marker must be followed by whitespace, so "3.5x" keeps its digits.
	listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])(?:\s+|$)`)
	boldPair   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

func mitigationPrompt(alert models.AlertView) string {
	var b strings.Builder
	b.WriteString("You are a brand reputation advisor. A sentiment alert was raised for a product.\n")
	fmt.Fprintf(&b, "Product: %s\n", alert.ProductName)
	fmt.Fprintf(&b, "Alert type: %s\n", alert.AlertType)
	fmt.Fprintf(&b, "Details: %s\n", alert.AlertMessage)
	fmt.Fprintf(&b, "Mention volume: %d\n", alert.MentionVolume)
	fmt.Fprintf(&b, "Suggest %d short, concrete actions the brand team can take to mitigate this. ", MaxRecommendations)
	b.WriteString("Answer with one action per line and nothing else.")
	return b.String()
}

// ParseRecommendations splits free text into at most four recommendations,
// stripping leading bullet and number markers, unwrapping **bold** spans and
// dropping empty lines.
func ParseRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(boldPair.ReplaceAllString(line, "$1"))
		if line == "" {
			continue
		}
		recs = append(recs, line)
		if len(recs) == MaxRecommendations {
			break
		}
	}
	return recs
}

// FallbackRecommendations is the fixed list used when the recommendation
// service is unavailable.
func FallbackRecommendations(alert models.AlertView) []string {
	return []string{
		fmt.Sprintf("Launch a social media campaign addressing %q with customer testimonials", alert.AlertType),
		fmt.Sprintf("Create a FAQ post addressing the top %d mentions from recent discussions", alert.MentionVolume),
		"Email existing customers with troubleshooting guide or product update announcement",
		"Engage directly with top influencers discussing this topic to shape narrative",
	}
}
