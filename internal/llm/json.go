package llm

import (
	"errors"
	"strings"
)

// ExtractJSONObject returns the JSON object embedded in a model answer,
// dropping markdown code fences and any prose around the braces.
func ExtractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.New("no JSON object in response")
	}
	return text[start : end+1], nil
}
