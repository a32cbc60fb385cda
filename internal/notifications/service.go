package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sentitrack/sentitrack/internal/config"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest sends a digest via configured notification channels
func (s *Service) SendDigest(digest *models.Digest) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(s.buildDigestTeamsMessage(digest)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendDigestEmail(digest); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendResolution posts a notice that an alert was resolved. Only Teams is
// used; resolutions are too frequent for email.
func (s *Service) SendResolution(alert *models.AlertView) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Debugf("No Teams webhook configured, skipping resolution notice for %s", alert.AlertID)
		return nil
	}
	return s.postToTeams(buildResolutionTeamsMessage(alert))
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildDigestTeamsMessage(digest *models.Digest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Brand Sentiment Digest - %s", titleCase(digest.Schedule)),
		Text: fmt.Sprintf("%d brands, period %s, generated %s",
			len(digest.Brands), digest.Period, digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")),
	}

	for _, bd := range digest.Brands {
		section := TeamsSection{
			ActivityTitle: bd.Brand.BrandName,
			Markdown:      true,
		}
		if bd.Error != "" {
			section.ActivitySubtitle = "Could not load dashboard data"
			message.Sections = append(message.Sections, section)
			continue
		}

		if bd.KPIs != nil {
			for _, m := range bd.KPIs.Metrics {
				section.Facts = append(section.Facts, TeamsFact{
					Name:  m.Title,
					Value: fmt.Sprintf("%s (%s)", m.Value, m.Change),
				})
			}
		}

		var lines []string
		for i, a := range bd.ActiveAlerts {
			if i == 5 {
				lines = append(lines, fmt.Sprintf("... and %d more", len(bd.ActiveAlerts)-5))
				break
			}
			lines = append(lines, fmt.Sprintf("**%s** - %s (%s, %s)",
				a.AlertType, a.ProductName, a.SeverityLevel, a.TriggeredAt.Format("Jan 2")))
		}
		section.ActivityText = strings.Join(lines, "\n\n")

		message.Sections = append(message.Sections, section)
	}

	return message
}

func buildResolutionTeamsMessage(alert *models.AlertView) *TeamsMessage {
	comment := ""
	if alert.ResolveMessage != nil {
		comment = *alert.ResolveMessage
	}
	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Title:      fmt.Sprintf("Alert resolved: %s", alert.AlertType),
		Text:       comment,
		ThemeColor: "107C10",
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Product", Value: alert.ProductName},
				{Name: "Severity", Value: fmt.Sprintf("%s (%.2f)", alert.SeverityLevel, alert.Severity)},
				{Name: "Triggered", Value: alert.TriggeredAt.Format("2006-01-02 15:04 UTC")},
			},
		}},
	}
}

func (s *Service) sendDigestEmail(digest *models.Digest) error {
	subject := fmt.Sprintf("Brand Sentiment Digest - %s (%d brands)",
		titleCase(digest.Schedule), len(digest.Brands))

	htmlBody, err := buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", DigestText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Brand Sentiment Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0f172a; color: white; padding: 20px; border-radius: 5px; }
        .brand { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .alert { border-left: 4px solid #605e5c; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .critical { border-left-color: #d13438; }
        .high { border-left-color: #f7630c; }
        .medium { border-left-color: #ffb900; }
        .low { border-left-color: #0078d4; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Brand Sentiment Digest</h1>
        <p>{{.Schedule | title}} digest for {{.Period}}, generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    {{range .Brands}}
    <div class="brand">
        <h2>{{.Brand.BrandName}}</h2>
        {{if .Error}}
            <p>Could not load dashboard data.</p>
        {{else}}
            {{if .KPIs}}
            {{range .KPIs.Metrics}}
                <p><strong>{{.Title}}:</strong> {{.Value}} ({{.Change}})</p>
            {{end}}
            {{end}}
            {{range $index, $alert := .ActiveAlerts}}
                {{if lt $index 10}}
                <div class="alert {{$alert.SeverityLevel}}">
                    <strong>{{$alert.AlertType}}</strong> - {{$alert.ProductName}}
                    <div>{{$alert.AlertMessage | truncate 200}}</div>
                </div>
                {{end}}
            {{end}}
        {{end}}
    </div>
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by SentiTrack.</small></p>
</body>
</html>
`

func buildEmailHTML(digest *models.Digest) (string, error) {
	t := template.New("email").Funcs(template.FuncMap{
		"title": titleCase,
		"truncate": func(length int, s string) string {
			return truncate(s, length)
		},
	})

	t, err := t.Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// DigestText renders a digest as plain text.
func DigestText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Brand Sentiment Digest - %s\n", titleCase(digest.Schedule)))
	text.WriteString(fmt.Sprintf("Period: %s\n", digest.Period))
	text.WriteString(fmt.Sprintf("Generated: %s\n", digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	for _, bd := range digest.Brands {
		text.WriteString(fmt.Sprintf("\n%s\n%s\n", bd.Brand.BrandName, strings.Repeat("=", len(bd.Brand.BrandName))))
		if bd.Error != "" {
			text.WriteString("Could not load dashboard data.\n")
			continue
		}
		if bd.KPIs != nil {
			for _, m := range bd.KPIs.Metrics {
				text.WriteString(fmt.Sprintf("%s: %s (%s)\n", m.Title, m.Value, m.Change))
			}
		}
		if len(bd.ActiveAlerts) > 0 {
			text.WriteString("\nActive alerts:\n")
			for i, a := range bd.ActiveAlerts {
				if i == 10 {
					break
				}
				text.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, a.SeverityLevel, a.AlertType, a.ProductName))
				if a.AlertMessage != "" {
					text.WriteString(fmt.Sprintf("   %s\n", truncate(a.AlertMessage, 200)))
				}
			}
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by SentiTrack.\n")

	return text.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length] + "..."
}
