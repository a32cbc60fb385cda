package notifications

import "github.com/sentitrack/sentitrack/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendDigest(digest *models.Digest) error
	SendResolution(alert *models.AlertView) error
}
