package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentitrack/sentitrack/internal/alerts"
	"github.com/sentitrack/sentitrack/internal/kpi"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/monitoring"
	"github.com/sentitrack/sentitrack/internal/notifications"
	"github.com/sentitrack/sentitrack/internal/storage"
	"github.com/sentitrack/sentitrack/internal/timewindow"
	"github.com/spf13/cobra"
)

var (
	digestPeriod string
	digestOut    string
	digestJSON   bool
	digestSend   bool
)

// terminalNotifier prints digests instead of delivering them.
type terminalNotifier struct {
	asJSON bool
}

var _ notifications.NotificationInterface = terminalNotifier{}

func (t terminalNotifier) SendDigest(digest *models.Digest) error {
	if t.asJSON {
		data, err := json.MarshalIndent(digest, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Print(notifications.DigestText(digest))
	fmt.Println(strings.Repeat("=", 70))
	return nil
}

func (t terminalNotifier) SendResolution(alert *models.AlertView) error {
	fmt.Printf("Resolved: %s (%s)\n", alert.AlertType, alert.ProductName)
	return nil
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build a digest for every brand and print it",
	Long: "Builds the brand digest once. By default it is printed to the terminal; " +
		"--send delivers it through the configured Teams and email channels instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if digestPeriod != "" {
			if !timewindow.IsKnown(digestPeriod) {
				return fmt.Errorf("period must be one of %s", strings.Join(timewindow.Names(), ", "))
			}
			cfg.DigestPeriod = digestPeriod
		}
		if digestSend && !cfg.HasNotificationChannel() {
			return fmt.Errorf("--send needs TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL")
		}

		repo, closeRepo, err := openRepository()
		if err != nil {
			return err
		}
		defer closeRepo()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		dir := cfg.DigestDir
		if digestOut != "" {
			dir = digestOut
		}
		archive, err := storage.OpenArchive(ctx, cfg.StorageAccount, cfg.StorageContainer, dir)
		if err != nil {
			return err
		}

		var notifier notifications.NotificationInterface = terminalNotifier{asJSON: digestJSON}
		if digestSend {
			notifier = notifications.NewService(cfg)
		}

		svc := monitoring.NewService(cfg, monitoring.Deps{
			Brands:        repo,
			KPIs:          kpi.NewService(repo),
			Alerts:        alerts.NewService(repo, nil, nil),
			Archive:       archive,
			Notifications: notifier,
		})
		return svc.RunDigest()
	},
}

func init() {
	digestCmd.Flags().StringVarP(&digestPeriod, "period", "p", "", "Time window (default DIGEST_PERIOD)")
	digestCmd.Flags().StringVarP(&digestOut, "out", "o", "", "Archive the digest JSON under this directory")
	digestCmd.Flags().BoolVar(&digestJSON, "json", false, "Print the digest as JSON")
	digestCmd.Flags().BoolVar(&digestSend, "send", false, "Deliver through the configured notification channels")
}
