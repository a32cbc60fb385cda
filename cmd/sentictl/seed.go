package main

import (
	"fmt"
	"time"

	"github.com/sentitrack/sentitrack/internal/datastore"
	"github.com/spf13/cobra"
)

var (
	seedUser       string
	seedPosts      int
	seedDays       int
	seedUnanalyzed int
	seedRandom     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo brand with products, analyzed posts and open alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository()
		if err != nil {
			return err
		}
		defer closeRepo()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		summary, err := repo.SeedDemo(ctx, datastore.DemoOptions{
			UserID:     seedUser,
			Days:       seedDays,
			Posts:      seedPosts,
			Unanalyzed: seedUnanalyzed,
			Now:        time.Now(),
			Seed:       seedRandom,
		})
		if err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}

		fmt.Printf("Seeded brand %s (%s) for user %s\n", summary.Brand.BrandName, summary.Brand.BrandID, seedUser)
		fmt.Printf("  Products: %d\n", summary.Products)
		fmt.Printf("  Posts:    %d\n", summary.Posts)
		fmt.Printf("  Alerts:   %d\n", summary.Alerts)

		if cfg.JWTSecret != "" {
			token, err := issueToken(seedUser, 24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("\nBearer token (24h):\n%s\n", token)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedUser, "user", "u", "demo-user", "User ID that owns the demo brand")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 40, "Posts per product")
	seedCmd.Flags().IntVar(&seedDays, "days", 90, "Spread posts over this many days")
	seedCmd.Flags().IntVar(&seedUnanalyzed, "unanalyzed", 5, "Posts per product left for the analysis job")
	seedCmd.Flags().Int64Var(&seedRandom, "seed", 1, "Random seed")
}
