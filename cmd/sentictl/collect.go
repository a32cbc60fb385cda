package main

import (
	"fmt"
	"sort"

	"github.com/sentitrack/sentitrack/internal/sources"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect new posts that mention any product",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository()
		if err != nil {
			return err
		}
		defer closeRepo()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		collector := sources.NewCollector(repo, cfg.CollectionLookback,
			sources.NewHackerNewsSource(""),
			sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
		)

		fmt.Println("Collecting mentions from sources...")
		result, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.Found)
		fmt.Printf("  New posts: %d\n", result.New)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		if result.Failed > 0 {
			fmt.Printf("  Failed: %d\n", result.Failed)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nMentions by source:")
			names := make([]string, 0, len(result.Sources))
			for name := range result.Sources {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %s: %d\n", name, result.Sources[name])
			}
		}
		return nil
	},
}
