package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentitrack/sentitrack/internal/sources"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources [keyword...]",
	Short: "Check connectivity of every mention source",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		fmt.Println("Testing mention sources...")
		fmt.Println(strings.Repeat("-", 40))

		checkSource(ctx, "Hacker News", sources.NewHackerNewsSource(""), args)
		checkSource(ctx, "Reddit", sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret), args)
		return nil
	},
}

func checkSource(ctx context.Context, name string, source sources.Source, keywords []string) {
	fmt.Printf("%s... ", name)

	if !source.IsEnabled() {
		fmt.Println("DISABLED (missing credentials)")
		return
	}

	mentions, err := source.FetchMentions(ctx, keywords, cfg.CollectionLookback)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}

	fmt.Printf("OK (%d mentions found)\n", len(mentions))
	if len(mentions) > 0 {
		sample := mentions[0].Content
		if len(sample) > 80 {
			sample = sample[:80] + "..."
		}
		fmt.Printf("   Sample: %q\n", sample)
	}
}
