package main

import (
	"fmt"

	"github.com/sentitrack/sentitrack/internal/analysis"
	"github.com/sentitrack/sentitrack/internal/llm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var analyzeLimit int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one batch of posts that have no sentiment yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository()
		if err != nil {
			return err
		}
		defer closeRepo()

		gemini := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if !gemini.IsConfigured() {
			logrus.Warn("GEMINI_API_KEY not set, every post gets the neutral fallback")
		}

		limit := analyzeLimit
		if limit <= 0 {
			limit = cfg.AnalysisBatchSize
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := analysis.NewAnalyzer(gemini, repo).RunBatch(ctx, limit)
		if err != nil {
			return err
		}

		fmt.Println("Analysis complete:")
		fmt.Printf("  Analyzed:  %d\n", res.Analyzed)
		fmt.Printf("  Fallbacks: %d\n", res.Fallbacks)
		fmt.Printf("  Failed:    %d\n", res.Failed)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 0, "Posts to analyze (default ANALYSIS_BATCH_SIZE)")
}
