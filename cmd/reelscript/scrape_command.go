package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
	"reelscript/internal/pipeline"
	"reelscript/internal/services"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var (
		top       int
		minEngage float64
		needVideo bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "scrape <keyword>",
		Short: "Scrape, transcribe and label reels for a keyword",
		Long: "Scrape reels for a hashtag keyword, keep those whose engagement score is at least\n" +
			"--min_engage percent, then transcribe and audience-label them into the local store.\n" +
			"Exits with status 2 when the platform blocks scraping.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				summary, err := c.Runner.Run(cmd.Context(), pipeline.Request{
					Keyword:       args[0],
					Top:           top,
					MinEngagement: minEngage,
					NeedVideo:     needVideo,
				})
				if summary.BatchID != "" {
					if jsonOut {
						if encErr := writeJSON(cmd, summary); encErr != nil {
							return encErr
						}
					} else {
						printSummary(cmd, summary)
					}
				}
				if errors.Is(err, services.ErrScrapeBlocked) {
					return fmt.Errorf("scrape blocked after %d reels; partial results were stored: %w", summary.Fetched, err)
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Maximum number of reels to keep")
	cmd.Flags().Float64Var(&minEngage, "min_engage", 2.0, "Minimum engagement score in percent")
	cmd.Flags().BoolVar(&needVideo, "need-video", false, "Keep downloaded video files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the batch summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		reason := item.TranscriptError
		if reason == "" {
			reason = item.AudienceError
		}
		rows = append(rows, []string{
			item.ReelID,
			strconv.FormatFloat(item.Score, 'f', 2, 64),
			yesNo(item.Usable),
			item.Audience.String(),
			reason,
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{
			{Header: "Reel"},
			{Header: "Score", Right: true},
			{Header: "Usable"},
			{Header: "Audience"},
			{Header: "Failure"},
		}, rows))
	}
	fmt.Fprintf(out, "Keyword %q: fetched %d, usable %d, failed %d in %s\n",
		summary.Keyword, summary.Fetched, summary.Usable, summary.Failed, summary.Duration.Round(10*time.Millisecond))
}
