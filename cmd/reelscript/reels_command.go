package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
	"reelscript/internal/engagement"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
)

func newReelsCommand(ctx *commandContext) *cobra.Command {
	var (
		target  targetFlags
		all     bool
		keyword string
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "reels",
		Short: "List stored reels, best engagement first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				reels, err := listReels(cmd.Context(), c, target.target(), all, keyword, limit)
				if err != nil {
					return err
				}
				return emit(cmd, jsonOut, reels, func() { printReels(cmd, c.Store.Weights(), reels) })
			})
		},
	}

	target.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "Include unusable reels and ignore audience filters")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Only reels scraped for this keyword (with --all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to print")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print reels as JSON")
	return cmd
}

func listReels(ctx context.Context, c *daemonrun.Components, target reel.TargetAudience, all bool, keyword string, limit int) ([]reel.Reel, error) {
	if all {
		return c.Store.List(ctx, reelstore.ListOptions{Keyword: keyword, Limit: limit})
	}
	reels, err := c.Generator.Reels(ctx, target)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(reels) > limit {
		reels = reels[:limit]
	}
	return reels, nil
}

func printReels(cmd *cobra.Command, weights engagement.Weights, reels []reel.Reel) {
	out := cmd.OutOrStdout()
	if len(reels) == 0 {
		fmt.Fprintln(out, "No reels stored for this filter")
		return
	}
	rows := make([][]string, 0, len(reels))
	for _, r := range reels {
		stats := weights.Stats(r)
		rows = append(rows, []string{
			r.ID,
			r.Keyword,
			strconv.FormatFloat(stats.Score, 'f', 2, 64),
			strconv.FormatInt(r.LikeCount, 10),
			strconv.FormatInt(r.CommentCount, 10),
			strconv.FormatInt(r.ViewCount, 10),
			yesNo(r.Usable()),
			r.Audience.String(),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Header: "Reel"},
		{Header: "Keyword", MaxWidth: 20},
		{Header: "Score", Right: true},
		{Header: "Likes", Right: true},
		{Header: "Comments", Right: true},
		{Header: "Views", Right: true},
		{Header: "Usable"},
		{Header: "Audience"},
	}, rows))
}
