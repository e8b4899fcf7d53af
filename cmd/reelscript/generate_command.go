package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
	"reelscript/internal/generator"
	"reelscript/internal/reel"
)

type targetFlags struct {
	age      string
	gender   string
	interest string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.age, "age", "", "Age range filter, e.g. 18-24")
	cmd.Flags().StringVar(&f.gender, "gender", "", "Gender filter: female, male or mixed")
	cmd.Flags().StringVar(&f.interest, "interest", "", "Interest filter, e.g. study")
}

func (f *targetFlags) target() reel.TargetAudience {
	return reel.TargetAudience{Age: f.age, Gender: f.gender, Interest: f.interest}
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		clientID  string
		target    targetFlags
		variants  int
		useSaved  bool
		needVideo bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "generate <theme>",
		Short: "Generate script variants for a theme from stored reels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				resp, err := c.Generator.Auto(cmd.Context(), generator.AutoRequest{
					ClientID:         clientID,
					Theme:            strings.Join(args, " "),
					Target:           target.target(),
					NeedVideo:        needVideo,
					UseSavedSettings: useSaved,
					VariantCount:     variants,
				})
				if err != nil {
					return err
				}
				return emit(cmd, jsonOut, resp, func() { printScripts(cmd.OutOrStdout(), resp) })
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "cli", "Client id whose saved settings apply with --saved")
	target.register(cmd)
	cmd.Flags().IntVar(&variants, "variants", 0, "Number of variants (0 uses compose.variant_count)")
	cmd.Flags().BoolVar(&useSaved, "saved", false, "Apply the client's saved settings")
	cmd.Flags().BoolVar(&needVideo, "need-video", false, "Keep video files when a scrape runs on a miss")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the response as JSON")
	return cmd
}

func printScripts(out io.Writer, resp generator.AutoResponse) {
	fmt.Fprintf(out, "Matching reels: %d", resp.MatchingReelsCount)
	if resp.Fallback {
		fmt.Fprint(out, " (no matching reels; generic scripts)")
	}
	fmt.Fprintln(out)
	for i, script := range resp.Scripts {
		fmt.Fprintf(out, "\n#%d %s [%s]\n", i+1, script.Title, script.Style)
		if script.SourceReelID != "" {
			fmt.Fprintf(out, "   source %s, score %.2f, structure match %.2f\n",
				script.SourceReelID, script.Engagement.Score, script.StructureMatch)
		}
		for _, section := range script.Sections {
			fmt.Fprintf(out, "   %-10s %s\n", string(section.Type)+":", section.Content)
		}
	}
}
