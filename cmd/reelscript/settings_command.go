package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
	"reelscript/internal/generator"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change a client's saved generation settings",
	}
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	return settingsCmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "get <client_id>",
		Short: "Show a client's settings (defaults when none were saved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				settings, err := c.Generator.Settings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, jsonOut, settings, func() { printSettings(cmd, settings) })
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print settings as JSON")
	return cmd
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		target      targetFlags
		tones       []string
		lengthLimit int
	)
	cmd := &cobra.Command{
		Use:   "set <client_id>",
		Short: "Replace a client's saved settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				saved, err := c.Generator.SaveSettings(cmd.Context(), generator.Settings{
					ClientID:    args[0],
					Target:      target.target(),
					ToneRules:   tones,
					LengthLimit: lengthLimit,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved settings for %s\n", saved.ClientID)
				printSettings(cmd, saved)
				return nil
			})
		},
	}
	target.register(cmd)
	cmd.Flags().StringArrayVar(&tones, "tone", nil, "Tone rule applied to generated scripts (repeatable)")
	cmd.Flags().IntVar(&lengthLimit, "length-limit", generator.DefaultLengthLimit, "Maximum characters per script (0 disables)")
	return cmd
}

func printSettings(cmd *cobra.Command, s generator.Settings) {
	out := cmd.OutOrStdout()
	source := "saved"
	if !s.Saved {
		source = "defaults"
	}
	fmt.Fprintf(out, "Client:        %s (%s)\n", s.ClientID, source)
	fmt.Fprintf(out, "Default target: %s\n", s.Target.AsLabel().String())
	fmt.Fprintf(out, "Length limit:  %d\n", s.LengthLimit)
	if len(s.ToneRules) > 0 {
		fmt.Fprintf(out, "Tone rules:    %s\n", strings.Join(s.ToneRules, "; "))
	}
}
