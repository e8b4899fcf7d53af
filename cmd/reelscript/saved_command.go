package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
)

func newSavedCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "saved <client_id>",
		Short: "List a client's saved scripts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				scripts, err := c.Generator.Saved(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, scripts)
				}
				out := cmd.OutOrStdout()
				if len(scripts) == 0 {
					fmt.Fprintf(out, "No saved scripts for %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(scripts))
				for _, s := range scripts {
					first := ""
					if len(s.Sections) > 0 {
						first = s.Sections[0].Content
					}
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.ScriptID,
						strconv.Itoa(s.Option),
						s.CreatedAt.Local().Format("2006-01-02 15:04"),
						first,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{Header: "ID", Right: true},
					{Header: "Script"},
					{Header: "Option", Right: true},
					{Header: "Saved"},
					{Header: "Opening", MaxWidth: 48},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print saved scripts as JSON")
	return cmd
}
