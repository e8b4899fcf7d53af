package main

import (
	"github.com/spf13/cobra"

	"reelscript/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var development bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scrape schedule in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    cfg.Logging.Level,
				Development: development,
				Version:     version,
			})
		},
	}
	cmd.Flags().BoolVar(&development, "dev", false, "Human-readable development logging")
	return cmd
}
