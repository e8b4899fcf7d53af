package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelscript/internal/config"
	"reelscript/internal/deps"
	"reelscript/internal/preflight"
	"reelscript/internal/reelstore"
)

type doctorReport struct {
	ConfigPath string             `json:"config_path"`
	Deps       []deps.Status      `json:"dependencies"`
	Preflight  []preflight.Result `json:"preflight"`
	Store      *reelstore.Health  `json:"store,omitempty"`
	StoreError string             `json:"store_error,omitempty"`
}

func (r doctorReport) failed() bool {
	return len(deps.MissingRequired(r.Deps)) > 0 || len(preflight.Failed(r.Preflight)) > 0 || r.StoreError != ""
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, credentials, directories and the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := buildDoctorReport(cmd, cfg, ctx.configPath)
			if err := emit(cmd, jsonOut, report, func() { printDoctorReport(cmd, report) }); err != nil {
				return err
			}
			if report.failed() {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func buildDoctorReport(cmd *cobra.Command, cfg *config.Config, configPath string) doctorReport {
	report := doctorReport{
		ConfigPath: configPath,
		Deps:       preflight.CheckSystemDeps(cmd.Context(), cfg),
		Preflight:  preflight.RunAll(cmd.Context(), cfg),
	}
	store, err := reelstore.Open(cfg)
	if err != nil {
		report.StoreError = err.Error()
		return report
	}
	defer store.Close()
	health, err := store.CheckHealth(cmd.Context())
	if err != nil {
		report.StoreError = err.Error()
		return report
	}
	report.Store = &health
	return report
}

func printDoctorReport(cmd *cobra.Command, report doctorReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	lines := renderSectionHeader("Configuration", colorize)
	lines = append(lines, renderStatusLine("Config file", statusInfo, report.ConfigPath, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("External tools", colorize)...)
	for _, status := range report.Deps {
		kind, message := dependencyStatus(status)
		lines = append(lines, renderStatusLine(status.Name, kind, message, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Preflight", colorize)...)
	for _, result := range report.Preflight {
		kind, message := preflightStatus(result)
		lines = append(lines, renderStatusLine(result.Name, kind, message, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Reel store", colorize)...)
	if report.Store == nil {
		lines = append(lines, renderStatusLine("Database", statusError, report.StoreError, colorize))
	} else {
		h := report.Store
		kind := statusOK
		if !h.Integrity {
			kind = statusError
		}
		lines = append(lines,
			renderStatusLine("Database", kind, h.Path, colorize),
			renderStatusLine("Reels", statusInfo, fmt.Sprintf("%d total, %d usable, %d failed", h.Total, h.Usable, h.Failed), colorize),
			renderStatusLine("Clients", statusInfo, fmt.Sprintf("%d with settings, %d saved scripts", h.Clients, h.Saved), colorize),
		)
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
