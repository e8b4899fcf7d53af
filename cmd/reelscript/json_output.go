package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// emit prints v as indented JSON when asJSON is set and calls human otherwise.
func emit(cmd *cobra.Command, asJSON bool, v any, human func()) error {
	if !asJSON {
		human()
		return nil
	}
	return writeJSON(cmd, v)
}

// writeJSON keeps non-ASCII captions and transcripts readable by leaving HTML
// characters unescaped.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
