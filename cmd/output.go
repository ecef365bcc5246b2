package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adalundhe/codemod/core/transaction"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

func parseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(s, string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

type diffJSON struct {
	Path       string `json:"path"`
	ChangeType string `json:"change_type"`
	RenameFrom string `json:"rename_from,omitempty"`
}

func writeDiffs(w io.Writer, format OutputFormat, diffs []transaction.DiffLite) error {
	if format == OutputJSON {
		out := make([]diffJSON, 0, len(diffs))
		for _, d := range diffs {
			out = append(out, diffJSON{Path: d.Path, ChangeType: d.ChangeType.String(), RenameFrom: d.RenameFrom})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, d := range diffs {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d change(s)\n", len(diffs))
	return err
}
