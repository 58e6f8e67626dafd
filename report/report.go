// Package report renders ranked query results for people.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hdc-research/hdcmem/memory"
)

// Write prints one "key: score" line per match, score to four decimal places.
func Write(w io.Writer, matches []memory.Match) error {
	for _, m := range matches {
		if _, err := fmt.Fprintf(w, "%s: %.4f\n", m.Key, m.Score); err != nil {
			return err
		}
	}
	return nil
}

// Table prints an aligned rank/key/score table of at most limit rows.
// limit <= 0 prints every match.
func Table(w io.Writer, matches []memory.Match, limit int) error {
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tKEY\tSCORE")
	for i, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", i+1, m.Key, m.Score)
	}
	return tw.Flush()
}
