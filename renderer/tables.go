package renderer

import (
	"fmt"
	"io"
	"strings"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
)

// EdgesMarkdown renders the ownership links found by a parse, followed by
// the rows that were skipped.
func EdgesMarkdown(res *ownership.ParseResult) string {
	var b strings.Builder
	stats := res.Graph.Stats()
	fmt.Fprintf(&b, "# Ownership links\n\n")
	fmt.Fprintf(&b, "%d rows read, %d links between %d entities.\n\n", res.Rows, stats.Edges, stats.Entities)
	fmt.Fprintln(&b, "| Row | Entity | Shareholder | Share |")
	fmt.Fprintln(&b, "|--:|:---|:---|---:|")
	for _, e := range res.Graph.Edges() {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", e.Row, cell(e.ParentDisplay), cell(e.ChildDisplay), e.Share)
	}
	diagnosticsMarkdown(&b, res.Diagnostics)
	return b.String()
}

func diagnosticsMarkdown(w io.Writer, diagnostics []ownership.Diagnostic) {
	ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Skipped rows\n\n")
		fmt.Fprintln(w, "| Row | Name | Problem |")
		fmt.Fprintln(w, "|--:|:---|:---|")
		for _, d := range diagnostics {
			fmt.Fprintf(w, "| %d | %s | %s |\n", d.Row, cell(d.Name), cell(d.String()))
		}
		return len(diagnostics) > 0
	})
}

// VerdictsMarkdown renders the classification of a list of names.
func VerdictsMarkdown(verdicts []ownership.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Classification\n\n")
	fmt.Fprintln(&b, "| Name | Canonical | Beneficiary | Tier | Match | Reason |")
	fmt.Fprintln(&b, "|:---|:---|:---:|--:|:---|:---|")
	for _, v := range verdicts {
		terminal := "no"
		if v.Terminal {
			terminal = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s |\n", cell(v.Name), cell(v.Canonical), terminal, v.Tier, cell(v.Match), v.Reason)
	}
	return b.String()
}

// cell escapes pipes so that a name never breaks a table row.
func cell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }
