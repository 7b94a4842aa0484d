package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/EfrainRestreto-SB/composici-n-accionaria/metrics"
	"github.com/EfrainRestreto-SB/composici-n-accionaria/renderer"
	"github.com/google/subcommands"
)

// resolveCmd holds the flags for the 'resolve' subcommand.
type resolveCmd struct {
	output string
	dryRun bool
	mode   string
	all    bool
	plain  bool
	json   bool
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "compute the ultimate beneficial owners of an entity" }
func (*resolveCmd) Usage() string {
	return `ubo resolve [-o <output>] [-n] [-mode graph|final] [-all] [-plain|-json] <input>

  Reads the ownership table <input> (csv or xlsx), rebuilds the ownership
  links from the row order, or reads them directly with -layout flat, and writes the beneficiaries of the root entity
  to <output>, by default <input>_beneficiarios.xlsx next to the input.

  See 'ubo topic format' for the layout of the table.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output table (csv, xlsx or jsonl). Defaults to <input>_beneficiarios.xlsx")
	f.BoolVar(&c.dryRun, "n", false, "Do not write the output table")
	f.StringVar(&c.mode, "mode", "graph", "Resolution mode: 'graph' walks the ownership links, 'final' sums the final participation column")
	f.BoolVar(&c.all, "all", false, "Resolve every root entity of the table (graph mode only)")
	f.BoolVar(&c.plain, "plain", false, "Print the report as raw markdown")
	f.BoolVar(&c.json, "json", false, "Print the reports as JSON")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "resolve takes exactly one input file, got %d arguments\n", f.NArg())
		return subcommands.ExitUsageError
	}
	input := f.Arg(0)
	if c.mode != "graph" && c.mode != "final" {
		fmt.Fprintf(os.Stderr, "Unknown mode %q, want 'graph' or 'final'\n", c.mode)
		return subcommands.ExitUsageError
	}
	if c.all && c.mode == "final" {
		fmt.Fprintln(os.Stderr, "-all is only available in graph mode")
		return subcommands.ExitUsageError
	}
	if *layout == layoutFlat && c.mode == "final" {
		fmt.Fprintln(os.Stderr, "-mode final needs a hierarchical table with a final participation column")
		return subcommands.ExitUsageError
	}

	classifier, err := loadClassifier()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		return subcommands.ExitFailure
	}
	opts, err := parserOptions(classifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in parser options: %v\n", err)
		return subcommands.ExitUsageError
	}

	if !c.json {
		fmt.Printf("Reading %s\n", input)
	}
	res, rows, err := readInput(input, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return subcommands.ExitFailure
	}
	metrics.ObserveParse(res)
	if !c.json {
		fmt.Printf("Parsed %d rows: %d ownership links, %d rows skipped\n", res.Rows, res.Graph.Len(), len(res.Diagnostics))
	}

	reports, err := c.resolve(ctx, newResolver(classifier), res, rows, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving beneficiaries: %v\n", err)
		return subcommands.ExitFailure
	}

	var records []ownership.BeneficiaryRecord
	for _, r := range reports {
		metrics.ObserveReport(r)
		records = append(records, r.Records...)
	}

	if c.json {
		out, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding reports: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
	} else {
		views := make([]*renderer.Report, len(reports))
		for i, r := range reports {
			views[i] = renderer.NewReport(r, input)
		}
		md := renderer.RenderReports(views)
		if c.plain {
			fmt.Print(md)
		} else {
			printMarkdown(md)
		}
	}

	if !c.dryRun {
		output := c.output
		if output == "" {
			output = ownership.OutputPath(input, ".xlsx")
		}
		if err := ownership.WriteRecords(output, records); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing beneficiaries: %v\n", err)
			return subcommands.ExitFailure
		}
		if !c.json {
			fmt.Printf("Wrote %d beneficiaries to %s\n", len(records), output)
		}
	}

	if *metricsFile != "" {
		if err := metrics.WriteToTextfile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// resolve runs the selected mode. Parse diagnostics are attached to every
// report so that they show up next to the beneficiaries.
func (c *resolveCmd) resolve(ctx context.Context, r *ownership.Resolver, res *ownership.ParseResult, rows []ownership.Row, opts ownership.ParserOptions) ([]*ownership.Report, error) {
	if c.all {
		reports, err := r.ResolveAll(ctx, res.Graph)
		if err != nil {
			return nil, err
		}
		for _, rep := range reports {
			rep.Diagnostics = append(rep.Diagnostics, res.Diagnostics...)
		}
		return reports, nil
	}

	root := *rootEntity
	if root == "" {
		var ok bool
		if root, ok = defaultRoot(res.Graph); !ok {
			return nil, fmt.Errorf("no root entity found, use -root")
		}
		root = res.Graph.Display(root)
	}

	var rep *ownership.Report
	if c.mode == "final" {
		rep = r.ResolveFinalColumn(rows, root, opts)
	} else {
		rep = r.ResolveGraph(res.Graph, root)
	}
	rep.Diagnostics = append(rep.Diagnostics, res.Diagnostics...)
	return []*ownership.Report{rep}, nil
}
