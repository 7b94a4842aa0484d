package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/EfrainRestreto-SB/composici-n-accionaria/metrics"
	"github.com/EfrainRestreto-SB/composici-n-accionaria/renderer"
	"github.com/google/subcommands"
)

type edgesCmd struct {
	output string
	plain  bool
}

func (*edgesCmd) Name() string     { return "edges" }
func (*edgesCmd) Synopsis() string { return "show the ownership links found in a table" }
func (*edgesCmd) Usage() string {
	return `ubo edges [-o <output>] [-plain] <input>

  Parses the ownership table <input> and prints every ownership link with
  the source row it comes from, followed by the rows that were skipped.

  With -o, the links are also written to a flat table (csv, xlsx or jsonl)
  with the columns Entidad, Accionista and Participacion, that
  'ubo -layout flat' reads back.
`
}

func (c *edgesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Write the ownership links to this flat table (csv, xlsx or jsonl)")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *edgesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "edges takes exactly one input file, got %d arguments\n", f.NArg())
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

	res, _, err := readInput(f.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return subcommands.ExitFailure
	}
	metrics.ObserveParse(res)

	md := renderer.EdgesMarkdown(res)
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}

	if c.output != "" {
		edges := res.Graph.Edges()
		if err := ownership.WriteEdges(c.output, edges); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing ownership links: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Wrote %d ownership links to %s\n", len(edges), c.output)
	}
	return subcommands.ExitSuccess
}
