package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/EfrainRestreto-SB/composici-n-accionaria/renderer"
	"github.com/google/subcommands"
)

type classifyCmd struct {
	table string
	plain bool
	json  bool
}

func (*classifyCmd) Name() string     { return "classify" }
func (*classifyCmd) Synopsis() string { return "tell whether names are beneficiaries or pass-through entities" }
func (*classifyCmd) Usage() string {
	return `ubo classify [-table <input>] [-plain|-json] [<name>...]

  Classifies each name with the current rules and tells which rule decided.
  With -table, every entity of the ownership table is classified as well.
`
}

func (c *classifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.table, "table", "", "Also classify every entity of this ownership table")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
	f.BoolVar(&c.json, "json", false, "Print the verdicts as JSON")
}

func (c *classifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 && c.table == "" {
		fmt.Fprintln(os.Stderr, "classify needs at least one name or -table")
		return subcommands.ExitUsageError
	}
	classifier, err := loadClassifier()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		return subcommands.ExitFailure
	}

	names := f.Args()
	if c.table != "" {
		opts, err := parserOptions(classifier)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in parser options: %v\n", err)
			return subcommands.ExitUsageError
		}
		res, _, err := readInput(c.table, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, e := range res.Graph.Entities() {
			names = append(names, res.Graph.Display(e))
		}
	}

	verdicts := make([]ownership.Verdict, len(names))
	for i, n := range names {
		verdicts[i] = classifier.Explain(n)
	}

	switch {
	case c.json:
		out, err := json.MarshalIndent(verdicts, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding verdicts: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
	case c.plain:
		fmt.Print(renderer.VerdictsMarkdown(verdicts))
	default:
		printMarkdown(renderer.VerdictsMarkdown(verdicts))
	}
	return subcommands.ExitSuccess
}
