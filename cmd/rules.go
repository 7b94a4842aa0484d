package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

type rulesCmd struct {
	yaml bool
}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "print the effective classification rules" }
func (*rulesCmd) Usage() string {
	return `ubo rules [-yaml]

  Prints the rules selected by -rules and -rules-select, completed with the
  built-in defaults. The output is a valid rules file.
`
}

func (c *rulesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yaml, "yaml", false, "Print the rules as YAML instead of JSON")
}

func (c *rulesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rules, err := loadRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		return subcommands.ExitFailure
	}

	var out []byte
	if c.yaml {
		out, err = yaml.Marshal(rules)
	} else {
		out, err = json.MarshalIndent(rules, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding rules: %v\n", err)
		return subcommands.ExitFailure
	}
	os.Stdout.Write(out)
	return subcommands.ExitSuccess
}
