package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/EfrainRestreto-SB/composici-n-accionaria/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	plain bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `ubo topic [-plain] [<topic>...]

Show documentation for the given topics. 'ubo topic readme' lists them.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}

	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.plain {
		fmt.Print(doc)
	} else {
		printMarkdown(doc)
	}
	return subcommands.ExitSuccess
}
