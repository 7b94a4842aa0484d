// Command ubo finds the ultimate beneficial owners of a company from its
// ownership table.
//
// Usage:
//
//	ubo [global flags] <input>
//	ubo [global flags] <command> [flags] [args]
//
// Run 'ubo help' for the list of commands and 'ubo topic' for the manual.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/EfrainRestreto-SB/composici-n-accionaria/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("ubo")

	commander := subcommands.NewCommander(flag.CommandLine, "ubo")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	if err := cmd.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd.SetupLogger()

	if flag.NArg() > 0 && !isCommand(commander, flag.Arg(0)) {
		if found, code := cmd.RunExtension(flag.Arg(0), flag.Args()[1:]); found {
			os.Exit(code)
		}
		// 'ubo <input>' is 'ubo resolve <input>'.
		if flag.NArg() == 1 {
			flag.CommandLine.Parse([]string{"resolve", flag.Arg(0)})
		}
	}

	os.Exit(cmd.ExitCode(commander.Execute(context.Background())))
}

func isCommand(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}
