package cmd

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

// runEdges executes the edges command with 'args'.
func runEdges(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	cmd := &edgesCmd{}
	f := flag.NewFlagSet("edges", flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("invalid arguments %v: %v", args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestEdgesCmd_FlatTable(t *testing.T) {
	setGlobal(t, &rulesFile, "../testdata/redcow_rules.yaml")
	dir := t.TempDir()

	want := filepath.Join(dir, "want.csv")
	if status := runResolve(t, "-plain", "-o", want, "../testdata/redcow.csv"); status != subcommands.ExitSuccess {
		t.Fatalf("resolve = %v, want ExitSuccess", status)
	}

	for _, ext := range []string{".csv", ".xlsx", ".jsonl"} {
		t.Run(ext, func(t *testing.T) {
			flat := filepath.Join(dir, "links"+ext)
			if status := runEdges(t, "-plain", "-o", flat, "../testdata/redcow.csv"); status != subcommands.ExitSuccess {
				t.Fatalf("edges = %v, want ExitSuccess", status)
			}

			setGlobal(t, &layout, layoutFlat)
			setGlobal(t, &rootEntity, "RED COW INC")
			got := filepath.Join(dir, "got"+ext+".csv")
			if status := runResolve(t, "-plain", "-o", got, flat); status != subcommands.ExitSuccess {
				t.Fatalf("resolve -layout flat = %v, want ExitSuccess", status)
			}

			percents := func(path string) map[string]string {
				records, err := ownership.ReadRecords(path)
				if err != nil {
					t.Fatalf("ReadRecords(%s) error = %v", path, err)
				}
				res := make(map[string]string)
				for _, r := range records {
					res[r.Key] = r.Percent.Fixed()
				}
				return res
			}
			if diff := cmp.Diff(percents(want), percents(got)); diff != "" {
				t.Errorf("beneficiaries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEdgesCmd_Errors(t *testing.T) {
	input := writeFile(t, "holding.csv", "HOLDING SAS;;\nJuan Perez Gomez;1;\n")

	if got := runEdges(t); got != subcommands.ExitUsageError {
		t.Errorf("no input: Execute() = %v, want ExitUsageError", got)
	}
	if got := runEdges(t, "-plain", "-o", filepath.Join(t.TempDir(), "links.txt.gz"), input); got != subcommands.ExitFailure {
		t.Errorf("unknown output format: Execute() = %v, want ExitFailure", got)
	}
}
