// Package cmd implements the CLI application to find the ultimate beneficial
// owners of a company from its ownership table.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&resolveCmd{}, "beneficiaries")
	c.Register(&edgesCmd{}, "beneficiaries")
	c.Register(&classifyCmd{}, "rules")
	c.Register(&rulesCmd{}, "rules")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	rulesFile   = flag.String("rules", "", "Path to the rules file (yaml or json). Empty uses the built-in rules")
	rulesSelect = flag.String("rules-select", "", "JSONPath expression selecting the rules inside a larger rules document")
	rootEntity  = flag.String("root", "", "Entity to resolve. Empty resolves the first root entity of the table")
	scale       = flag.String("scale", string(ownership.ScaleAuto), "Unit of participation cells: auto, fraction or percent")
	strict      = flag.Bool("strict", false, "Abort on the first row that cannot be placed in the hierarchy")
	zeroParent  = flag.Bool("zero-opens-parent", true, "A participation of 0 opens a parent like an empty cell")
	layout      = flag.String("layout", layoutHierarchy, "Layout of input tables: 'hierarchy' (rows under their parent) or 'flat' (Entidad, Accionista, Participacion)")
	tolerance   = flag.Float64("tolerance", 0.5, "Allowed gap, in percentage points, between the beneficiaries total and 100%")
	metricsFile = flag.String("metrics-file", "", "Write the metrics of the run to this file, in Prometheus text format")
	// Verbose enables debug logs.
	Verbose = flag.Bool("v", false, "Log debug information on stderr")
)

// Environment variables mirroring the global flags.
const (
	EnvRules       = "UBO_RULES"
	EnvRulesSelect = "UBO_RULES_SELECT"
	EnvRoot        = "UBO_ROOT"
	EnvScale       = "UBO_SCALE"
	EnvStrict      = "UBO_STRICT"
	EnvZeroParent  = "UBO_ZERO_OPENS_PARENT"
	EnvLayout      = "UBO_LAYOUT"
	EnvTolerance   = "UBO_TOLERANCE"
	EnvMetricsFile = "UBO_METRICS_FILE"
	EnvVerbose     = "UBO_VERBOSE"
)

// envFlags maps global flag names to their environment variable.
var envFlags = map[string]string{
	"rules":             EnvRules,
	"rules-select":      EnvRulesSelect,
	"root":              EnvRoot,
	"scale":             EnvScale,
	"strict":            EnvStrict,
	"zero-opens-parent": EnvZeroParent,
	"layout":            EnvLayout,
	"tolerance":         EnvTolerance,
	"metrics-file":      EnvMetricsFile,
	"v":                 EnvVerbose,
}

// Input table layouts.
const (
	layoutHierarchy = "hierarchy"
	layoutFlat      = "flat"
)

// ExitCode maps the status of a command to the process exit code: 0 on
// success, 1 otherwise.
func ExitCode(status subcommands.ExitStatus) int {
	if status == subcommands.ExitSuccess {
		return 0
	}
	return 1
}

// LoadEnv reads the .env file of the working directory, if any, then gives
// every global flag not set on the command line the value of its UBO_*
// environment variable. It must be called after flag.Parse.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load .env: %w", err)
	}
	return applyEnv(flag.CommandLine, os.LookupEnv)
}

// applyEnv sets the flags of 'f' that were not explicitly set from the
// environment. Flags are processed in name order so that errors are stable.
func applyEnv(f *flag.FlagSet, lookup func(string) (string, bool)) error {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	names := make([]string, 0, len(envFlags))
	for name := range envFlags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if set[name] || f.Lookup(name) == nil {
			continue
		}
		value, ok := lookup(envFlags[name])
		if !ok {
			continue
		}
		if err := f.Set(name, value); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", envFlags[name], value, err)
		}
	}
	return nil
}

// SetupLogger installs the logger of the ownership package: warnings on
// stderr, or everything with -v.
func SetupLogger() {
	level := log.WarnLevel
	if *Verbose {
		level = log.DebugLevel
	}
	ownership.SetLogger(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	}))
}

// loadRules reads the rules selected by the -rules flags.
func loadRules() (ownership.Rules, error) {
	return ownership.LoadRules(*rulesFile, *rulesSelect)
}

// loadClassifier builds the classifier from the -rules flags.
func loadClassifier() (*ownership.Classifier, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	return ownership.NewClassifier(rules), nil
}

// parserOptions returns the parser options selected by the global flags.
func parserOptions(c *ownership.Classifier) (ownership.ParserOptions, error) {
	opts := ownership.DefaultParserOptions()
	s, err := ownership.ParseScale(*scale)
	if err != nil {
		return opts, err
	}
	opts.Scale = s
	if *strict {
		opts.Policy = ownership.Strict
	}
	opts.ZeroOpensParent = *zeroParent
	if *layout != layoutHierarchy && *layout != layoutFlat {
		return opts, fmt.Errorf("unknown layout %q, want %q or %q", *layout, layoutHierarchy, layoutFlat)
	}
	opts.Canonicalizer = c.Canonicalizer()
	return opts, nil
}

func newResolver(c *ownership.Classifier) *ownership.Resolver {
	return ownership.NewResolver(c, ownership.P(*tolerance))
}

// defaultRoot returns the root entity appearing first in the table.
func defaultRoot(g *ownership.Graph) (string, bool) {
	roots := make(map[string]bool)
	for _, r := range g.Roots() {
		roots[r] = true
	}
	for _, e := range g.Entities() {
		if roots[e] {
			return e, true
		}
	}
	return "", false
}

// readInput reads the ownership links of 'input' in the layout selected by
// -layout. Rows are only returned for hierarchical tables.
func readInput(input string, opts ownership.ParserOptions) (*ownership.ParseResult, []ownership.Row, error) {
	if *layout == layoutFlat {
		res, err := ownership.ReadEdges(input, opts)
		return res, nil, err
	}
	rows, err := ownership.ReadRows(input)
	if err != nil {
		return nil, nil, err
	}
	res, err := ownership.Parse(rows, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse the ownership table: %w", err)
	}
	return res, rows, nil
}
