package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
)

// ExtensionPrefix prefixes the name of external ubo-<subcommand> binaries.
const ExtensionPrefix = "ubo-"

// RunExtension attempts to find and execute an external ubo-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
// Global flags are passed to the extension as UBO_* environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := ExtensionPrefix + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		ownership.Logger().Debug("no extension", "name", name, "err", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv returns the global flags as environment variables.
func extensionEnv() []string {
	return []string{
		EnvRules + "=" + *rulesFile,
		EnvRulesSelect + "=" + *rulesSelect,
		EnvRoot + "=" + *rootEntity,
		EnvScale + "=" + *scale,
		EnvStrict + "=" + strconv.FormatBool(*strict),
		EnvZeroParent + "=" + strconv.FormatBool(*zeroParent),
		EnvLayout + "=" + *layout,
		EnvTolerance + "=" + strconv.FormatFloat(*tolerance, 'f', -1, 64),
		EnvMetricsFile + "=" + *metricsFile,
		EnvVerbose + "=" + strconv.FormatBool(*Verbose),
	}
}
