package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"apiguard/internal/errors"
	"apiguard/internal/logging"
)

// Collector produces a raw export for one target.
type Collector interface {
	Collect(ctx context.Context, target string) (*RawExport, error)
}

// Default toolchain invocation when a target does not configure one.
const (
	defaultCommand = "swift"
)

func defaultArgs() []string {
	return []string{
		"symbolgraph-extract",
		"-module-name", "{target}",
		"-output-dir", "{output}",
	}
}

// ToolchainCollector invokes the host toolchain's export command and parses
// the document it writes. The command's args may reference {target} and
// {output}; {output} is replaced with a scratch directory per invocation.
type ToolchainCollector struct {
	Command string
	Args    []string
	Runner  ExecRunner
	Logger  *logging.Logger
}

// NewToolchainCollector creates a collector for the given command line.
// Empty command/args fall back to the toolchain defaults.
func NewToolchainCollector(command string, args []string, runner ExecRunner, logger *logging.Logger) *ToolchainCollector {
	if command == "" {
		command = defaultCommand
	}
	if len(args) == 0 {
		args = defaultArgs()
	}
	return &ToolchainCollector{
		Command: command,
		Args:    args,
		Runner:  runner,
		Logger:  logger,
	}
}

// Collect runs the export command for the target and parses the result.
// Timeout, nonzero exit, and a missing export file all surface as
// EXPORT_UNAVAILABLE carrying the captured diagnostic output.
func (c *ToolchainCollector) Collect(ctx context.Context, target string) (*RawExport, error) {
	outDir, err := os.MkdirTemp("", "apiguard-export-")
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to create scratch directory", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		arg = strings.ReplaceAll(arg, "{target}", target)
		arg = strings.ReplaceAll(arg, "{output}", outDir)
		args[i] = arg
	}

	c.Logger.Debug("Invoking export toolchain", map[string]interface{}{
		"target":  target,
		"command": c.Command,
		"args":    strings.Join(args, " "),
	})

	_, stderr, err := c.Runner.Run(ctx, c.Command, args...)
	if err != nil {
		return nil, errors.New(errors.ExportUnavailable,
			fmt.Sprintf("export command failed for target %s", target), err).
			WithDetails(map[string]interface{}{"stderr": stderr})
	}

	data, err := c.readExportFile(outDir, target)
	if err != nil {
		return nil, errors.New(errors.ExportUnavailable,
			fmt.Sprintf("export command produced no document for target %s", target), err).
			WithDetails(map[string]interface{}{"stderr": stderr})
	}

	return Parse(data)
}

// readExportFile locates the document the toolchain wrote. The toolchain
// names it <target>.symbols.json; if that exact name is absent, any single
// *.json file in the scratch directory is accepted.
func (c *ToolchainCollector) readExportFile(outDir, target string) ([]byte, error) {
	exact := filepath.Join(outDir, target+".symbols.json")
	if data, err := os.ReadFile(exact); err == nil {
		return data, nil
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no export document in %s", outDir)
	}
	return os.ReadFile(matches[0])
}
