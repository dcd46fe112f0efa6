// Command flowsync edits flowchart documents: node lookup and patching from
// the shell, an interactive terminal editor, and replay of recorded
// generation streams.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowsync/config"
	"flowsync/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds the global flags and the state derived from them before any
// subcommand runs.
type cli struct {
	configPath string
	logLevel   string
	colorMode  string

	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "flowsync",
		Short:         "Edit flowchart documents by node, by hand or from a generation stream",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to flowsync.toml (default: search upwards from the working directory)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&c.colorMode, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(c.newEditCmd())
	root.AddCommand(c.newNodesCmd())
	root.AddCommand(c.newLocateCmd())
	root.AddCommand(c.newPatchCmd())
	root.AddCommand(c.newDirectionCmd())
	root.AddCommand(c.newReplayCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(c.configPath, ".")
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if err := applyColorMode(c.colorMode, cmd.OutOrStdout()); err != nil {
		return err
	}

	c.cfg = cfg
	c.log = logger
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}
	return nil
}

func applyColorMode(mode string, out io.Writer) error {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(out)
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
