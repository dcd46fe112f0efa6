package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowsync/editor"
	"flowsync/logging"
	"flowsync/terminal"
)

type editOptions struct {
	markdown    bool
	block       int
	historyFile string
	debounce    time.Duration
	maxHistory  int
	events      string
	logFile     string
}

func (c *cli) newEditCmd() *cobra.Command {
	var o editOptions
	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a flowchart in the terminal",
		Long: "Opens the interactive editor. Without a file the editor starts from a sample " +
			"flowchart. With --markdown the file is a markdown document and one of its " +
			"mermaid blocks is edited in place.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("edit needs an interactive terminal")
			}
			return c.runEdit(cmd, firstArg(args), o)
		},
	}
	cmd.Flags().BoolVar(&o.markdown, "markdown", false, "edit a mermaid block inside a markdown file")
	cmd.Flags().IntVar(&o.block, "block", 0, "which flowchart block to edit (1-based, 0 = the only one)")
	cmd.Flags().StringVar(&o.historyFile, "history-file", "", "persist undo history to this file (overrides history.file)")
	cmd.Flags().DurationVar(&o.debounce, "debounce", 0, "idle time before an edit becomes an undo step (overrides history.debounce)")
	cmd.Flags().IntVar(&o.maxHistory, "max-history", 0, "maximum undo entries (overrides history.max_entries)")
	cmd.Flags().StringVar(&o.events, "events", "", "recorded event log used to answer Ctrl-G generation requests")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "write logs to this file while the editor owns the terminal")
	return cmd
}

func (c *cli) runEdit(cmd *cobra.Command, path string, o editOptions) error {
	ctlOpts, err := c.controllerOptions(cmd, o.debounce, o.maxHistory)
	if err != nil {
		return err
	}

	// The screen belongs to the editor; logs go to a file or nowhere.
	log := logging.Discard()
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		if log, err = logging.New(f, c.cfg.Log.Level, c.cfg.Log.Format); err != nil {
			return err
		}
	}
	ctlOpts.Logger = log

	var doc document
	switch {
	case o.markdown && path == "":
		return errors.New("--markdown needs a file")
	case o.markdown:
		doc, err = openMarkdownBlock(path, o.block)
	case path == "":
		doc = &scratch{}
	default:
		doc, err = openPlainFile(path)
	}
	if err != nil {
		return err
	}
	ctlOpts.Initial = doc.Text()
	ctl := editor.New(ctlOpts)

	historyFile := c.cfg.History.File
	if o.historyFile != "" {
		historyFile = o.historyFile
	}
	if historyFile != "" {
		if err := resumeHistory(ctl, historyFile, log); err != nil {
			return err
		}
	}

	appOpts := terminal.Options{Title: doc.Name(), Save: doc.Save, Logger: log}
	if o.events != "" {
		transport := recordedTransport(o.events, 0, log)
		appOpts.Generate = func(ctx context.Context, request string) error {
			return ctl.Generate(ctx, request, transport)
		}
	}

	runErr := terminal.Run(logging.WithLogger(cmd.Context(), log), ctl, appOpts)
	ctl.Flush()
	if historyFile != "" {
		if err := persistHistory(ctl, historyFile); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

// controllerOptions merges configuration with command-line overrides.
func (c *cli) controllerOptions(cmd *cobra.Command, debounce time.Duration, maxHistory int) (editor.Options, error) {
	d, err := c.cfg.DebounceDuration()
	if err != nil {
		return editor.Options{}, err
	}
	if cmd.Flags().Changed("debounce") {
		if debounce <= 0 {
			return editor.Options{}, fmt.Errorf("--debounce must be positive, got %s", debounce)
		}
		d = debounce
	}
	entries := c.cfg.History.MaxEntries
	if cmd.Flags().Changed("max-history") {
		if maxHistory < 1 {
			return editor.Options{}, fmt.Errorf("--max-history must be at least 1, got %d", maxHistory)
		}
		entries = maxHistory
	}
	return editor.Options{
		Debounce:     d,
		MaxHistory:   entries,
		StripFences:  c.cfg.Stream.StripFences,
		MaxChatChars: c.cfg.Chat.MaxChars,
		Logger:       c.log,
	}, nil
}

// scratch is an unsaved document started from the sample flowchart.
type scratch struct{}

func (scratch) Name() string { return "untitled" }
func (scratch) Text() string { return "" }
func (scratch) Save(string) error {
	return errors.New("untitled document: restart with a file name to save")
}
