package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"flowsync/editor"
	"flowsync/history"
)

type replayOptions struct {
	input   string
	request string
	delay   time.Duration
	output  string
	quiet   bool
	verbose bool
}

func (c *cli) newReplayCmd() *cobra.Command {
	var o replayOptions
	cmd := &cobra.Command{
		Use:   "replay <events>",
		Short: "Apply a recorded generation stream to a document",
		Long: "Reads line-delimited JSON events ({\"type\":\"content\",\"text\":...}, " +
			"{\"type\":\"done\",\"text\":...}, {\"type\":\"error\",\"error\":...}), optionally " +
			"framed as server-sent events, and runs them through the same path as a live " +
			"generation. Every document update is reported; the final document is printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "starting document (default: the sample flowchart)")
	cmd.Flags().StringVar(&o.request, "request", "replay", "request text recorded in the conversation")
	cmd.Flags().DurationVar(&o.delay, "delay", 0, "wait this long before each event")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the final document to this file instead of stdout")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "do not report intermediate updates")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "print the full text of every update")
	return cmd
}

func (c *cli) runReplay(cmd *cobra.Command, events string, o replayOptions) error {
	ctlOpts, err := c.controllerOptions(cmd, 0, 0)
	if err != nil {
		return err
	}
	if o.input != "" {
		if ctlOpts.Initial, err = readInput(cmd, o.input); err != nil {
			return err
		}
	}
	ctl := editor.New(ctlOpts)
	transport := recordedTransport(events, o.delay, c.log)

	updates := make(chan history.Change, 64)
	done := make(chan struct{})
	unsubscribe := ctl.Subscribe(func(ch history.Change) {
		select {
		case updates <- ch:
		case <-done:
		}
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		defer close(done)
		defer unsubscribe()
		return ctl.Generate(ctx, o.request, transport)
	})
	g.Go(func() error {
		report := func(ch history.Change) {
			if !o.quiet {
				printChange(cmd.ErrOrStderr(), ch, o.verbose)
			}
		}
		for {
			select {
			case ch := <-updates:
				report(ch)
			case <-done:
				for {
					select {
					case ch := <-updates:
						report(ch)
					default:
						return nil
					}
				}
			}
		}
	})
	genErr := g.Wait()

	final := ctl.Text()
	if o.output != "" {
		if err := writeOutput(cmd, o.output, final, true); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), final)
	}
	if genErr != nil {
		return fmt.Errorf("replay of %s failed: %w", events, genErr)
	}
	_, total := ctl.History().Stats()
	c.log.Debug("replay finished", "entries", total)
	return nil
}

func printChange(out io.Writer, ch history.Change, verbose bool) {
	tag := color.New(color.FgYellow).SprintFunc()
	if ch.Cause == history.CauseCommit {
		tag = color.New(color.FgGreen, color.Bold).SprintFunc()
	}
	lines := 0
	if ch.Text != "" {
		lines = strings.Count(ch.Text, "\n") + 1
	}
	fmt.Fprintf(out, "%s %d lines\n", tag("["+ch.Cause.String()+"]"), lines)
	if verbose {
		for _, line := range strings.Split(ch.Text, "\n") {
			fmt.Fprintln(out, "  "+line)
		}
	}
}
