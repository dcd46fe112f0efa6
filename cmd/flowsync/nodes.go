package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowsync/flowchart"
)

type nodeRecord struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Line  int    `json:"line"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func recordOf(span flowchart.NodeSpan) nodeRecord {
	return nodeRecord{
		ID:    span.ID,
		Kind:  span.Kind.String(),
		Label: span.Label,
		Line:  span.Line + 1,
		Start: span.Start,
		End:   span.End,
	}
}

func (c *cli) newNodesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nodes [file]",
		Short: "List node definitions in document order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			spans := flowchart.Nodes(doc)
			if asJSON {
				records := make([]nodeRecord, 0, len(spans))
				for _, s := range spans {
					records = append(records, recordOf(s))
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			return printNodes(cmd.OutOrStdout(), spans)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print nodes as JSON")
	return cmd
}

func printNodes(out io.Writer, spans []flowchart.NodeSpan) error {
	id := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dim("ID"), dim("SHAPE"), dim("LINE"), dim("LABEL"))
	for _, s := range spans {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", id(s.ID), s.Kind, s.Line+1, s.Label)
	}
	return w.Flush()
}

func (c *cli) newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <file> <id>",
		Short: "Show where a node is defined",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			span, ok := flowchart.Locate(doc, args[1])
			if !ok {
				return fmt.Errorf("node %q is not defined", args[1])
			}
			id := color.New(color.FgCyan, color.Bold).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s line %d bytes %d-%d %q\n",
				id(span.ID), span.Kind, span.Line+1, span.Start, span.End, span.Label)
			fmt.Fprintln(cmd.OutOrStdout(), "  "+span.Text(doc))
			return nil
		},
	}
}

func (c *cli) newPatchCmd() *cobra.Command {
	var (
		label   string
		shape   string
		inPlace bool
	)
	cmd := &cobra.Command{
		Use:   "patch <file> <id>",
		Short: "Change the label or shape of one node",
		Long: "Rewrites only the marker span of the node's first definition. " +
			"Edges, style classes and every other line are left untouched.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labelSet := cmd.Flags().Changed("label")
			if !labelSet && shape == "" {
				return errors.New("nothing to change: pass --label and/or --shape")
			}
			var u flowchart.Update
			if labelSet {
				u.Label = &label
			}
			if shape != "" {
				kind, ok := flowchart.ParseKind(shape)
				if !ok {
					return fmt.Errorf("unknown shape %q (want one of %s)", shape, kindNames())
				}
				u.Kind = &kind
			}

			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if _, ok := flowchart.Locate(doc, args[1]); !ok {
				return fmt.Errorf("node %q is not defined", args[1])
			}
			patched := flowchart.Rewrite(doc, args[1], u)
			c.log.Debug("node patched", "id", args[1], "changed", patched != doc)
			return writeOutput(cmd, args[0], patched, inPlace)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "new label text")
	cmd.Flags().StringVar(&shape, "shape", "", "new shape ("+kindNames()+")")
	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "write the result back to the file")
	return cmd
}

func (c *cli) newDirectionCmd() *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "direction <file> <dir>",
		Short: "Set the layout direction in the header line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			updated, err := flowchart.SetDirection(doc, args[1])
			if err != nil {
				return err
			}
			return writeOutput(cmd, args[0], updated, inPlace)
		},
	}
	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "write the result back to the file")
	return cmd
}

func kindNames() string {
	kinds := flowchart.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
