package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file> [output]",
		Short: "Show the metadata of a file, or what changed between a source and its output",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 2 {
				cmp, err := metadata.Compare(args[0], args[1])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, cmp)
				}
				printComparison(out, cmp)
				return nil
			}

			report, err := metadata.Inspect(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, report)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the gear catalog, location presets and quick templates as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), catalog.Current())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r metadata.Report) {
	fmt.Fprintf(w, "%s\n  %s, %dx%d, %s\n", r.Path, r.Format, r.Width, r.Height, humanize.IBytes(uint64(r.Size)))
	for _, f := range r.Fields {
		fmt.Fprintf(w, "  %-4s %-28s %s\n", f.Group, f.Name, f.Value)
	}
}

func printComparison(w io.Writer, c metadata.Comparison) {
	fmt.Fprintf(w, "%s (%s) -> %s (%s), %.0f%% of the source size\n",
		c.Source.Path, humanize.IBytes(uint64(c.Source.Size)), c.Output.Path, humanize.IBytes(uint64(c.Output.Size)), c.Ratio*100)
	for _, ch := range c.Changes {
		switch {
		case ch.Before == "":
			fmt.Fprintf(w, "  + %-4s %-28s %s\n", ch.Group, ch.Name, ch.After)
		case ch.After == "":
			fmt.Fprintf(w, "  - %-4s %-28s %s\n", ch.Group, ch.Name, ch.Before)
		default:
			fmt.Fprintf(w, "  ~ %-4s %-28s %s -> %s\n", ch.Group, ch.Name, ch.Before, ch.After)
		}
	}
}
