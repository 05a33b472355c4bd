/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/gnames/dwca-tools/internal/iodb"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// maxSampleColumns is the number of columns shown in a sample table.
const maxSampleColumns = 10

type sampleFlags struct {
	rows   int
	tables []string
	format string
}

// tableSample holds random rows of one table.
type tableSample struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// getSampleCmd returns the sample command.
func getSampleCmd() *cobra.Command {
	var flags sampleFlags

	sampleCmd := &cobra.Command{
		Use:   "sample <db-url>",
		Short: "Show random rows of loaded tables",
		Long: `Show random rows from tables of a loaded database.

By default every table is sampled. Table output shows at most 10
columns, JSON output keeps all of them.

Examples:
  dwca-tools sample sqlite:///0012345-240101.db
  dwca-tools sample sqlite:///data.db -r 3 --table occurrence,taxa
  dwca-tools sample postgresql://postgres@localhost/gbif --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSample(cmd, args[0], flags)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	sampleCmd.Flags().IntVarP(
		&flags.rows, "rows", "r", 5,
		"number of random rows per table",
	)
	sampleCmd.Flags().StringSliceVarP(
		&flags.tables, "table", "t", nil,
		"tables to sample (empty = all)",
	)
	sampleCmd.Flags().StringVar(
		&flags.format, "format", "table",
		"output format: table or json",
	)

	return sampleCmd
}

func runSample(cmd *cobra.Command, dbURL string, flags sampleFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	format, err := formatFlag(flags.format)
	if err != nil {
		return err
	}

	cfg.Update([]config.Option{config.OptDatabaseURL(dbURL)})

	op := iodb.New()
	if err = op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()

	tables := flags.tables
	if len(tables) == 0 {
		if tables, err = op.Tables(ctx); err != nil {
			return err
		}
	}

	samples := make([]tableSample, 0, len(tables))
	for _, t := range tables {
		cols, rows, err := iodb.Sample(ctx, op, t, flags.rows)
		if err != nil {
			return err
		}
		samples = append(samples, tableSample{Table: t, Columns: cols, Rows: rows})
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, samples)
	}
	for _, s := range samples {
		printSample(out, s)
	}
	return nil
}

func printSample(w io.Writer, s tableSample) {
	fmt.Fprintf(w, "%s:\n", s.Table)

	shown := min(len(s.Columns), maxSampleColumns)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(s.Columns[:shown], "\t"))
	for _, row := range s.Rows {
		fmt.Fprintln(tw, strings.Join(row[:min(len(row), shown)], "\t"))
	}
	tw.Flush()

	if hidden := len(s.Columns) - shown; hidden > 0 {
		fmt.Fprintf(w, "(%d more columns hidden)\n", hidden)
	}
	if len(s.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
	}
	fmt.Fprintln(w)
}
