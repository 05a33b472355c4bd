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
	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	names  []string
	limit  int
	format string
}

// getReportCmd returns the report command.
func getReportCmd() *cobra.Command {
	var flags reportFlags

	reportCmd := &cobra.Command{
		Use:   "report <db-url>",
		Short: "Run canned reports on a loaded database",
		Long: `Run canned SQL reports on a database loaded by convert.

Reports:
  ` + strings.Join(iodb.ReportNames(), "\n  ") + `

Without --name every report is run whose tables and columns exist.
Reports need taxonID and family columns, convert the archive with
--all-columns. The taxa_with_no_entries report needs the taxa table
made by 'dwca-tools aggregate taxa'.

Examples:
  dwca-tools report sqlite:///0012345-240101.db
  dwca-tools report sqlite:///data.db -q highest_occurrences -n 20
  dwca-tools report postgresql://postgres@localhost/gbif --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runReport(cmd, args[0], flags)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	reportCmd.Flags().StringSliceVarP(
		&flags.names, "name", "q", nil,
		"reports to run (empty = all available)",
	)
	reportCmd.Flags().IntVarP(
		&flags.limit, "limit", "n", iodb.DefaultReportLimit,
		"number of rows of highest_* reports",
	)
	reportCmd.Flags().StringVar(
		&flags.format, "format", "table",
		"output format: table or json",
	)

	return reportCmd
}

func runReport(cmd *cobra.Command, dbURL string, flags reportFlags) error {
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

	names := flags.names
	if len(names) == 0 {
		if names, err = availableReports(ctx, op, iodb.ReportNames()); err != nil {
			return err
		}
	}

	res, err := runReports(ctx, op, names, flags.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, res)
	}
	for _, r := range res {
		printReport(out, r)
	}
	return nil
}

// availableReports keeps reports the database can answer and tells the
// user about the rest.
func availableReports(
	ctx context.Context,
	op db.Operator,
	names []string,
) ([]string, error) {
	res, err := iodb.AvailableReports(ctx, op, names)
	if err != nil {
		return nil, err
	}
	if skipped := len(names) - len(res); skipped > 0 {
		gn.Warn("Skipped <em>%d</em> reports, their columns are not loaded", skipped)
	}
	return res, nil
}

func runReports(
	ctx context.Context,
	op db.Operator,
	names []string,
	limit int,
) ([]*iodb.ReportResult, error) {
	res := make([]*iodb.ReportResult, 0, len(names))
	for _, name := range names {
		r, err := iodb.RunReport(ctx, op, name, limit)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}

func printReport(w io.Writer, r *iodb.ReportResult) {
	fmt.Fprintf(w, "%s:\n", r.Title)
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No data found")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	fmt.Fprintln(w)
}
