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
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/gnames/dwca-tools/internal/ioaggregate"
	"github.com/gnames/dwca-tools/internal/iodb"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getAggregateCmd returns the aggregate command with its subcommands.
func getAggregateCmd() *cobra.Command {
	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Build aggregated tables in a loaded database",
		Long: `Build aggregated tables from data loaded by 'dwca-tools convert'.

Subcommands:
  taxa  creates a taxa table with occurrence and multimedia counts`,
	}

	aggregateCmd.AddCommand(getAggregateTaxaCmd())

	return aggregateCmd
}

// getAggregateTaxaCmd returns the aggregate taxa command.
func getAggregateTaxaCmd() *cobra.Command {
	taxaCmd := &cobra.Command{
		Use:   "taxa <db-url>",
		Short: "Create a taxa table from the occurrence table",
		Long: `Create (or replace) the taxa table in a loaded database.

Occurrences are grouped by taxonID. Every taxon gets a name_id (UUID v5
of its scientific name), its family, the number of occurrences and the
number of multimedia records.

The occurrence table must have taxonID, scientificName, family and
gbifID columns. Load the archive with --all-columns to keep them.

Examples:
  dwca-tools aggregate taxa sqlite:///0012345-240101.db
  dwca-tools aggregate taxa postgresql://postgres@localhost/gbif`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runAggregateTaxa(cmd, args[0])
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return taxaCmd
}

func runAggregateTaxa(cmd *cobra.Command, dbURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg.Update([]config.Option{config.OptDatabaseURL(dbURL)})

	op := iodb.New()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()

	builder := ioaggregate.New(cfg, op)
	num, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	gn.Info("Table <em>%s</em> has <em>%s</em> taxa",
		ioaggregate.TaxaTable, humanize.Comma(int64(num)))

	tables, err := iodb.Summary(ctx, op)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	printSQLSummary(out, tables)

	return nil
}
