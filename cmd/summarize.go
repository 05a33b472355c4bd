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
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/gnames/dwca-tools/internal/ioarchive"
	"github.com/gnames/dwca-tools/internal/iotaxa"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/gn"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// getSummarizeCmd returns the summarize command with its subcommands.
func getSummarizeCmd() *cobra.Command {
	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize content of a Darwin Core Archive",
		Long: `Summarize content of a Darwin Core Archive without loading it
into a database.

Subcommands:
  files  lists files of the archive and tables described by meta.xml
  taxa   groups occurrences by scientific name and counts them`,
		Aliases: []string{"sum"},
	}

	summarizeCmd.AddCommand(getSummarizeFilesCmd(), getSummarizeTaxaCmd())

	return summarizeCmd
}

// getSummarizeFilesCmd returns the summarize files command.
func getSummarizeFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files <archive>",
		Short: "List files and tables of an archive",
		Long: `List files of a Darwin Core Archive and tables described by its
manifest.

Directories with many files (for example dataset/ in GBIF downloads)
show only a sample of their files.

Examples:
  dwca-tools summarize files 0012345-240101.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSummarizeFiles(cmd.OutOrStdout(), args[0])
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return filesCmd
}

func runSummarizeFiles(w io.Writer, archivePath string) error {
	arc, err := ioarchive.Open(afero.NewOsFs(), archivePath)
	if err != nil {
		return err
	}
	defer arc.Close()

	tables, err := arc.Tables(cfg.MetaFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Archive: %s (%s)\n\n",
		arc.Path(), humanize.Bytes(uint64(arc.Size())))
	printZipSummary(w, arc.Summary())
	printTableDefinitions(w, tables)

	return nil
}

func printZipSummary(w io.Writer, sum ioarchive.ZipSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE")
	for _, e := range sum.RootFiles {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, humanize.Bytes(e.Size))
	}
	for _, d := range sum.Dirs {
		for _, e := range d.Files {
			fmt.Fprintf(tw, "%s\t%s\n", e.Name, humanize.Bytes(e.Size))
		}
		if d.Sampled() {
			fmt.Fprintf(tw, "%s/\t%s files (sample shown above)\n",
				d.Name, humanize.Comma(int64(d.Total)))
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal: %s files, %d directories\n\n",
		humanize.Comma(int64(sum.TotalFiles)), len(sum.Dirs))
}

func printTableDefinitions(w io.Writer, tables []dwca.TableDefinition) {
	fmt.Fprintln(w, "Tables:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tFILE\tROW TYPE\tCOLUMNS")
	for _, t := range tables {
		rowType := t.RowTypeName()
		if t.Core {
			rowType += " (core)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Name, t.Filename, rowType, joinOrDash(t.StorageColumns()))
	}
	tw.Flush()
}

type taxaFlags struct {
	groupBy         string
	mismatchedNames bool
	limit           int
	speciesOnly     bool
	imageCounts     bool
	canonical       bool
	format          string
}

// getSummarizeTaxaCmd returns the summarize taxa command.
func getSummarizeTaxaCmd() *cobra.Command {
	var flags taxaFlags

	taxaCmd := &cobra.Command{
		Use:   "taxa <archive>",
		Short: "Count occurrences per taxon",
		Long: `Group occurrences of an archive by a name column and count them.

The archive is read directly, no database is needed. Results are sorted
by the number of occurrences, the most common taxa first.

Examples:
  # Top 20 taxa by scientificName
  dwca-tools summarize taxa data.zip

  # All species with image counts as JSON
  dwca-tools summarize taxa data.zip -n 0 --species-only \
    --image-counts --format json

  # Verbatim names that map to several taxa
  dwca-tools summarize taxa data.zip -g verbatimScientificName \
    --show-mismatched-names

  # Merge spelling variants into canonical forms
  dwca-tools summarize taxa data.zip --canonical`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSummarizeTaxa(cmd, args[0], flags)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	taxaCmd.Flags().StringVarP(
		&flags.groupBy, "group-by", "g", "scientificName",
		"grouping column: scientificName or verbatimScientificName",
	)
	taxaCmd.Flags().BoolVar(
		&flags.mismatchedNames, "show-mismatched-names", false,
		"count distinct taxonIDs and scientific names per group",
	)
	taxaCmd.Flags().IntVarP(
		&flags.limit, "limit", "n", 20,
		"number of taxa to show (0 = all)",
	)
	taxaCmd.Flags().BoolVar(
		&flags.speciesOnly, "species-only", false,
		"count only occurrences with taxonRank SPECIES",
	)
	taxaCmd.Flags().BoolVar(
		&flags.imageCounts, "image-counts", false,
		"count images from the multimedia table",
	)
	taxaCmd.Flags().BoolVar(
		&flags.canonical, "canonical", false,
		"group names by their canonical form",
	)
	taxaCmd.Flags().StringVar(
		&flags.format, "format", "table",
		"output format: table or json",
	)

	return taxaCmd
}

func runSummarizeTaxa(
	cmd *cobra.Command,
	archivePath string,
	flags taxaFlags,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	format, err := formatFlag(flags.format)
	if err != nil {
		return err
	}

	cfg.Update([]config.Option{
		config.OptTaxaGroupBy(flags.groupBy),
		config.OptTaxaMismatchedNames(flags.mismatchedNames),
		config.OptTaxaLimit(flags.limit),
		config.OptTaxaSpeciesOnly(flags.speciesOnly),
		config.OptTaxaImageCounts(flags.imageCounts),
		config.OptTaxaCanonical(flags.canonical),
	})

	summarizer := iotaxa.New(cfg, afero.NewOsFs())
	summary, err := summarizer.Summarize(ctx, archivePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, summary)
	}
	printTaxaSummary(out, summary)
	return nil
}

func printTaxaSummary(w io.Writer, sum *dwca.TaxaSummary) {
	fmt.Fprintf(w, "Showing %s of %s taxa grouped by %s\n\n",
		humanize.Comma(int64(len(sum.Results))),
		humanize.Comma(int64(sum.TotalGroups)),
		sum.GroupBy,
	)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "NAME\tOCCURRENCES"
	if sum.MismatchedNames {
		header += "\tTAXON IDS\tSCIENTIFIC NAMES"
	}
	if sum.ImageCounts {
		header += "\tIMAGES"
	}
	fmt.Fprintln(tw, header)

	for _, r := range sum.Results {
		name := r.Name
		if name == "" {
			name = "(empty)"
		}
		fmt.Fprintf(tw, "%s\t%s", name, humanize.Comma(int64(r.OccurrenceCount)))
		if sum.MismatchedNames {
			fmt.Fprintf(tw, "\t%d\t%d", r.TaxonIDCount, r.SciNameCount)
		}
		if sum.ImageCounts {
			fmt.Fprintf(tw, "\t%s", humanize.Comma(int64(r.ImageCount)))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal occurrences: %s\n",
		humanize.Comma(int64(sum.TotalOccurrences)))
}

func printJSON(w io.Writer, v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bs))
	return err
}
