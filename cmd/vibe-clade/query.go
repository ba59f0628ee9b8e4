package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/inodb/vibe-clade/internal/duckdb"
	"github.com/inodb/vibe-clade/internal/fasta"
	"github.com/inodb/vibe-clade/internal/output"
)

type queryOptions struct {
	db           string
	clade        string
	substitution string
	seqName      string
	match        string
	runs         bool
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search results stored with run --db",
		Long: `Search analysis results stored in a DuckDB database. Matching results are
written to stdout as TSV, oldest run first.`,
		Example: `  vibe-clade query --db results.duckdb --clade 20A
  vibe-clade query --db results.duckdb --substitution C241T
  vibe-clade query --db results.duckdb --seq "sample/1"
  vibe-clade query --db results.duckdb --match new.fasta
  vibe-clade query --db results.duckdb --runs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(afero.NewOsFs(), opts, os.Stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db, "db", "", "DuckDB database (required)")
	f.StringVar(&opts.clade, "clade", "", "Results assigned to a clade")
	f.StringVar(&opts.substitution, "substitution", "", "Results carrying a substitution, e.g. C241T")
	f.StringVar(&opts.seqName, "seq", "", "Results for a sequence name")
	f.StringVar(&opts.match, "match", "", "Results for the sequences of a FASTA file, matched by content")
	f.BoolVar(&opts.runs, "runs", false, "List stored runs")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("clade", "substitution", "seq", "match", "runs")
	cmd.MarkFlagsOneRequired("clade", "substitution", "seq", "match", "runs")

	return cmd
}

func runQuery(fs afero.Fs, opts queryOptions, w io.Writer) error {
	if _, err := fs.Stat(opts.db); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	store, err := duckdb.Open(opts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.runs {
		return writeRuns(store, w)
	}

	var found []duckdb.StoredResult
	switch {
	case opts.clade != "":
		found, err = store.SearchByClade(opts.clade)
	case opts.substitution != "":
		found, err = store.SearchBySubstitution(opts.substitution)
	case opts.seqName != "":
		found, err = store.SearchBySeqName(opts.seqName)
	case opts.match != "":
		found, err = matchSequences(fs, store, opts.match)
	}
	if err != nil {
		return err
	}

	tw := output.NewTabWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range found {
		if err := tw.Write(r.Result); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func matchSequences(fs afero.Fs, store *duckdb.Store, path string) ([]duckdb.StoredResult, error) {
	records, _, err := fasta.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var found []duckdb.StoredResult
	for _, rec := range records {
		hits, err := store.LookupSequence(rec.Sequence)
		if err != nil {
			return nil, err
		}
		found = append(found, hits...)
	}
	return found, nil
}

func writeRuns(store *duckdb.Store, w io.Writer) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tINPUT\tREFERENCE\tSEQUENCES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Input, r.Reference.Path, r.Sequences)
	}
	return tw.Flush()
}
