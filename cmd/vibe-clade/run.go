package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-clade/internal/analyze"
	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/duckdb"
	"github.com/inodb/vibe-clade/internal/fasta"
	"github.com/inodb/vibe-clade/internal/output"
)

// dbBatchSize is the number of results buffered before writing to DuckDB.
const dbBatchSize = 1000

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] <input.fasta|->",
		Short: "Analyze sequences against a reference dataset",
		Long: `Align every sequence of a FASTA file to the reference, call mutations,
match clades and run quality control. Input may be gzip-compressed; use '-'
to read from stdin. Without any --output-* flag a TSV table is written to stdout.`,
		Example: `  vibe-clade run --reference ref.fasta --genemap genes.gff3 --clades clades.tsv seqs.fasta
  vibe-clade run -r ref.fasta --output-json out.json --output-fasta aligned.fasta seqs.fasta.gz
  cat seqs.fasta | vibe-clade run -r ref.fasta --db results.duckdb -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), afero.NewOsFs(), args[0])
		},
	}

	f := cmd.Flags()
	f.StringP("reference", "r", "", "Reference sequence FASTA (required)")
	f.StringP("genemap", "m", "", "Gene map (GFF3, or YAML/JSON)")
	f.StringP("clades", "c", "", "Clade definitions (TSV, or YAML/JSON)")
	f.StringP("primers", "p", "", "PCR primers (CSV, or YAML/JSON)")
	f.String("output-tsv", "", "Write results as TSV ('-' for stdout)")
	f.String("output-json", "", "Write results as JSON ('-' for stdout)")
	f.String("output-fasta", "", "Write aligned sequences as FASTA ('-' for stdout)")
	f.IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	f.String("db", "", "Store results in a DuckDB database")
	f.Bool("include-unmatched", true, "Write results of sequences that match no clade")

	bind := map[string]string{
		"dataset.reference": "reference",
		"dataset.genemap":   "genemap",
		"dataset.clades":    "clades",
		"dataset.primers":   "primers",
		"output.tsv":        "output-tsv",
		"output.json":       "output-json",
		"output.fasta":      "output-fasta",
		"jobs":              "jobs",
		"db":                "db",
		"include-unmatched": "include-unmatched",
	}
	for key, flag := range bind {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	return cmd
}

// runSettings collects everything runAnalysis reads from viper.
type runSettings struct {
	paths            dataset.Paths
	tsv, json, fasta string
	jobs             int
	db               string
	includeUnmatched bool
	opts             analyze.Options
}

func loadRunSettings() (runSettings, error) {
	s := runSettings{
		paths: dataset.Paths{
			Reference: viper.GetString("dataset.reference"),
			GeneMap:   viper.GetString("dataset.genemap"),
			Clades:    viper.GetString("dataset.clades"),
			Primers:   viper.GetString("dataset.primers"),
		},
		tsv:              viper.GetString("output.tsv"),
		json:             viper.GetString("output.json"),
		fasta:            viper.GetString("output.fasta"),
		jobs:             viper.GetInt("jobs"),
		db:               viper.GetString("db"),
		includeUnmatched: viper.GetBool("include-unmatched"),
		opts:             analyze.DefaultOptions(),
	}
	if s.paths.Reference == "" {
		return s, &usageError{msg: "--reference is required"}
	}
	if s.tsv == "" && s.json == "" && s.fasta == "" {
		s.tsv = "-"
	}
	if err := viper.UnmarshalKey("qc", &s.opts.QC); err != nil {
		return s, fmt.Errorf("parse qc config: %w", err)
	}
	if err := viper.UnmarshalKey("align", &s.opts.Align); err != nil {
		return s, fmt.Errorf("parse align config: %w", err)
	}
	return s, nil
}

func runAnalysis(ctx context.Context, fs afero.Fs, inputPath string) (err error) {
	settings, err := loadRunSettings()
	if err != nil {
		return err
	}

	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ds, err := dataset.Load(ctx, fs, settings.paths, logger)
	if err != nil {
		return err
	}

	records, parseErrs, err := fasta.ReadFile(fs, inputPath)
	if err != nil {
		return err
	}
	for _, pe := range parseErrs {
		logger.Warn("skipping malformed fasta record",
			zap.String("file", inputPath),
			zap.Int("line", pe.Line),
			zap.String("reason", pe.Message))
	}
	logger.Info("read sequences", zap.String("file", inputPath), zap.Int("count", len(records)))

	out, err := openSinks(fs, settings)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if settings.db != "" {
		if err := out.openStore(fs, settings.db, inputPath, settings.paths.Reference); err != nil {
			return err
		}
	}

	a := analyze.NewAnalyzer(ds, settings.opts)
	a.SetLogger(logger)

	start := time.Now()
	var analyzed, failed, unmatched int
	err = a.Run(ctx, records, settings.jobs, func(r analyze.WorkResult) error {
		if r.Err != nil {
			failed++
			var ae *analyze.AnalysisError
			if !errors.As(r.Err, &ae) {
				ae = &analyze.AnalysisError{Index: r.Record.Index, SeqName: r.Record.Name, Stage: analyze.StageFailed, Err: r.Err}
			}
			return out.writeError(ae)
		}
		analyzed++
		if len(r.Result.Clades) == 0 {
			unmatched++
			if !settings.includeUnmatched {
				return nil
			}
		}
		return out.write(r.Record, r.Result)
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", inputPath, err)
	}

	logger.Info("analysis complete",
		zap.Int("analyzed", analyzed),
		zap.Int("failed", failed),
		zap.Int("unmatched", unmatched),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// sinks fans results out to every requested output.
type sinks struct {
	fs      afero.Fs
	tsv     *output.TabWriter
	json    *output.JSONWriter
	aligned *output.AlignedWriter
	files   []io.Closer

	store   *duckdb.Store
	runID   uuid.UUID
	pending []duckdb.Entry
}

func openSinks(fs afero.Fs, s runSettings) (*sinks, error) {
	out := &sinks{fs: fs}
	if s.tsv != "" {
		w, err := out.create(s.tsv)
		if err != nil {
			return nil, err
		}
		out.tsv = output.NewTabWriter(w)
		if err := out.tsv.WriteHeader(); err != nil {
			out.Close()
			return nil, fmt.Errorf("write tsv header: %w", err)
		}
	}
	if s.json != "" {
		w, err := out.create(s.json)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.json = output.NewJSONWriter(w)
	}
	if s.fasta != "" {
		w, err := out.create(s.fasta)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.aligned = output.NewAlignedWriter(w)
	}
	return out, nil
}

func (s *sinks) create(path string) (io.Writer, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := s.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	s.files = append(s.files, f)
	return f, nil
}

func (s *sinks) openStore(fs afero.Fs, dbPath, inputPath, referencePath string) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	ref, err := duckdb.StatFile(fs, referencePath)
	if err != nil {
		store.Close()
		return fmt.Errorf("stat reference: %w", err)
	}
	id, err := store.BeginRun(duckdb.RunInfo{Input: inputPath, Reference: ref})
	if err != nil {
		store.Close()
		return err
	}
	s.store = store
	s.runID = id
	return nil
}

func (s *sinks) write(rec fasta.Record, r *analyze.AnalysisResult) error {
	if s.tsv != nil {
		if err := s.tsv.Write(r); err != nil {
			return fmt.Errorf("write tsv: %w", err)
		}
	}
	if s.json != nil {
		if err := s.json.Write(r); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if s.aligned != nil {
		if err := s.aligned.Write(r); err != nil {
			return fmt.Errorf("write aligned fasta: %w", err)
		}
	}
	if s.store != nil {
		s.pending = append(s.pending, duckdb.Entry{Sequence: rec.Sequence, Result: r})
		if len(s.pending) >= dbBatchSize {
			return s.flushStore()
		}
	}
	return nil
}

func (s *sinks) writeError(e *analyze.AnalysisError) error {
	if s.tsv != nil {
		if err := s.tsv.WriteError(e); err != nil {
			return fmt.Errorf("write tsv: %w", err)
		}
	}
	if s.json != nil {
		if err := s.json.WriteError(e); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	return nil
}

func (s *sinks) flushStore() error {
	if err := s.store.WriteResults(s.runID, s.pending); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Close flushes and closes every output.
func (s *sinks) Close() error {
	var err error
	if s.tsv != nil {
		err = multierr.Append(err, s.tsv.Flush())
	}
	if s.json != nil {
		err = multierr.Append(err, s.json.Close())
	}
	if s.aligned != nil {
		err = multierr.Append(err, s.aligned.Flush())
	}
	if s.store != nil {
		if len(s.pending) > 0 {
			err = multierr.Append(err, s.flushStore())
		}
		err = multierr.Append(err, s.store.Close())
	}
	for _, f := range s.files {
		err = multierr.Append(err, f.Close())
	}
	return err
}
