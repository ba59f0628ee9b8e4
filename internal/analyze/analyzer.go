package analyze

import (
	"context"
	"errors"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-clade/internal/align"
	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/fasta"
	"github.com/inodb/vibe-clade/internal/qc"
)

// Options configures an Analyzer.
type Options struct {
	Align align.Options
	QC    qc.Config
}

// DefaultOptions returns the default alignment and QC settings.
func DefaultOptions() Options {
	return Options{
		Align: align.DefaultOptions(),
		QC:    qc.DefaultConfig(),
	}
}

// Analyzer runs the full per-sequence analysis against one dataset.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	ds      *dataset.Dataset
	aligner *align.Aligner
	caller  *MutationCaller
	qc      qc.Config
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer for a validated dataset.
func NewAnalyzer(ds *dataset.Dataset, opts Options) *Analyzer {
	return &Analyzer{
		ds:      ds,
		aligner: align.NewAligner(ds.Reference(), opts.Align),
		caller:  NewMutationCaller(ds),
		qc:      opts.QC,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and debug messages.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Dataset returns the dataset the analyzer runs against.
func (a *Analyzer) Dataset() *dataset.Dataset {
	return a.ds
}

// AnalyzeSequence analyzes one sequence with default options.
func AnalyzeSequence(raw fasta.Record, ds *dataset.Dataset) (*AnalysisResult, error) {
	return NewAnalyzer(ds, DefaultOptions()).AnalyzeSequence(raw)
}

// AnalyzeSequence aligns one sequence, calls its mutations and matches it
// against the clades. On failure it returns an *AnalysisError naming the
// stage that failed and no result.
func (a *Analyzer) AnalyzeSequence(raw fasta.Record) (*AnalysisResult, error) {
	stage := StageIdle
	fail := func(err error) error {
		a.logger.Debug("sequence failed",
			zap.String("seq", raw.Name),
			zap.Stringer("stage", stage),
			zap.Error(err))
		return &AnalysisError{Index: raw.Index, SeqName: raw.Name, Stage: stage, Err: err}
	}

	stage = StageAligning
	aln, err := a.aligner.Align(raw.Sequence)
	if err != nil {
		return nil, fail(err)
	}
	if len(aln.Aligned) != len(a.ds.Reference()) {
		return nil, fail(invariantf("aligned sequence has length %d, reference has length %d", len(aln.Aligned), len(a.ds.Reference())))
	}

	stage = StageCalling
	calls, err := a.caller.Call(aln)
	if err != nil {
		return nil, fail(err)
	}

	stage = StageMatching
	primerChanges := FindPrimerChanges(calls, a.ds.Primers())
	clades := MatchClades(calls, a.ds.Reference(), a.ds.Clades())

	res := newResult(raw, aln, calls)
	res.PcrPrimerChanges = orEmpty(primerChanges)
	res.Clades = clades

	subPositions := make([]int, len(calls.Substitutions))
	for i, s := range calls.Substitutions {
		subPositions[i] = s.Pos
	}
	uncovered := aln.AlnStart + len(a.ds.Reference()) - aln.AlnEnd
	res.QC = qc.Run(a.qc, qc.Input{
		TotalMissing:          res.TotalMissing + uncovered,
		TotalMixedSites:       res.TotalNonACGTNs,
		SubstitutionPositions: subPositions,
	})

	stage = StageDone
	a.logger.Debug("sequence analyzed",
		zap.String("seq", raw.Name),
		zap.Stringer("stage", stage),
		zap.Int("substitutions", res.TotalSubstitutions),
		zap.Int("clades", len(res.Clades)))
	return res, nil
}

func newResult(raw fasta.Record, aln *align.Result, calls *Calls) *AnalysisResult {
	res := &AnalysisResult{
		Index:          raw.Index,
		SeqName:        raw.Name,
		AlignmentStart: aln.AlnStart,
		AlignmentEnd:   aln.AlnEnd,
		AlignmentScore: aln.Score,

		Substitutions:         orEmpty(calls.Substitutions),
		Deletions:             orEmpty(calls.Deletions),
		Insertions:            orEmpty(calls.Insertions),
		AaSubstitutions:       orEmpty(calls.AaSubstitutions),
		AaDeletions:           orEmpty(calls.AaDeletions),
		Missing:               orEmpty(calls.Missing),
		NonACGTNs:             orEmpty(calls.NonACGTNs),
		NucleotideComposition: calls.Composition,

		TotalSubstitutions:    len(calls.Substitutions),
		TotalMissing:          calls.TotalMissing(),
		TotalNonACGTNs:        calls.TotalNonACGTNs(),
		TotalAminoacidChanges: len(calls.AaSubstitutions) + len(calls.AaDeletions),

		Aligned: aln.Aligned,
	}
	for _, d := range calls.Deletions {
		res.TotalDeletions += d.Length
	}
	for _, ins := range calls.Insertions {
		res.TotalInsertions += len(ins.Seq)
	}
	return res
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Batch is the outcome of analyzing many sequences, in input order.
type Batch struct {
	Results  []*AnalysisResult
	Failures []*AnalysisError
}

// AnalyzeAll analyzes records with a pool of workers and collects the outcome
// in input order. A failing sequence never affects the others; it is returned
// in Failures. An *InvariantError or cancellation of ctx aborts the batch.
// If workers is 0, runtime.NumCPU() is used.
func (a *Analyzer) AnalyzeAll(ctx context.Context, records []fasta.Record, workers int) (*Batch, error) {
	batch := &Batch{}
	err := a.Run(ctx, records, workers, func(r WorkResult) error {
		if r.Err != nil {
			var ae *AnalysisError
			if !errors.As(r.Err, &ae) {
				ae = &AnalysisError{Index: r.Record.Index, SeqName: r.Record.Name, Stage: StageFailed, Err: r.Err}
			}
			batch.Failures = append(batch.Failures, ae)
			return nil
		}
		batch.Results = append(batch.Results, r.Result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// Run analyzes records in parallel and calls fn for each outcome in input order.
// Per-sequence failures are logged and passed to fn with Err set. Run stops at
// the first error returned by fn, at the first *InvariantError, or when ctx is
// cancelled; sequences not yet started are then abandoned.
func (a *Analyzer) Run(ctx context.Context, records []fasta.Record, workers int, fn func(WorkResult) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 2*workers)
	go func() {
		defer close(items)
		for i, rec := range records {
			select {
			case <-ctx.Done():
				return
			case items <- WorkItem{Seq: i, Record: rec}:
			}
		}
	}()

	results := a.ParallelAnalyze(ctx, items, workers)

	failed := 0
	if err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			var inv *InvariantError
			if errors.As(r.Err, &inv) {
				cancel()
				return r.Err
			}
			failed++
			a.logger.Warn("failed to analyze sequence",
				zap.String("seq", r.Record.Name),
				zap.Int("index", r.Record.Index),
				zap.Error(r.Err))
		}
		if err := fn(r); err != nil {
			cancel()
			return err
		}
		return nil
	}); err != nil {
		return err
	}

	if failed > 0 {
		a.logger.Info("some sequences failed",
			zap.Int("failed", failed),
			zap.Int("total", len(records)))
	}
	return ctx.Err()
}
