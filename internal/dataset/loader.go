package dataset

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-clade/internal/fasta"
)

// Paths locates the dataset input files. Only Reference is required.
type Paths struct {
	Reference string
	GeneMap   string
	Clades    string
	Primers   string
}

// Load reads all dataset files concurrently and validates them with New.
//
// File formats are chosen by extension (a trailing .gz is ignored):
// gene maps are YAML/JSON (.yaml, .yml, .json) or GFF3/GTF (anything else),
// clades are YAML/JSON or TSV (.tsv), and primers are YAML/JSON or CSV (.csv).
// Primers that cannot be located on the reference are logged and skipped.
func Load(ctx context.Context, fs afero.Fs, paths Paths, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if paths.Reference == "" {
		return nil, configErrorf("no reference sequence file given")
	}

	var (
		refName, ref string
		genes        []Gene
		clades       []Clade
		primers      []PcrPrimer
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refName, ref, err = LoadReference(fs, paths.Reference)
		return err
	})
	if paths.GeneMap != "" {
		g.Go(func() error {
			var err error
			genes, err = loadGeneMap(ctx, fs, paths.GeneMap)
			return err
		})
	}
	if paths.Clades != "" {
		g.Go(func() error {
			var err error
			clades, err = loadClades(ctx, fs, paths.Clades)
			return err
		})
	}
	if paths.Primers != "" {
		g.Go(func() error {
			var err error
			primers, err = loadPrimers(ctx, fs, paths.Primers)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	located, missing := LocatePrimers(strings.ToUpper(ref), primers)
	for _, err := range missing {
		logger.Warn("skipping primer", zap.Error(err))
	}

	d, err := New(ref, genes, clades, located)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded dataset",
		zap.String("reference", refName),
		zap.Int("reference_length", len(d.Reference())),
		zap.Int("genes", len(d.Genes())),
		zap.Int("clades", len(d.Clades())),
		zap.Int("primers", len(d.Primers())))

	return d, nil
}

func loadGeneMap(ctx context.Context, fs afero.Fs, path string) ([]Gene, error) {
	var genes []Gene
	err := withFile(ctx, fs, path, func(r io.Reader) error {
		var err error
		if isYAMLPath(path) {
			genes, err = ParseGeneMapYAML(r)
		} else {
			genes, err = ParseGeneMapGFF(r)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load gene map %s: %w", path, err)
	}
	return genes, nil
}

func loadClades(ctx context.Context, fs afero.Fs, path string) ([]Clade, error) {
	var clades []Clade
	err := withFile(ctx, fs, path, func(r io.Reader) error {
		var err error
		if fileExt(path) == ".tsv" {
			clades, err = ParseCladesTSV(r)
		} else {
			clades, err = ParseCladesYAML(r)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load clades %s: %w", path, err)
	}
	return clades, nil
}

func loadPrimers(ctx context.Context, fs afero.Fs, path string) ([]PcrPrimer, error) {
	var primers []PcrPrimer
	err := withFile(ctx, fs, path, func(r io.Reader) error {
		var err error
		if fileExt(path) == ".csv" {
			primers, err = ParsePrimersCSV(r)
		} else {
			primers, err = ParsePrimersYAML(r)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load primers %s: %w", path, err)
	}
	return primers, nil
}

// withFile opens path (decompressing gzip if needed) and passes it to parse.
func withFile(ctx context.Context, fs afero.Fs, path string, parse func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rc, err := fasta.Open(fs, path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return parse(rc)
}

// fileExt returns the lower-case extension of path, ignoring a trailing .gz.
func fileExt(path string) string {
	path = strings.TrimSuffix(strings.ToLower(path), ".gz")
	return filepath.Ext(path)
}

func isYAMLPath(path string) bool {
	switch fileExt(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
