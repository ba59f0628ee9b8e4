package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// gffFeature represents a parsed GFF/GTF line.
type gffFeature struct {
	seqname     string
	featureType string
	start       int // 1-based, inclusive
	end         int // 1-based, inclusive
	strand      string
	attributes  map[string]string
}

// ParseGeneMapGFF parses a gene map from GFF3 or GTF content.
// Only "gene" features are used; the gene name is taken from the gene_name,
// Name or gene attribute, in that order. Coordinates are converted from 1-based
// inclusive to 0-based half-open. Genes are returned in file order.
func ParseGeneMapGFF(reader io.Reader) ([]Gene, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var genes []Gene
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		feat, err := parseGFFLine(line)
		if err != nil {
			return nil, fmt.Errorf("gene map line %d: %w", lineNum, err)
		}
		if feat.featureType != "gene" {
			continue
		}

		name := feat.attributes["gene_name"]
		if name == "" {
			name = feat.attributes["Name"]
		}
		if name == "" {
			name = feat.attributes["gene"]
		}

		genes = append(genes, Gene{
			Name:   name,
			Start:  feat.start - 1,
			End:    feat.end,
			Strand: parseStrand(feat.strand),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gene map: %w", err)
	}

	return genes, nil
}

// parseGFFLine parses a single GFF/GTF line.
func parseGFFLine(line string) (*gffFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GFF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &gffFeature{
		seqname:     fields[0],
		featureType: strings.TrimSpace(fields[2]),
		start:       start,
		end:         end,
		strand:      strings.TrimSpace(fields[6]),
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses the attribute column.
// Accepts both GFF3 (key=value;key=value) and GTF (key "value"; key "value") styles.
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var key, value string
		if idx := strings.IndexAny(part, "= "); idx != -1 {
			key = part[:idx]
			value = strings.TrimSpace(part[idx+1:])
		} else {
			continue
		}

		// Remove quotes
		attrs[key] = strings.Trim(value, "\"")
	}

	return attrs
}

// parseStrand converts a GFF strand column to a Strand.
// Unstranded features ('.') are treated as forward.
func parseStrand(s string) Strand {
	if s == "-" {
		return StrandReverse
	}
	return StrandForward
}

type geneMapFile struct {
	Genes []Gene `yaml:"genes"`
}

// ParseGeneMapYAML parses a gene map from YAML or JSON with 0-based half-open
// coordinates:
//
//	genes:
//	  - {name: S, start: 21562, end: 25384, strand: "+"}
func ParseGeneMapYAML(r io.Reader) ([]Gene, error) {
	var f geneMapFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode gene map: %w", err)
	}
	for i := range f.Genes {
		if f.Genes[i].Strand == "" {
			f.Genes[i].Strand = StrandForward
		}
	}
	return f.Genes, nil
}
