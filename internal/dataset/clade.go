package dataset

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CladeLocation is a diagnostic position and the allele a clade requires there.
type CladeLocation struct {
	Pos    int    `yaml:"pos" json:"pos"` // 0-based reference position
	Allele string `yaml:"allele" json:"allele"`
}

// Clade is a named set of diagnostic locations.
type Clade struct {
	Name      string          `yaml:"name" json:"name"`
	Locations []CladeLocation `yaml:"locations" json:"locations"`
}

type cladeFile struct {
	Clades []Clade `yaml:"clades"`
}

// ParseCladesYAML parses clade definitions from YAML or JSON:
//
//	clades:
//	  - name: 20A
//	    locations:
//	      - {pos: 14407, allele: T}
func ParseCladesYAML(r io.Reader) ([]Clade, error) {
	var f cladeFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode clades: %w", err)
	}
	for i := range f.Clades {
		for j := range f.Clades[i].Locations {
			f.Clades[i].Locations[j].Allele = strings.ToUpper(f.Clades[i].Locations[j].Allele)
		}
	}
	return f.Clades, nil
}

// ParseCladesTSV parses clade definitions from a tab-separated table with
// columns "clade", "gene", "site" and "alt". Sites are 1-based and only
// nucleotide rows (gene "nuc") are supported.
// Clades are returned in order of first appearance.
func ParseCladesTSV(r io.Reader) ([]Clade, error) {
	scanner := bufio.NewScanner(r)

	// Read header to find column indices
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading clades: %w", err)
		}
		return nil, nil
	}
	header := strings.Split(scanner.Text(), "\t")

	cols := map[string]int{"clade": -1, "gene": -1, "site": -1, "alt": -1}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		if _, ok := cols[col]; ok {
			cols[col] = i
		}
	}
	for _, name := range []string{"clade", "gene", "site", "alt"} {
		if cols[name] < 0 {
			return nil, fmt.Errorf("clades table: missing %q column", name)
		}
	}

	byName := make(map[string]int)
	var clades []Clade
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		need := max(cols["clade"], cols["gene"], cols["site"], cols["alt"])
		if len(fields) <= need {
			return nil, fmt.Errorf("clades table line %d: expected at least %d fields, got %d", lineNum, need+1, len(fields))
		}

		name := strings.TrimSpace(fields[cols["clade"]])
		gene := strings.TrimSpace(fields[cols["gene"]])
		if gene != "nuc" {
			return nil, fmt.Errorf("clades table line %d: unsupported gene %q, only nucleotide sites are supported", lineNum, gene)
		}
		site, err := strconv.Atoi(strings.TrimSpace(fields[cols["site"]]))
		if err != nil {
			return nil, fmt.Errorf("clades table line %d: parse site: %w", lineNum, err)
		}
		loc := CladeLocation{
			Pos:    site - 1,
			Allele: strings.ToUpper(strings.TrimSpace(fields[cols["alt"]])),
		}

		idx, ok := byName[name]
		if !ok {
			idx = len(clades)
			byName[name] = idx
			clades = append(clades, Clade{Name: name})
		}
		clades[idx].Locations = append(clades[idx].Locations, loc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading clades: %w", err)
	}

	for i := range clades {
		sort.SliceStable(clades[i].Locations, func(a, b int) bool {
			return clades[i].Locations[a].Pos < clades[i].Locations[b].Pos
		})
	}
	return clades, nil
}
