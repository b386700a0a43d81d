// Package extract streams Follow the Money (FtM) JSONL from an
// OpenSanctions dump, filters to sanctioned persons, and produces cleaned
// name records and within-entity candidate pairs.
package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// NameRecord is one cleaned name extracted from an entity.
type NameRecord struct {
	Text           string   `json:"text"`
	Scripts        []string `json:"scripts"`
	SourceProperty string   `json:"source_property"` // name, alias, previousName, weakAlias
}

// EntityRecord is a sanctioned entity and its extracted names.
type EntityRecord struct {
	EntityID string       `json:"entity_id"`
	Datasets []string     `json:"datasets"`
	Names    []NameRecord `json:"names"`
}

// Config controls extraction filtering.
type Config struct {
	SchemaFilter      string
	NameProperties    []string
	SanctionsDatasets map[string]bool // nil admits every dataset
	SplitSeparator    string
	MinNameLength     int
}

// DefaultConfig mirrors the corpus-build defaults: Person entities, the
// four name-bearing properties, " / " multi-value splitting.
func DefaultConfig() Config {
	return Config{
		SchemaFilter:   "Person",
		NameProperties: []string{"name", "alias", "previousName", "weakAlias"},
		SplitSeparator: " / ",
		MinNameLength:  2,
	}
}

// ftmEntity is the slice of an FtM line this stage reads.
type ftmEntity struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Datasets   []string            `json:"datasets"`
	Properties map[string][]string `json:"properties"`
}

// StreamEntities reads FtM JSONL and invokes fn for each entity that
// passes the schema and dataset filters and has at least one valid name.
// Stops early when fn returns false or the context is cancelled.
func StreamEntities(ctx context.Context, r io.Reader, cfg Config, fn func(EntityRecord) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24) // FtM lines can be large

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "extract: cancelled")
			}
		}

		var entity ftmEntity
		if err := json.Unmarshal(scanner.Bytes(), &entity); err != nil {
			zap.L().Warn("skipping malformed FtM line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if entity.Schema != cfg.SchemaFilter {
			continue
		}

		datasets := matchDatasets(entity.Datasets, cfg.SanctionsDatasets)
		if len(datasets) == 0 {
			continue
		}

		names := cleanNames(entity.Properties, cfg)
		if len(names) == 0 {
			continue
		}

		if !fn(EntityRecord{EntityID: entity.ID, Datasets: datasets, Names: names}) {
			return nil
		}
	}
	return eris.Wrap(scanner.Err(), "extract: scan")
}

// cleanNames extracts, splits, filters, and deduplicates names from entity
// properties. First occurrence wins on exact-text duplicates.
func cleanNames(props map[string][]string, cfg Config) []NameRecord {
	seen := make(map[string]bool)
	var records []NameRecord

	for _, prop := range cfg.NameProperties {
		for _, raw := range props[prop] {
			parts := []string{raw}
			if cfg.SplitSeparator != "" {
				parts = strings.Split(raw, cfg.SplitSeparator)
			}
			for _, part := range parts {
				text := norm.NFC.String(strings.TrimSpace(part))
				if len([]rune(text)) < cfg.MinNameLength {
					continue
				}
				if !hasAlpha(text) {
					continue
				}
				if seen[text] {
					continue
				}
				seen[text] = true
				records = append(records, NameRecord{
					Text:           text,
					Scripts:        DetectScripts(text),
					SourceProperty: prop,
				})
			}
		}
	}
	return records
}

func hasAlpha(s string) bool {
	for _, r := range s {
		if classifyRune(r) != "" {
			return true
		}
	}
	return false
}

func matchDatasets(entityDatasets []string, target map[string]bool) []string {
	if target == nil {
		out := append([]string(nil), entityDatasets...)
		sort.Strings(out)
		return out
	}
	var out []string
	for _, ds := range entityDatasets {
		if target[ds] {
			out = append(out, ds)
		}
	}
	sort.Strings(out)
	return out
}
