// Package etl cleans, normalizes, deduplicates, and validates raw scraped
// marketplace records, turning them into an analyzable table.
package etl

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/table"
)

// ErrInputFormat reports input that is not a mapping of category name to a
// list of flat records. It is fatal; the pipeline does not run on it.
var ErrInputFormat = eris.New("input is not a mapping of category to record lists")

// RawCategory is one category's worth of raw records, in scrape order.
type RawCategory struct {
	Name    string
	Records []map[string]any
}

// RawSet is the scraper's output: categories in insertion order, each with
// its raw records. The order is preserved through extraction.
type RawSet struct {
	Categories []RawCategory
}

// MarshalJSON renders the set as a JSON object with categories in slice
// order.
func (s *RawSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range s.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		records := cat.Records
		if records == nil {
			records = []map[string]any{}
		}
		val, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ReadRawFile reads a scraped-data JSON file fully into memory. The JSON
// object's document order becomes the category order.
func ReadRawFile(path string) (*RawSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: open raw input %s", path)
	}
	defer f.Close() //nolint:errcheck

	set, err := decodeRawSet(f)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: decode raw input %s", path)
	}
	return set, nil
}

// decodeRawSet decodes a category→records object token-wise so the
// document's key order survives (a plain map decode would scramble it).
func decodeRawSet(r io.Reader) (*RawSet, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, eris.Wrap(ErrInputFormat, "not valid JSON")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, eris.Wrap(ErrInputFormat, "top-level value is not an object")
	}

	var set RawSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(ErrInputFormat, "bad object key")
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, eris.Wrap(ErrInputFormat, "bad object key")
		}

		var records []map[string]any
		if err := dec.Decode(&records); err != nil {
			return nil, eris.Wrapf(ErrInputFormat, "category %q is not a list of records", name)
		}
		set.Categories = append(set.Categories, RawCategory{Name: name, Records: records})
	}

	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(ErrInputFormat, "unterminated object")
	}
	return &set, nil
}

// WriteRawFile writes the set as pretty-printed JSON, creating the parent
// directory if needed.
func WriteRawFile(set *RawSet, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "etl: create directory %s", dir)
		}
	}

	b, err := json.Marshal(set)
	if err != nil {
		return eris.Wrap(err, "etl: marshal raw set")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return eris.Wrap(err, "etl: indent raw set")
	}
	out.WriteByte('\n')

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "etl: write raw set %s", path)
	}
	return nil
}

// canonicalColumns is the preferred column order for raw fields; anything
// outside it sorts alphabetically after.
var canonicalColumns = []string{
	"product_name",
	"price",
	"price_raw",
	"company_name",
	"location",
	"product_url",
	"image_url",
	"category",
	"timestamp",
}

// Extract flattens the per-category mapping into a single table, stamping
// each row with its source category. Row order is category order, then
// within-category scrape order.
func Extract(set *RawSet) *table.Table {
	seen := map[string]bool{"category": true}
	var extra []string

	t := table.New()
	for _, cat := range set.Categories {
		for _, rec := range cat.Records {
			row := make(table.Row, len(rec)+1)
			for k, v := range rec {
				row[k] = table.FromAny(v)
				if !seen[k] {
					seen[k] = true
					extra = append(extra, k)
				}
			}
			row["category"] = table.String(cat.Name)
			t.Rows = append(t.Rows, row)
		}
	}

	for _, col := range canonicalColumns {
		if seen[col] || col == "category" {
			t.EnsureColumn(col)
		}
	}
	sort.Strings(extra)
	for _, col := range extra {
		t.EnsureColumn(col)
	}

	zap.L().Info("etl: extracted records",
		zap.Int("rows", t.Len()),
		zap.Int("categories", len(set.Categories)),
	)
	return t
}

// ExtractFile reads a raw JSON file and extracts it in one step.
func ExtractFile(path string) (*table.Table, error) {
	set, err := ReadRawFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(set), nil
}

// ExtractMap extracts an in-memory mapping. Go maps carry no insertion
// order, so categories are taken in sorted-name order for determinism.
func ExtractMap(data map[string][]map[string]any) *table.Table {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	set := &RawSet{}
	for _, name := range names {
		set.Categories = append(set.Categories, RawCategory{Name: name, Records: data[name]})
	}
	return Extract(set)
}
