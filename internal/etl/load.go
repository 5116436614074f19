package etl

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/table"
)

// ErrUnsupportedFormat reports an unknown output format token. It is
// surfaced before anything touches the filesystem; there is no partial
// write.
var ErrUnsupportedFormat = eris.New("unsupported output format")

// Format selects the loader's serialization.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// Load serializes the table to path in the given format, creating the
// destination directory if missing.
func Load(t *table.Table, path string, format Format) error {
	switch format {
	case FormatCSV, FormatJSON, FormatParquet:
	default:
		return eris.Wrapf(ErrUnsupportedFormat, "etl: %q", string(format))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "etl: create directory %s", dir)
		}
	}

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(t, path)
	case FormatJSON:
		err = writeJSON(t, path)
	case FormatParquet:
		err = writeParquet(t, path)
	}
	if err != nil {
		return err
	}

	zap.L().Info("etl: data saved",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", t.Len()),
	)
	return nil
}

// writeCSV emits a header row followed by one row per record, no synthetic
// index column. Null cells render empty.
func writeCSV(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "etl: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrap(err, "etl: write csv header")
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col].Text()
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "etl: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "etl: flush csv")
	}
	return f.Close()
}

// writeJSON emits a pretty-printed array of record objects.
func writeJSON(t *table.Table, path string) error {
	records := make([]map[string]any, 0, t.Len())
	for _, row := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			obj[col] = row[col].JSON()
		}
		records = append(records, obj)
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "etl: marshal json records")
	}
	b = append(b, '\n')

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "etl: write %s", path)
	}
	return nil
}

// parquetRecord is the columnar schema for cleaned rows. Pointer fields
// keep float, boolean, and timestamp nullability intact.
type parquetRecord struct {
	ProductName   string     `parquet:"product_name,optional"`
	CompanyName   string     `parquet:"company_name,optional"`
	Location      string     `parquet:"location,optional"`
	Category      string     `parquet:"category,optional"`
	Price         *float64   `parquet:"price,optional"`
	PriceRaw      string     `parquet:"price_raw,optional"`
	PriceCategory *string    `parquet:"price_category,optional"`
	City          string     `parquet:"city,optional"`
	State         string     `parquet:"state,optional"`
	IsMajorCity   *bool      `parquet:"is_major_city,optional"`
	ProductURL    string     `parquet:"product_url,optional"`
	ImageURL      string     `parquet:"image_url,optional"`
	Timestamp     string     `parquet:"timestamp,optional"`
	ScrapedDate   *time.Time `parquet:"scraped_date,optional"`
	NameLength    *int64     `parquet:"name_length,optional"`
	HasImage      *bool      `parquet:"has_image,optional"`
}

func writeParquet(t *table.Table, path string) error {
	records := make([]parquetRecord, 0, t.Len())
	for _, row := range t.Rows {
		rec := parquetRecord{
			ProductName: text(row, "product_name"),
			CompanyName: text(row, "company_name"),
			Location:    text(row, "location"),
			Category:    text(row, "category"),
			PriceRaw:    text(row, "price_raw"),
			City:        text(row, "city"),
			State:       text(row, "state"),
			ProductURL:  text(row, "product_url"),
			ImageURL:    text(row, "image_url"),
			Timestamp:   text(row, "timestamp"),
		}
		if f, ok := row["price"].Float(); ok {
			rec.Price = &f
		}
		if s, ok := row["price_category"].Str(); ok {
			rec.PriceCategory = &s
		}
		if b, ok := row["is_major_city"].Bool(); ok {
			rec.IsMajorCity = &b
		}
		if ts, ok := row["scraped_date"].Time(); ok {
			rec.ScrapedDate = &ts
		}
		if f, ok := row["name_length"].Float(); ok {
			n := int64(f)
			rec.NameLength = &n
		}
		if b, ok := row["has_image"].Bool(); ok {
			rec.HasImage = &b
		}
		records = append(records, rec)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "etl: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := parquet.NewGenericWriter[parquetRecord](f)
	if _, err := w.Write(records); err != nil {
		return eris.Wrap(err, "etl: write parquet rows")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "etl: close parquet writer")
	}
	return f.Close()
}

func text(r table.Row, col string) string {
	s, _ := r[col].Str()
	return s
}

// Typed-column sets used when reading delimited text back into a table.
var (
	csvFloatColumns = map[string]bool{"price": true, "name_length": true}
	csvBoolColumns  = map[string]bool{"is_major_city": true, "has_image": true}
	csvTimeColumns  = map[string]bool{"scraped_date": true}
)

// ReadCSVFile reads a previously loaded delimited-text dataset back into a
// table, restoring the documented column types. Empty cells become null;
// a typed cell that fails to parse also becomes null.
func ReadCSVFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "etl: read csv %s", path)
	}
	if len(records) == 0 {
		return table.New(), nil
	}

	t := table.New(records[0]...)
	for _, record := range records[1:] {
		row := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(record) {
				break
			}
			row[col] = parseCell(col, record[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseCell(col, s string) table.Value {
	if s == "" {
		return table.Null()
	}
	switch {
	case csvFloatColumns[col]:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return table.Float(f)
		}
		return table.Null()
	case csvBoolColumns[col]:
		switch s {
		case "true", "True":
			return table.Bool(true)
		case "false", "False":
			return table.Bool(false)
		}
		return table.Null()
	case csvTimeColumns[col]:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return table.Time(ts)
			}
		}
		return table.Null()
	default:
		return table.String(s)
	}
}
