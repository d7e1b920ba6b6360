// Package ingest turns uploaded review exports into datasets and classifies them.
package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/model"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter rune // default ','
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseCSV parses comma-separated text into a Dataset. Input with fewer than
// two non-blank rows yields an empty Dataset, not an error.
func ParseCSV(text string) model.Dataset {
	return ParseCSVWith(text, CSVOptions{})
}

// ParseCSVWith parses delimited text using opts.
//
// Quoting is lenient: every double quote toggles quoted mode and "" inside
// quotes is a literal quote, so a stray quote never swallows the rest of the
// file. Inside quotes the delimiter and newlines are literal. An unterminated
// quote runs to end of input and that text becomes the last field.
func ParseCSVWith(text string, opts CSVOptions) model.Dataset {
	text = strings.TrimPrefix(text, "\ufeff")
	text = lineEndings.Replace(text)

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)
	endField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	endRecord := func() {
		endField()
		records = append(records, record)
		record = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch ch := runes[i]; {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == delim && !inQuotes:
			endField()
		case ch == '\n' && !inQuotes:
			endRecord()
		default:
			field.WriteRune(ch)
		}
	}
	if inQuotes {
		zap.L().Debug("ingest: unterminated quote at end of input", zap.Int("records", len(records)))
	}
	if field.Len() > 0 || len(record) > 0 {
		endRecord()
	}

	return buildDataset(records)
}

// ParseCSVReader reads all of r and parses it with opts.
func ParseCSVReader(r io.Reader, opts CSVOptions) (model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, eris.Wrap(err, "ingest: read csv")
	}
	return ParseCSVWith(string(data), opts), nil
}

// buildDataset maps raw records to rows keyed by the first non-blank record.
// Values are trimmed, blank records dropped, short rows padded with "".
func buildDataset(records [][]string) model.Dataset {
	kept := make([][]string, 0, len(records))
	for _, rec := range records {
		trimmed := make([]string, len(rec))
		blank := true
		for i, v := range rec {
			trimmed[i] = strings.TrimSpace(v)
			if trimmed[i] != "" {
				blank = false
			}
		}
		if !blank {
			kept = append(kept, trimmed)
		}
	}

	if len(kept) < 2 {
		return model.Dataset{}
	}

	header := kept[0]
	rows := make([]model.Row, 0, len(kept)-1)
	for _, rec := range kept[1:] {
		row := make(model.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return model.Dataset{Columns: header, Rows: rows}
}

// WriteCSV serializes ds with its header so that ParseCSV reproduces the rows.
// encoding/csv quotes every field that needs it, which the parser reads back.
func WriteCSV(w io.Writer, ds model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return eris.Wrap(err, "ingest: write csv header")
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = row.Get(col)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "ingest: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "ingest: flush csv")
	}
	return nil
}

// EncodeCSV returns ds as CSV text.
func EncodeCSV(ds model.Dataset) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		return "", err
	}
	return buf.String(), nil
}
