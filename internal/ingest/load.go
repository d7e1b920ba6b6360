package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/model"
)

// Format identifies an upload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks a Format from a file name's extension.
func FormatFor(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("ingest: unsupported file type %q", filepath.Ext(name))
	}
}

// Parse decodes an in-memory upload in the given format.
func Parse(data []byte, format Format) (model.Dataset, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(string(data)), nil
	case FormatTSV:
		return ParseCSVWith(string(data), CSVOptions{Delimiter: '\t'}), nil
	case FormatXLSX:
		return ParseXLSX(data, XLSXOptions{})
	default:
		return model.Dataset{}, eris.Errorf("ingest: unsupported format %q", format)
	}
}

// LoadFile reads path and parses it according to its extension.
func LoadFile(path string) (model.Dataset, error) {
	format, err := FormatFor(path)
	if err != nil {
		return model.Dataset{}, err
	}

	var ds model.Dataset
	if format == FormatXLSX {
		ds, err = ReadXLSX(path, XLSXOptions{})
	} else {
		var data []byte
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return model.Dataset{}, eris.Wrapf(err, "ingest: read %s", path)
		}
		ds, err = Parse(data, format)
	}
	if err != nil {
		return model.Dataset{}, err
	}

	zap.L().Debug("ingest: loaded file",
		zap.String("path", path),
		zap.Int("rows", ds.Len()),
		zap.String("kind", string(Sniff(ds))),
	)
	return ds, nil
}
