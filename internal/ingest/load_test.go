package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("reviews.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = FormatFor("/tmp/x.tsv")
	require.NoError(t, err)
	assert.Equal(t, FormatTSV, f)

	f, err = FormatFor("book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = FormatFor("notes.pdf")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "r.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Region,Review Rating\nWest,4\n"), 0o600))
	ds, err := LoadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	tsvPath := filepath.Join(dir, "r.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte("Region\tReview Rating\nWest\t4\n"), 0o600))
	ds, err = LoadFile(tsvPath)
	require.NoError(t, err)
	assert.Equal(t, "4", ds.Rows[0].Get("Review Rating"))

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "r.json"))
	assert.Error(t, err)
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("a"), Format("json"))
	assert.Error(t, err)
}
