package results

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastfinder/internal/domain"
)

func exportStore() *Store {
	s := NewStore()
	s.AppendBatch([]domain.Record{
		rec("/b/file.txt", "", 10, `say "hi", then leave`),
		rec("/a/archive.zip", "inner/doc.txt", 2, "plain"),
		rec(`\\?\C:\long\path.txt`, "", 0, "tab\tinside"),
		rec("/hidden", "", 1, "not visible"),
	})
	return s
}

func TestCSVRoundTrip(t *testing.T) {
	s := exportStore()
	s.SetFilter("i")
	s.SetSort(domain.SortPath, false)
	snap := s.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, snap, FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, snap.Len()+1)
	assert.Equal(t, CSVHeader, rows[0])

	for i, row := range rows[1:] {
		r := snap.At(i)
		assert.Equal(t, r.Location, row[0])
		assert.Equal(t, r.Entry, row[1])
		assert.Equal(t, strconv.Itoa(r.Line), row[2])
		assert.Equal(t, r.Snippet, row[3])
	}
}

func TestCSVQuotesDelimitersAndQuotes(t *testing.T) {
	s := NewStore()
	s.AppendBatch([]domain.Record{rec("/a,b", "", 1, `x "y"`)})

	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, s.Snapshot(), FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"/a,b",,1,"x ""y"""`, lines[1])
}

func TestTSVRoundTrip(t *testing.T) {
	s := exportStore()
	s.AppendBatch([]domain.Record{rec("/a.txt", "", 1, "say \"hi\"\tthere")})
	snap := s.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, snap, FormatTSV))
	assert.NotContains(t, buf.String(), "Path\tEntry")

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, snap.Len())
	for i, row := range rows {
		want := snap.At(i)
		assert.Equal(t, []string{want.Location, want.Entry, strconv.Itoa(want.Line), want.Snippet}, row)
	}
	assert.Equal(t, `\\?\C:\long\path.txt`, rows[2][0])
	assert.Equal(t, "say \"hi\"\tthere", rows[4][3])
}

func TestTSVQuotesOnlyWhenNeeded(t *testing.T) {
	s := NewStore()
	s.AppendBatch([]domain.Record{
		rec("/plain.txt", "", 3, "nothing special"),
		rec("/q.txt", "", 1, "say \"hi\"\tthere"),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, s.Snapshot(), FormatTSV))
	assert.Equal(t, "/plain.txt\t\t3\tnothing special\n"+
		"/q.txt\t\t1\t\"say \"\"hi\"\"\tthere\"\n", buf.String())
}

func TestExportFile(t *testing.T) {
	s := exportStore()
	dir := t.TempDir()

	path := filepath.Join(dir, "out", "results.tsv")
	n, err := ExportFile(path, s.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), utf8BOM))
	assert.NotContains(t, string(data), "Path,Entry")

	csvPath := filepath.Join(dir, "results.CSV")
	_, err = ExportFile(csvPath, s.Snapshot())
	require.NoError(t, err)
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), utf8BOM+"Path,Entry,Line,Snippet"))
}

func TestExportFileEmptyProjection(t *testing.T) {
	_, err := ExportFile(filepath.Join(t.TempDir(), "x.csv"), NewStore().Snapshot())
	require.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatTSV, FormatForPath("a.TSV"))
	assert.Equal(t, FormatCSV, FormatForPath("a.csv"))
	assert.Equal(t, FormatCSV, FormatForPath("a"))
}

func TestFormatTSVRows(t *testing.T) {
	out := FormatTSVRows([]domain.Record{
		rec("/a", "e", 1, "s"),
		rec("/b", "", 0, ""),
	})
	assert.Equal(t, "/a\te\t1\ts\n/b\t\t0\t\n", out)
}
