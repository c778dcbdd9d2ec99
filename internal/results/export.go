package results

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"fastfinder/internal/domain"
)

// Format is a delimited text layout for exported rows
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
)

// CSVHeader is the first row of a CSV export
var CSVHeader = []string{"Path", "Entry", "Line", "Snippet"}

// utf8BOM prefixes every export file
const utf8BOM = "\ufeff"

// FormatForPath picks TSV for .tsv files and CSV otherwise
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return FormatTSV
	}
	return FormatCSV
}

// WriteDelimited serializes the projection in its visible order with the
// raw record fields. CSV gets a header row; both formats quote fields that
// contain the delimiter, quotes or line breaks and double embedded quotes.
func WriteDelimited(w io.Writer, p domain.ViewProjection, format Format) error {
	cw := csv.NewWriter(w)
	if format == FormatTSV {
		cw.Comma = '\t'
	} else if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for i := 0; i < p.Len(); i++ {
		if err := cw.Write(exportFields(p.At(i))); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush rows")
}

func exportFields(rec domain.Record) []string {
	return []string{rec.Location, rec.Entry, strconv.Itoa(rec.Line), rec.Snippet}
}

// ExportFile writes the projection to path, choosing the format from the
// extension. Returns the number of rows written.
func ExportFile(path string, p domain.ViewProjection) (int, error) {
	if p.Len() == 0 {
		return 0, errors.New("no visible results to export")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errors.Wrap(err, "failed to create export directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create export file")
	}

	if _, err := io.WriteString(f, utf8BOM); err != nil {
		f.Close()
		return 0, errors.Wrap(err, "failed to write export file")
	}
	if err := WriteDelimited(f, p, FormatForPath(path)); err != nil {
		f.Close()
		return 0, errors.Wrap(err, "failed to write export file")
	}
	if err := f.Close(); err != nil {
		return 0, errors.Wrap(err, "failed to close export file")
	}
	return p.Len(), nil
}

// FormatTSVRows joins records as unquoted TSV lines for the clipboard,
// using the display path
func FormatTSVRows(recs []domain.Record) string {
	var b strings.Builder
	for _, rec := range recs {
		b.WriteString(tsvRow(rec))
		b.WriteByte('\n')
	}
	return b.String()
}

func tsvRow(rec domain.Record) string {
	return strings.Join([]string{rec.DisplayPath(), rec.Entry, strconv.Itoa(rec.Line), rec.Snippet}, "\t")
}
