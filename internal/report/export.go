package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Export formats.
const (
	FormatPDF   = "pdf"
	FormatCSV   = "csv"
	FormatExcel = "xlsx"
	FormatJSON  = "json"
)

// Formats lists every export format in the order WriteAll produces them.
var Formats = []string{FormatPDF, FormatCSV, FormatExcel, FormatJSON}

var ErrUnknownFormat = errors.New("unknown export format")

const baseName = "solar_analysis"

// FileName returns the artifact file name for a format.
func FileName(format string) string {
	return baseName + "." + format
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Write encodes records in the given format.
func Write(w io.Writer, format string, records []Record) error {
	switch format {
	case FormatPDF:
		return WritePDF(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatExcel:
		return WriteExcel(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteAll writes every format into dir and returns the file paths by format.
func WriteAll(dir string, records []Record) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	paths := make(map[string]string, len(Formats))
	for _, format := range Formats {
		path := filepath.Join(dir, FileName(format))
		if err := writeFile(path, format, records); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", format, err)
		}
		paths[format] = path
		slog.Info("exported report", "format", format, "path", path)
	}
	return paths, nil
}

func writeFile(path, format string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []Record{}
	}
	return enc.Encode(records)
}

func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
