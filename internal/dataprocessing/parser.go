package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for file types the tokenizer cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile tokenizes an uploaded file into raw rows, choosing the reader by
// extension: .xlsx/.xlsm go through excelize, everything else is read as CSV.
func ParseFile(name string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ParseWorkbook(data)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbook %s", ErrUnsupportedFormat, name)
	default:
		return ParseCSV(data)
	}
}

// ParseCSV reads delimited text. A UTF-8 BOM is stripped, and input that is
// not valid UTF-8 is decoded as Shift_JIS, the usual encoding of Japanese
// spreadsheet exports. Rows may be ragged.
func ParseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, japanese.ShiftJIS.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// ParseWorkbook reads an XLSX workbook and returns the rows of the first
// sheet that carries a recognizable report header, or of the first sheet
// when none does.
func ParseWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var first [][]string
	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Debug("Skipping unreadable sheet",
				slog.String("sheet", sheet),
				slog.String("error", err.Error()))
			continue
		}
		if i == 0 {
			first = rows
		}
		if FindHeaderRow(rows, MaxHeaderScanLimit) >= 0 {
			return rows, nil
		}
	}
	return first, nil
}
