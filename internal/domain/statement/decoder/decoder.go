// Package decoder turns uploaded statement files (CSV or XLSX) into a raw
// grid of cell values with no semantic interpretation. Bank-specific meaning
// is layered on later by profiles and the column mapper.
package decoder

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than csv/xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when the decoded grid has zero rows.
	ErrEmptyFile = errors.New("file is empty")
	// ErrCorruptFile is returned when the underlying parser fails.
	ErrCorruptFile = errors.New("corrupt file")
)

// RawGrid is an ordered sequence of rows of raw cell strings. Rows may vary
// in length; the first rows of a bank export are often metadata banners
// rather than headers.
type RawGrid [][]string

// Cell returns the trimmed cell at (row, col), or "" when out of bounds.
func (g RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Decode parses file bytes into a RawGrid based on the declared extension.
func Decode(data []byte, extension string) (RawGrid, error) {
	switch strings.ToLower(strings.TrimPrefix(extension, ".")) {
	case "csv":
		return DecodeCSV(data)
	case "xlsx":
		return DecodeXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, extension)
	}
}

// DecodeCSV splits CSV bytes into a grid, preserving empty cells and leaving
// every value as a string. The delimiter is detected from the densest
// candidate over the first lines.
func DecodeCSV(data []byte) (RawGrid, error) {
	data = normalizeBytes(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = DetectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var grid RawGrid
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		grid = append(grid, record)
	}

	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}
	return grid, nil
}

// DetectDelimiter picks the most frequent candidate delimiter across the
// first non-empty lines. Chilean exports favor ';', spreadsheets export ','.
func DetectDelimiter(data []byte) rune {
	lines := strings.Split(string(data), "\n")
	counts := map[rune]int{}
	inspected := 0
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, d := range []rune{';', '\t', ',', '|'} {
			counts[d] += strings.Count(line, string(d))
		}
		inspected++
		if inspected >= 10 {
			break
		}
	}

	best := ','
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// normalizeBytes strips a UTF-8 BOM and transcodes Latin-1 exports, which
// some bank backends still emit, into valid UTF-8.
func normalizeBytes(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return data
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
