package decoder

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

func init() {
	// Bank exports disagree on header casing; tags are lowercase.
	gocsv.SetHeaderNormalizer(func(h string) string {
		return strings.ToLower(strings.TrimSpace(h))
	})
}

// TypedRow is the struct-tag decoding path used by the generic flow preview.
// gocsv matches columns by header name, so one struct absorbs the common
// Spanish and English header variants without positional mapping.
type TypedRow struct {
	Fecha            string `csv:"fecha"`
	FechaTransaccion string `csv:"fecha transacción"`
	Date             string `csv:"date"`

	Glosa        string `csv:"glosa"`
	Descripcion  string `csv:"descripción"`
	Descripcion2 string `csv:"descripcion"`
	Detalle      string `csv:"detalle"`
	Description  string `csv:"description"`

	Monto   string `csv:"monto"`
	Importe string `csv:"importe"`
	Amount  string `csv:"amount"`

	Cargo string `csv:"cargo"`
	Debit string `csv:"debit"`

	Abono  string `csv:"abono"`
	Credit string `csv:"credit"`

	Referencia string `csv:"referencia"`
	NumDoc     string `csv:"n° documento"`
	Reference  string `csv:"reference"`
}

// DateValue returns the first populated date variant.
func (r TypedRow) DateValue() string {
	return coalesce(r.Fecha, r.FechaTransaccion, r.Date)
}

// DescriptionValue returns the first populated description variant.
func (r TypedRow) DescriptionValue() string {
	return coalesce(r.Glosa, r.Descripcion, r.Descripcion2, r.Detalle, r.Description)
}

// AmountValue returns the first populated single-amount variant.
func (r TypedRow) AmountValue() string {
	return coalesce(r.Monto, r.Importe, r.Amount)
}

// DebitValue returns the first populated debit variant.
func (r TypedRow) DebitValue() string {
	return coalesce(r.Cargo, r.Debit)
}

// CreditValue returns the first populated credit variant.
func (r TypedRow) CreditValue() string {
	return coalesce(r.Abono, r.Credit)
}

// ReferenceValue returns the first populated reference variant.
func (r TypedRow) ReferenceValue() string {
	return coalesce(r.Referencia, r.NumDoc, r.Reference)
}

// DecodeTypedCSV unmarshals a headered CSV into TypedRows. This path coerces
// nothing: values stay strings, the caller decides how to parse them.
func DecodeTypedCSV(data []byte) ([]TypedRow, error) {
	data = normalizeBytes(data)
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	delimiter := DetectDelimiter(data)
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delimiter
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})

	var rows []TypedRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return rows, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
