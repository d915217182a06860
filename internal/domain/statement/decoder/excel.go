package decoder

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeXLSX reads the first worksheet of an XLSX file into a RawGrid.
// Cell values keep whatever rendering the sheet format produced; numbers
// and dates already encoded by the format arrive as their displayed text.
func DecodeXLSX(data []byte) (RawGrid, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return RawGrid(rows), nil
}
