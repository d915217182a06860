// Package profile encapsulates per-bank statement layouts behind a common
// detect/preprocess capability. Profiles form a closed registry known at
// startup; detection is pure and computed only from structural signals in
// the grid, never from filenames or user input.
package profile

import (
	"errors"
	"time"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/decoder"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/mapper"
)

// ErrNoDataRows is returned when preprocessing finds zero data rows after
// dropping banner rows. Recoverable: the caller falls back to the generic flow.
var ErrNoDataRows = errors.New("no data rows after dropping banner rows")

// Metadata describes what the profile learned about the statement itself.
type Metadata struct {
	BankID      string
	DisplayName string
	// PeriodStart/PeriodEnd bound the statement's row dates when derivable;
	// both zero otherwise.
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Preprocessed is the output of a bank-specific preprocessing pass. The
// mapping is always fully resolved; the profile has already done the work.
type Preprocessed struct {
	Headers  []string
	Rows     [][]string
	Mapping  mapper.ColumnMapping
	Metadata Metadata
}

// BankProfile is the per-bank strategy. Detect must be pure and free of side
// effects so the detector can try every profile against the same grid.
type BankProfile interface {
	ID() string
	DisplayName() string
	// Detect scores how strongly the grid looks like this bank's export, in [0,1].
	Detect(grid decoder.RawGrid) float64
	// Preprocess strips banner rows, resolves the column mapping and derives
	// statement metadata. fallbackYear completes yearless dates.
	Preprocess(grid decoder.RawGrid, fallbackYear int) (*Preprocessed, error)
}

// Registry returns the fixed list of known bank profiles, in detection order.
func Registry() []BankProfile {
	return registry
}

// ByID looks up a profile by its identifier.
func ByID(id string) (BankProfile, bool) {
	for _, p := range registry {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}
