package profile

import "github.com/brentcurtis76/casa-reconcile/internal/domain/statement/decoder"

// Detection pairs the winning profile with its confidence.
type Detection struct {
	Profile    BankProfile
	Confidence float64
}

// AutoApplicable reports whether the detection is trustworthy enough to
// apply the profile without asking the user.
func (d *Detection) AutoApplicable(threshold float64) bool {
	return d != nil && d.Confidence >= threshold
}

// Detect runs every registered profile against the grid and keeps the
// highest-confidence result. It returns nil when no profile scores at or
// above the floor; that is a normal outcome routing to the generic flow,
// not an error. Ties break on registry order, keeping detection reproducible.
func Detect(grid decoder.RawGrid, floor float64) *Detection {
	return DetectAmong(registry, grid, floor)
}

// DetectAmong scores the grid against an explicit profile list.
func DetectAmong(profiles []BankProfile, grid decoder.RawGrid, floor float64) *Detection {
	var best *Detection
	for _, p := range profiles {
		confidence := p.Detect(grid)
		if confidence < floor {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &Detection{Profile: p, Confidence: confidence}
		}
	}
	return best
}
