package profile

import (
	"strings"
	"time"

	"github.com/cloudflare/ahocorasick"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/decoder"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/mapper"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

// maxScanRows bounds how deep into the grid the header row is searched;
// bank banners never exceed this.
const maxScanRows = 20

// fieldAliases names the header variants a bank uses for one canonical field.
type fieldAliases struct {
	date        []string
	description []string
	amount      []string
	debit       []string
	credit      []string
	reference   []string
}

// layout is a declarative bank profile: banner keywords identify the bank,
// header aliases resolve the mapping, format fields drive the transformer.
type layout struct {
	id          string
	displayName string

	// bannerKeywords are uppercase fragments expected in the metadata region.
	bannerKeywords []string
	bannerMatcher  *ahocorasick.Matcher

	aliases     fieldAliases
	dateLayouts []string
	convention  money.Convention
	// yearless marks banks that emit DD/MM dates without a year.
	yearless bool
}

func newLayout(l layout) *layout {
	upper := make([]string, len(l.bannerKeywords))
	for i, kw := range l.bannerKeywords {
		upper[i] = strings.ToUpper(kw)
	}
	l.bannerKeywords = upper
	l.bannerMatcher = ahocorasick.NewStringMatcher(upper)
	return &l
}

func (l *layout) ID() string          { return l.id }
func (l *layout) DisplayName() string { return l.displayName }

// Detect combines two structural signals: how completely a single row
// matches the expected headers, and how many banner keywords appear in the
// metadata region above it.
func (l *layout) Detect(grid decoder.RawGrid) float64 {
	headerRow, headerScore := l.findHeaderRow(grid)
	if headerRow < 0 {
		return 0
	}
	return 0.6*headerScore + 0.4*l.bannerScore(grid, headerRow)
}

// Preprocess drops everything above the header row and resolves the mapping
// from the header cells. Statement period metadata comes from the parsed
// extremes of the date column.
func (l *layout) Preprocess(grid decoder.RawGrid, fallbackYear int) (*Preprocessed, error) {
	headerRow, _ := l.findHeaderRow(grid)
	if headerRow < 0 || headerRow+1 >= len(grid) {
		return nil, ErrNoDataRows
	}

	headers := make([]string, len(grid[headerRow]))
	for i, h := range grid[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := trimBlankRows(grid[headerRow+1:])
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	m := l.resolveMapping(headers)
	m.DateLayouts = l.dateLayouts
	m.Convention = l.convention
	if l.yearless {
		m.FallbackYear = fallbackYear
	}
	m.Confidence = 1

	meta := Metadata{BankID: l.id, DisplayName: l.displayName}
	meta.PeriodStart, meta.PeriodEnd = l.statementPeriod(rows, m, fallbackYear)

	return &Preprocessed{
		Headers:  headers,
		Rows:     rows,
		Mapping:  m,
		Metadata: meta,
	}, nil
}

// findHeaderRow returns the first row matching every mandatory alias group.
// Anything less than a complete header match is treated as "not this bank":
// partial overlaps (a generic file sharing a couple of header names) must
// not masquerade as a detected profile.
func (l *layout) findHeaderRow(grid decoder.RawGrid) (int, float64) {
	groups := l.aliasGroups()

	limit := len(grid)
	if limit > maxScanRows {
		limit = maxScanRows
	}

	for i := 0; i < limit; i++ {
		matched := 0
		for _, group := range groups {
			if findColumn(grid[i], group) >= 0 {
				matched++
			}
		}
		if matched == len(groups) {
			return i, 1
		}
	}
	return -1, 0
}

// aliasGroups lists the header alias groups this layout requires.
func (l *layout) aliasGroups() [][]string {
	groups := [][]string{l.aliases.date, l.aliases.description}
	if len(l.aliases.amount) > 0 {
		groups = append(groups, l.aliases.amount)
	}
	if len(l.aliases.debit) > 0 {
		groups = append(groups, l.aliases.debit, l.aliases.credit)
	}
	return groups
}

// bannerScore is the fraction of banner keywords found in the rows above
// the header, located with a single Aho-Corasick pass.
func (l *layout) bannerScore(grid decoder.RawGrid, headerRow int) float64 {
	if len(l.bannerKeywords) == 0 {
		return 0
	}

	var banner strings.Builder
	limit := headerRow + 1 // header text itself may carry the bank name
	for i := 0; i < limit && i < len(grid); i++ {
		banner.WriteString(strings.ToUpper(strings.Join(grid[i], " ")))
		banner.WriteString("\n")
	}

	hits := l.bannerMatcher.Match([]byte(banner.String()))
	return float64(len(hits)) / float64(len(l.bannerKeywords))
}

func (l *layout) resolveMapping(headers []string) mapper.ColumnMapping {
	m := mapper.NewColumnMapping()
	m.Date = findColumn(headers, l.aliases.date)
	m.Description = findColumn(headers, l.aliases.description)
	m.Amount = findColumn(headers, l.aliases.amount)
	m.Debit = findColumn(headers, l.aliases.debit)
	m.Credit = findColumn(headers, l.aliases.credit)
	m.Reference = findColumn(headers, l.aliases.reference)
	return m
}

// statementPeriod parses every date cell and returns the min/max found.
func (l *layout) statementPeriod(rows [][]string, m mapper.ColumnMapping, fallbackYear int) (time.Time, time.Time) {
	var start, end time.Time
	for _, row := range rows {
		if m.Date < 0 || m.Date >= len(row) {
			continue
		}
		t, ok := parseAnyLayout(strings.TrimSpace(row[m.Date]), l.dateLayouts, l.yearless, fallbackYear)
		if !ok {
			continue
		}
		if start.IsZero() || t.Before(start) {
			start = t
		}
		if end.IsZero() || t.After(end) {
			end = t
		}
	}
	return start, end
}

func parseAnyLayout(s string, layouts []string, yearless bool, fallbackYear int) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if yearless && fallbackYear > 0 {
		for _, layout := range []string{"02/01", "02-01"} {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(fallbackYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

// findColumn returns the index of the first header cell equal to any alias,
// compared case-insensitively.
func findColumn(headers []string, aliases []string) int {
	if len(aliases) == 0 {
		return -1
	}
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		for _, alias := range aliases {
			if norm == alias {
				return i
			}
		}
	}
	return -1
}

func trimBlankRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
