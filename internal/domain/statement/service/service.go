// Package service orchestrates the statement pipeline: decode, detect,
// preprocess, transform, import and match.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile/repository"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/decoder"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/mapper"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/profile"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/transform"
	"github.com/brentcurtis76/casa-reconcile/pkg/config"
	"github.com/brentcurtis76/casa-reconcile/pkg/metrics"
)

// ProfileAuto asks the service to pick the bank profile by detection.
const ProfileAuto = "auto"

// ProfileGeneric forces the generic column-mapping path.
const ProfileGeneric = "generic"

// ErrUnknownProfile is returned when a forced profile id is not registered.
var ErrUnknownProfile = errors.New("unknown bank profile")

// ErrNoUsableMapping means neither a bank profile nor the generic mapper
// could resolve the mandatory columns.
var ErrNoUsableMapping = errors.New("could not resolve a usable column mapping")

// Analysis is the outcome of inspecting an uploaded statement file without
// importing it.
type Analysis struct {
	FileName string
	Format   string

	// BankID is empty on the generic path.
	BankID          string
	BankDisplayName string
	Confidence      float64
	AutoApplied     bool

	Headers  []string
	Mapping  mapper.ColumnMapping
	Metadata profile.Metadata

	Preview *transform.Result
}

// ImportSummary reports one completed import.
type ImportSummary struct {
	BatchID      uuid.UUID
	BankID       string
	RowsImported int
	RowsDropped  int
	DroppedRows  []transform.RowError
	BlankRows    int
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

// MatchSummary reports one matching pass over a batch.
type MatchSummary struct {
	BatchID        uuid.UUID
	RowsConsidered int
	Proposed       int
	Results        []reconcile.MatchResult
}

// AnalyzeOptions tunes a single analysis.
type AnalyzeOptions struct {
	// ProfileID is ProfileAuto, ProfileGeneric or a registered bank id.
	ProfileID string
	// FallbackYear fills yearless statement dates; zero means current year.
	FallbackYear int
}

// Service wires the pipeline stages together.
type Service struct {
	repo    repository.Repository
	matcher *reconcile.Matcher
	cfg     config.MatchingConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates the statement service.
func New(repo repository.Repository, cfg config.MatchingConfig, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo: repo,
		matcher: reconcile.NewMatcher(reconcile.MatcherConfig{
			DateWindowDays: cfg.DateWindowDays,
			Floor:          cfg.MatchFloor,
		}),
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("statement/service"),
	}
}

// AnalyzeFile decodes the file, resolves a bank profile or falls back to the
// generic mapper, and returns a transform preview without persisting anything.
func (s *Service) AnalyzeFile(ctx context.Context, data []byte, filename string, opts AnalyzeOptions) (*Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "AnalyzeFile",
		trace.WithAttributes(attribute.String("file.name", filename)))
	defer span.End()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	grid, err := decoder.Decode(data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	s.metrics.FilesDecoded.WithLabelValues(ext).Inc()

	analysis := &Analysis{FileName: filename, Format: ext}
	fallbackYear := opts.FallbackYear
	if fallbackYear == 0 {
		fallbackYear = time.Now().Year()
	}

	pre, err := s.resolveProfile(ctx, grid, opts.ProfileID, fallbackYear, analysis)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if pre != nil {
		analysis.Headers = pre.Headers
		analysis.Mapping = pre.Mapping
		analysis.Metadata = pre.Metadata
		rows = pre.Rows
	} else {
		var headers []string
		var dataRows [][]string
		var ok bool
		if ext == "csv" || ext == "txt" {
			headers, dataRows, ok = typedGenericMapping(data, &analysis.Mapping)
		}
		if !ok {
			headers, dataRows, ok = genericMapping(grid, &analysis.Mapping)
		}
		if !ok {
			return nil, ErrNoUsableMapping
		}
		analysis.Headers = headers
		rows = dataRows
	}
	s.metrics.BanksDetected.WithLabelValues(bankLabel(analysis.BankID)).Inc()

	preview, err := transform.Rows(rows, analysis.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to transform rows: %w", err)
	}
	analysis.Preview = preview

	s.logger.Info("statement analyzed",
		slog.String("file", filename),
		slog.String("bank", bankLabel(analysis.BankID)),
		slog.Float64("confidence", analysis.Confidence),
		slog.Int("rows", len(preview.Rows)),
		slog.Int("dropped", len(preview.Dropped)),
	)
	return analysis, nil
}

// resolveProfile applies the requested profile, or detection when asked for
// auto. A detected profile whose preprocessing finds no data rows falls back
// to the generic path rather than failing the analysis.
func (s *Service) resolveProfile(ctx context.Context, grid decoder.RawGrid, profileID string, fallbackYear int, analysis *Analysis) (*profile.Preprocessed, error) {
	_, span := s.tracer.Start(ctx, "resolveProfile")
	defer span.End()

	switch profileID {
	case ProfileGeneric:
		return nil, nil

	case "", ProfileAuto:
		detection := profile.Detect(grid, s.cfg.DetectionFloor)
		if detection == nil {
			return nil, nil
		}
		analysis.Confidence = detection.Confidence
		if !detection.AutoApplicable(s.cfg.AutoApplyThreshold) {
			// Below auto-apply the detection is reported as a suggestion
			// only; the caller can re-analyze with the profile forced.
			analysis.BankID = detection.Profile.ID()
			analysis.BankDisplayName = detection.Profile.DisplayName()
			return nil, nil
		}

		pre, err := detection.Profile.Preprocess(grid, fallbackYear)
		if errors.Is(err, profile.ErrNoDataRows) {
			s.logger.Warn("detected profile found no data rows, using generic path",
				slog.String("bank", detection.Profile.ID()))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		analysis.BankID = detection.Profile.ID()
		analysis.BankDisplayName = detection.Profile.DisplayName()
		analysis.AutoApplied = true
		return pre, nil

	default:
		p, ok := profile.ByID(profileID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profileID)
		}
		pre, err := p.Preprocess(grid, fallbackYear)
		if err != nil {
			return nil, err
		}
		analysis.BankID = p.ID()
		analysis.BankDisplayName = p.DisplayName()
		analysis.Confidence = 1
		return pre, nil
	}
}

// typedHeaders names the columns of the grid typedGenericMapping rebuilds.
var typedHeaders = []string{"fecha", "glosa", "monto", "cargo", "abono", "referencia"}

// typedGenericMapping runs a headered CSV through the struct-tag decoder and
// rebuilds a canonical grid from the coalesced header variants. Files whose
// headers fall outside the tag vocabulary decode to empty rows and drop
// through to the positional mapper.
func typedGenericMapping(data []byte, m *mapper.ColumnMapping) ([]string, [][]string, bool) {
	typed, err := decoder.DecodeTypedCSV(data)
	if err != nil || len(typed) == 0 {
		return nil, nil, false
	}

	rows := make([][]string, len(typed))
	var complete, signed, split bool
	for i, r := range typed {
		rows[i] = []string{
			r.DateValue(), r.DescriptionValue(), r.AmountValue(),
			r.DebitValue(), r.CreditValue(), r.ReferenceValue(),
		}
		if r.DateValue() != "" && r.DescriptionValue() != "" {
			complete = true
		}
		if r.AmountValue() != "" {
			signed = true
		}
		if r.DebitValue() != "" || r.CreditValue() != "" {
			split = true
		}
	}
	if !complete || (!signed && !split) {
		return nil, nil, false
	}

	detected := mapper.NewColumnMapping()
	detected.Date, detected.Description, detected.Reference = 0, 1, 5
	if signed {
		detected.Amount = 2
	} else {
		detected.Debit, detected.Credit = 3, 4
	}
	// Headers matched the tag vocabulary exactly; only the dialect is open.
	detected.Confidence = 1
	mapper.ProbeDialect(rows, &detected)
	*m = detected
	return typedHeaders, rows, true
}

// genericMapping treats the first non-blank row as headers and auto-detects
// the column mapping from them.
func genericMapping(grid decoder.RawGrid, m *mapper.ColumnMapping) ([]string, [][]string, bool) {
	headerRow := -1
	for i, row := range grid {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				headerRow = i
				break
			}
		}
		if headerRow >= 0 {
			break
		}
	}
	if headerRow < 0 || headerRow+1 >= len(grid) {
		return nil, nil, false
	}

	headers := grid[headerRow]
	detected := mapper.AutoDetect(headers)
	if !detected.Usable() {
		return nil, nil, false
	}

	rows := grid[headerRow+1:]
	mapper.ProbeDialect(rows, &detected)
	*m = detected
	return headers, rows, true
}

// Import runs the full pipeline and persists the result as a new batch.
func (s *Service) Import(ctx context.Context, data []byte, filename string, opts AnalyzeOptions) (*ImportSummary, error) {
	ctx, span := s.tracer.Start(ctx, "Import",
		trace.WithAttributes(attribute.String("file.name", filename)))
	defer span.End()

	analysis, err := s.AnalyzeFile(ctx, data, filename, opts)
	if err != nil {
		return nil, err
	}

	batch := &repository.ImportBatch{
		FileName:     filename,
		BankID:       analysis.BankID,
		PeriodStart:  analysis.Metadata.PeriodStart,
		PeriodEnd:    analysis.Metadata.PeriodEnd,
		RowCount:     len(analysis.Preview.Rows),
		DroppedCount: len(analysis.Preview.Dropped),
	}
	if batch.PeriodStart.IsZero() {
		batch.PeriodStart, batch.PeriodEnd = periodFromRows(analysis.Preview.Rows)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	rows := make([]*reconcile.BankTransaction, len(analysis.Preview.Rows))
	for i, parsed := range analysis.Preview.Rows {
		rows[i] = &reconcile.BankTransaction{
			RowIndex:    i,
			Date:        parsed.Date,
			Description: parsed.Description,
			Amount:      parsed.Amount,
			Reference:   parsed.Reference,
			Status:      reconcile.StatusUnmatched,
		}
	}

	if err := s.repo.InsertBankTransactions(ctx, batch.ID, rows); err != nil {
		if statusErr := s.repo.UpdateBatchStatus(ctx, batch.ID, repository.BatchStatusFailed); statusErr != nil {
			s.logger.Error("failed to mark batch failed",
				slog.String("batch_id", batch.ID.String()), slog.Any("error", statusErr))
		}
		return nil, err
	}
	if err := s.repo.UpdateBatchStatus(ctx, batch.ID, repository.BatchStatusImported); err != nil {
		return nil, err
	}

	s.metrics.RowsImported.Add(float64(len(rows)))
	s.metrics.RowsDropped.Add(float64(len(analysis.Preview.Dropped)))

	s.logger.Info("statement imported",
		slog.String("batch_id", batch.ID.String()),
		slog.String("bank", bankLabel(analysis.BankID)),
		slog.Int("rows", len(rows)),
		slog.Int("dropped", len(analysis.Preview.Dropped)),
	)

	return &ImportSummary{
		BatchID:      batch.ID,
		BankID:       analysis.BankID,
		RowsImported: len(rows),
		RowsDropped:  len(analysis.Preview.Dropped),
		DroppedRows:  analysis.Preview.Dropped,
		BlankRows:    analysis.Preview.Blank,
		PeriodStart:  batch.PeriodStart,
		PeriodEnd:    batch.PeriodEnd,
	}, nil
}

// MatchBatch scores the unmatched rows of a batch against existing
// transactions and records the resulting proposals.
func (s *Service) MatchBatch(ctx context.Context, batchID uuid.UUID) (*MatchSummary, error) {
	ctx, span := s.tracer.Start(ctx, "MatchBatch",
		trace.WithAttributes(attribute.String("batch.id", batchID.String())))
	defer span.End()

	all, err := s.repo.ListBankTransactions(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var unmatched []*reconcile.BankTransaction
	for _, row := range all {
		if row.Status == reconcile.StatusUnmatched {
			unmatched = append(unmatched, row)
		}
	}
	if len(unmatched) == 0 {
		return &MatchSummary{BatchID: batchID}, nil
	}

	parsed := make([]transform.ParsedRow, len(unmatched))
	start, end := unmatched[0].Date, unmatched[0].Date
	for i, row := range unmatched {
		parsed[i] = transform.ParsedRow{
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			Reference:   row.Reference,
			SourceRow:   row.RowIndex,
		}
		if row.Date.Before(start) {
			start = row.Date
		}
		if row.Date.After(end) {
			end = row.Date
		}
	}

	window := time.Duration(s.cfg.DateWindowDays) * 24 * time.Hour
	existing, err := s.repo.ListTransactionsBetween(ctx, start.Add(-window), end.Add(window))
	if err != nil {
		return nil, err
	}

	results := s.matcher.Match(parsed, existing)

	proposed := 0
	for i, result := range results {
		row := unmatched[i]
		if err := row.ApplyMatchResult(result); err != nil {
			return nil, err
		}
		if result.MatchedTransactionID != nil {
			proposed++
		}
		if err := s.repo.SaveReconciliation(ctx, row); err != nil {
			return nil, err
		}
	}
	s.metrics.MatchesProposed.Add(float64(proposed))

	s.logger.Info("batch matched",
		slog.String("batch_id", batchID.String()),
		slog.Int("considered", len(unmatched)),
		slog.Int("proposed", proposed),
	)

	return &MatchSummary{
		BatchID:        batchID,
		RowsConsidered: len(unmatched),
		Proposed:       proposed,
		Results:        results,
	}, nil
}

// ConfirmMatch accepts a row's pending proposal.
func (s *Service) ConfirmMatch(ctx context.Context, rowID uuid.UUID) error {
	return s.transition(ctx, rowID, func(row *reconcile.BankTransaction) error {
		if err := row.ConfirmMatch(); err != nil {
			return err
		}
		s.metrics.MatchesConfirmed.WithLabelValues("manual").Inc()
		return nil
	})
}

// UndoMatch reverts a confirmed match, releasing the claimed transaction.
func (s *Service) UndoMatch(ctx context.Context, rowID uuid.UUID) error {
	return s.transition(ctx, rowID, (*reconcile.BankTransaction).UndoMatch)
}

// IgnoreRow excludes a row from reconciliation.
func (s *Service) IgnoreRow(ctx context.Context, rowID uuid.UUID) error {
	return s.transition(ctx, rowID, (*reconcile.BankTransaction).Ignore)
}

// CreateFromRow creates a fresh transaction from an imported row and links it.
func (s *Service) CreateFromRow(ctx context.Context, rowID uuid.UUID, category string) (uuid.UUID, error) {
	var created uuid.UUID
	err := s.transition(ctx, rowID, func(row *reconcile.BankTransaction) error {
		tx := &reconcile.ExistingTransaction{
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			Category:    category,
		}
		if err := s.repo.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		created = tx.ID
		return row.MarkCreated(tx.ID)
	})
	return created, err
}

// AutoConfirmSweep bulk-confirms pending proposals across all batches.
func (s *Service) AutoConfirmSweep(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AutoConfirmSweep")
	defer span.End()

	pending, err := s.repo.ListPendingProposals(ctx)
	if err != nil {
		return 0, err
	}

	confirmed := reconcile.BulkAutoConfirm(pending, s.cfg.AutoConfirmThreshold, s.cfg.MinConfirmThreshold)
	saved := 0
	for _, row := range pending {
		if row.Status != reconcile.StatusMatched {
			continue
		}
		if err := s.repo.SaveReconciliation(ctx, row); err != nil {
			return saved, err
		}
		saved++
	}
	s.metrics.MatchesConfirmed.WithLabelValues("auto").Add(float64(saved))

	if confirmed > 0 {
		s.logger.Info("auto-confirm sweep completed",
			slog.Int("pending", len(pending)),
			slog.Int("confirmed", saved),
		)
	}
	return saved, nil
}

func (s *Service) transition(ctx context.Context, rowID uuid.UUID, fn func(*reconcile.BankTransaction) error) error {
	row, err := s.repo.GetBankTransaction(ctx, rowID)
	if err != nil {
		return err
	}
	if err := fn(row); err != nil {
		return err
	}
	return s.repo.SaveReconciliation(ctx, row)
}

func periodFromRows(rows []transform.ParsedRow) (time.Time, time.Time) {
	var start, end time.Time
	for _, row := range rows {
		if start.IsZero() || row.Date.Before(start) {
			start = row.Date
		}
		if end.IsZero() || row.Date.After(end) {
			end = row.Date
		}
	}
	return start, end
}

func bankLabel(bankID string) string {
	if bankID == "" {
		return ProfileGeneric
	}
	return bankID
}
