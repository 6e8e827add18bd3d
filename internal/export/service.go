package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/mapping"
	"github.com/joseph-ayodele/immigration-docs/internal/repository"
)

const (
	sheetDocuments = "Documents"
	sheetProfile   = "Profile"
	sheetPriority  = "Priority Dates"
)

// Service produces XLSX bytes for a profile's documents and current state.
type Service struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

var documentHeaders = []string{
	"Uploaded",
	"Filename",
	"Document Type",
	"Detection",
	"Confidence",
	"Document Number",
	"Issue Date",
	"Expiry Date",
	"Subtype",
	"Related Immigration Type",
	"Issuing Authority",
	"Warnings",
}

// DocumentsXLSX returns a workbook with one row per document, the profile's
// reconciled fields and its priority-date history.
func (s *Service) DocumentsXLSX(ctx context.Context, profileID uuid.UUID) ([]byte, error) {
	start := time.Now()

	profile, err := s.store.Profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	docs, err := s.store.Documents.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	priority, err := s.store.PriorityDates.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("query priority dates: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default "Sheet1" becomes the documents sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheetDocuments); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetProfile, sheetPriority} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, sheetDocuments, 1, toAny(documentHeaders)); err != nil {
		return nil, err
	}
	for i, d := range docs {
		row := []any{
			d.CreatedAt.UTC().Format(time.DateTime),
			d.Filename,
			string(d.DocumentType),
			string(d.DetectionMethod),
			d.Confidence,
			d.Metadata[mapping.MetaDocumentNumber],
			d.Metadata[mapping.MetaIssueDate],
			d.Metadata[mapping.MetaExpiryDate],
			d.Metadata[mapping.MetaDocumentSubtype],
			d.Metadata[mapping.MetaRelatedImmigrationType],
			d.Metadata[mapping.MetaIssuingAuthority],
			truncate(strings.Join(d.Warnings, "; "), 500),
		}
		if err := writeRow(f, sheetDocuments, i+2, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetRowStyle(sheetDocuments, 1, 1, bold)
	_ = f.SetColWidth(sheetDocuments, "A", "A", 20) // uploaded
	_ = f.SetColWidth(sheetDocuments, "B", "B", 32) // filename
	_ = f.SetColWidth(sheetDocuments, "C", "E", 14)
	_ = f.SetColWidth(sheetDocuments, "F", "K", 20)
	_ = f.SetColWidth(sheetDocuments, "L", "L", 80) // warnings
	_ = f.AutoFilter(sheetDocuments, fmt.Sprintf("A1:L%d", len(docs)+1), nil)

	if err := writeProfile(f, profile); err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(sheetProfile, 1, 1, bold)

	if err := writeRow(f, sheetPriority, 1, []any{"Priority Date", "Source", "Recorded"}); err != nil {
		return nil, err
	}
	for i, pd := range priority {
		if err := writeRow(f, sheetPriority, i+2, []any{pd.Date, string(pd.DocumentType), pd.CreatedAt.UTC().Format(time.DateTime)}); err != nil {
			return nil, err
		}
	}
	_ = f.SetRowStyle(sheetPriority, 1, 1, bold)
	_ = f.SetColWidth(sheetPriority, "A", "C", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"profile_id", profileID.String(),
		"rows", len(docs),
		"priority_dates", len(priority),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeProfile(f *excelize.File, p *entity.Profile) error {
	if err := writeRow(f, sheetProfile, 1, []any{"Field", "Value"}); err != nil {
		return err
	}
	rows := [][]any{{"name", p.Name}}
	fields := append([]string(nil), entity.ProfileFields...)
	sort.Strings(fields)
	for _, field := range fields {
		v, _ := p.Get(field)
		rows = append(rows, []any{field, v})
	}
	rows = append(rows, []any{"updated_at", p.UpdatedAt.UTC().Format(time.DateTime)})
	for i, r := range rows {
		if err := writeRow(f, sheetProfile, i+2, r); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetProfile, "A", "A", 30)
	_ = f.SetColWidth(sheetProfile, "B", "B", 30)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
