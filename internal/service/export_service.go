package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/export"
)

// ExportFile is a rendered export, optionally published to object storage.
type ExportFile struct {
	Name      string
	Format    export.Format
	Data      []byte
	Published *export.Published
}

func (f *ExportFile) Filename() string {
	return f.Name + f.Format.Extension()
}

func (f *ExportFile) ContentType() string {
	return f.Format.ContentType()
}

type ExportService struct {
	budgets   *BudgetService
	shelves   *ShelfService
	publisher *export.Publisher
}

// NewExportService wires the exporters; publisher may be nil when object
// storage is disabled.
func NewExportService(budgets *BudgetService, shelves *ShelfService, publisher *export.Publisher) *ExportService {
	return &ExportService{budgets: budgets, shelves: shelves, publisher: publisher}
}

func (s *ExportService) CanPublish() bool {
	return s.publisher != nil
}

// Budget renders the budget, with overrides applied when present.
func (s *ExportService) Budget(ctx context.Context, req domain.OverrideRequest, format export.Format, publish bool) (*ExportFile, error) {
	adj, err := s.budgets.Recompute(ctx, req)
	if err != nil {
		return nil, err
	}
	name := "budget"
	if year, month, err := targetMonth(req.Budget, s.budgets.reference()); err == nil {
		name = fmt.Sprintf("budget-%04d-%02d", year, int(month))
	}
	return s.render(ctx, name, export.ForecastTable(adj.Lines), format, publish)
}

func (s *ExportService) Shelf(ctx context.Context, req domain.ShelfRequest, format export.Format, publish bool) (*ExportFile, error) {
	result, err := s.shelves.Classify(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, "shelf-plan", export.ShelfTable(result.Lines), format, publish)
}

func (s *ExportService) Compliance(ctx context.Context, req domain.OverrideRequest, format export.Format, publish bool) (*ExportFile, error) {
	report, err := s.budgets.Compliance(ctx, req)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("compliance-%s", report.PeriodStart.Format("2006-01"))
	return s.render(ctx, name, export.ComplianceTable(report.Lines), format, publish)
}

func (s *ExportService) render(ctx context.Context, name string, table *export.Table, format export.Format, publish bool) (*ExportFile, error) {
	data, err := export.Render(table, format)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	file := &ExportFile{Name: name, Format: format, Data: data}

	if !publish {
		return file, nil
	}
	if s.publisher == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrInvalidInput)
	}
	file.Published, err = s.publisher.Publish(ctx, name, format, data)
	if err != nil {
		return nil, err
	}
	return file, nil
}
