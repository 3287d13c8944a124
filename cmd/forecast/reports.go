package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/budget-engine/backend-go/internal/cache"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/export"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/andresuchdata/budget-engine/backend-go/internal/storage"
	"github.com/urfave/cli/v2"
)

func scopeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "store", Usage: "Restrict to these stores (repeatable)"},
		&cli.StringFlag{Name: "supplier", Usage: "Restrict to one supplier"},
		&cli.StringFlag{Name: "search", Usage: "Match product code or description"},
		&cli.StringFlag{Name: "from", Usage: "History start date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "History end date (YYYY-MM-DD)"},
	}
}

func outputFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Usage: "csv or xlsx", Value: "xlsx"},
		&cli.StringFlag{Name: "out", Usage: "Output file, or - for stdout", Value: ""},
		&cli.StringFlag{Name: "export-dir", Usage: "Directory used when --out is empty", Value: cfg.App.ExportDir},
		&cli.BoolFlag{Name: "publish", Usage: "Upload the export to object storage"},
	}
}

func budgetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "target-year", Usage: "Budget year (defaults to next month's year)"},
		&cli.IntFlag{Name: "target-month", Usage: "Budget month 1-12 (defaults to next month)"},
		&cli.Float64Flag{Name: "weight-average", Usage: "Weight of the historical average"},
		&cli.Float64Flag{Name: "weight-trend", Usage: "Weight of the trend projection"},
		&cli.Float64Flag{Name: "weight-rotation", Usage: "Weight of the rotation adjusted figure"},
		&cli.Float64Flag{Name: "conservatism", Usage: "Factor between 0.8 and 1.2 applied to the forecast"},
		&cli.StringFlag{Name: "show", Usage: "all, top or critical", Value: "all"},
		&cli.StringSliceFlag{Name: "override", Usage: "CODE=UNITS manual adjustment (repeatable)"},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{newDBURLFlag()}
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func budgetCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "budget",
		Usage:  "Forecast next month's purchase budget per product",
		Flags:  flags(scopeFlags(), budgetFlags(), outputFlags(cfg)),
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			req, err := overrideRequest(c)
			if err != nil {
				return err
			}
			return runExport(c, cfg, func(ctx context.Context, s *service.ExportService, f export.Format, publish bool) (*service.ExportFile, error) {
				return s.Budget(ctx, req, f, publish)
			})
		},
	}
}

func complianceCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "compliance",
		Usage:  "Compare a budget with what was actually sold in its month",
		Flags:  flags(scopeFlags(), budgetFlags(), outputFlags(cfg)),
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			req, err := overrideRequest(c)
			if err != nil {
				return err
			}
			return runExport(c, cfg, func(ctx context.Context, s *service.ExportService, f export.Format, publish bool) (*service.ExportFile, error) {
				return s.Compliance(ctx, req, f, publish)
			})
		},
	}
}

func shelfCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "shelf",
		Usage:  "Classify products into shelf-space tiers",
		Flags:  flags(scopeFlags(), outputFlags(cfg)),
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			req := domain.ShelfRequest{
				Stores:   c.StringSlice("store"),
				Supplier: c.String("supplier"),
				Search:   c.String("search"),
				From:     c.String("from"),
				To:       c.String("to"),
			}
			return runExport(c, cfg, func(ctx context.Context, s *service.ExportService, f export.Format, publish bool) (*service.ExportFile, error) {
				return s.Shelf(ctx, req, f, publish)
			})
		},
	}
}

func overrideRequest(c *cli.Context) (domain.OverrideRequest, error) {
	req := domain.OverrideRequest{
		Budget: domain.BudgetRequest{
			Stores:      c.StringSlice("store"),
			Supplier:    c.String("supplier"),
			Search:      c.String("search"),
			From:        c.String("from"),
			To:          c.String("to"),
			TargetYear:  c.Int("target-year"),
			TargetMonth: c.Int("target-month"),
			Show:        c.String("show"),
		},
	}
	if c.IsSet("weight-average") {
		v := c.Float64("weight-average")
		req.Budget.WeightAverage = &v
	}
	if c.IsSet("weight-trend") {
		v := c.Float64("weight-trend")
		req.Budget.WeightTrend = &v
	}
	if c.IsSet("weight-rotation") {
		v := c.Float64("weight-rotation")
		req.Budget.WeightRotation = &v
	}
	if c.IsSet("conservatism") {
		v := c.Float64("conservatism")
		req.Budget.Conservatism = &v
	}

	overrides, err := parseOverrides(c.StringSlice("override"))
	if err != nil {
		return req, err
	}
	req.Overrides = overrides
	return req, nil
}

// parseOverrides reads CODE=UNITS pairs.
func parseOverrides(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for _, pair := range raw {
		code, units, ok := strings.Cut(pair, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("override %q must look like CODE=UNITS", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(units), 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", pair, err)
		}
		out[code] = v
	}
	return out, nil
}

type exportFunc func(ctx context.Context, s *service.ExportService, format export.Format, publish bool) (*service.ExportFile, error)

func runExport(c *cli.Context, cfg *config.Config, fn exportFunc) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	publish := c.Bool("publish")
	var publisher *export.Publisher
	if publish {
		store, err := storage.NewMinioClient(c.Context, cfg.Storage)
		if err != nil {
			return err
		}
		publisher = export.NewPublisher(store, cfg.Storage.ExportPrefix)
	}

	// One-shot runs read straight from the database.
	noCache := cache.NewNoopResultCache()
	repo := postgres.NewMovementRepository(db)
	budgets := service.NewBudgetService(repo, noCache, cfg.Forecast, cfg.Compliance)
	shelves := service.NewShelfService(repo, noCache, cfg.Forecast, cfg.Shelf)

	file, err := fn(c.Context, service.NewExportService(budgets, shelves, publisher), format, publish)
	if err != nil {
		return err
	}
	if file.Published != nil {
		fmt.Fprintf(c.App.Writer, "published %s\n%s\n", file.Published.Key, file.Published.URL)
	}
	return writeExport(c, file)
}

func writeExport(c *cli.Context, file *service.ExportFile) error {
	out := c.String("out")
	if out == "-" {
		_, err := c.App.Writer.Write(file.Data)
		return err
	}
	if out == "" {
		if c.Bool("publish") {
			return nil
		}
		dir := c.String("export-dir")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		out = filepath.Join(dir, file.Filename())
	}
	if err := os.WriteFile(out, file.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
	return nil
}
