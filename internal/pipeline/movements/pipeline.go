package movements

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Config controls how movement exports are read.
type Config struct {
	// FilenameDateLayout is the layout of the date embedded in file names.
	FilenameDateLayout string
	// DefaultStore is used when the file has no store column and the store
	// cannot be taken from the file name.
	DefaultStore string
	// Location for dates without an explicit zone.
	Location *time.Location
}

// Pipeline reads point-of-sale movement exports (CSV or XLSX).
type Pipeline struct {
	config Config
}

func New(cfg Config) *Pipeline {
	if cfg.FilenameDateLayout == "" {
		cfg.FilenameDateLayout = "20060102"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Pipeline{config: cfg}
}

func (p *Pipeline) Name() string {
	return "movements"
}

var embeddedDate = regexp.MustCompile(`(?:^|[^0-9])(\d{8})(?:[^0-9]|$)`)

// GetSnapshotDate reads the date at the start of the file name, or failing
// that the first eight-digit group in it.
func (p *Pipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	layout := p.config.FilenameDateLayout
	if len(base) >= len(layout) {
		if t, err := time.ParseInLocation(layout, base[:len(layout)], p.config.Location); err == nil {
			return t, nil
		}
	}
	if m := embeddedDate.FindStringSubmatch(base); m != nil {
		if t, err := time.ParseInLocation("20060102", m[1], p.config.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("filename %s does not contain a date with layout %s", filename, layout)
}

func (p *Pipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	if !Supported(inputFile) {
		return fmt.Errorf("unsupported file extension %s for %s", filepath.Ext(inputFile), inputFile)
	}
	return nil
}

// Supported reports whether the file has an extension the pipeline reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Transform reads every valid movement line of the file. Lines with an
// unknown movement type, no product code or an unreadable date are skipped.
func (p *Pipeline) Transform(ctx context.Context, inputFile string) ([]domain.Transaction, error) {
	records, err := readRecords(inputFile)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", inputFile)
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputFile, err)
	}
	store := p.storeFromFilename(inputFile)

	out := make([]domain.Transaction, 0, len(records)-1)
	skipped := 0
	for i, record := range records[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := cols.bind(record)
		if row.empty() {
			continue
		}
		t, ok := p.parseRow(row, store)
		if !ok {
			skipped++
			continue
		}
		out = append(out, t)
	}

	if skipped > 0 {
		log.Warn().Str("file", filepath.Base(inputFile)).Int("skipped", skipped).Msg("movements: skipped unreadable lines")
	}
	return out, nil
}

func (p *Pipeline) parseRow(row boundRow, fallbackStore string) (domain.Transaction, bool) {
	typ, ok := domain.ParseMovementType(row.get(colType))
	if !ok {
		return domain.Transaction{}, false
	}
	code := normalizeCode(row.get(colCode))
	if code == "" {
		return domain.Transaction{}, false
	}
	date, err := parseDate(row.get(colDate), p.config.Location)
	if err != nil {
		return domain.Transaction{}, false
	}

	qty := parseNumber(row.get(colQuantity))
	t := domain.Transaction{
		Date:             date,
		Store:            row.get(colStore),
		Code:             code,
		Description:      row.get(colDescription),
		Type:             typ,
		Quantity:         qty,
		UnitCost:         parseNumber(row.get(colCost)),
		Supplier:         row.get(colSupplier),
		DestinationStore: row.get(colDestination),
		DocumentNumber:   row.get(colDocument),
	}
	if t.Store == "" {
		t.Store = fallbackStore
	}

	// Exports carry either a unit price or the line total.
	if row.has(colUnitPrice) {
		t.UnitPrice = parseNumber(row.get(colUnitPrice))
	} else if total := parseNumber(row.get(colLineTotal)); t.Units() > 0 {
		t.UnitPrice = total / t.Units()
	}
	return t, true
}

// storeFromFilename drops the leading date prefix the Drive watcher adds, so
// "20240601_Centro.csv" yields "Centro".
func (p *Pipeline) storeFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	layout := p.config.FilenameDateLayout
	if len(name) > len(layout)+1 && (name[len(layout)] == '_' || name[len(layout)] == ' ') {
		if _, err := time.Parse(layout, name[:len(layout)]); err == nil {
			name = strings.TrimSpace(name[len(layout)+1:])
			if name != "" {
				return name
			}
		}
	}
	return p.config.DefaultStore
}

// normalizeCode strips the ".0" spreadsheets append to numeric codes.
func normalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") && isDigits(s[:len(s)-2]) {
		return s[:len(s)-2]
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
