package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MovementFilter selects movement lines from the store.
type MovementFilter struct {
	From     time.Time
	To       time.Time // inclusive
	Stores   []string
	Types    []MovementType
	Supplier string
	Search   string // matches code or description, case-insensitive
	// MatchDestination also selects transfers whose destination is one of Stores.
	MatchDestination bool
}

// Matches applies the filter to a single line. Repositories that cannot push
// a predicate down use this to finish the job in memory.
func (f MovementFilter) Matches(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, t.Type) {
		return false
	}
	if len(f.Stores) > 0 && !containsString(f.Stores, t.Store) {
		if !f.MatchDestination || !containsString(f.Stores, t.DestinationStore) {
			return false
		}
	}
	if f.Supplier != "" && !strings.EqualFold(f.Supplier, t.Supplier) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Code), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// BudgetRequest carries the planner's selections for one budget run.
type BudgetRequest struct {
	Stores         []string `json:"stores"`
	Supplier       string   `json:"supplier"`
	Search         string   `json:"search"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	TargetYear     int      `json:"target_year"`
	TargetMonth    int      `json:"target_month"`
	WeightAverage  *float64 `json:"weight_average,omitempty"`
	WeightTrend    *float64 `json:"weight_trend,omitempty"`
	WeightRotation *float64 `json:"weight_rotation,omitempty"`
	Conservatism   *float64 `json:"conservatism,omitempty"`
	Show           string   `json:"show"`
}

// OverrideRequest re-evaluates a budget with planner-edited units.
type OverrideRequest struct {
	Budget    BudgetRequest      `json:"budget"`
	Overrides map[string]float64 `json:"overrides"`
}

// ShelfRequest carries the selections for a shelf classification.
type ShelfRequest struct {
	Stores   []string `json:"stores"`
	Supplier string   `json:"supplier"`
	Search   string   `json:"search"`
	From     string   `json:"from"`
	To       string   `json:"to"`
}

// ParseDateRange parses an inclusive from/to pair. The end date is extended to
// the last instant of its day.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if strings.TrimSpace(from) != "" {
		if start, err = time.Parse(DateLayout, strings.TrimSpace(from)); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from date %q", ErrInvalidInput, from)
		}
	}
	if strings.TrimSpace(to) != "" {
		if end, err = time.Parse(DateLayout, strings.TrimSpace(to)); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to date %q", ErrInvalidInput, to)
		}
		end = EndOfDay(end)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date range ends before it starts", ErrInvalidInput)
	}
	return start, end, nil
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func containsType(values []MovementType, v MovementType) bool {
	for _, t := range values {
		if t == v {
			return true
		}
	}
	return false
}
