package domain

import (
	"math"
	"time"
)

// MovementType classifies an inventory movement line.
type MovementType string

const (
	MovementSale        MovementType = "sale"
	MovementReceipt     MovementType = "receipt"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
)

var movementTypeAliases = map[string]MovementType{
	"sale":                  MovementSale,
	"venta":                 MovementSale,
	"receipt":               MovementReceipt,
	"recepcion":             MovementReceipt,
	"transfer_in":           MovementTransferIn,
	"transferencia_entrada": MovementTransferIn,
	"transfer_out":          MovementTransferOut,
	"transferencia_salida":  MovementTransferOut,
}

// ParseMovementType accepts both the canonical names and the labels used by
// the point-of-sale exports (Venta, Recepción, Transferencia_Entrada, ...).
func ParseMovementType(raw string) (MovementType, bool) {
	t, ok := movementTypeAliases[NormalizeLabel(raw)]
	return t, ok
}

// Transaction is one immutable movement line.
type Transaction struct {
	Date             time.Time    `json:"date" db:"movement_date"`
	Store            string       `json:"store" db:"store"`
	Code             string       `json:"code" db:"product_code"`
	Description      string       `json:"description" db:"description"`
	Type             MovementType `json:"movement_type" db:"movement_type"`
	Quantity         float64      `json:"quantity" db:"quantity"`
	UnitCost         float64      `json:"unit_cost" db:"unit_cost"`
	UnitPrice        float64      `json:"unit_price" db:"unit_price"`
	Supplier         string       `json:"supplier" db:"supplier"`
	DestinationStore string       `json:"destination_store,omitempty" db:"destination_store"`
	DocumentNumber   string       `json:"document_number,omitempty" db:"document_number"`
}

// Units is the absolute quantity moved.
func (t Transaction) Units() float64 { return math.Abs(t.Quantity) }

func (t Transaction) Revenue() float64 { return t.Units() * t.UnitPrice }

func (t Transaction) Cost() float64 { return t.Units() * t.UnitCost }

func (t Transaction) Margin() float64 { return t.Revenue() - t.Cost() }

// ProductKey identifies a product across stores.
type ProductKey struct {
	Code        string `json:"code" db:"product_code"`
	Description string `json:"description" db:"description"`
	Supplier    string `json:"supplier" db:"supplier"`
}

// ProductSummary is the per-product rollup of historical sales.
type ProductSummary struct {
	ProductKey
	Revenue           float64   `json:"revenue"`
	Cost              float64   `json:"cost"`
	Margin            float64   `json:"margin"`
	MarginPct         float64   `json:"margin_pct"`
	Units             float64   `json:"units"`
	UnitCost          float64   `json:"unit_cost"`
	UnitPrice         float64   `json:"unit_price"`
	FirstSale         time.Time `json:"first_sale"`
	LastSale          time.Time `json:"last_sale"`
	Transactions      int       `json:"transactions"`
	DaysSinceLastSale int       `json:"days_since_last_sale"`
}

// MonthlyPoint is one calendar month of sales for a product.
type MonthlyPoint struct {
	Month   time.Time `json:"month"`
	Units   float64   `json:"units"`
	Revenue float64   `json:"revenue"`
}

// ReceiptEvent is a single stock arrival for a product.
type ReceiptEvent struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// NoActivityDays is reported when a product has no dated activity.
const NoActivityDays = 999

// DaysBetween returns the whole days elapsed from since to ref, or
// NoActivityDays when since is unset.
func DaysBetween(ref, since time.Time) int {
	if since.IsZero() {
		return NoActivityDays
	}
	return int(math.Floor(ref.Sub(since).Hours() / 24))
}

// MonthStart truncates t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
