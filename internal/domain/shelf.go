package domain

import "time"

// ShelfAction is the recommended change to a product's shelf space.
type ShelfAction string

const (
	ShelfHighlight ShelfAction = "highlight"
	ShelfExpand    ShelfAction = "expand"
	ShelfMaintain  ShelfAction = "maintain"
	ShelfReduce    ShelfAction = "reduce"
	ShelfRemove    ShelfAction = "remove"
)

type shelfActionStyle struct {
	label   string
	color   string
	facings int
	order   int
}

var shelfActionStyles = map[ShelfAction]shelfActionStyle{
	ShelfHighlight: {label: "⭐ HIGHLIGHT", color: "#10b981", facings: 4, order: 0},
	ShelfExpand:    {label: "⬆️ EXPAND", color: "#22d3ee", facings: 3, order: 1},
	ShelfMaintain:  {label: "✅ MAINTAIN", color: "#6b7280", facings: 2, order: 2},
	ShelfReduce:    {label: "⬇️ REDUCE", color: "#f97316", facings: 1, order: 3},
	ShelfRemove:    {label: "❌ REMOVE", color: "#ef4444", facings: 0, order: 4},
}

// ShelfActions lists every action in display order.
var ShelfActions = []ShelfAction{ShelfHighlight, ShelfExpand, ShelfMaintain, ShelfReduce, ShelfRemove}

func (a ShelfAction) Label() string { return shelfActionStyles[a].label }
func (a ShelfAction) Color() string { return shelfActionStyles[a].color }
func (a ShelfAction) Facings() int { return shelfActionStyles[a].facings }
func (a ShelfAction) SortOrder() int { return shelfActionStyles[a].order }

// ShelfMetrics are the raw per-product figures the classifier reads.
type ShelfMetrics struct {
	ProductKey
	Revenue          float64   `json:"revenue"`
	Cost             float64   `json:"cost"`
	Margin           float64   `json:"margin"`
	MarginPct        float64   `json:"margin_pct"`
	UnitsSold        float64   `json:"units_sold"`
	UnitsReceived    float64   `json:"units_received"`
	Transactions     int       `json:"transactions"`
	FirstSale        time.Time `json:"first_sale"`
	LastSale         time.Time `json:"last_sale"`
	LastReceipt      time.Time `json:"last_receipt,omitempty"`
	DaysSinceSale    int       `json:"days_since_sale"`
	DaysSinceReceipt int       `json:"days_since_receipt"`
	Rotation         float64   `json:"rotation"`
	SharePct         float64   `json:"share_pct"`
	Rank             int       `json:"rank"`
}

// ShelfLine is a classified product.
type ShelfLine struct {
	ShelfMetrics
	Action      ShelfAction `json:"action"`
	ActionLabel string      `json:"action_label"`
	Reason      string      `json:"reason"`
	Color       string      `json:"color"`
	Facings     int         `json:"facings"`
}

// ShelfResult is the output of one shelf classification.
type ShelfResult struct {
	Lines        []ShelfLine         `json:"lines"`
	Counts       map[ShelfAction]int `json:"counts"`
	TotalRevenue float64             `json:"total_revenue"`
	AvgRotation  float64             `json:"avg_rotation"`
	AvgMargin    float64             `json:"avg_margin"`

	// Impact of applying the plan.
	GrowCount     int     `json:"grow_count"`
	GrowRevenue   float64 `json:"grow_revenue"`
	ShrinkCount   int     `json:"shrink_count"`
	RemoveRevenue float64 `json:"remove_revenue"`
}
