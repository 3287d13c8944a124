package budget_test

import (
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/budget"
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func sale(code string, date time.Time, qty float64) domain.Transaction {
	return domain.Transaction{Date: date, Code: code, Type: domain.MovementSale, Quantity: -qty, UnitPrice: 10, UnitCost: 6}
}

func TestRotation(t *testing.T) {
	sales := []domain.Transaction{
		sale("A", day(0), 3),
		sale("A", day(7), 4),
		sale("A", day(8), 50),
	}

	tests := []struct {
		name     string
		receipts []domain.ReceiptEvent
		want     float64
	}{
		{
			name: "no receipts uses the default",
			want: budget.DefaultRotation,
		},
		{
			name:     "window includes both ends",
			receipts: []domain.ReceiptEvent{{Date: day(0), Quantity: 10}},
			want:     0.7,
		},
		{
			name:     "zero quantity receipts are ignored",
			receipts: []domain.ReceiptEvent{{Date: day(0), Quantity: 0}},
			want:     budget.DefaultRotation,
		},
		{
			name: "mean over receipts",
			receipts: []domain.ReceiptEvent{
				{Date: day(0), Quantity: 10},
				{Date: day(8), Quantity: 100},
				{Date: day(3), Quantity: 0},
			},
			want: (0.7 + 0.5) / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, budget.Rotation(tt.receipts, sales), 1e-9)
		})
	}
}
