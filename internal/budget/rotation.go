package budget

import (
	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// Rotation is the mean, over receipts, of units sold within seven days of the
// receipt (inclusive) divided by the units received. Receipts of zero units
// are ignored; with nothing left to average the default applies.
func Rotation(receipts []domain.ReceiptEvent, sales []domain.Transaction) float64 {
	var (
		sum   float64
		count int
	)
	for _, r := range receipts {
		received := r.Quantity
		if received < 0 {
			received = -received
		}
		if received == 0 {
			continue
		}
		windowEnd := r.Date.Add(rotationWindow)

		var sold float64
		for _, s := range sales {
			if s.Type != domain.MovementSale {
				continue
			}
			if s.Date.Before(r.Date) || s.Date.After(windowEnd) {
				continue
			}
			sold += s.Units()
		}
		sum += sold / received
		count++
	}
	if count == 0 {
		return DefaultRotation
	}
	return sum / float64(count)
}
