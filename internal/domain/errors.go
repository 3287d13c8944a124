package domain

import "errors"

var (
	// ErrNoData is returned when the selected filters match no products.
	ErrNoData = errors.New("no data available for the selected filters")

	ErrInvalidInput = errors.New("invalid input")
)
