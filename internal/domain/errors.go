package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced product does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientHistory is returned when too few distinct sale days exist to fit a model.
	ErrInsufficientHistory = errors.New("insufficient sales history")
	// ErrInvalidProductParameters is returned when cost or lead-time inputs are degenerate.
	ErrInvalidProductParameters = errors.New("invalid product parameters")
	// ErrInvalidArgument is returned for request arguments outside their accepted range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForecastTimeout is returned when model fitting exceeds its time budget. Retryable.
	ErrForecastTimeout = errors.New("forecast timed out")
	// ErrInsufficientStock is returned when an outbound movement would make stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateCode is returned when a product code is already taken.
	ErrDuplicateCode = errors.New("product code already exists")
	// ErrProductInUse is returned when deleting a product that has stock movements or sales.
	ErrProductInUse = errors.New("product has recorded movements")
)
