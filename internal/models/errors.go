package models

import "errors"

var (
	// ErrDataIntegrity covers missing values, unordered or duplicate years,
	// and inputs that are empty after filtering.
	ErrDataIntegrity = errors.New("data integrity")

	// ErrInsufficientHistory is returned when a fit has too few rows to be
	// determined.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrExternalStore wraps every failure talking to the database.
	ErrExternalStore = errors.New("external store")
)
