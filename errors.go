package tablediff

import "errors"

// Common errors used throughout the tablediff package
var (
	// ErrInvalidDecimalString is returned when a numeric literal cannot be parsed as decimal.
	// Value model errors
	ErrInvalidDecimalString = errors.New("invalid decimal string")

	// ErrUnknownPolicy is returned when a textual policy form is not recognized.
	// Policy errors
	ErrUnknownPolicy = errors.New("unknown comparison policy")
	// ErrInvalidPolicyPattern indicates a regexp policy pattern failed to compile.
	ErrInvalidPolicyPattern = errors.New("invalid policy pattern")

	// ErrDuplicateTable indicates two tables with the same name in one table set.
	// Table model errors
	ErrDuplicateTable = errors.New("duplicate table name in table set")
)
