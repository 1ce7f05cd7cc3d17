package common

import "errors"

// Failures of the back end. None of them are recoverable: emission stops at
// the first one. Test with errors.Is.
var (
	// A name is declared twice where it must be unique.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	// Something tried to store into a literal operand.
	ErrConstantWrite = errors.New("write to a constant")
	// An operand was read before layout gave it a location.
	ErrUnresolvedLocation = errors.New("unresolved location")
	// The quad or operand capability has no translation.
	ErrUnimplemented = errors.New("unimplemented")
)
