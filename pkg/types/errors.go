package types

import "errors"

// Relation and cascade errors.
var (
	ErrUndefinedRelationship = errors.New("undefined relationship")
	ErrRelationKeyMissing    = errors.New("relation key missing from row")
	ErrInvalidAction         = errors.New("invalid cascade action")
)

// Registry and model errors.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrTableNotFound = errors.New("table not found")
	ErrUndefinedHook = errors.New("undefined hook")
	ErrInvalidModel  = errors.New("invalid model declaration")
	ErrInvalidData   = errors.New("invalid row data")
)
