package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnknownRole signals an unrecognized algorithm role.
	ErrUnknownRole = errors.New("unknown algorithm role")
	// ErrUnknownMetric signals an unrecognized similarity metric.
	ErrUnknownMetric = errors.New("unknown similarity metric")
	// ErrUnknownDimension signals a feature dimension outside the fixed schema.
	ErrUnknownDimension = errors.New("unknown feature dimension")
	// ErrVersionNotFound signals a missing algorithm version.
	ErrVersionNotFound = errors.New("algorithm version not found")
	// ErrTestNotFound signals a missing A/B test.
	ErrTestNotFound = errors.New("ab test not found")
	// ErrTestAlreadyRunning signals a second running test for the same role.
	ErrTestAlreadyRunning = errors.New("a running test already exists for this role")
	// ErrPoolTooSmall signals a clustering pool smaller than k.
	ErrPoolTooSmall = errors.New("pool smaller than cluster count")
	// ErrInvalidDefinition signals a malformed archetype definition.
	ErrInvalidDefinition = errors.New("invalid archetype definition")
	// ErrValidation signals rejected caller input.
	ErrValidation = errors.New("validation failed")
)
