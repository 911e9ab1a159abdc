package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Core structures and stores return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the index or store
// - ErrConflict: a unique key (rank, registration number, national ID) is taken
// - ErrExhausted: fixed-capacity storage has no room left
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrExhausted = errors.New("capacity exhausted")
)
