package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCapabilityUnavailable marks failures of the embedding or generation
	// services: unreachable, unauthorized or timed out.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrIndexNotFound is returned by Load when nothing (or nothing but an
	// empty index) was persisted.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt is returned by Load when the persisted index cannot be decoded.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrIndexStale is returned by Load when the index was built with a
	// different chunking or embedding configuration.
	ErrIndexStale = errors.New("index stale")
)

// SourceLoadError reports that one ingestion source could not be read.
type SourceLoadError struct {
	Source string
	Kind   string
	Err    error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("load %s source %q: %v", e.Kind, e.Source, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	return e.Err
}

// CapabilityError wraps a failure of an external embedding or generation call.
type CapabilityError struct {
	Capability string
	Provider   string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s provider %s unavailable: %v", e.Capability, e.Provider, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityUnavailable
}

// Unavailable wraps err as a CapabilityError. A nil err yields nil.
func Unavailable(capability, provider string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return err
	}
	return &CapabilityError{Capability: capability, Provider: provider, Err: err}
}
