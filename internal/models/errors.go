package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyCorpus matches every EmptyCorpusError.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrNumeric matches every NumericError.
	ErrNumeric = errors.New("numeric error")
)

// ConfigurationError reports an invalid parameter, e.g. k outside [1, N]
// or a minimum document frequency above the maximum.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// EmptyCorpusError reports zero documents or zero retained vocabulary terms.
type EmptyCorpusError struct {
	Reason string
}

func (e *EmptyCorpusError) Error() string {
	return "empty corpus: " + e.Reason
}

func (e *EmptyCorpusError) Is(target error) bool { return target == ErrEmptyCorpus }

// NumericError reports a non-finite value found during vectorization or clustering.
type NumericError struct {
	Stage  string
	Detail string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("non-finite value during %s: %s", e.Stage, e.Detail)
}

func (e *NumericError) Is(target error) bool { return target == ErrNumeric }
