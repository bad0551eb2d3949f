// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.13
//

package sp3

import (
	"errors"
	"fmt"
)

// Structural errors
var (
	ErrMissingLine1        = errors.New("missing header line #1")
	ErrMissingLine2        = errors.New("missing header line #2")
	ErrMalformedLine1      = errors.New("malformed header line #1")
	ErrMalformedLine2      = errors.New("malformed header line #2")
	ErrInvalidDescriptor   = errors.New("invalid %c line")
	ErrUnsupportedRevision = errors.New("non supported SP3 revision")
	ErrUnknownOrbitType    = errors.New("unknown SP3 orbit type")
	ErrUnknownDataType     = errors.New("unknown SP3 data type")
	ErrNoEpoch             = errors.New("record found before any epoch line")
)

// Field decoding errors
var (
	ErrEpochYear        = errors.New("failed to parse epoch year")
	ErrEpochMonth       = errors.New("failed to parse epoch month")
	ErrEpochDay         = errors.New("failed to parse epoch day")
	ErrEpochHours       = errors.New("failed to parse epoch hours")
	ErrEpochMinutes     = errors.New("failed to parse epoch minutes")
	ErrEpochSeconds     = errors.New("failed to parse epoch seconds")
	ErrEpochFraction    = errors.New("failed to parse epoch fractional seconds")
	ErrNumberOfEpochs   = errors.New("failed to parse number of epochs")
	ErrWeekCounter      = errors.New("failed to parse week counter")
	ErrWeekSeconds      = errors.New("failed to parse seconds of week")
	ErrSamplingInterval = errors.New("failed to parse sampling interval")
	ErrMJD              = errors.New("failed to parse mjd start")
	ErrSatellite        = errors.New("failed to parse satellite id")
	ErrAccuracy         = errors.New("failed to parse satellite accuracy")
	ErrCoordinates      = errors.New("failed to parse (x, y, or z) coordinates")
	ErrClock            = errors.New("failed to parse clock data")
)

// Merge errors
var (
	ErrIncompatibleAgency = errors.New("cannot merge data from different agencies")
	ErrMergeConflict      = errors.New("both datasets hold an entry for the same epoch and satellite")
)

// FieldError carries the raw column text that failed to decode
type FieldError struct {
	Kind error
	Raw  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s from %q", e.Kind.Error(), e.Raw)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

func fieldError(kind error, raw string) error {
	return &FieldError{Kind: kind, Raw: raw}
}

// LineError locates a parse failure in the input (1-based line number)
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
}

func (e *LineError) Unwrap() error {
	return e.Err
}
