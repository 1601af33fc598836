// Package coffee provides the data structures for cuplog consumption entries.
package coffee

import (
	"fmt"
)

// Unit is a measurement unit for a consumption entry.
type Unit string

const (
	UnitCups Unit = "cups"
	UnitML   Unit = "ml"
	UnitOz   Unit = "oz"
	UnitFlOz Unit = "fl_oz"
)

// MeasurementSystem selects which units the UI offers.
type MeasurementSystem string

const (
	SystemMetric   MeasurementSystem = "metric"
	SystemImperial MeasurementSystem = "imperial"
)

// Conversion rates between cup-based units and milliliters.
const (
	CupsToML = 237
	FlOzToML = 29.5735
)

// DefaultOwner is the single-tenant stand-in for a user id.
// Multi-user identity is out of scope; every entry belongs to one owner.
const DefaultOwner = "default-user"

// Entry represents one persisted coffee-consumption event.
//
// OccurredAt doubles as the entry's externally visible id and its sort key
// under Owner: it is unique per owner and never changes after creation.
// Rating and Location are the only mutable fields; a nil pointer means the
// field was never recorded.
type Entry struct {
	Owner      string  `json:"owner"`
	OccurredAt string  `json:"occurred_at"`
	Amount     float64 `json:"amount"`
	Unit       Unit    `json:"unit"`

	Rating   *int    `json:"rating,omitempty"`
	Location *string `json:"location,omitempty"`
}

// ValidUnit reports whether u is one of the supported units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitCups, UnitML, UnitOz, UnitFlOz:
		return true
	}
	return false
}

// Validate checks that the entry is well-formed enough to persist.
func (e *Entry) Validate() error {
	if e.Owner == "" {
		return NewValidationError("owner is required")
	}
	if e.OccurredAt == "" {
		return NewValidationError("occurred_at is required")
	}
	if e.Amount <= 0 {
		return NewValidationError(fmt.Sprintf("amount must be positive (got %v)", e.Amount))
	}
	if !ValidUnit(e.Unit) {
		return NewValidationError(fmt.Sprintf("unknown unit %q", e.Unit))
	}
	if e.Rating != nil {
		if err := ValidateRating(*e.Rating); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the entry's externally visible identifier.
func (e *Entry) ID() string {
	return e.OccurredAt
}

// AmountInML converts the entry's amount to milliliters.
// Ounces are treated as fluid ounces.
func (e *Entry) AmountInML() float64 {
	switch e.Unit {
	case UnitCups:
		return e.Amount * CupsToML
	case UnitOz, UnitFlOz:
		return e.Amount * FlOzToML
	default:
		return e.Amount
	}
}

// UnitsFor returns the units offered for a measurement system.
func UnitsFor(system MeasurementSystem) []Unit {
	if system == SystemImperial {
		return []Unit{UnitCups, UnitFlOz}
	}
	return []Unit{UnitML}
}
