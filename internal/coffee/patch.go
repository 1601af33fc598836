package coffee

import (
	"encoding/json"
	"fmt"
)

// Patch describes a sparse edit to one entry's mutable fields.
//
// A nil field means "leave unchanged". Presence is the authoritative update
// signal, not value truthiness: an empty Location is still applied. There is
// no clear sentinel for Rating; the update instruction only ever sets fields
// that are present, so a stored rating cannot be cleared through a patch.
// Callers that want "unset" must omit the field.
type Patch struct {
	Rating   *int    `json:"rating,omitempty"`
	Location *string `json:"location,omitempty"`
}

// IsEmpty reports whether the patch carries no present fields.
// An empty patch is a caller error, not a no-op.
func (p *Patch) IsEmpty() bool {
	return p.Rating == nil && p.Location == nil
}

// ValidateRating checks the 1-5 inclusive rating range.
func ValidateRating(rating int) error {
	if rating < RatingMin || rating > RatingMax {
		return NewValidationError(ErrMsgRatingOutOfRange)
	}
	return nil
}

// Rating bounds, inclusive.
const (
	RatingMin = 1
	RatingMax = 5
)

// Validation messages surfaced verbatim in API error payloads.
const (
	ErrMsgRatingOutOfRange = "rating out of range"
	ErrMsgNoFields         = "no fields to update"
)

// Validate checks every present field of the patch.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return NewValidationError(ErrMsgNoFields)
	}
	if p.Rating != nil {
		if err := ValidateRating(*p.Rating); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalJSON decodes a patch while preserving the absent/null distinction.
//
// A key that is missing from the payload leaves the field nil. A key that is
// present must carry a usable value: an explicit null or non-integer rating
// is rejected with the same out-of-range error rather than coerced, and a
// non-string location is rejected outright. This closes the ambiguity where
// a never-rated entry saved untouched would otherwise submit a null rating
// that numerically coerces to zero.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse patch: %w", err)
	}

	if v, ok := raw["rating"]; ok {
		var rating int
		if err := json.Unmarshal(v, &rating); err != nil {
			return NewValidationError(ErrMsgRatingOutOfRange)
		}
		p.Rating = &rating
	}

	if v, ok := raw["location"]; ok {
		var location string
		if err := json.Unmarshal(v, &location); err != nil {
			return NewValidationError("location must be a string")
		}
		p.Location = &location
	}

	return nil
}
