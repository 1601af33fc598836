package store

import (
	"errors"
	"testing"

	"github.com/mwalters/cuplog/internal/coffee"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// seedEntry inserts the canonical test record {owner:"u", 200 ml}.
func seedEntry(t *testing.T, s *Store, occurredAt string) {
	t.Helper()
	if err := s.PutEntry(testEntry(occurredAt)); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}
}

func TestApplyPatch_EmptyPatchRejected(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	_, err := s.ApplyPatch("u", "T1", &coffee.Patch{})
	if err == nil {
		t.Fatal("ApplyPatch() succeeded, want validation error")
	}

	var ve *coffee.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Message != coffee.ErrMsgNoFields {
		t.Errorf("message = %q, want %q", ve.Message, coffee.ErrMsgNoFields)
	}
}

func TestApplyPatch_RatingBounds(t *testing.T) {
	tests := []struct {
		rating int
		ok     bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	}

	for _, tt := range tests {
		s := testStore(t)
		seedEntry(t, s, "T1")

		updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Rating: intPtr(tt.rating)})
		if tt.ok {
			if err != nil {
				t.Errorf("rating %d: ApplyPatch() failed: %v", tt.rating, err)
				continue
			}
			if updated.Rating == nil || *updated.Rating != tt.rating {
				t.Errorf("rating %d: stored %v", tt.rating, updated.Rating)
			}
			continue
		}

		var ve *coffee.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("rating %d: error = %v, want ValidationError", tt.rating, err)
			continue
		}
		if ve.Message != coffee.ErrMsgRatingOutOfRange {
			t.Errorf("rating %d: message = %q, want %q", tt.rating, ve.Message, coffee.ErrMsgRatingOutOfRange)
		}
	}
}

func TestApplyPatch_InvalidRatingLeavesRecordUnchanged(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	if _, err := s.ApplyPatch("u", "T1", &coffee.Patch{Rating: intPtr(6)}); err == nil {
		t.Fatal("ApplyPatch() succeeded, want validation error")
	}

	got, err := s.GetEntry("u", "T1")
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}
	if got.Rating != nil {
		t.Errorf("Rating = %v, want nil (record must be unchanged)", got.Rating)
	}
}

func TestApplyPatch_LocationOnlyPreservesRating(t *testing.T) {
	s := testStore(t)

	entry := testEntry("T1")
	entry.Rating = intPtr(4)
	if err := s.PutEntry(entry); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Location: strPtr("Home")})
	if err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	if updated.Rating == nil || *updated.Rating != 4 {
		t.Errorf("Rating = %v, want 4 (must be untouched)", updated.Rating)
	}
	if updated.Location == nil || *updated.Location != "Home" {
		t.Errorf("Location = %v, want Home", updated.Location)
	}

	// Round-trip: a fresh fetch agrees with the returned record.
	got, err := s.GetEntry("u", "T1")
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("refetched Rating = %v, want 4", got.Rating)
	}
	if got.Location == nil || *got.Location != "Home" {
		t.Errorf("refetched Location = %v, want Home", got.Location)
	}
}

func TestApplyPatch_LocationOnNeverRatedEntry(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Location: strPtr("Office")})
	if err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	if updated.Location == nil || *updated.Location != "Office" {
		t.Errorf("Location = %v, want Office", updated.Location)
	}
	if updated.Rating != nil {
		t.Errorf("Rating = %v, want still absent", updated.Rating)
	}
}

func TestApplyPatch_EmptyLocationIsApplied(t *testing.T) {
	s := testStore(t)

	entry := testEntry("T1")
	entry.Location = strPtr("Office")
	if err := s.PutEntry(entry); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	// Presence, not truthiness: clearing a text field to "" is a real edit.
	updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Location: strPtr("")})
	if err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	if updated.Location == nil || *updated.Location != "" {
		t.Errorf("Location = %v, want empty string", updated.Location)
	}
}

func TestApplyPatch_Idempotent(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	patch := &coffee.Patch{Rating: intPtr(5), Location: strPtr("Office")}

	first, err := s.ApplyPatch("u", "T1", patch)
	if err != nil {
		t.Fatalf("First ApplyPatch() failed: %v", err)
	}
	second, err := s.ApplyPatch("u", "T1", patch)
	if err != nil {
		t.Fatalf("Second ApplyPatch() failed: %v", err)
	}

	if *first.Rating != *second.Rating || *first.Location != *second.Location {
		t.Errorf("applying twice diverged: first %v/%v, second %v/%v",
			*first.Rating, *first.Location, *second.Rating, *second.Location)
	}
}

func TestApplyPatch_BothFields(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Rating: intPtr(3), Location: strPtr("Cafe")})
	if err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	if updated.Rating == nil || *updated.Rating != 3 {
		t.Errorf("Rating = %v, want 3", updated.Rating)
	}
	if updated.Location == nil || *updated.Location != "Cafe" {
		t.Errorf("Location = %v, want Cafe", updated.Location)
	}
}

func TestApplyPatch_IdentityImmutable(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	updated, err := s.ApplyPatch("u", "T1", &coffee.Patch{Rating: intPtr(2)})
	if err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	if updated.Owner != "u" || updated.OccurredAt != "T1" {
		t.Errorf("identity changed: %s/%s", updated.Owner, updated.OccurredAt)
	}
	if updated.Amount != 200 || updated.Unit != coffee.UnitML {
		t.Errorf("immutable fields changed: %v %s", updated.Amount, updated.Unit)
	}
}

func TestApplyPatch_NotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.ApplyPatch("u", "missing", &coffee.Patch{Location: strPtr("Office")})
	if !errors.Is(err, coffee.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApplyPatch_WrongOwnerNotFound(t *testing.T) {
	s := testStore(t)
	seedEntry(t, s, "T1")

	_, err := s.ApplyPatch("someone-else", "T1", &coffee.Patch{Location: strPtr("Office")})
	if !errors.Is(err, coffee.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
