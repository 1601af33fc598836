package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwalters/cuplog/internal/coffee"
)

// testStore opens a fresh database with schema in a temp dir.
func testStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return s
}

func testEntry(occurredAt string) *coffee.Entry {
	return &coffee.Entry{
		Owner:      "u",
		OccurredAt: occurredAt,
		Amount:     200,
		Unit:       coffee.UnitML,
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	s := testStore(t)

	if err := s.InitSchema(); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}
}

func TestPutEntry_AndGet(t *testing.T) {
	s := testStore(t)

	rating := 4
	location := "Office"
	entry := testEntry("2023-04-20T12:00:00Z")
	entry.Rating = &rating
	entry.Location = &location

	if err := s.PutEntry(entry); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	got, err := s.GetEntry("u", "2023-04-20T12:00:00Z")
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}

	if got.Amount != 200 || got.Unit != coffee.UnitML {
		t.Errorf("got %v %s, want 200 ml", got.Amount, got.Unit)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("Rating = %v, want 4", got.Rating)
	}
	if got.Location == nil || *got.Location != "Office" {
		t.Errorf("Location = %v, want Office", got.Location)
	}
}

func TestPutEntry_OptionalFieldsAbsent(t *testing.T) {
	s := testStore(t)

	if err := s.PutEntry(testEntry("2023-04-20T12:00:00Z")); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	got, err := s.GetEntry("u", "2023-04-20T12:00:00Z")
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}
	if got.Rating != nil {
		t.Errorf("Rating = %v, want nil", got.Rating)
	}
	if got.Location != nil {
		t.Errorf("Location = %v, want nil", got.Location)
	}
}

func TestPutEntry_DuplicateKeyRejected(t *testing.T) {
	s := testStore(t)

	entry := testEntry("2023-04-20T12:00:00Z")
	if err := s.PutEntry(entry); err != nil {
		t.Fatalf("First PutEntry() failed: %v", err)
	}

	err := s.PutEntry(entry)
	if err == nil {
		t.Fatal("Second PutEntry() succeeded, want validation error")
	}
	if !coffee.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestPutEntry_InvalidEntryRejected(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name  string
		entry *coffee.Entry
	}{
		{"zero amount", &coffee.Entry{Owner: "u", OccurredAt: "2023-04-20T12:00:00Z", Amount: 0, Unit: coffee.UnitML}},
		{"negative amount", &coffee.Entry{Owner: "u", OccurredAt: "2023-04-20T12:00:00Z", Amount: -1, Unit: coffee.UnitML}},
		{"bad unit", &coffee.Entry{Owner: "u", OccurredAt: "2023-04-20T12:00:00Z", Amount: 1, Unit: "barrels"}},
		{"missing key", &coffee.Entry{Owner: "u", Amount: 1, Unit: coffee.UnitML}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.PutEntry(tt.entry)
			if !coffee.IsValidation(err) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetEntry("u", "2023-04-20T12:00:00Z")
	if !errors.Is(err, coffee.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	s := testStore(t)

	base := time.Date(2023, 4, 20, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		occurredAt := base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		if err := s.PutEntry(testEntry(occurredAt)); err != nil {
			t.Fatalf("PutEntry(%d) failed: %v", i, err)
		}
	}

	entries, err := s.ListRecent("u", 3)
	if err != nil {
		t.Fatalf("ListRecent() failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].OccurredAt < entries[i].OccurredAt {
			t.Errorf("entries out of order: %s before %s", entries[i-1].OccurredAt, entries[i].OccurredAt)
		}
	}
}

func TestListRecent_DefaultLimit(t *testing.T) {
	s := testStore(t)

	base := time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		occurredAt := base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		if err := s.PutEntry(testEntry(occurredAt)); err != nil {
			t.Fatalf("PutEntry(%d) failed: %v", i, err)
		}
	}

	entries, err := s.ListRecent("u", 0)
	if err != nil {
		t.Fatalf("ListRecent() failed: %v", err)
	}
	if len(entries) != DefaultListLimit {
		t.Errorf("len = %d, want %d", len(entries), DefaultListLimit)
	}
}

func TestListRecent_ScopedToOwner(t *testing.T) {
	s := testStore(t)

	mine := testEntry("2023-04-20T12:00:00Z")
	if err := s.PutEntry(mine); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	other := testEntry("2023-04-20T13:00:00Z")
	other.Owner = "someone-else"
	if err := s.PutEntry(other); err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}

	entries, err := s.ListRecent("u", 10)
	if err != nil {
		t.Fatalf("ListRecent() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].Owner != "u" {
		t.Errorf("Owner = %q, want u", entries[0].Owner)
	}
}

func TestCountEntries(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 3; i++ {
		occurredAt := fmt.Sprintf("2023-04-20T1%d:00:00Z", i)
		if err := s.PutEntry(testEntry(occurredAt)); err != nil {
			t.Fatalf("PutEntry() failed: %v", err)
		}
	}

	count, err := s.CountEntries(t.Context(), "u")
	if err != nil {
		t.Fatalf("CountEntries() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
