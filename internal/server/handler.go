package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mwalters/cuplog/internal/coffee"
	"github.com/mwalters/cuplog/internal/store"
)

// errorPayload is the error body shape shared by every endpoint.
// The message is human-readable and shown to the user verbatim.
type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Error: message})
}

// writeFailure maps the error taxonomy onto HTTP statuses: validation
// failures are 400, unknown keys 404, everything else is a storage-side 500.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var ve *coffee.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, coffee.ErrNotFound):
		writeError(w, http.StatusNotFound, "Coffee entry not found")
	default:
		s.logger.Printf("Storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update coffee entry")
	}
}

// handleCreateEntry logs a new consumption entry (append-only; an existing
// key is never overwritten).
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry coffee.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if entry.Owner == "" {
		entry.Owner = s.owner
	}

	if err := s.store.PutEntryContext(r.Context(), &entry); err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Printf("Entry created: %s (%v %s)", entry.ID(), entry.Amount, entry.Unit)
	s.broadcastEntry(MessageTypeEntryCreated, &entry)

	writeJSON(w, http.StatusCreated, &entry)
}

// handleListEntries returns the owner's most recent entries, newest first.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.store.ListRecentContext(r.Context(), s.owner, limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if entries == nil {
		entries = []*coffee.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetEntry fetches one entry by id. The id is the entry's occurred_at
// timestamp, path-escaped by the client.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	entry, err := s.store.GetEntryContext(r.Context(), s.owner, id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleUpdateEntry applies a sparse patch to one entry's mutable fields.
//
// The body is decoded with the absent/null distinction intact: only keys
// present in the payload are applied, and validation runs before any store
// mutation. The response carries the post-update entry.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch coffee.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		var ve *coffee.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return
	}

	entry, err := s.store.ApplyPatchContext(r.Context(), s.owner, id, &patch)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.logger.Printf("Entry updated: %s", entry.ID())
	s.broadcastEntry(MessageTypeEntryUpdated, entry)

	writeJSON(w, http.StatusOK, entry)
}
