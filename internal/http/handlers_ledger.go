package http

import (
	"net/http"

	"igreja/internal/core"
)

type recordResponse struct {
	Outcome core.RecordOutcome `json:"outcome"`
}

// handleRecordContribution answers 201 when the month was new for the
// member and 200 when an existing entry was overwritten.
func (s *Server) handleRecordContribution(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanAccessLedger() {
		writeError(w, r, "record_contribution", core.ErrReadOnly)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := req.toContribution()
	if err != nil {
		writeError(w, r, "record_contribution", err)
		return
	}

	outcome, err := s.ledger.RecordContribution(r.Context(), true, c)
	if err != nil {
		writeError(w, r, "record_contribution", err)
		return
	}
	status := http.StatusOK
	if outcome == core.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, recordResponse{Outcome: outcome})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanAccessLedger() {
		writeError(w, r, "list_entries", core.ErrNoAccess)
		return
	}
	f, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, r, "list_entries", err)
		return
	}

	entries := []core.LedgerEntry{}
	for e, err := range s.ledger.ListEntries(r.Context(), f) {
		if err != nil {
			writeError(w, r, "list_entries", err)
			return
		}
		entries = append(entries, e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request, role core.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.ledger.DeleteEntry(r.Context(), role.CanAccessLedger(), id); err != nil {
		writeError(w, r, "delete_entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
