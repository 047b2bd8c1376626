package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/holobridge/internal/journal"
)

// handleJournal lists journal entries, newest first.
//
// Query parameters: kind, endpoint, outcome, since (RFC 3339), limit, offset.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Kind:     q.Get("kind"),
		Endpoint: q.Get("endpoint"),
		Outcome:  q.Get("outcome"),
	}

	switch filter.Kind {
	case "", journal.KindRequest, journal.KindConnection, journal.KindEvent:
	default:
		writeBadRequest(w, "kind must be request, connection or event")
		return
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	res, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("journal query failed", "error", err)
		writeInternalError(w, "failed to query journal")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
