package v1

import (
	"net/http"
	"time"

	"github.com/vmunix/snapguess/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	// Validate pagination parameters
	if limit < 0 || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	if s.deps.EventLog == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
		return
	}

	evts, total, err := s.deps.EventLog.Recent(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	resp := listEventsResponse{
		Items:  make([]EventResponse, len(evts)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, e := range evts {
		resp.Items[i] = eventToResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listImportEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.deps.EventLog == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
		return
	}

	// Verify the job exists
	if _, err := s.deps.Importer.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Import not found")
		return
	}

	evts, err := s.deps.EventLog.ForEntity(events.EntityImport, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	resp := listEventsResponse{
		Items:  make([]EventResponse, len(evts)),
		Total:  len(evts),
		Limit:  len(evts),
		Offset: 0,
	}
	for i, e := range evts {
		resp.Items[i] = eventToResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

func eventToResponse(e events.RawEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		EventType:  e.EventType,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}
}
