package http

import (
	"encoding/json"
	"net/http"
	"net/url"

	"ledger/internal/core"
)

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, core.NewValidationError("Request body must be valid JSON"))
		return
	}

	tx, err := s.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeSuccess(w, http.StatusCreated, tx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.List(r.Context(), filterInputFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RawQuery
	if summary, ok := s.summaryCache.Get(key); ok {
		writeSuccess(w, http.StatusOK, summary)
		return
	}

	summary, err := s.svc.Summarize(r.Context(), filterInputFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeSuccess(w, http.StatusOK, summary)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, core.NewValidationError("Request body must be valid JSON"))
		return
	}

	tx, err := s.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeSuccess(w, http.StatusOK, tx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	msg, err := s.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeSuccess(w, http.StatusOK, map[string]string{"message": msg})
}

// filterInputFromQuery keeps absent parameters nil so validation can tell
// "not sent" apart from "sent empty".
func filterInputFromQuery(query url.Values) core.FilterInput {
	var in core.FilterInput
	if query.Has("type") {
		v := query.Get("type")
		in.Type = &v
	}
	if query.Has("from") {
		v := query.Get("from")
		in.From = &v
	}
	if query.Has("to") {
		v := query.Get("to")
		in.To = &v
	}
	if query.Has("category") {
		v := query.Get("category")
		in.Category = &v
	}
	return in
}
