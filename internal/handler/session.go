package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/session"
)

// OpenSession creates a view session. Every query field is optional; the
// defaults are today's pending orders, newest first, ranked by count.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	p, err := decodeQueryParams(w, r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.apply(session.NewQuery(daykey.From(h.now().In(h.loc))), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, v, err := h.sessions.Open(r.Context(), q)
	if s != nil {
		w.Header().Set("Location", "/api/sessions/"+s.ID())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeSession(&e, s, v)
	writeJSON(w, http.StatusCreated, e.Bytes())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.View()
	if err != nil && !errors.Is(err, session.ErrNoView) {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeSession(&e, s, v)
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSessionQuery replaces fields of the session query and refreshes.
// A request overtaken by a later one answers 409.
func (h *Handler) UpdateSessionQuery(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := decodeQueryParams(w, r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.apply(s.Query(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Refresh(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeSession(&e, s, v)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// ChangeSessionStatus applies {"orderId", "state"} within a session and
// returns the order with the refreshed view.
func (h *Handler) ChangeSessionStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	orderID, state, err := decodeState(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orderID == "" {
		writeError(w, r, badRequest("orderId is required"))
		return
	}
	o, err := s.ChangeStatus(r.Context(), orderID, state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.View()
	if err != nil && !errors.Is(err, session.ErrNoView) {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("order")
	encodeOrder(&e, o)
	e.FieldStart("session")
	encodeSession(&e, s, v)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}
