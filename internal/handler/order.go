package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

// ListOrders serves the queue view of a day, filtered by state and sorted
// by creation time.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	state := order.StatePending
	if raw := r.URL.Query().Get("state"); raw != "" {
		if state, err = order.ParseState(raw); err != nil {
			writeError(w, r, err)
			return
		}
		if state == order.StateViewDetail {
			writeError(w, r, badRequest("state %s is not a queue", state))
			return
		}
	}
	dir, err := order.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.Fetch(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("day")
	e.Str(day)
	e.FieldStart("state")
	e.Str(string(state))
	e.FieldStart("direction")
	e.Str(string(dir))
	e.FieldStart("orders")
	encodeOrders(&e, order.BuildQueue(orders, state, dir))
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

// GetOrder serves the detail of one order. It never writes.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), day, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// ChangeOrderStatus applies {"state": ...} to an order. VIEW_DETAIL is
// answered like GetOrder.
func (h *Handler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, state, err := decodeState(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	var (
		o       order.Order
		written bool
	)
	if state == order.StateViewDetail {
		o, err = h.orders.Get(r.Context(), day, id)
	} else {
		o, written, err = h.orders.ChangeStatus(r.Context(), day, id, state)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("written")
	e.Bool(written)
	e.FieldStart("order")
	encodeOrder(&e, o)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

// Stats serves total sales and the menu ranking of a day.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metric, err := order.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := order.DefaultRankLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, badRequest("limit %q", raw))
			return
		}
		limit = n
	}

	orders, err := h.orders.Fetch(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("day")
	e.Str(day)
	e.FieldStart("stats")
	encodeStats(&e, order.BuildStats(orders, metric, limit))
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}
