package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
)

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	e.ArrStart()
	for _, c := range coupons {
		encodeCoupon(&e, c)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeCoupon(&e, c)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// CreateCoupon validates and stores a coupon form. New coupons are active
// unless the form says otherwise.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCoupon(w, r, coupon.Coupon{IsActive: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.coupons.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeCoupon(&e, created)
	w.Header().Set("Location", "/api/coupons/"+created.ID)
	writeJSON(w, http.StatusCreated, e.Bytes())
}

// UpdateCoupon merges the form over the stored coupon and saves it.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	current, err := h.coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := decodeCoupon(w, r, current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.coupons.Update(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeCoupon(&e, c)
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuoteCoupon computes the discount a coupon gives on an order subtotal.
func (h *Handler) QuoteCoupon(w http.ResponseWriter, r *http.Request) {
	subtotal, selector, err := decodeQuote(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := daykey.Resolve(selector, h.now(), h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.coupons.Quote(r.Context(), id, subtotal, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	encodeDiscount(&e, id, subtotal, d)
	writeJSON(w, http.StatusOK, e.Bytes())
}
