package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
	"github.com/xenking/kitchen-backoffice/internal/session"
)

const maxBodySize = 1 << 20

// decodeBody calls fn for every top-level field of the JSON object body.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return badRequest("empty body")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		if errors.Is(err, errBadRequest) {
			return err
		}
		return badRequest("decode body: %v", err)
	}
	return nil
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(d *jx.Decoder, field string) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = strings.TrimSpace(s)
	default:
		return decimal.Zero, badRequest("%s must be a number", field)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, badRequest("%s must be a number", field)
	}
	return v, nil
}

// decodeCoupon reads a coupon form. Absent fields keep the values of base.
func decodeCoupon(w http.ResponseWriter, r *http.Request, base coupon.Coupon) (coupon.Coupon, error) {
	c := base
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "description":
			c.Description, err = d.Str()
		case "startDate":
			c.StartDate, err = d.Str()
		case "endDate":
			c.EndDate, err = d.Str()
		case "discountType":
			var s string
			s, err = d.Str()
			c.DiscountType = coupon.DiscountType(s)
		case "discountValue":
			c.DiscountValue, err = decodeNumber(d, key)
		case "minOrderValue":
			c.MinOrderValue, err = decodeNumber(d, key)
		case "maxDiscountValue":
			c.MaxDiscountValue, err = decodeNumber(d, key)
		case "isCombinable":
			c.IsCombinable, err = d.Bool()
		case "isActive":
			c.IsActive, err = d.Bool()
		default:
			return d.Skip()
		}
		if err != nil && !errors.Is(err, errBadRequest) {
			return badRequest("%s: %v", key, err)
		}
		return err
	})
	return c, err
}

// decodeQuote reads {"subtotal": ..., "day"?: ...}. The day selector
// defaults to today.
func decodeQuote(w http.ResponseWriter, r *http.Request) (subtotal decimal.Decimal, day string, err error) {
	var seen bool
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "subtotal":
			subtotal, err = decodeNumber(d, key)
			seen = true
		case "day":
			day, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return decimal.Zero, "", err
	}
	if !seen {
		return decimal.Zero, "", badRequest("subtotal is required")
	}
	return subtotal, day, nil
}

// decodeState reads {"state": "..."} and an optional "orderId".
func decodeState(w http.ResponseWriter, r *http.Request) (orderID string, state order.State, err error) {
	var raw string
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "state":
			raw, err = d.Str()
		case "orderId":
			orderID, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return "", "", err
	}
	if raw == "" {
		return "", "", badRequest("state is required")
	}
	state, err = order.ParseState(raw)
	return orderID, state, err
}

// queryParams holds the optional query fields of a request. Empty strings
// and a negative limit mean "unchanged".
type queryParams struct {
	Day       string
	State     string
	Direction string
	Metric    string
	Limit     int
}

func decodeQueryParams(w http.ResponseWriter, r *http.Request, allowEmpty bool) (queryParams, error) {
	p := queryParams{Limit: -1}
	if allowEmpty && r.ContentLength == 0 {
		return p, nil
	}
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "day":
			p.Day, err = d.Str()
		case "state":
			p.State, err = d.Str()
		case "direction":
			p.Direction, err = d.Str()
		case "metric":
			p.Metric, err = d.Str()
		case "limit":
			p.Limit, err = d.Int()
			if err == nil && p.Limit < 0 {
				return badRequest("limit must not be negative")
			}
		default:
			return d.Skip()
		}
		return err
	})
	return p, err
}

// apply returns q with the supplied fields replaced.
func (h *Handler) apply(q session.Query, p queryParams) (session.Query, error) {
	if p.Day != "" {
		day, err := daykey.Resolve(p.Day, h.now(), h.loc)
		if err != nil {
			return q, err
		}
		q.DayKey = day
	}
	if p.State != "" {
		s, err := order.ParseState(p.State)
		if err != nil {
			return q, err
		}
		q.State = s
	}
	if p.Direction != "" {
		dir, err := order.ParseDirection(p.Direction)
		if err != nil {
			return q, err
		}
		q.Direction = dir
	}
	if p.Metric != "" {
		m, err := order.ParseMetric(p.Metric)
		if err != nil {
			return q, err
		}
		q.Metric = m
	}
	if p.Limit >= 0 {
		q.Limit = p.Limit
	}
	return q, nil
}
