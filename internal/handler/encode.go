package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
	"github.com/xenking/kitchen-backoffice/internal/session"
)

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeNullDecimal(e *jx.Encoder, d decimal.NullDecimal) {
	if !d.Valid {
		e.Null()
		return
	}
	encodeDecimal(e, d.Decimal)
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("createdAt")
	if o.CreatedAt.IsZero() {
		e.Str(o.RawCreatedAt)
	} else {
		e.Str(o.CreatedAt.Format(time.RFC3339))
	}
	e.FieldStart("state")
	e.Str(string(order.Classify(o)))
	e.FieldStart("isStarted")
	e.Bool(o.IsStarted)
	e.FieldStart("isCompleted")
	e.Bool(o.IsCompleted)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("customerId")
	e.Str(o.CustomerID)
	e.FieldStart("total")
	encodeNullDecimal(e, o.Total)
	e.FieldStart("totalLabel")
	e.Str(order.FormatTotal(o.Total))

	e.FieldStart("menuList")
	e.ArrStart()
	for _, item := range o.MenuList {
		e.ObjStart()
		e.FieldStart("menuName")
		e.Str(item.MenuName)
		e.FieldStart("quantity")
		if item.Quantity.Valid {
			e.Int64(item.Quantity.N)
		} else {
			e.Null()
		}
		e.FieldStart("price")
		encodeNullDecimal(e, item.Price)
		e.FieldStart("options")
		e.ArrStart()
		for _, opt := range item.Options {
			e.Str(opt)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(e, o)
	}
	e.ArrEnd()
}

func encodeStats(e *jx.Encoder, s order.Stats) {
	e.ObjStart()
	e.FieldStart("metric")
	e.Str(string(s.Metric))
	e.FieldStart("totalSales")
	encodeDecimal(e, s.TotalSales)
	e.FieldStart("totalLabel")
	e.Str(s.TotalLabel)
	e.FieldStart("entries")
	e.ArrStart()
	for _, entry := range s.Entries {
		e.ObjStart()
		e.FieldStart("menuName")
		e.Str(entry.Name)
		e.FieldStart("totalCount")
		e.Int64(entry.TotalCount)
		e.FieldStart("totalRevenue")
		encodeDecimal(e, entry.TotalRevenue)
		e.FieldStart("value")
		encodeDecimal(e, entry.Value)
		e.FieldStart("share")
		encodeDecimal(e, entry.Share)
		e.FieldStart("label")
		e.Str(entry.Label)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("description")
	e.Str(c.Description)
	e.FieldStart("startDate")
	e.Str(c.StartDate)
	e.FieldStart("endDate")
	e.Str(c.EndDate)
	e.FieldStart("discountType")
	e.Str(string(c.DiscountType))
	e.FieldStart("discountValue")
	encodeDecimal(e, c.DiscountValue)
	e.FieldStart("minOrderValue")
	encodeDecimal(e, c.MinOrderValue)
	e.FieldStart("maxDiscountValue")
	encodeDecimal(e, c.MaxDiscountValue)
	e.FieldStart("isCombinable")
	e.Bool(c.IsCombinable)
	e.FieldStart("isActive")
	e.Bool(c.IsActive)
	e.ObjEnd()
}

func encodeDiscount(e *jx.Encoder, couponID string, subtotal decimal.Decimal, d coupon.Discount) {
	e.ObjStart()
	e.FieldStart("couponId")
	e.Str(couponID)
	e.FieldStart("subtotal")
	encodeDecimal(e, subtotal)
	e.FieldStart("discount")
	encodeDecimal(e, d.Amount)
	e.FieldStart("total")
	encodeDecimal(e, subtotal.Sub(d.Amount))
	e.FieldStart("description")
	e.Str(d.Description)
	e.ObjEnd()
}

func encodeQuery(e *jx.Encoder, q session.Query) {
	e.ObjStart()
	e.FieldStart("day")
	e.Str(q.DayKey)
	e.FieldStart("state")
	e.Str(string(q.State))
	e.FieldStart("direction")
	e.Str(string(q.Direction))
	e.FieldStart("metric")
	e.Str(string(q.Metric))
	e.FieldStart("limit")
	e.Int(q.Limit)
	e.ObjEnd()
}

// encodeSession writes the session id, its current query and, when one was
// installed, its last view.
func encodeSession(e *jx.Encoder, s *session.Session, v *session.View) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID())
	e.FieldStart("query")
	encodeQuery(e, s.Query())
	e.FieldStart("view")
	if v == nil {
		e.Null()
	} else {
		encodeView(e, v)
	}
	e.ObjEnd()
}

func encodeView(e *jx.Encoder, v *session.View) {
	e.ObjStart()
	e.FieldStart("generation")
	e.UInt64(v.Generation)
	e.FieldStart("fetchedAt")
	e.Str(v.FetchedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("query")
	encodeQuery(e, v.Query)
	e.FieldStart("queue")
	encodeOrders(e, v.Queue)
	e.FieldStart("stats")
	encodeStats(e, v.Stats)
	e.ObjEnd()
}
