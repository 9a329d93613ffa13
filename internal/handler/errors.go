package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
	"github.com/xenking/kitchen-backoffice/internal/session"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

// statusOf maps a domain error to an HTTP status.
func statusOf(err error) int {
	var (
		validation *coupon.ValidationError
		fetch      *order.FetchError
		mutation   *order.MutationError
	)
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, daykey.ErrInvalid),
		errors.Is(err, order.ErrUnknownState),
		errors.Is(err, order.ErrUnknownDirection),
		errors.Is(err, order.ErrUnknownMetric),
		errors.Is(err, order.ErrNotMutation),
		errors.Is(err, session.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrNoView),
		errors.Is(err, session.ErrNotInView):
		return http.StatusNotFound
	case errors.Is(err, order.ErrBackwardTransition),
		errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &validation),
		errors.Is(err, coupon.ErrNotApplicable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrFetchTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fetch), errors.As(err, &mutation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"code","message","fields"?}. Internal errors are
// logged and their message is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = http.StatusText(code)
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(msg)

	var validation *coupon.ValidationError
	if errors.As(err, &validation) {
		e.FieldStart("fields")
		e.ObjStart()
		for _, f := range validation.Fields {
			e.FieldStart(f.Field)
			e.Str(f.Err.Error())
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	writeJSON(w, code, e.Bytes())
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
