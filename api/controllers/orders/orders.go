package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/loussodesigns/opts/api/responses"
	"github.com/loussodesigns/opts/api/validators"
	"github.com/loussodesigns/opts/internal/fulfillment"
	"github.com/loussodesigns/opts/internal/intake"
	internalorders "github.com/loussodesigns/opts/internal/orders"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/pagination"
)

const maxFormMemory = 1 << 20

// Fulfiller turns a submitted order form into a committed order.
type Fulfiller interface {
	Fulfill(ctx context.Context, raw intake.RawOrder) (*fulfillment.Result, error)
}

// Reader is the read and delete side of the orders service.
type Reader interface {
	List(ctx context.Context, params pagination.Params) (*internalorders.OrderList, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]internalorders.OrderSummary, error)
	Detail(ctx context.Context, orderID int64) (*internalorders.OrderDetail, error)
	Scan(ctx context.Context, orderID int64) (*internalorders.ScanView, error)
	Delete(ctx context.Context, orderID int64) error
}

// Create accepts the staff order form as JSON or as a posted HTML form.
func Create(svc Fulfiller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeRawOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Fulfill(r.Context(), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// List returns one page of all orders with their computed status.
func List(svc Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CustomerOrders backs the customer portal dashboard.
func CustomerOrders(svc Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParsePathID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}

func Detail(svc Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Detail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Delete removes the order with its milestones, items and spec.
func Delete(svc Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"deleted_order_id": orderID})
	}
}

func decodeRawOrder(r *http.Request) (intake.RawOrder, error) {
	if !validators.IsFormRequest(r) {
		var raw intake.RawOrder
		if err := validators.DecodeJSONBody(r, &raw); err != nil {
			return intake.RawOrder{}, err
		}
		return raw, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		return intake.RawOrder{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	return intake.FromForm(r.PostForm)
}
