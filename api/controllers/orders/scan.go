package orders

import (
	"net/http"

	"github.com/loussodesigns/opts/api/responses"
	"github.com/loussodesigns/opts/api/validators"
	internalorders "github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/logger"
)

type approveRequest struct {
	ApprovedBy *int64 `json:"approved_by,omitempty"`
}

// ScanView is the page a tracking code points at.
func ScanView(svc Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Scan(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ScanApprove marks one milestone completed and approved. The body is optional.
func ScanApprove(svc MilestoneEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestoneID, err := validators.ParsePathID(r, "milestoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approveRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		approved, err := svc.Approve(r.Context(), orderID, milestoneID, body.ApprovedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.MilestoneDTOs([]models.OrderMilestone{*approved})[0])
	}
}
