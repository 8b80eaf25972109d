package orders

import (
	"context"
	"net/http"
	"strconv"

	"github.com/loussodesigns/opts/api/responses"
	"github.com/loussodesigns/opts/api/validators"
	"github.com/loussodesigns/opts/internal/milestones"
	internalorders "github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
)

// MilestoneEditor applies staff edits and shop-floor approvals.
type MilestoneEditor interface {
	UpdateStatuses(ctx context.Context, orderID int64, changes map[int64]enums.MilestoneStatus, actorID *int64) ([]models.OrderMilestone, error)
	Approve(ctx context.Context, orderID, milestoneID int64, actorID *int64) (*models.OrderMilestone, error)
}

type updateMilestonesRequest struct {
	Milestones map[string]string `json:"milestones" validate:"required,min=1"`
	UpdatedBy  *int64            `json:"updated_by,omitempty"`
}

// UpdateMilestones sets explicit statuses keyed by milestone id. Every key
// and value is checked before anything is written.
func UpdateMilestones(svc MilestoneEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMilestonesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changes, err := parseChanges(body.Milestones)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateStatuses(r.Context(), orderID, changes, body.UpdatedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id":        orderID,
			"computed_status": milestones.Composite(statusesOf(updated)),
			"milestones":      internalorders.MilestoneDTOs(updated),
		})
	}
}

// MilestoneChoices lists the production milestones offered on the order form.
func MilestoneChoices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string][]string{"choices": milestones.DefaultChoices})
	}
}

func parseChanges(raw map[string]string) (map[int64]enums.MilestoneStatus, error) {
	changes := make(map[int64]enums.MilestoneStatus, len(raw))
	problems := map[string]string{}
	for key, value := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			problems[key] = "milestone id must be a positive integer"
			continue
		}
		status, err := enums.ParseMilestoneStatus(value)
		if err != nil {
			problems[key] = "unknown status " + strconv.Quote(value)
			continue
		}
		changes[id] = status
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid milestone update").WithDetails(problems)
	}
	return changes, nil
}

func statusesOf(rows []models.OrderMilestone) []enums.MilestoneStatus {
	out := make([]enums.MilestoneStatus, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.Status)
	}
	return out
}
