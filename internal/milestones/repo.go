package milestones

import (
	"context"
	"time"

	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository builds a milestones repository bound to the provided DB or tx.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByOrder returns an order's milestones in stage order.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]models.OrderMilestone, error) {
	var rows []models.OrderMilestone
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("stage_number ASC").
		Find(&rows).Error
	return rows, err
}

// StatusesByOrder groups milestone statuses by order id for list views.
func (r *Repository) StatusesByOrder(ctx context.Context, orderIDs []int64) (map[int64][]enums.MilestoneStatus, error) {
	out := make(map[int64][]enums.MilestoneStatus, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		OrderID int64
		Status  enums.MilestoneStatus
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderMilestone{}).
		Select("order_id, status").
		Where("order_id IN ?", orderIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrderID] = append(out[row.OrderID], row.Status)
	}
	return out, nil
}

// CountByName tallies milestones by name across the given orders.
func (r *Repository) CountByName(ctx context.Context, orderIDs []int64) (map[string]int64, error) {
	out := map[string]int64{}
	if len(orderIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderMilestone{}).
		Select("milestone_name AS name, COUNT(*) AS count").
		Where("order_id IN ?", orderIDs).
		Group("milestone_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Name] = row.Count
	}
	return out, nil
}

// UpdateStatus sets one milestone's status, scoped to its order.
func (r *Repository) UpdateStatus(ctx context.Context, orderID, milestoneID int64, status enums.MilestoneStatus, actorID *int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderMilestone{}).
		Where("milestone_id = ? AND order_id = ?", milestoneID, orderID).
		Updates(map[string]any{
			"status":     status,
			"updated_by": actorID,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

// Approve marks a milestone completed and approved.
func (r *Repository) Approve(ctx context.Context, orderID, milestoneID int64, actorID *int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderMilestone{}).
		Where("milestone_id = ? AND order_id = ?", milestoneID, orderID).
		Updates(map[string]any{
			"status":      enums.MilestoneStatusCompleted,
			"is_approved": true,
			"updated_by":  actorID,
			"updated_at":  at,
		})
	return res.RowsAffected, res.Error
}
