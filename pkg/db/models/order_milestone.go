package models

import (
	"time"

	"github.com/loussodesigns/opts/pkg/enums"
)

// OrderMilestone is one stage in an order's fixed production sequence.
type OrderMilestone struct {
	ID             int64                 `gorm:"column:milestone_id;primaryKey;autoIncrement"`
	OrderID        int64                 `gorm:"column:order_id;not null"`
	Name           string                `gorm:"column:milestone_name;not null"`
	StageNumber    int                   `gorm:"column:stage_number;not null"`
	Status         enums.MilestoneStatus `gorm:"column:status;not null;default:not_started"`
	IsClientAction bool                  `gorm:"column:is_client_action;not null;default:false"`
	IsApproved     bool                  `gorm:"column:is_approved;not null;default:false"`
	UpdatedBy      *int64                `gorm:"column:updated_by"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderMilestone) TableName() string { return "order_milestones" }
