package orders

import (
	"time"

	"github.com/loussodesigns/opts/internal/milestones"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
)

// OrderRow is an order header joined with its customer's name and email.
type OrderRow struct {
	models.Order
	CustomerName  string `gorm:"column:customer_name"`
	CustomerEmail string `gorm:"column:customer_email"`
}

// ArtifactPaths are the web paths written back after artifact generation.
type ArtifactPaths struct {
	QRPath          *string `json:"qr_path,omitempty"`
	InternalPDFPath *string `json:"internal_pdf_path,omitempty"`
	ClientPDFPath   *string `json:"client_pdf_path,omitempty"`
}

// OrderSummary is one row of a portal order list.
type OrderSummary struct {
	OrderID        int64                 `json:"order_id"`
	CustomerID     int64                 `json:"customer_id"`
	CustomerName   string                `json:"customer_name"`
	CustomerEmail  string                `json:"customer_email"`
	InvoiceNo      string                `json:"invoice_no"`
	DueDate        *time.Time            `json:"due_date,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	Status         enums.OrderStatus     `json:"status"`
	ComputedStatus enums.MilestoneStatus `json:"computed_status"`
	StatusLabel    string                `json:"status_label"`
	ArtifactPaths
}

// OrderList is the staff list plus milestone counts across the page.
type OrderList struct {
	Orders          []OrderSummary   `json:"orders"`
	MilestoneCounts map[string]int64 `json:"milestone_counts"`
	NextCursor      string           `json:"next_cursor,omitempty"`
}

type MilestoneDTO struct {
	ID             int64                 `json:"milestone_id"`
	Name           string                `json:"milestone_name"`
	StageNumber    int                   `json:"stage_number"`
	Status         enums.MilestoneStatus `json:"status"`
	StatusLabel    string                `json:"status_label"`
	IsClientAction bool                  `json:"is_client_action"`
	IsApproved     bool                  `json:"is_approved"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type ItemDTO struct {
	ID     int64            `json:"item_id"`
	Code   string           `json:"item_code"`
	Type   enums.ItemType   `json:"item_type"`
	Status enums.ItemStatus `json:"status"`
}

// SpecDTO mirrors order_specs for the detail view.
type SpecDTO struct {
	Quantity         int     `json:"quantity"`
	RepairGlue       bool    `json:"repair_glue"`
	ReplaceSprings   bool    `json:"replace_springs"`
	BackStyle        *string `json:"back_style,omitempty"`
	SeatStyle        *string `json:"seat_style,omitempty"`
	NewBackInsert    bool    `json:"new_back_insert"`
	NewSeatInsert    bool    `json:"new_seat_insert"`
	BackInsertType   *string `json:"back_insert_type,omitempty"`
	SeatInsertType   *string `json:"seat_insert_type,omitempty"`
	TrimStyle        *string `json:"trim_style,omitempty"`
	Placement        *string `json:"placement,omitempty"`
	FabricSpecs      *string `json:"fabric_specs,omitempty"`
	VendorColor      *string `json:"vendor_color,omitempty"`
	FrameFinish      *string `json:"frame_finish,omitempty"`
	Specs            *string `json:"specs,omitempty"`
	Topcoat          *string `json:"topcoat,omitempty"`
	CustomerInitials *string `json:"customer_initials,omitempty"`
}

// OrderDetail is a single order with milestones in stage order.
type OrderDetail struct {
	OrderSummary
	Notes      *string        `json:"notes,omitempty"`
	Milestones []MilestoneDTO `json:"milestones"`
	Items      []ItemDTO      `json:"items"`
	Spec       *SpecDTO       `json:"spec,omitempty"`
}

// ScanView is what the shop floor sees after scanning a tracking code.
type ScanView struct {
	OrderID    int64          `json:"order_id"`
	InvoiceNo  string         `json:"invoice_no"`
	Milestones []MilestoneDTO `json:"milestones"`
}

func summaryFromRow(row OrderRow, statuses []enums.MilestoneStatus) OrderSummary {
	computed := milestones.Composite(statuses)
	return OrderSummary{
		OrderID:        row.ID,
		CustomerID:     row.CustomerID,
		CustomerName:   row.CustomerName,
		CustomerEmail:  row.CustomerEmail,
		InvoiceNo:      row.InvoiceNo,
		DueDate:        row.DueDate,
		CreatedAt:      row.CreatedAt,
		Status:         row.Status,
		ComputedStatus: computed,
		StatusLabel:    computed.Label(),
		ArtifactPaths: ArtifactPaths{
			QRPath:          row.QRPath,
			InternalPDFPath: row.InternalPDFPath,
			ClientPDFPath:   row.ClientPDFPath,
		},
	}
}

// MilestoneDTOs converts rows in the order given.
func MilestoneDTOs(rows []models.OrderMilestone) []MilestoneDTO {
	out := make([]MilestoneDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, MilestoneDTO{
			ID:             m.ID,
			Name:           m.Name,
			StageNumber:    m.StageNumber,
			Status:         m.Status,
			StatusLabel:    m.Status.Label(),
			IsClientAction: m.IsClientAction,
			IsApproved:     m.IsApproved,
			UpdatedAt:      m.UpdatedAt,
		})
	}
	return out
}

func itemDTOs(rows []models.OrderItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for _, item := range rows {
		out = append(out, ItemDTO{ID: item.ID, Code: item.ItemCode, Type: item.ItemType, Status: item.Status})
	}
	return out
}

func specDTO(spec *models.OrderSpec) *SpecDTO {
	if spec == nil {
		return nil
	}
	return &SpecDTO{
		Quantity:         spec.Quantity,
		RepairGlue:       spec.RepairGlue,
		ReplaceSprings:   spec.ReplaceSprings,
		BackStyle:        spec.BackStyle,
		SeatStyle:        spec.SeatStyle,
		NewBackInsert:    spec.NewBackInsert,
		NewSeatInsert:    spec.NewSeatInsert,
		BackInsertType:   spec.BackInsertType,
		SeatInsertType:   spec.SeatInsertType,
		TrimStyle:        spec.TrimStyle,
		Placement:        spec.Placement,
		FabricSpecs:      spec.FabricSpecs,
		VendorColor:      spec.VendorColor,
		FrameFinish:      spec.FrameFinish,
		Specs:            spec.Specs,
		Topcoat:          spec.Topcoat,
		CustomerInitials: spec.CustomerInitials,
	}
}
