package models

// OrderSpec holds the upholstery and finishing instructions printed on the
// work order. Exactly one row exists per order.
type OrderSpec struct {
	OrderID          int64   `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	Quantity         int     `gorm:"column:quantity;not null;default:1"`
	RepairGlue       bool    `gorm:"column:repair_glue;not null;default:false"`
	ReplaceSprings   bool    `gorm:"column:replace_springs;not null;default:false"`
	BackStyle        *string `gorm:"column:back_style"`
	SeatStyle        *string `gorm:"column:seat_style"`
	NewBackInsert    bool    `gorm:"column:new_back_insert;not null;default:false"`
	NewSeatInsert    bool    `gorm:"column:new_seat_insert;not null;default:false"`
	BackInsertType   *string `gorm:"column:back_insert_type"`
	SeatInsertType   *string `gorm:"column:seat_insert_type"`
	TrimStyle        *string `gorm:"column:trim_style"`
	Placement        *string `gorm:"column:placement"`
	FabricSpecs      *string `gorm:"column:fabric_specs"`
	VendorColor      *string `gorm:"column:vendor_color"`
	FrameFinish      *string `gorm:"column:frame_finish"`
	Specs            *string `gorm:"column:specs"`
	Topcoat          *string `gorm:"column:topcoat"`
	CustomerInitials *string `gorm:"column:customer_initials"`
}

func (OrderSpec) TableName() string { return "order_specs" }
