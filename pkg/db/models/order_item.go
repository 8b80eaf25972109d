package models

import "github.com/loussodesigns/opts/pkg/enums"

type OrderItem struct {
	ID       int64            `gorm:"column:item_id;primaryKey;autoIncrement"`
	OrderID  int64            `gorm:"column:order_id;not null"`
	ItemCode string           `gorm:"column:item_code;not null"`
	ItemType enums.ItemType   `gorm:"column:item_type;not null"`
	Status   enums.ItemStatus `gorm:"column:status;not null;default:pending"`
}

func (OrderItem) TableName() string { return "order_items" }
