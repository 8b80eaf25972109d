package models

import (
	"time"

	"github.com/loussodesigns/opts/pkg/enums"
)

// Order is the header row for a custom furniture job.
type Order struct {
	ID              int64             `gorm:"column:order_id;primaryKey;autoIncrement"`
	CustomerID      int64             `gorm:"column:customer_id;not null"`
	InvoiceNo       string            `gorm:"column:invoice_no;not null"`
	DueDate         *time.Time        `gorm:"column:due_date"`
	Notes           *string           `gorm:"column:notes"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:open"`
	QRPath          *string           `gorm:"column:qr_path"`
	InternalPDFPath *string           `gorm:"column:internal_pdf_path"`
	ClientPDFPath   *string           `gorm:"column:client_pdf_path"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }
