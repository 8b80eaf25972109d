package models

import "time"

// Customer is both the order owner and, once registered, a portal login.
// Staff accounts live in the same table with IsStaff set.
type Customer struct {
	ID            int64      `gorm:"column:customer_id;primaryKey;autoIncrement"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone         *string    `gorm:"column:phone"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	RegisterToken *string    `gorm:"column:register_token;uniqueIndex"`
	IsStaff       bool       `gorm:"column:is_staff;not null;default:false"`
	RegisteredAt  *time.Time `gorm:"column:registered_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Customer) TableName() string { return "customers" }

// HasPassword reports whether the customer completed registration.
func (c Customer) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}
