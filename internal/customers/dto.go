package customers

import (
	"time"

	"github.com/loussodesigns/opts/pkg/db/models"
)

// Contact is the identity submitted with an order.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// CustomerDTO is the transport shape that omits credentials and tokens.
type CustomerDTO struct {
	ID           int64      `json:"customer_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	IsStaff      bool       `json:"is_staff"`
	Registered   bool       `json:"registered"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func FromModel(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		IsStaff:      c.IsStaff,
		Registered:   c.HasPassword(),
		RegisteredAt: c.RegisteredAt,
		CreatedAt:    c.CreatedAt,
	}
}

func (c Contact) toModel() *models.Customer {
	var phone *string
	if c.Phone != "" {
		p := c.Phone
		phone = &p
	}
	return &models.Customer{
		Name:  c.Name,
		Email: c.Email,
		Phone: phone,
	}
}
