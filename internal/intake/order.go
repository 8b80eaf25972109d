package intake

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
)

const dueDateLayout = "2006-01-02"

var validate = validator.New()

// Order is a validated order ready to be written.
type Order struct {
	Contact    customers.Contact
	InvoiceNo  string
	DueDate    *time.Time
	Notes      *string
	Items      []Item
	Milestones []Milestone
	Spec       Spec
}

type Item struct {
	Code string
	Type enums.ItemType
}

type Milestone struct {
	Name        string
	StageNumber int
}

// Spec mirrors order_specs; empty text fields are nil.
type Spec struct {
	Quantity         int
	RepairGlue       bool
	ReplaceSprings   bool
	BackStyle        *string
	SeatStyle        *string
	NewBackInsert    bool
	NewSeatInsert    bool
	BackInsertType   *string
	SeatInsertType   *string
	TrimStyle        *string
	Placement        *string
	FabricSpecs      *string
	VendorColor      *string
	FrameFinish      *string
	Specs            *string
	Topcoat          *string
	CustomerInitials *string
}

// Build validates a raw submission. Field problems are collected into one
// validation error; item codes are checked only once the rest is valid.
func Build(raw RawOrder) (Order, error) {
	problems := map[string]string{}

	contact := customers.Contact{
		Name:  strings.TrimSpace(raw.Name),
		Email: customers.NormalizeEmail(raw.Email),
		Phone: strings.TrimSpace(raw.Phone),
	}
	invoiceNo := strings.TrimSpace(raw.InvoiceNo)

	required := map[string]string{
		"customer_name":  contact.Name,
		"customer_email": contact.Email,
		"customer_phone": contact.Phone,
		"invoice_no":     invoiceNo,
	}
	for field, value := range required {
		if value == "" {
			problems[field] = "required"
		}
	}
	if contact.Email != "" {
		if err := validate.Var(contact.Email, "email"); err != nil {
			problems["customer_email"] = "must be a valid email address"
		}
	}

	codeLines := splitLines(raw.ProductCodes)
	if len(codeLines) == 0 {
		problems["product_codes"] = "at least one product code is required"
	}

	milestones := buildMilestones(raw.Milestones)
	if len(milestones) == 0 {
		problems["milestone_list"] = "at least one milestone is required"
	}

	var dueDate *time.Time
	if value := strings.TrimSpace(raw.DueDate); value != "" {
		parsed, err := time.Parse(dueDateLayout, value)
		if err != nil {
			problems["due_date"] = "must be formatted YYYY-MM-DD"
		} else {
			dueDate = &parsed
		}
	}

	quantity := 1
	if raw.Quantity != nil {
		quantity = *raw.Quantity
		if quantity < 1 {
			problems["quantity"] = "must be at least 1"
		}
	}

	defaultType := enums.ItemTypePiece
	if value := strings.TrimSpace(raw.ItemType); value != "" {
		parsed, err := enums.ParseItemType(value)
		if err != nil {
			problems["item_type"] = "must be fabric or piece"
		} else {
			defaultType = parsed
		}
	}

	if len(problems) > 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order request is invalid").WithDetails(problems)
	}

	items := make([]Item, 0, len(codeLines))
	for _, line := range codeLines {
		code, itemType := splitTypedCode(line, defaultType)
		normalized, err := NormalizeItemCode(code, itemType)
		if err != nil {
			return Order{}, err
		}
		items = append(items, Item{Code: normalized, Type: itemType})
	}

	return Order{
		Contact:    contact,
		InvoiceNo:  invoiceNo,
		DueDate:    dueDate,
		Notes:      optional(raw.Notes),
		Items:      items,
		Milestones: milestones,
		Spec: Spec{
			Quantity:         quantity,
			RepairGlue:       flag(raw.RepairGlue),
			ReplaceSprings:   flag(raw.ReplaceSprings),
			BackStyle:        optional(raw.BackStyle),
			SeatStyle:        optional(raw.SeatStyle),
			NewBackInsert:    flag(raw.NewBackInsert),
			NewSeatInsert:    flag(raw.NewSeatInsert),
			BackInsertType:   optional(raw.BackInsertType),
			SeatInsertType:   optional(raw.SeatInsertType),
			TrimStyle:        optional(raw.TrimStyle),
			Placement:        optional(raw.Placement),
			FabricSpecs:      optional(raw.FabricSpecs),
			VendorColor:      optional(raw.VendorColor),
			FrameFinish:      optional(raw.FrameFinish),
			Specs:            optional(raw.Specs),
			Topcoat:          optional(raw.Topcoat),
			CustomerInitials: optional(raw.CustomerInitials),
		},
	}, nil
}

func buildMilestones(names []string) []Milestone {
	out := make([]Milestone, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		out = append(out, Milestone{Name: trimmed, StageNumber: len(out) + 1})
	}
	return out
}

func splitLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func flag(value *bool) bool {
	return value != nil && *value
}
