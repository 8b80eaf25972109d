package intake

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
)

// RawOrder is an order request as submitted by the staff form or the JSON API.
// Nil pointers mean the field was not sent.
type RawOrder struct {
	Name         string   `json:"customer_name"`
	Email        string   `json:"customer_email"`
	Phone        string   `json:"customer_phone"`
	InvoiceNo    string   `json:"invoice_no"`
	DueDate      string   `json:"due_date,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	ProductCodes string   `json:"product_codes"`
	ItemType     string   `json:"item_type,omitempty"`
	Milestones   []string `json:"milestone_list"`

	Quantity       *int  `json:"quantity,omitempty"`
	RepairGlue     *bool `json:"repair_glue,omitempty"`
	ReplaceSprings *bool `json:"replace_springs,omitempty"`
	NewBackInsert  *bool `json:"new_back_insert,omitempty"`
	NewSeatInsert  *bool `json:"new_seat_insert,omitempty"`

	BackStyle        string `json:"back_style,omitempty"`
	SeatStyle        string `json:"seat_style,omitempty"`
	BackInsertType   string `json:"back_insert_type,omitempty"`
	SeatInsertType   string `json:"seat_insert_type,omitempty"`
	TrimStyle        string `json:"trim_style,omitempty"`
	Placement        string `json:"placement,omitempty"`
	FabricSpecs      string `json:"fabric_specs,omitempty"`
	VendorColor      string `json:"vendor_color,omitempty"`
	FrameFinish      string `json:"frame_finish,omitempty"`
	Specs            string `json:"specs,omitempty"`
	Topcoat          string `json:"topcoat,omitempty"`
	CustomerInitials string `json:"customer_initials,omitempty"`
}

// FromForm maps an HTML form submission. Checkbox flags are set by key
// presence unless the submitted value is explicitly false.
func FromForm(form url.Values) (RawOrder, error) {
	raw := RawOrder{
		Name:             form.Get("customer_name"),
		Email:            form.Get("customer_email"),
		Phone:            form.Get("customer_phone"),
		InvoiceNo:        form.Get("invoice_no"),
		DueDate:          form.Get("due_date"),
		Notes:            form.Get("notes"),
		ProductCodes:     form.Get("product_codes"),
		ItemType:         form.Get("item_type"),
		Milestones:       form["milestone_list"],
		BackStyle:        form.Get("back_style"),
		SeatStyle:        form.Get("seat_style"),
		BackInsertType:   form.Get("back_insert_type"),
		SeatInsertType:   form.Get("seat_insert_type"),
		TrimStyle:        form.Get("trim_style"),
		Placement:        form.Get("placement"),
		FabricSpecs:      form.Get("fabric_specs"),
		VendorColor:      form.Get("vendor_color"),
		FrameFinish:      form.Get("frame_finish"),
		Specs:            form.Get("specs"),
		Topcoat:          form.Get("topcoat"),
		CustomerInitials: form.Get("customer_initials"),
	}

	raw.RepairGlue = formFlag(form, "repair_glue")
	raw.ReplaceSprings = formFlag(form, "replace_springs")
	raw.NewBackInsert = formFlag(form, "new_back_insert")
	raw.NewSeatInsert = formFlag(form, "new_seat_insert")

	if value := strings.TrimSpace(form.Get("quantity")); value != "" {
		qty, err := strconv.Atoi(value)
		if err != nil {
			return RawOrder{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity").
				WithDetails(map[string]string{"quantity": "must be a whole number"})
		}
		raw.Quantity = &qty
	}
	return raw, nil
}

func formFlag(form url.Values, key string) *bool {
	if _, ok := form[key]; !ok {
		return nil
	}
	var set bool
	switch strings.ToLower(strings.TrimSpace(form.Get(key))) {
	case "false", "0", "off", "no":
		set = false
	default:
		set = true
	}
	return &set
}
