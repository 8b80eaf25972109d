package workorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const dir = "work_orders"

// ErrMissingTrackingCode is returned when an internal copy is requested
// without the QR image it must carry.
var ErrMissingTrackingCode = errors.New("internal work order requires a tracking code image")

// Document is everything printed on a work order.
type Document struct {
	OrderID      int64
	Date         time.Time
	ClientName   string
	InvoiceNo    string
	ProductCodes []string
	Quantity     int

	RepairGlue     bool
	ReplaceSprings bool
	BackStyle      string
	SeatStyle      string
	NewBackInsert  bool
	NewSeatInsert  bool
	BackInsertType string
	SeatInsertType string
	TrimStyle      string
	Placement      string
	VendorColor    string
	FrameFinish    string
	Specs          string
	Topcoat        string
	FabricSpecs    string
	Initials       string
	Notes          string

	// TrackingCodePNG is only drawn on the internal copy.
	TrackingCodePNG []byte
}

type Renderer struct {
	brand string
}

// ClientPrefix names the client copy. The internal copy is named after the
// brand, which therefore must differ from it.
const ClientPrefix = "client"

func NewRenderer(brand string) *Renderer {
	brand = strings.ReplaceAll(slug.Make(brand), "-", "_")
	switch brand {
	case "":
		brand = "lousso"
	case ClientPrefix:
		brand = ClientPrefix + "_internal"
	}
	return &Renderer{brand: brand}
}

// Render produces the PDF bytes for one copy of the work order. The internal
// copy embeds the tracking code; the client copy never does.
func (r *Renderer) Render(ctx context.Context, doc Document, includeTrackingCode bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if includeTrackingCode && len(doc.TrackingCodePNG) == 0 {
		return nil, ErrMissingTrackingCode
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, fmt.Sprintf("Work Order #%d", doc.OrderID), props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Date: "+doc.Date.Format("2006-01-02"), props.Text{
			Size:  10,
			Align: align.Right,
		}),
	)

	for _, field := range fields(doc) {
		m.AddRow(7,
			text.NewCol(4, field.label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(8, field.value, props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(12, "Notes", props.Text{Size: 11, Style: fontstyle.Bold, Top: 4}),
	)
	m.AddRow(20,
		text.NewCol(12, orDash(doc.Notes), props.Text{Size: 9}),
	)

	if includeTrackingCode {
		m.AddRow(45,
			col.New(8),
			image.NewFromBytesCol(4, doc.TrackingCodePNG, extension.Png, props.Rect{
				Center:  true,
				Percent: 90,
			}),
		)
	}

	pdf, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate work order %d: %w", doc.OrderID, err)
	}
	return pdf.GetBytes(), nil
}

// FileName returns the static-relative path for one copy of an order's work
// order. Internal and client copies never share a name.
func (r *Renderer) FileName(clientName string, orderID int64, internal bool) string {
	prefix := ClientPrefix
	if internal {
		prefix = r.brand
	}
	return fmt.Sprintf("%s/%s_%s_order_%d.pdf", dir, prefix, NameSlug(clientName), orderID)
}

// NameSlug lowercases the client name and joins words with underscores.
func NameSlug(name string) string {
	s := strings.ReplaceAll(slug.Make(name), "-", "_")
	if s == "" {
		return "client"
	}
	return s
}

type field struct {
	label string
	value string
}

func fields(doc Document) []field {
	quantity := doc.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return []field{
		{"Client", orDash(doc.ClientName)},
		{"Invoice #", orDash(doc.InvoiceNo)},
		{"Product Codes", orDash(strings.Join(doc.ProductCodes, ", "))},
		{"Quantity", fmt.Sprintf("%d", quantity)},
		{"Repair/Glue", yesNo(doc.RepairGlue)},
		{"Replace Springs", yesNo(doc.ReplaceSprings)},
		{"Back Style", orDash(doc.BackStyle)},
		{"Seat Style", orDash(doc.SeatStyle)},
		{"New Back Insert", yesNo(doc.NewBackInsert)},
		{"New Seat Insert", yesNo(doc.NewSeatInsert)},
		{"Back Insert Type", orDash(doc.BackInsertType)},
		{"Seat Insert Type", orDash(doc.SeatInsertType)},
		{"Trim Style", orDash(doc.TrimStyle)},
		{"Placement", orDash(doc.Placement)},
		{"Vendor Color", orDash(doc.VendorColor)},
		{"Frame Finish", orDash(doc.FrameFinish)},
		{"Finish Specs", orDash(doc.Specs)},
		{"Topcoat", orDash(doc.Topcoat)},
		{"Fabric Specs", orDash(doc.FabricSpecs)},
		{"Initials", orDash(doc.Initials)},
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
