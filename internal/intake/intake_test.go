package intake

import (
	"net/url"
	"testing"

	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawOrder {
	return RawOrder{
		Name:         " Ada Lovelace ",
		Email:        " Ada@Example.COM ",
		Phone:        "555-0100",
		InvoiceNo:    "INV-100",
		ProductCodes: "1\n\n  42  \nfabric:07\n",
		Milestones:   []string{"Fabric Ordered", " ", "Upholstery"},
	}
}

func TestNormalizeItemCode(t *testing.T) {
	cases := []struct {
		code     string
		itemType enums.ItemType
		want     string
		wantErr  bool
	}{
		{code: "1", itemType: enums.ItemTypePiece, want: "0001"},
		{code: "42", itemType: enums.ItemTypePiece, want: "0042"},
		{code: "12345", itemType: enums.ItemTypePiece, want: "12345"},
		{code: "ABC", itemType: enums.ItemTypePiece, wantErr: true},
		{code: "01", itemType: enums.ItemTypeFabric, want: "FAB01"},
		{code: "fab12", itemType: enums.ItemTypeFabric, want: "FAB12"},
		{code: "FAB12", itemType: enums.ItemTypeFabric, want: "FAB12"},
		{code: "FAB", itemType: enums.ItemTypeFabric, wantErr: true},
		{code: "FAB1", itemType: enums.ItemTypeFabric, wantErr: true},
		{code: "FABX9", itemType: enums.ItemTypeFabric, wantErr: true},
		{code: "  ", itemType: enums.ItemTypePiece, wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizeItemCode(tc.code, tc.itemType)
		if tc.wantErr {
			require.Error(t, err, tc.code)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidItemCode), tc.code)
			continue
		}
		require.NoError(t, err, tc.code)
		assert.Equal(t, tc.want, got, tc.code)

		again, err := NormalizeItemCode(got, tc.itemType)
		require.NoError(t, err)
		assert.Equal(t, got, again, "normalizing twice changes nothing")
	}
}

func TestBuildNormalizesOrder(t *testing.T) {
	order, err := Build(validRaw())
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", order.Contact.Name)
	assert.Equal(t, "ada@example.com", order.Contact.Email)
	assert.Equal(t, "INV-100", order.InvoiceNo)
	assert.Nil(t, order.DueDate)
	assert.Nil(t, order.Notes)

	require.Len(t, order.Items, 3)
	assert.Equal(t, Item{Code: "0001", Type: enums.ItemTypePiece}, order.Items[0])
	assert.Equal(t, Item{Code: "0042", Type: enums.ItemTypePiece}, order.Items[1])
	assert.Equal(t, Item{Code: "FAB07", Type: enums.ItemTypeFabric}, order.Items[2])

	assert.Equal(t, []Milestone{
		{Name: "Fabric Ordered", StageNumber: 1},
		{Name: "Upholstery", StageNumber: 2},
	}, order.Milestones)

	assert.Equal(t, 1, order.Spec.Quantity)
	assert.False(t, order.Spec.RepairGlue)
	assert.Nil(t, order.Spec.TrimStyle)
}

func TestBuildUsesRequestItemType(t *testing.T) {
	raw := validRaw()
	raw.ItemType = "Fabric"
	raw.ProductCodes = "12\npiece:3"

	order, err := Build(raw)
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Code: "FAB12", Type: enums.ItemTypeFabric},
		{Code: "0003", Type: enums.ItemTypePiece},
	}, order.Items)
}

func TestBuildCollectsFieldProblems(t *testing.T) {
	zero := 0
	raw := RawOrder{
		Email:        "not-an-email",
		ProductCodes: "\n \n",
		DueDate:      "15/01/2026",
		Quantity:     &zero,
	}

	_, err := Build(raw)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	for _, field := range []string{"customer_name", "customer_email", "customer_phone", "invoice_no", "product_codes", "milestone_list", "due_date", "quantity"} {
		assert.Contains(t, details, field)
	}
}

func TestBuildRejectsBadItemCode(t *testing.T) {
	raw := validRaw()
	raw.ProductCodes = "0001\nABC"

	_, err := Build(raw)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidItemCode))
}

func TestBuildIsIdempotent(t *testing.T) {
	first, err := Build(validRaw())
	require.NoError(t, err)
	second, err := Build(validRaw())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFromFormFlagsAndDefaults(t *testing.T) {
	form := url.Values{
		"customer_name":   {"Ada"},
		"customer_email":  {"ada@example.com"},
		"customer_phone":  {"555"},
		"invoice_no":      {"INV-1"},
		"product_codes":   {"7"},
		"milestone_list":  {"Frame Repair", "Finishing"},
		"repair_glue":     {""},
		"new_back_insert": {"true"},
		"new_seat_insert": {"false"},
		"due_date":        {"2026-03-01"},
		"trim_style":      {"Double welt"},
	}

	raw, err := FromForm(form)
	require.NoError(t, err)
	assert.Nil(t, raw.Quantity)
	assert.Nil(t, raw.ReplaceSprings)

	order, err := Build(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, order.Spec.Quantity)
	assert.True(t, order.Spec.RepairGlue, "presence of the key sets the flag")
	assert.False(t, order.Spec.ReplaceSprings)
	assert.True(t, order.Spec.NewBackInsert)
	assert.False(t, order.Spec.NewSeatInsert)
	require.NotNil(t, order.Spec.TrimStyle)
	assert.Equal(t, "Double welt", *order.Spec.TrimStyle)
	require.NotNil(t, order.DueDate)
	assert.Equal(t, "2026-03-01", order.DueDate.Format("2006-01-02"))
	assert.Len(t, order.Milestones, 2)
}

func TestFromFormRejectsQuantity(t *testing.T) {
	_, err := FromForm(url.Values{"quantity": {"two"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	raw, err := FromForm(url.Values{"quantity": {"3"}})
	require.NoError(t, err)
	require.NotNil(t, raw.Quantity)
	assert.Equal(t, 3, *raw.Quantity)
}
