package enums

import (
	"fmt"
	"strings"
)

// ItemType distinguishes fabric swatches from furniture pieces.
type ItemType string

const (
	ItemTypeFabric ItemType = "fabric"
	ItemTypePiece  ItemType = "piece"
)

var validItemTypes = []ItemType{
	ItemTypeFabric,
	ItemTypePiece,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType. Matching ignores case.
func ParseItemType(value string) (ItemType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validItemTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
