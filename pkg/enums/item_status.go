package enums

import "fmt"

// ItemStatus tracks a single order item through the shop.
type ItemStatus string

const (
	ItemStatusPending      ItemStatus = "pending"
	ItemStatusInProduction ItemStatus = "in_production"
	ItemStatusCompleted    ItemStatus = "completed"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusInProduction,
	ItemStatusCompleted,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
