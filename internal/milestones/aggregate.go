package milestones

import "github.com/loussodesigns/opts/pkg/enums"

// DefaultChoices are the stages offered on the order form.
var DefaultChoices = []string{
	"Custom Material Preparation",
	"Project Approved, Production Kicking Off",
	"In Production",
	"Awaiting Quality Check",
	"Passed Quality Check",
	"Out for Delivery",
}

// Composite reduces an order's milestone statuses to one order-level status.
// Only the multiset matters, never the order of the input.
func Composite(statuses []enums.MilestoneStatus) enums.MilestoneStatus {
	if len(statuses) == 0 {
		return enums.MilestoneStatusNotStarted
	}

	allNotStarted, allCompleted := true, true
	for _, status := range statuses {
		if status != enums.MilestoneStatusNotStarted {
			allNotStarted = false
		}
		if status != enums.MilestoneStatusCompleted {
			allCompleted = false
		}
	}

	switch {
	case allNotStarted:
		return enums.MilestoneStatusNotStarted
	case allCompleted:
		return enums.MilestoneStatusCompleted
	default:
		return enums.MilestoneStatusInProgress
	}
}
