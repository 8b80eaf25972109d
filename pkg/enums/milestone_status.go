package enums

import (
	"fmt"
	"strings"
)

// MilestoneStatus tracks progress of a single production milestone.
type MilestoneStatus string

const (
	MilestoneStatusNotStarted MilestoneStatus = "not_started"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
)

var validMilestoneStatuses = []MilestoneStatus{
	MilestoneStatusNotStarted,
	MilestoneStatusInProgress,
	MilestoneStatusCompleted,
}

// legacy display strings written by the staff portal before statuses were normalized.
var legacyMilestoneStatuses = map[string]MilestoneStatus{
	"not started": MilestoneStatusNotStarted,
	"in progress": MilestoneStatusInProgress,
	"completed":   MilestoneStatusCompleted,
}

// String implements fmt.Stringer.
func (m MilestoneStatus) String() string {
	return string(m)
}

// Label returns the human readable form shown on the portals.
func (m MilestoneStatus) Label() string {
	switch m {
	case MilestoneStatusNotStarted:
		return "Not Started"
	case MilestoneStatusInProgress:
		return "In Progress"
	case MilestoneStatusCompleted:
		return "Completed"
	default:
		return string(m)
	}
}

// IsValid reports whether the value is a known MilestoneStatus.
func (m MilestoneStatus) IsValid() bool {
	for _, candidate := range validMilestoneStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMilestoneStatus accepts canonical values and the legacy display labels.
func ParseMilestoneStatus(value string) (MilestoneStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validMilestoneStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	if status, ok := legacyMilestoneStatuses[strings.ToLower(trimmed)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid milestone status %q", value)
}
