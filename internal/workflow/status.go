// Package workflow houses the transition engine: the fixed state machines
// that advance timesheet and project status from accumulated hour data,
// plus the ordered recomputation pipeline run after every hour-affecting
// write.
package workflow

// TimesheetStatus enumerates timesheet states.
type TimesheetStatus string

// Timesheet states. Completed is reachable only through a project
// completion cascade.
const (
	TimesheetOpen       TimesheetStatus = "Open"
	TimesheetInProgress TimesheetStatus = "InProgress"
	TimesheetSubmitted  TimesheetStatus = "Submitted"
	TimesheetApproved   TimesheetStatus = "Approved"
	TimesheetRejected   TimesheetStatus = "Rejected"
	TimesheetCompleted  TimesheetStatus = "Completed"
)

// ProjectStatus enumerates project states.
type ProjectStatus string

// Project states. Completed is terminal.
const (
	ProjectOpen       ProjectStatus = "Open"
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectCompleted  ProjectStatus = "Completed"
)

// ValidTimesheetStatus reports whether s names a known timesheet state.
func ValidTimesheetStatus(s TimesheetStatus) bool {
	switch s {
	case TimesheetOpen, TimesheetInProgress, TimesheetSubmitted, TimesheetApproved, TimesheetRejected, TimesheetCompleted:
		return true
	}
	return false
}

// ValidProjectStatus reports whether s names a known project state.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectOpen, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}
