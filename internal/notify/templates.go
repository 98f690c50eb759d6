package notify

import "fmt"

// ProjectAssignment notifies an employee they were assigned to a project.
func ProjectAssignment(to, employeeName, projectName, projectCode string, allocatedHours float64) Intent {
	body := fmt.Sprintf(
		"<h2>New Project Assignment</h2>"+
			"<p>Hello <strong>%s</strong>,</p>"+
			"<p>You have been assigned to a new project.</p>"+
			"<p>Project: <strong>%s</strong><br>Code: <strong>%s</strong><br>Allocated Hours: <strong>%gh</strong></p>"+
			"<p>Please log in to view details and start logging your time.</p>",
		employeeName, projectName, projectCode, allocatedHours)
	return Intent{
		To:      to,
		Subject: fmt.Sprintf("New Project Assignment: %s", projectName),
		Body:    body,
		Module:  "Project",
		Action:  ActionProjectAssignment,
	}
}

// TimesheetStatus notifies an employee their timesheet status changed.
func TimesheetStatus(to, employeeName, projectName, date, status string) Intent {
	body := fmt.Sprintf(
		"<h2>Timesheet Status Update</h2>"+
			"<p>Hello %s,</p>"+
			"<p>Project: <strong>%s</strong><br>Date: <strong>%s</strong><br>Status: <strong>%s</strong></p>",
		employeeName, projectName, date, status)
	return Intent{
		To:      to,
		Subject: fmt.Sprintf("Timesheet %s: %s", status, projectName),
		Body:    body,
		Module:  "Timesheet",
		Action:  ActionStatusChange,
	}
}

// TimesheetSubmitted asks an approver to review a submitted timesheet.
func TimesheetSubmitted(to, employeeName, projectName, date string, hours float64) Intent {
	body := fmt.Sprintf(
		"<h2>Timesheet Submission</h2>"+
			"<p>A timesheet has been submitted for approval.</p>"+
			"<p>Employee: <strong>%s</strong><br>Project: <strong>%s</strong><br>Date: <strong>%s</strong><br>Hours: <strong>%gh</strong></p>",
		employeeName, projectName, date, hours)
	return Intent{
		To:      to,
		Subject: fmt.Sprintf("Timesheet Submitted: %s - %s", employeeName, projectName),
		Body:    body,
		Module:  "Timesheet",
		Action:  ActionSubmittedForReview,
	}
}

// WeeklyLimitReached warns an employee they hit the weekly hour cap.
func WeeklyLimitReached(to, employeeName string, currentHours float64) Intent {
	body := fmt.Sprintf(
		"<h2>Weekly Hours Limit</h2>"+
			"<p>Hello %s,</p>"+
			"<p>You have reached <strong>%gh</strong> of the weekly limit. No further entries can be added this week.</p>",
		employeeName, currentHours)
	return Intent{
		To:      to,
		Subject: "Weekly Hours Limit Reached",
		Body:    body,
		Module:  "Timesheet",
		Action:  ActionLimitReached,
	}
}

// RoleChange notifies a user their role was updated.
func RoleChange(to, userName, oldRole, newRole string) Intent {
	body := fmt.Sprintf(
		"<h2>Role Update Notification</h2>"+
			"<p>Hello %s,</p>"+
			"<p>Previous Role: <strong>%s</strong><br>New Role: <strong>%s</strong></p>"+
			"<p>Please log in to access your updated permissions.</p>",
		userName, oldRole, newRole)
	return Intent{
		To:      to,
		Subject: "Role Updated - Crewdesk",
		Body:    body,
		Module:  "User",
		Action:  ActionRoleChange,
	}
}
