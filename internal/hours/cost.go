package hours

// Assignment links an employee to a project with an hourly rate and
// allocated hours.
type Assignment struct {
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	PerHour      float64 `json:"per_hour"`
	EmpHours     float64 `json:"emp_hours"`
	EmpAmount    float64 `json:"emp_amount"`
}

// CostSummary aggregates assignment costing.
type CostSummary struct {
	TotalCost   float64
	TotalHours  float64
	Assignments []Assignment
}

// ComputeAssignmentCost sets EmpAmount = PerHour * EmpHours on every
// assignment and returns the aggregate sums. Pure function, no I/O.
func ComputeAssignmentCost(assignments []Assignment) CostSummary {
	out := make([]Assignment, len(assignments))
	var summary CostSummary
	for i, a := range assignments {
		a.EmpAmount = a.PerHour * a.EmpHours
		summary.TotalCost += a.EmpAmount
		summary.TotalHours += a.EmpHours
		out[i] = a
	}
	summary.Assignments = out
	return summary
}

// PerHourCost derives the blended hourly rate of a costed project.
func PerHourCost(totalCost, totalHours float64) float64 {
	if totalHours <= 0 {
		return 0
	}
	return totalCost / totalHours
}
