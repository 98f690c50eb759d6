package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/hours"
)

type memEntry struct {
	TimesheetRecord
	AutoTransitioned bool
	WeekCompleted    bool
	Locked           bool
	TotalWeekHours   float64
	SubmittedAt      *time.Time
	ApprovedAt       *time.Time
	CompletedAt      *time.Time
}

type memProject struct {
	ProjectRecord
	ActualHours      float64
	LoggedHours      float64
	AutoTransitioned bool
	CompletedAt      *time.Time
}

type memStores struct {
	entries  map[int64]*memEntry
	projects map[int64]*memProject

	weeklyErr  error
	projectErr error
}

func newMemStores() *memStores {
	return &memStores{
		entries:  make(map[int64]*memEntry),
		projects: make(map[int64]*memProject),
	}
}

func (m *memStores) addEntry(e TimesheetRecord) *memEntry {
	entry := &memEntry{TimesheetRecord: e}
	m.entries[e.ID] = entry
	return entry
}

func (m *memStores) addProject(p ProjectRecord) *memProject {
	project := &memProject{ProjectRecord: p}
	m.projects[p.ID] = project
	return project
}

// TimesheetStore

func (m *memStores) GetRecord(_ context.Context, id int64) (TimesheetRecord, error) {
	e, ok := m.entries[id]
	if !ok {
		return TimesheetRecord{}, errors.New("timesheet missing")
	}
	return e.TimesheetRecord, nil
}

func (m *memStores) MarkAutoSubmitted(_ context.Context, id int64, at time.Time) error {
	e := m.entries[id]
	e.Status = TimesheetSubmitted
	e.AutoTransitioned = true
	e.SubmittedAt = &at
	return nil
}

func (m *memStores) SubmitOpenWeek(_ context.Context, employeeID int64, weekStart time.Time, at time.Time) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.WeekStart.Equal(weekStart) && e.Status == TimesheetOpen {
			e.Status = TimesheetSubmitted
			e.WeekCompleted = true
			e.AutoTransitioned = true
			e.SubmittedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memStores) ApproveSubmittedByProject(_ context.Context, projectID int64, at time.Time) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.ProjectID == projectID && e.Status == TimesheetSubmitted {
			e.Status = TimesheetApproved
			e.AutoTransitioned = true
			e.ApprovedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memStores) ForceCompleteByProject(_ context.Context, projectID int64, at time.Time) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.ProjectID == projectID && e.Status != TimesheetCompleted {
			e.Status = TimesheetCompleted
			e.Locked = true
			e.CompletedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memStores) MarkCompleted(_ context.Context, id int64, at time.Time) error {
	e := m.entries[id]
	e.Status = TimesheetCompleted
	e.Locked = true
	e.CompletedAt = &at
	return nil
}

// ProjectStore

func (m *memStores) projectRecord(id int64) (*memProject, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, errors.New("project missing")
	}
	return p, nil
}

func (m *memStores) GetProjectRecord(ctx context.Context, id int64) (ProjectRecord, error) {
	p, err := m.projectRecord(id)
	if err != nil {
		return ProjectRecord{}, err
	}
	return p.ProjectRecord, nil
}

func (m *memStores) MarkAutoCompleted(_ context.Context, id int64, actualHours float64, at time.Time) error {
	p := m.projects[id]
	p.Status = ProjectCompleted
	p.ActualHours = actualHours
	p.AutoTransitioned = true
	p.CompletedAt = &at
	return nil
}

func (m *memStores) MarkProjectCompleted(_ context.Context, id int64, at time.Time) error {
	p := m.projects[id]
	p.Status = ProjectCompleted
	p.Locked = true
	p.CompletedAt = &at
	return nil
}

// projectStoreAdapter separates the colliding method names.
type projectStoreAdapter struct{ m *memStores }

func (a projectStoreAdapter) GetRecord(ctx context.Context, id int64) (ProjectRecord, error) {
	return a.m.GetProjectRecord(ctx, id)
}

func (a projectStoreAdapter) MarkAutoCompleted(ctx context.Context, id int64, actualHours float64, at time.Time) error {
	return a.m.MarkAutoCompleted(ctx, id, actualHours, at)
}

func (a projectStoreAdapter) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return a.m.MarkProjectCompleted(ctx, id, at)
}

// Accounting

func (m *memStores) RecomputeWeeklyTotals(_ context.Context, employeeID int64, weekStart time.Time) (hours.WeekSummary, error) {
	if m.weeklyErr != nil {
		return hours.WeekSummary{}, m.weeklyErr
	}
	summary := hours.WeekSummary{EmployeeID: employeeID, WeekStart: weekStart}
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.WeekStart.Equal(weekStart) {
			summary.TotalWeekHours += e.Hours
			summary.Entries++
		}
	}
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.WeekStart.Equal(weekStart) {
			e.TotalWeekHours = summary.TotalWeekHours
		}
	}
	return summary, nil
}

func (m *memStores) RecomputeProjectHours(_ context.Context, projectID int64) (float64, error) {
	if m.projectErr != nil {
		return 0, m.projectErr
	}
	p, err := m.projectRecord(projectID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, e := range m.entries {
		if e.ProjectID == projectID {
			total += e.Hours
		}
	}
	p.LoggedHours = total
	return total, nil
}

func newTestEngine(m *memStores) *Engine {
	logger := slog.New(slog.NewTextHandler(testWriter{}, nil))
	e := NewEngine(logger, m, projectStoreAdapter{m}, m, nil, nil)
	e.now = func() time.Time { return time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC) }
	return e
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

var week = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestFullDayEntryAutoSubmits(t *testing.T) {
	m := newMemStores()
	m.addProject(ProjectRecord{ID: 1, Status: ProjectOpen, BudgetHours: 100})
	entry := m.addEntry(TimesheetRecord{ID: 10, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 8, Status: TimesheetOpen})

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 10)
	require.NoError(t, err)

	assert.True(t, res.TimesheetSubmitted)
	assert.Equal(t, TimesheetSubmitted, entry.Status)
	assert.True(t, entry.AutoTransitioned)
	assert.NotNil(t, entry.SubmittedAt)
	assert.Equal(t, 8.0, entry.TotalWeekHours)
}

func TestPartialDayEntryStaysOpen(t *testing.T) {
	m := newMemStores()
	m.addProject(ProjectRecord{ID: 1, Status: ProjectOpen, BudgetHours: 100})
	entry := m.addEntry(TimesheetRecord{ID: 10, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetOpen})

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 10)
	require.NoError(t, err)

	assert.False(t, res.TimesheetSubmitted)
	assert.Equal(t, TimesheetOpen, entry.Status)
}

func TestFiveEntriesCompleteTheWeek(t *testing.T) {
	m := newMemStores()
	m.addProject(ProjectRecord{ID: 1, Status: ProjectOpen, BudgetHours: 100})
	for i := int64(1); i <= 5; i++ {
		m.addEntry(TimesheetRecord{ID: i, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 2, Status: TimesheetOpen})
	}

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, res.WeekCompleted)
	assert.Equal(t, int64(5), res.WeekSubmitted)
	for _, e := range m.entries {
		assert.Equal(t, TimesheetSubmitted, e.Status)
		assert.True(t, e.WeekCompleted)
		assert.True(t, e.AutoTransitioned)
	}
}

func TestFortyHoursCompleteTheWeek(t *testing.T) {
	m := newMemStores()
	m.addProject(ProjectRecord{ID: 1, Status: ProjectOpen, BudgetHours: 1000})
	for i := int64(1); i <= 4; i++ {
		m.addEntry(TimesheetRecord{ID: i, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 8, Status: TimesheetSubmitted})
	}
	last := m.addEntry(TimesheetRecord{ID: 5, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 8, Status: TimesheetOpen})

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 40.0, res.Week.TotalWeekHours)
	assert.True(t, res.WeekCompleted)
	assert.Equal(t, TimesheetSubmitted, last.Status)
	assert.True(t, last.WeekCompleted)
}

func TestProjectAutoCompletesAtBudget(t *testing.T) {
	m := newMemStores()
	project := m.addProject(ProjectRecord{ID: 1, Status: ProjectInProgress, BudgetHours: 10})
	m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 6, Status: TimesheetSubmitted})
	open := m.addEntry(TimesheetRecord{ID: 2, EmployeeID: 2, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetOpen})

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 2)
	require.NoError(t, err)

	assert.True(t, res.ProjectCompleted)
	assert.Equal(t, ProjectCompleted, project.Status)
	assert.Equal(t, 10.0, project.ActualHours)
	assert.True(t, project.AutoTransitioned)
	require.NotNil(t, project.CompletedAt)

	// only Submitted entries are approved on the auto path
	assert.Equal(t, int64(1), res.TimesheetsApproved)
	assert.Equal(t, TimesheetApproved, m.entries[1].Status)
	assert.NotNil(t, m.entries[1].ApprovedAt)
	assert.Equal(t, TimesheetOpen, open.Status)
	assert.Nil(t, open.ApprovedAt)
}

func TestProjectWithoutBudgetNeverAutoCompletes(t *testing.T) {
	m := newMemStores()
	project := m.addProject(ProjectRecord{ID: 1, Status: ProjectOpen, BudgetHours: 0})
	m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 6, Status: TimesheetOpen})

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, res.ProjectCompleted)
	assert.Equal(t, ProjectOpen, project.Status)
}

func TestPipelineContinuesPastStepFailure(t *testing.T) {
	m := newMemStores()
	m.addProject(ProjectRecord{ID: 1, Status: ProjectInProgress, BudgetHours: 8})
	entry := m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 8, Status: TimesheetOpen})
	m.weeklyErr = errors.New("store unavailable")

	res, err := newTestEngine(m).AfterTimesheetWrite(context.Background(), 1)

	// the weekly step failed but later steps still ran
	require.Error(t, err)
	assert.True(t, res.TimesheetSubmitted)
	assert.Equal(t, TimesheetSubmitted, entry.Status)
	assert.True(t, res.ProjectCompleted)
}

func TestExplicitProjectCompletionCascades(t *testing.T) {
	m := newMemStores()
	project := m.addProject(ProjectRecord{ID: 1, Status: ProjectInProgress, BudgetHours: 100})
	m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetOpen})
	m.addEntry(TimesheetRecord{ID: 2, EmployeeID: 2, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetSubmitted})
	done := m.addEntry(TimesheetRecord{ID: 3, EmployeeID: 3, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetCompleted})

	err := newTestEngine(m).CompleteProject(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ProjectCompleted, project.Status)
	assert.True(t, project.Locked)

	// explicit cascade force-completes everything that was not Completed
	assert.Equal(t, TimesheetCompleted, m.entries[1].Status)
	assert.True(t, m.entries[1].Locked)
	assert.NotNil(t, m.entries[1].CompletedAt)
	assert.Equal(t, TimesheetCompleted, m.entries[2].Status)
	assert.NotNil(t, m.entries[2].CompletedAt)
	assert.False(t, done.Locked)
	assert.Nil(t, done.CompletedAt)
}

func TestCompleteProjectIdempotent(t *testing.T) {
	m := newMemStores()
	project := m.addProject(ProjectRecord{ID: 1, Status: ProjectCompleted, BudgetHours: 10})
	entry := m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetOpen})

	err := newTestEngine(m).CompleteProject(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, project.Locked)
	assert.Equal(t, TimesheetOpen, entry.Status)
}

func TestCompleteTimesheetLocks(t *testing.T) {
	m := newMemStores()
	entry := m.addEntry(TimesheetRecord{ID: 1, EmployeeID: 1, ProjectID: 1, WeekStart: week, Hours: 4, Status: TimesheetSubmitted})

	err := newTestEngine(m).CompleteTimesheet(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, TimesheetCompleted, entry.Status)
	assert.True(t, entry.Locked)
}
