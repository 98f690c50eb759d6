package timesheets

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/employees"
	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/projects"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
	"github.com/crewdesk/crewdesk/internal/users"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

type projectState struct {
	code        string
	name        string
	status      workflow.ProjectStatus
	budgetHours float64
	loggedHours float64
	actualHours float64
	locked      bool
}

type memRepo struct {
	entries  map[int64]*Timesheet
	projects map[int64]*projectState
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		entries:  make(map[int64]*Timesheet),
		projects: make(map[int64]*projectState),
	}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) Get(_ context.Context, id int64) (*Timesheet, error) {
	ts, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *ts
	return &copied, nil
}

func (r *memRepo) List(_ context.Context, req ListTimesheetsRequest) ([]Timesheet, int, error) {
	var out []Timesheet
	for _, ts := range r.entries {
		if req.EmployeeID != nil && ts.EmployeeID != *req.EmployeeID {
			continue
		}
		if req.ProjectID != nil && ts.ProjectID != *req.ProjectID {
			continue
		}
		out = append(out, *ts)
	}
	return out, len(out), nil
}

func (r *memRepo) ListWeek(_ context.Context, employeeID int64, weekStart time.Time) ([]Timesheet, error) {
	var out []Timesheet
	for _, ts := range r.entries {
		if ts.EmployeeID == employeeID && ts.WeekStart.Equal(weekStart) {
			out = append(out, *ts)
		}
	}
	return out, nil
}

func (r *memRepo) Create(_ context.Context, ts Timesheet) (int64, error) {
	r.nextID++
	ts.ID = r.nextID
	r.entries[ts.ID] = &ts
	return ts.ID, nil
}

func (r *memRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	ts, ok := r.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["hours"]; ok {
		ts.Hours = v.(float64)
	}
	if v, ok := updates["description"]; ok {
		s := v.(string)
		ts.Description = &s
	}
	if v, ok := updates["status"]; ok {
		ts.Status = v.(workflow.TimesheetStatus)
	}
	if v, ok := updates["submitted_at"]; ok {
		at := v.(time.Time)
		ts.SubmittedAt = &at
	}
	if v, ok := updates["approved_at"]; ok {
		at := v.(time.Time)
		ts.ApprovedAt = &at
	}
	if v, ok := updates["completed_at"]; ok {
		at := v.(time.Time)
		ts.CompletedAt = &at
	}
	if v, ok := updates["transitioned_at"]; ok {
		at := v.(time.Time)
		ts.TransitionedAt = &at
	}
	if v, ok := updates["auto_transitioned"]; ok {
		ts.AutoTransitioned = v.(bool)
	}
	if v, ok := updates["locked"]; ok {
		ts.Locked = v.(bool)
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.entries[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memRepo) SumWeekExcluding(_ context.Context, employeeID int64, weekStart time.Time, excludeID int64) (float64, error) {
	var total float64
	for _, ts := range r.entries {
		if ts.ID != excludeID && ts.EmployeeID == employeeID && ts.WeekStart.Equal(weekStart) {
			total += ts.Hours
		}
	}
	return total, nil
}

func (r *memRepo) GetRecord(_ context.Context, id int64) (workflow.TimesheetRecord, error) {
	ts, ok := r.entries[id]
	if !ok {
		return workflow.TimesheetRecord{}, shared.ErrNotFound
	}
	return workflow.TimesheetRecord{
		ID: ts.ID, EmployeeID: ts.EmployeeID, ProjectID: ts.ProjectID,
		Date: ts.Date, WeekStart: ts.WeekStart, Hours: ts.Hours, Status: ts.Status,
	}, nil
}

func (r *memRepo) MarkAutoSubmitted(_ context.Context, id int64, at time.Time) error {
	ts := r.entries[id]
	if ts.Status != workflow.TimesheetOpen {
		return nil
	}
	ts.Status = workflow.TimesheetSubmitted
	ts.AutoTransitioned = true
	ts.SubmittedAt = &at
	ts.TransitionedAt = &at
	return nil
}

func (r *memRepo) SubmitOpenWeek(_ context.Context, employeeID int64, weekStart time.Time, at time.Time) (int64, error) {
	var n int64
	for _, ts := range r.entries {
		if ts.EmployeeID != employeeID || !ts.WeekStart.Equal(weekStart) {
			continue
		}
		if ts.Status == workflow.TimesheetOpen {
			ts.Status = workflow.TimesheetSubmitted
			ts.WeekCompleted = true
			ts.AutoTransitioned = true
			ts.SubmittedAt = &at
			ts.TransitionedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ApproveSubmittedByProject(_ context.Context, projectID int64, at time.Time) (int64, error) {
	var n int64
	for _, ts := range r.entries {
		if ts.ProjectID == projectID && ts.Status == workflow.TimesheetSubmitted {
			ts.Status = workflow.TimesheetApproved
			ts.AutoTransitioned = true
			ts.ApprovedAt = &at
			ts.TransitionedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ForceCompleteByProject(_ context.Context, projectID int64, at time.Time) (int64, error) {
	var n int64
	for _, ts := range r.entries {
		if ts.ProjectID == projectID && ts.Status != workflow.TimesheetCompleted {
			ts.Status = workflow.TimesheetCompleted
			ts.Locked = true
			ts.CompletedAt = &at
			ts.TransitionedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *memRepo) MarkCompleted(_ context.Context, id int64, at time.Time) error {
	ts := r.entries[id]
	ts.Status = workflow.TimesheetCompleted
	ts.Locked = true
	ts.CompletedAt = &at
	ts.TransitionedAt = &at
	return nil
}

func (r *memRepo) SumWeek(_ context.Context, employeeID int64, weekStart time.Time) (float64, int, error) {
	var total float64
	var count int
	for _, ts := range r.entries {
		if ts.EmployeeID == employeeID && ts.WeekStart.Equal(weekStart) {
			total += ts.Hours
			count++
		}
	}
	return total, count, nil
}

func (r *memRepo) SetWeekTotals(_ context.Context, employeeID int64, weekStart time.Time, total float64) error {
	for _, ts := range r.entries {
		if ts.EmployeeID == employeeID && ts.WeekStart.Equal(weekStart) {
			ts.TotalWeekHours = total
		}
	}
	return nil
}

func (r *memRepo) SumProjectHours(_ context.Context, projectID int64) (float64, error) {
	var total float64
	for _, ts := range r.entries {
		if ts.ProjectID == projectID {
			total += ts.Hours
		}
	}
	return total, nil
}

func (r *memRepo) SetProjectLoggedHours(_ context.Context, projectID int64, total float64) error {
	p, ok := r.projects[projectID]
	if !ok {
		return shared.ErrNotFound
	}
	p.loggedHours = total
	return nil
}

func (r *memRepo) RecentWeeks(_ context.Context, _ time.Time) ([]WeekRef, error) {
	seen := make(map[WeekRef]bool)
	var refs []WeekRef
	for _, ts := range r.entries {
		ref := WeekRef{EmployeeID: ts.EmployeeID, WeekStart: ts.WeekStart}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (r *memRepo) RecentProjects(_ context.Context, _ time.Time) ([]int64, error) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, ts := range r.entries {
		if !seen[ts.ProjectID] {
			seen[ts.ProjectID] = true
			ids = append(ids, ts.ProjectID)
		}
	}
	return ids, nil
}

// memProjectStore adapts the repo's project states to the engine.
type memProjectStore struct{ repo *memRepo }

func (s memProjectStore) GetRecord(_ context.Context, id int64) (workflow.ProjectRecord, error) {
	p, ok := s.repo.projects[id]
	if !ok {
		return workflow.ProjectRecord{}, shared.ErrNotFound
	}
	return workflow.ProjectRecord{ID: id, Status: p.status, BudgetHours: p.budgetHours, Locked: p.locked}, nil
}

func (s memProjectStore) MarkAutoCompleted(_ context.Context, id int64, actualHours float64, _ time.Time) error {
	p := s.repo.projects[id]
	p.status = workflow.ProjectCompleted
	p.actualHours = actualHours
	return nil
}

func (s memProjectStore) MarkCompleted(_ context.Context, id int64, _ time.Time) error {
	p := s.repo.projects[id]
	p.status = workflow.ProjectCompleted
	p.locked = true
	return nil
}

type stubProjects struct{ repo *memRepo }

func (s stubProjects) Get(_ context.Context, id int64) (*projects.Project, error) {
	p, ok := s.repo.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &projects.Project{
		ID: id, Code: p.code, Name: p.name, Status: p.status,
		BudgetHours: p.budgetHours, LoggedHours: p.loggedHours, Locked: p.locked,
	}, nil
}

type stubEmployees struct{}

func (stubEmployees) Get(_ context.Context, id int64) (*employees.Employee, error) {
	return &employees.Employee{
		ID:           id,
		Name:         fmt.Sprintf("Employee %d", id),
		CompanyEmail: fmt.Sprintf("employee-%d@crewdesk.example", id),
	}, nil
}

type stubUsers struct {
	byID       map[int64]users.User
	principals []string
}

func (s stubUsers) Get(_ context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (s stubUsers) EmailsByRole(_ context.Context, role string) ([]string, error) {
	if role == shared.RolePrincipal {
		return s.principals, nil
	}
	return nil, nil
}

type memoryRecorder struct {
	records map[string][]tracking.ChangeRecord
}

func (r *memoryRecorder) Append(_ context.Context, entity string, id int64, rec tracking.ChangeRecord) error {
	if r.records == nil {
		r.records = make(map[string][]tracking.ChangeRecord)
	}
	key := fmt.Sprintf("%s/%d", entity, id)
	r.records[key] = append(r.records[key], rec)
	return nil
}

func (r *memoryRecorder) History(_ context.Context, entity string, id int64) ([]tracking.ChangeRecord, error) {
	return r.records[fmt.Sprintf("%s/%d", entity, id)], nil
}

type captureDispatcher struct {
	intents []notify.Intent
}

func (d *captureDispatcher) Dispatch(_ context.Context, intent notify.Intent) error {
	d.intents = append(d.intents, intent)
	return nil
}

func (d *captureDispatcher) byAction(action string) []notify.Intent {
	var out []notify.Intent
	for _, i := range d.intents {
		if i.Action == action {
			out = append(out, i)
		}
	}
	return out
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type fixture struct {
	svc        *Service
	repo       *memRepo
	dispatcher *captureDispatcher
	recorder   *memoryRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	repo.projects[1] = &projectState{code: "0001.0001A", name: "Website Revamp", status: workflow.ProjectOpen, budgetHours: 100}

	logger := slog.New(slog.NewTextHandler(discard{}, nil))
	accountant := hours.NewAccountant(repo)
	engine := workflow.NewEngine(logger, repo, memProjectStore{repo: repo}, accountant, nil, nil)
	dispatcher := &captureDispatcher{}
	recorder := &memoryRecorder{}

	emp1 := int64(1)
	userDir := stubUsers{
		byID: map[int64]users.User{
			100: {ID: 100, UserName: "pat", Role: shared.RoleEmployee, EmployeeID: &emp1},
		},
		principals: []string{"principal@crewdesk.example"},
	}

	svc := NewService(logger, repo, recorder, dispatcher, engine, accountant,
		stubProjects{repo: repo}, stubEmployees{}, userDir, time.Sunday)
	return &fixture{svc: svc, repo: repo, dispatcher: dispatcher, recorder: recorder}
}

var (
	admin    = shared.Identity{UserID: 1, UserName: "root", Role: shared.RoleAdmin}
	employee = shared.Identity{UserID: 100, UserName: "pat", Role: shared.RoleEmployee}
)

func entry(employeeID int64, date string, h float64) CreateTimesheetRequest {
	return CreateTimesheetRequest{EmployeeID: employeeID, ProjectID: 1, Date: date, Hours: h}
}

func TestCreateComputesWeekTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 4), admin)
	require.NoError(t, err)

	assert.Equal(t, workflow.TimesheetOpen, ts.Status)
	assert.Equal(t, 4.0, ts.TotalWeekHours)
	// Wednesday resolves to the Sunday week start
	assert.Equal(t, "2025-06-15", ts.WeekStart.Format(dateLayout))
	assert.Equal(t, 4.0, f.repo.projects[1].loggedHours)
}

func TestCreateFullDayAutoSubmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 8), admin)
	require.NoError(t, err)

	assert.Equal(t, workflow.TimesheetSubmitted, ts.Status)
	assert.True(t, ts.AutoTransitioned)
	require.NotNil(t, ts.TransitionedAt)
	require.NotNil(t, ts.SubmittedAt)

	// employee hears about the transition, reviewers get the submission
	statusIntents := f.dispatcher.byAction(notify.ActionStatusChange)
	require.NotEmpty(t, statusIntents)
	assert.Equal(t, "employee-1@crewdesk.example", statusIntents[0].To)

	submitted := f.dispatcher.byAction(notify.ActionSubmittedForReview)
	require.Len(t, submitted, 1)
	assert.Equal(t, "principal@crewdesk.example", submitted[0].To)
}

func TestCreateRejectsOverDailyCap(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), entry(1, "2025-06-18", 9), admin)
	assert.ErrorIs(t, err, shared.ErrDailyLimitExceeded)
}

func TestCreateRejectsOverWeeklyCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days := []string{"2025-06-16", "2025-06-17", "2025-06-18", "2025-06-19", "2025-06-20"}
	for _, d := range days {
		_, err := f.svc.Create(ctx, entry(1, d, 8), admin)
		require.NoError(t, err)
	}

	_, err := f.svc.Create(ctx, entry(1, "2025-06-21", 1), admin)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrWeeklyLimitExceeded)
	assert.Contains(t, err.Error(), "Current: 40, Attempting to add: 1")
}

func TestFiveEntriesCompleteWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days := []string{"2025-06-16", "2025-06-17", "2025-06-18", "2025-06-19", "2025-06-20"}
	var last *Timesheet
	for _, d := range days {
		ts, err := f.svc.Create(ctx, entry(1, d, 2), admin)
		require.NoError(t, err)
		last = ts
	}

	assert.True(t, last.WeekCompleted)
	assert.Equal(t, workflow.TimesheetSubmitted, last.Status)
	for _, ts := range f.repo.entries {
		assert.True(t, ts.WeekCompleted)
	}

	limit := f.dispatcher.byAction(notify.ActionLimitReached)
	require.Len(t, limit, 1)
	assert.Equal(t, "employee-1@crewdesk.example", limit[0].To)
}

func TestWeekSubmitLeavesReviewedEntriesUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, entry(1, "2025-06-16", 2), admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, first.ID, UpdateStatusRequest{Status: "Approved"}, admin)
	require.NoError(t, err)

	for _, d := range []string{"2025-06-17", "2025-06-18", "2025-06-19", "2025-06-20"} {
		_, err := f.svc.Create(ctx, entry(1, d, 2), admin)
		require.NoError(t, err)
	}

	// only the Open entries transition and flag week completion
	approved := f.repo.entries[first.ID]
	assert.Equal(t, workflow.TimesheetApproved, approved.Status)
	assert.False(t, approved.WeekCompleted)
	for id, ts := range f.repo.entries {
		if id == first.ID {
			continue
		}
		assert.Equal(t, workflow.TimesheetSubmitted, ts.Status)
		assert.True(t, ts.WeekCompleted)
	}
}

func TestProjectAutoCompletionCascade(t *testing.T) {
	f := newFixture(t)
	f.repo.projects[1].budgetHours = 10
	ctx := context.Background()

	_, err := f.svc.Create(ctx, entry(1, "2025-06-17", 6), admin)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, entry(2, "2025-06-18", 4), admin)
	require.NoError(t, err)

	p := f.repo.projects[1]
	assert.Equal(t, workflow.ProjectCompleted, p.status)
	assert.Equal(t, 10.0, p.actualHours)
	assert.False(t, p.locked)
}

func TestCreateOnCompletedProjectRejected(t *testing.T) {
	f := newFixture(t)
	f.repo.projects[1].status = workflow.ProjectCompleted
	f.repo.projects[1].locked = true

	_, err := f.svc.Create(context.Background(), entry(1, "2025-06-18", 4), admin)
	assert.ErrorIs(t, err, shared.ErrLocked)
}

func TestEmployeeCannotLogForOthers(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), entry(2, "2025-06-18", 4), employee)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestEmployeeListScopedToOwnEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, entry(1, "2025-06-18", 4), admin)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, entry(2, "2025-06-18", 4), admin)
	require.NoError(t, err)

	list, total, err := f.svc.List(ctx, ListTimesheetsRequest{}, employee)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].EmployeeID)
}

func TestUpdateHoursValidatesWeekDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-16", 4), admin)
	require.NoError(t, err)
	for _, d := range []string{"2025-06-17", "2025-06-18", "2025-06-19"} {
		_, err := f.svc.Create(ctx, entry(1, d, 8), admin)
		require.NoError(t, err)
	}

	// week holds 28h, 24h of it in other entries; 7h still fits here
	seven := 7.0
	updated, err := f.svc.Update(ctx, ts.ID, UpdateTimesheetRequest{Hours: &seven}, admin)
	require.NoError(t, err)
	assert.Equal(t, 7.0, updated.Hours)
	assert.Equal(t, 31.0, updated.TotalWeekHours)

	nine := 9.0
	_, err = f.svc.Update(ctx, ts.ID, UpdateTimesheetRequest{Hours: &nine}, admin)
	assert.ErrorIs(t, err, shared.ErrDailyLimitExceeded)
}

func TestUpdateSubmittedEntryRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 8), admin)
	require.NoError(t, err)
	require.Equal(t, workflow.TimesheetSubmitted, ts.Status)

	four := 4.0
	_, err = f.svc.Update(ctx, ts.ID, UpdateTimesheetRequest{Hours: &four}, admin)
	assert.ErrorIs(t, err, shared.ErrLocked)
}

func TestRejectedEntryEditableAndReopens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 8), admin)
	require.NoError(t, err)

	rejected, err := f.svc.UpdateStatus(ctx, ts.ID, UpdateStatusRequest{Status: "Rejected"}, admin)
	require.NoError(t, err)
	require.Equal(t, workflow.TimesheetRejected, rejected.Status)

	six := 6.0
	updated, err := f.svc.Update(ctx, ts.ID, UpdateTimesheetRequest{Hours: &six}, admin)
	require.NoError(t, err)
	assert.Equal(t, workflow.TimesheetOpen, updated.Status)
	assert.Equal(t, 6.0, updated.Hours)
}

func TestManualApprovalNotifiesEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 8), admin)
	require.NoError(t, err)
	f.dispatcher.intents = nil

	approved, err := f.svc.UpdateStatus(ctx, ts.ID, UpdateStatusRequest{Status: "Approved"}, admin)
	require.NoError(t, err)
	assert.Equal(t, workflow.TimesheetApproved, approved.Status)
	assert.False(t, approved.AutoTransitioned)
	require.NotNil(t, approved.ApprovedAt)

	statusIntents := f.dispatcher.byAction(notify.ActionStatusChange)
	require.Len(t, statusIntents, 1)
	assert.Contains(t, statusIntents[0].Body, "Approved")
}

func TestTransitionTimestampsRecordedPerStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 8), admin)
	require.NoError(t, err)
	require.NotNil(t, ts.SubmittedAt)
	assert.Nil(t, ts.ApprovedAt)
	assert.Nil(t, ts.CompletedAt)

	approved, err := f.svc.UpdateStatus(ctx, ts.ID, UpdateStatusRequest{Status: "Approved"}, admin)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	assert.NotNil(t, approved.SubmittedAt)
	assert.Nil(t, approved.CompletedAt)

	completed, err := f.svc.UpdateStatus(ctx, ts.ID, UpdateStatusRequest{Status: "Completed"}, admin)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
	assert.True(t, completed.Locked)
}

func TestDeleteRecomputesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, entry(1, "2025-06-17", 4), admin)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, entry(1, "2025-06-18", 3), admin)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, first.ID, admin))

	remaining, err := f.svc.Get(ctx, second.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 3.0, remaining.TotalWeekHours)
	assert.Equal(t, 3.0, f.repo.projects[1].loggedHours)
}

func TestDeleteLockedEntryRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 4), admin)
	require.NoError(t, err)
	f.repo.entries[ts.ID].Locked = true

	err = f.svc.Delete(ctx, ts.ID, admin)
	assert.ErrorIs(t, err, shared.ErrLocked)
}

func TestWeekView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, entry(1, "2025-06-16", 4), admin)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, entry(1, "2025-06-17", 3), admin)
	require.NoError(t, err)

	view, err := f.svc.Week(ctx, 1, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), admin)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15", view.WeekStart)
	assert.Equal(t, "2025-06-21", view.WeekEnd)
	assert.Equal(t, 7.0, view.TotalWeekHours)
	assert.Equal(t, 33.0, view.Remaining)
	assert.Len(t, view.Entries, 2)
	assert.False(t, view.WeekCompleted)
}

func TestDeleteAppendsChangeRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, entry(1, "2025-06-18", 4), admin)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, ts.ID, admin))

	history, err := f.recorder.History(ctx, "timesheets", ts.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, tracking.MethodDelete, history[1].Method)
}
