package timesheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdesk/crewdesk/internal/platform/db"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

// Repository persists timesheets and doubles as the store the workflow
// engine and the hour accountant drive. The aggregate setters write the
// denormalized totals; SetProjectLoggedHours reaches into the projects
// table because logged hours live on the project row.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Timesheet, error)
	List(ctx context.Context, req ListTimesheetsRequest) ([]Timesheet, int, error)
	ListWeek(ctx context.Context, employeeID int64, weekStart time.Time) ([]Timesheet, error)
	Create(ctx context.Context, ts Timesheet) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	SumWeekExcluding(ctx context.Context, employeeID int64, weekStart time.Time, excludeID int64) (float64, error)

	// workflow.TimesheetStore
	GetRecord(ctx context.Context, id int64) (workflow.TimesheetRecord, error)
	MarkAutoSubmitted(ctx context.Context, id int64, at time.Time) error
	SubmitOpenWeek(ctx context.Context, employeeID int64, weekStart time.Time, at time.Time) (int64, error)
	ApproveSubmittedByProject(ctx context.Context, projectID int64, at time.Time) (int64, error)
	ForceCompleteByProject(ctx context.Context, projectID int64, at time.Time) (int64, error)
	MarkCompleted(ctx context.Context, id int64, at time.Time) error

	// hours.Store
	SumWeek(ctx context.Context, employeeID int64, weekStart time.Time) (float64, int, error)
	SetWeekTotals(ctx context.Context, employeeID int64, weekStart time.Time, total float64) error
	SumProjectHours(ctx context.Context, projectID int64) (float64, error)
	SetProjectLoggedHours(ctx context.Context, projectID int64, total float64) error

	// reconcile sweep
	RecentWeeks(ctx context.Context, since time.Time) ([]WeekRef, error)
	RecentProjects(ctx context.Context, since time.Time) ([]int64, error)
}

// WeekRef identifies one employee week touched within a window.
type WeekRef struct {
	EmployeeID int64
	WeekStart  time.Time
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const timesheetColumns = `id, employee_id, project_id, date, week_start, hours, description,
	status, total_week_hours, week_completed, auto_transitioned, locked, submitted_at,
	approved_at, completed_at, transitioned_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Timesheet, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM timesheets WHERE id = $1", timesheetColumns), id)
	ts, err := scanTimesheetRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return ts, nil
}

func (r *repository) List(ctx context.Context, req ListTimesheetsRequest) ([]Timesheet, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argPos))
		args = append(args, *req.EmployeeID)
		argPos++
	}
	if req.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *req.ProjectID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM timesheets %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM timesheets %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		timesheetColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		ts, err := scanTimesheetRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *ts)
	}
	return out, total, rows.Err()
}

func (r *repository) ListWeek(ctx context.Context, employeeID int64, weekStart time.Time) ([]Timesheet, error) {
	query := fmt.Sprintf("SELECT %s FROM timesheets WHERE employee_id = $1 AND week_start = $2 ORDER BY date, id", timesheetColumns)
	rows, err := r.db.Query(ctx, query, employeeID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		ts, err := scanTimesheetRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, ts Timesheet) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO timesheets (employee_id, project_id, date, week_start, hours, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		ts.EmployeeID, ts.ProjectID, ts.Date, ts.WeekStart, ts.Hours, ts.Description, ts.Status,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE timesheets SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"hours", "description", "status", "submitted_at", "approved_at",
		"completed_at", "transitioned_at", "auto_transitioned", "locked"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM timesheets WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SumWeekExcluding(ctx context.Context, employeeID int64, weekStart time.Time, excludeID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0) FROM timesheets
		WHERE employee_id = $1 AND week_start = $2 AND id <> $3`,
		employeeID, weekStart, excludeID,
	).Scan(&total)
	return total, err
}

func (r *repository) GetRecord(ctx context.Context, id int64) (workflow.TimesheetRecord, error) {
	var rec workflow.TimesheetRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, employee_id, project_id, date, week_start, hours, status
		FROM timesheets WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.EmployeeID, &rec.ProjectID, &rec.Date, &rec.WeekStart, &rec.Hours, &rec.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.TimesheetRecord{}, shared.ErrNotFound
		}
		return workflow.TimesheetRecord{}, err
	}
	return rec, nil
}

func (r *repository) MarkAutoSubmitted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE timesheets
		SET status = $2, auto_transitioned = TRUE, submitted_at = $3,
		    transitioned_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, workflow.TimesheetSubmitted, at, workflow.TimesheetOpen)
	return err
}

func (r *repository) SubmitOpenWeek(ctx context.Context, employeeID int64, weekStart time.Time, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE timesheets
		SET status = $3, week_completed = TRUE, auto_transitioned = TRUE,
		    submitted_at = $4, transitioned_at = $4, updated_at = NOW()
		WHERE employee_id = $1 AND week_start = $2 AND status = $5`,
		employeeID, weekStart, workflow.TimesheetSubmitted, at, workflow.TimesheetOpen)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) ApproveSubmittedByProject(ctx context.Context, projectID int64, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE timesheets
		SET status = $2, auto_transitioned = TRUE, approved_at = $3,
		    transitioned_at = $3, updated_at = NOW()
		WHERE project_id = $1 AND status = $4`,
		projectID, workflow.TimesheetApproved, at, workflow.TimesheetSubmitted)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) ForceCompleteByProject(ctx context.Context, projectID int64, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE timesheets
		SET status = $2, locked = TRUE, completed_at = $3,
		    transitioned_at = $3, updated_at = NOW()
		WHERE project_id = $1 AND status <> $2`,
		projectID, workflow.TimesheetCompleted, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE timesheets
		SET status = $2, locked = TRUE, completed_at = $3,
		    transitioned_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, workflow.TimesheetCompleted, at)
	return err
}

func (r *repository) SumWeek(ctx context.Context, employeeID int64, weekStart time.Time) (float64, int, error) {
	var total float64
	var entries int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0), COUNT(*) FROM timesheets
		WHERE employee_id = $1 AND week_start = $2`,
		employeeID, weekStart,
	).Scan(&total, &entries)
	return total, entries, err
}

func (r *repository) SetWeekTotals(ctx context.Context, employeeID int64, weekStart time.Time, total float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE timesheets SET total_week_hours = $3, updated_at = NOW()
		WHERE employee_id = $1 AND week_start = $2`,
		employeeID, weekStart, total)
	return err
}

func (r *repository) SumProjectHours(ctx context.Context, projectID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(hours), 0) FROM timesheets WHERE project_id = $1", projectID,
	).Scan(&total)
	return total, err
}

func (r *repository) SetProjectLoggedHours(ctx context.Context, projectID int64, total float64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE projects SET logged_hours = $2, updated_at = NOW() WHERE id = $1",
		projectID, total)
	return err
}

func (r *repository) RecentWeeks(ctx context.Context, since time.Time) ([]WeekRef, error) {
	rows, err := r.db.Query(ctx,
		"SELECT DISTINCT employee_id, week_start FROM timesheets WHERE updated_at >= $1", since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []WeekRef
	for rows.Next() {
		var ref WeekRef
		if err := rows.Scan(&ref.EmployeeID, &ref.WeekStart); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *repository) RecentProjects(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		"SELECT DISTINCT project_id FROM timesheets WHERE updated_at >= $1", since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTimesheetRow(row pgx.Row) (*Timesheet, error) {
	var ts Timesheet
	var description pgtype.Text
	var submittedAt, approvedAt, completedAt pgtype.Timestamptz
	var transitionedAt, createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&ts.ID, &ts.EmployeeID, &ts.ProjectID, &ts.Date, &ts.WeekStart,
		&ts.Hours, &description, &ts.Status, &ts.TotalWeekHours, &ts.WeekCompleted,
		&ts.AutoTransitioned, &ts.Locked, &submittedAt, &approvedAt, &completedAt,
		&transitionedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if description.Valid {
		ts.Description = &description.String
	}
	if submittedAt.Valid {
		ts.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		ts.ApprovedAt = &approvedAt.Time
	}
	if completedAt.Valid {
		ts.CompletedAt = &completedAt.Time
	}
	if transitionedAt.Valid {
		ts.TransitionedAt = &transitionedAt.Time
	}
	if createdAt.Valid {
		ts.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		ts.UpdatedAt = updatedAt.Time
	}
	return &ts, nil
}
