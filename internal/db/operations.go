package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("job not found")

// CreateJob inserts j as pending and fills in its id and timestamps.
func (s *Store) CreateJob(ctx context.Context, j *PrintJob) error {
	now := s.now()
	j.ID = uuid.NewString()
	j.State = StatePending
	j.CreatedAt = now
	j.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, InsertJob,
		j.ID, j.PrinterName, j.PrinterURI, j.State,
		j.TapeWidth, j.HighResolution, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJobState records a state change. Zero-valued fields in u leave
// the stored values untouched. Finished states set completed_at.
func (s *Store) UpdateJobState(ctx context.Context, id string, u JobUpdate) error {
	now := s.now()
	var completedAt any
	if IsFinished(u.State) {
		completedAt = now
	}

	res, err := s.db.ExecContext(ctx, UpdateJobState,
		u.State,
		u.IPPJobID, u.IPPJobID,
		u.Attempts, u.Attempts,
		u.StreamBytes, u.StreamBytes,
		u.ErrorMessage, u.ErrorMessage,
		now, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*PrintJob, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, GetJobByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]*PrintJob, error) {
	var conditions []string
	var args []interface{}

	if filter.PrinterName != "" {
		conditions = append(conditions, "printer_name = ?")
		args = append(args, filter.PrinterName)
	}
	if filter.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, filter.State)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.FromDate.UTC())
	}
	if filter.ToDate != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.ToDate.UTC())
	}

	query := "SELECT " + jobColumns + " FROM print_jobs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	limit := 100
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ListFinishedBefore returns jobs that reached a final state before t,
// oldest first.
func (s *Store) ListFinishedBefore(ctx context.Context, t time.Time) ([]*PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, ListFinishedBefore, t.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list finished jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (s *Store) CountByState(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, CountJobsByState)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// RecordArchive removes the archived jobs and inserts a's row in one
// transaction, so a failure leaves the journal untouched.
func (s *Store) RecordArchive(ctx context.Context, a *Archive, ids []string) error {
	a.ArchivedAt = s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, DeleteJob, id); err != nil {
			return fmt.Errorf("failed to delete job %s: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, InsertArchive, a.ArchiveFile, a.JobCount, a.Encrypted, a.ArchivedAt)
	if err != nil {
		return fmt.Errorf("failed to record archive: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get archive id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive: %w", err)
	}
	a.ID = id
	return nil
}

func (s *Store) ListArchives(ctx context.Context, limit, offset int) ([]*Archive, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, ListArchives, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	var archives []*Archive
	for rows.Next() {
		a := &Archive{}
		if err := rows.Scan(&a.ID, &a.ArchiveFile, &a.JobCount, &a.Encrypted, &a.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*PrintJob, error) {
	j := &PrintJob{}
	err := row.Scan(
		&j.ID, &j.PrinterName, &j.PrinterURI, &j.IPPJobID, &j.State, &j.Attempts,
		&j.TapeWidth, &j.HighResolution, &j.StreamBytes, &j.ErrorMessage,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*PrintJob, error) {
	var jobs []*PrintJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
