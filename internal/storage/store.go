package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobdex/internal/logging"
	"jobdex/pkg/models"
)

// Outcome reports what a write attempt did to the store.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeInserted
	OutcomeAlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// ErrNotFound is returned by single-record reads when no row matches.
var ErrNotFound = errors.New("job not found")

// PersistenceError wraps a database failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store persists extracted job records and serves read queries. All
// methods bound their database work with the configured query timeout.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       logging.Logger
}

func NewStore(pool *pgxpool.Pool, queryTimeout time.Duration, logger logging.Logger) *Store {
	return &Store{pool: pool, queryTimeout: queryTimeout, logger: logger}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

var insertJobSQL = fmt.Sprintf(
	`INSERT INTO job (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO NOTHING`,
	strings.Join(jobColumns, ", "),
)

// WriteJob persists a record and its lookup associations in a single
// transaction. The insert races cleanly: ON CONFLICT (id) DO NOTHING with
// zero rows affected means another writer got there first, reported as
// OutcomeAlreadyExists with no association rows touched. Nothing is
// partially visible on failure.
func (s *Store) WriteJob(ctx context.Context, record *models.JobRecord) (Outcome, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return OutcomeFailed, &PersistenceError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, insertJobSQL, insertArgs(record)...)
	if err != nil {
		return OutcomeFailed, &PersistenceError{Op: "insert job", Err: err}
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("Job already present, skipping", map[string]interface{}{
			"job_id": record.ID,
		})
		return OutcomeAlreadyExists, nil
	}

	for _, attr := range lookupAttrs {
		if err := s.associate(ctx, tx, record.ID, attr, attr.values(record)); err != nil {
			return OutcomeFailed, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return OutcomeFailed, &PersistenceError{Op: "commit", Err: err}
	}

	return OutcomeInserted, nil
}

// associate resolves each value through the attribute's lookup table and
// links it to the job. A record with no values writes no association rows.
func (s *Store) associate(ctx context.Context, tx pgx.Tx, jobID int64, attr lookupAttr, values []string) error {
	for _, name := range values {
		lookupID, err := s.resolveLookup(ctx, tx, attr.table, name)
		if err != nil {
			return err
		}

		junctionSQL := fmt.Sprintf(
			`INSERT INTO %s (job_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			attr.junction, attr.column,
		)
		if _, err := tx.Exec(ctx, junctionSQL, jobID, lookupID); err != nil {
			return &PersistenceError{Op: "link " + attr.junction, Err: err}
		}
	}
	return nil
}

// resolveLookup gets or creates a lookup row by name, returning its id.
// Insert-or-ignore then select is safe against concurrent writers because
// names are unique.
func (s *Store) resolveLookup(ctx context.Context, tx pgx.Tx, table, name string) (int, error) {
	insertSQL := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)
	if _, err := tx.Exec(ctx, insertSQL, name); err != nil {
		return 0, &PersistenceError{Op: "create lookup in " + table, Err: err}
	}

	var id int
	selectSQL := fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, table)
	if err := tx.QueryRow(ctx, selectSQL, name).Scan(&id); err != nil {
		return 0, &PersistenceError{Op: "resolve lookup in " + table, Err: err}
	}
	return id, nil
}

// UpdateRejected marks the first job matching title and company
// (case-insensitive, lowest id wins) as rejected. Returns false when no
// job matches.
func (s *Store) UpdateRejected(ctx context.Context, title, company string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM job WHERE title ILIKE $1 AND company ILIKE $2 ORDER BY id LIMIT 1`,
		title, company,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "find job to reject", Err: err}
	}

	if _, err := s.pool.Exec(ctx, `UPDATE job SET rejected = TRUE WHERE id = $1`, id); err != nil {
		return false, &PersistenceError{Op: "mark job rejected", Err: err}
	}
	return true, nil
}

// selectJobSQL aggregates both lookup attributes per job. LEFT JOINs via
// scalar subqueries keep jobs with zero associations in the result set.
const selectJobSQL = `
SELECT j.id, j.url, j.title, j.company, j.location, j.seniority, j.employment_type, j.posting_text, j.rejected,
       COALESCE((SELECT array_agg(i.name ORDER BY i.name)
                 FROM job_industry ji JOIN industry i ON i.id = ji.industry_id
                 WHERE ji.job_id = j.id), '{}') AS industries,
       COALESCE((SELECT array_agg(f.name ORDER BY f.name)
                 FROM job_function jf JOIN "function" f ON f.id = jf.function_id
                 WHERE jf.job_id = j.id), '{}') AS functions
FROM job j`

func scanJob(row pgx.Row) (*models.JobRecord, error) {
	var rec models.JobRecord
	err := row.Scan(
		&rec.ID, &rec.URL, &rec.Title, &rec.Company, &rec.Location,
		&rec.Seniority, &rec.EmploymentType, &rec.PostingText, &rec.Rejected,
		&rec.Industries, &rec.Functions,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SelectJob fetches one job with its aggregated industries and functions.
func (s *Store) SelectJob(ctx context.Context, id int64) (*models.JobRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := scanJob(s.pool.QueryRow(ctx, selectJobSQL+` WHERE j.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "select job", Err: err}
	}
	return rec, nil
}

// SelectJobs lists every job ordered by id. Rejected jobs are part of the
// listing; excludeRejected filters them out on request.
func (s *Store) SelectJobs(ctx context.Context, excludeRejected bool) ([]*models.JobRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := selectJobSQL
	if excludeRejected {
		query += ` WHERE NOT j.rejected`
	}
	query += ` ORDER BY j.id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &PersistenceError{Op: "select jobs", Err: err}
	}
	defer rows.Close()

	jobs := make([]*models.JobRecord, 0)
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "scan job row", Err: err}
		}
		jobs = append(jobs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "iterate jobs", Err: err}
	}
	return jobs, nil
}
