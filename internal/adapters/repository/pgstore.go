package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/pkg/logger"
)

const defaultTable = "saved_colleges"

// PostgresStore keeps saved colleges in a Postgres table. Per-user atomicity
// comes from a transaction-scoped advisory lock on the user id.
type PostgresStore struct {
	db    *sql.DB
	table string
	log   logger.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db, opts...), nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, table: defaultTable, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// EnsureSchema creates the table and its index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
create table if not exists %s (
    position             bigint generated always as identity,
    id                   text primary key,
    user_id              text not null,
    college_name         text not null,
    city                 text,
    state                text,
    school_url           text,
    college_external_id  bigint,
    student_size         bigint,
    tuition_in_state     bigint,
    tuition_out_of_state bigint,
    admission_rate       double precision,
    created_at           timestamptz not null default now()
)`, s.ident()),
		fmt.Sprintf(`create index if not exists %s on %s (user_id, position)`,
			pgx.Identifier{s.table + "_user_position_idx"}.Sanitize(), s.ident()),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.log.Info(ctx, "saved-college schema ready", logger.String("table", s.table))
	return nil
}

const selectColumns = `id, college_name, city, state, school_url, college_external_id,
       student_size, tuition_in_state, tuition_out_of_state, admission_rate`

type scanner interface {
	Scan(dest ...any) error
}

func scanCollege(row scanner) (college.SavedCollege, error) {
	var rec college.SavedCollege
	err := row.Scan(&rec.ID, &rec.CollegeName, &rec.City, &rec.State, &rec.SchoolURL,
		&rec.CollegeExternalID, &rec.StudentSize, &rec.TuitionInState, &rec.TuitionOutOfState,
		&rec.AdmissionRate)
	return rec, err
}

// Insert implements Store.Insert.
func (s *PostgresStore) Insert(ctx context.Context, userID string, rec college.SavedCollege) (college.SavedCollege, bool, error) {
	if userID == "" {
		return college.SavedCollege{}, false, ErrMissingUser
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return college.SavedCollege{}, false, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtextextended($1, 0))`, userID); err != nil {
		return college.SavedCollege{}, false, fmt.Errorf("lock user collection: %w", err)
	}

	q := fmt.Sprintf(`
select %s
from %s
where user_id = $1 and college_name = $2 and state is not distinct from $3
order by position
limit 1`, selectColumns, s.ident())
	existing, err := scanCollege(tx.QueryRowContext(ctx, q, userID, rec.CollegeName, rec.State))
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return college.SavedCollege{}, false, fmt.Errorf("commit insert: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return college.SavedCollege{}, false, fmt.Errorf("find duplicate: %w", err)
	}

	ins := fmt.Sprintf(`
insert into %s (id, user_id, college_name, city, state, school_url, college_external_id,
                student_size, tuition_in_state, tuition_out_of_state, admission_rate)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, s.ident())
	if _, err := tx.ExecContext(ctx, ins, rec.ID, userID, rec.CollegeName, rec.City, rec.State, rec.SchoolURL,
		rec.CollegeExternalID, rec.StudentSize, rec.TuitionInState, rec.TuitionOutOfState, rec.AdmissionRate); err != nil {
		return college.SavedCollege{}, false, fmt.Errorf("insert college: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return college.SavedCollege{}, false, fmt.Errorf("commit insert: %w", err)
	}
	return rec, true, nil
}

// List implements Store.List.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]college.SavedCollege, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	q := fmt.Sprintf(`
select %s
from %s
where user_id = $1
order by position`, selectColumns, s.ident())
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer rows.Close()

	out := []college.SavedCollege{}
	for rows.Next() {
		rec, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return out, nil
}

// Delete implements Store.Delete.
func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrMissingUser
	}

	q := fmt.Sprintf(`delete from %s where user_id = $1 and id = $2`, s.ident())
	res, err := s.db.ExecContext(ctx, q, userID, id)
	if err != nil {
		return fmt.Errorf("delete college: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete college: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
