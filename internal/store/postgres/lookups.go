package postgres

import (
	"context"
	"errors"
	"fmt"

	"contractdesk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LookupStore serves one id+name lookup table. The table name comes from
// the constructors below, never from request input.
type LookupStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewCategoriesStore(pool *pgxpool.Pool) *LookupStore {
	return &LookupStore{pool: pool, table: "categories"}
}

func NewStatusesStore(pool *pgxpool.Pool) *LookupStore {
	return &LookupStore{pool: pool, table: "statuses"}
}

func (s *LookupStore) List(ctx context.Context) ([]domain.LookupRow, error) {
	q := fmt.Sprintf("SELECT id, name FROM %s ORDER BY name", s.table)

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []domain.LookupRow
	for rows.Next() {
		var r domain.LookupRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	return out, nil
}

func (s *LookupStore) Get(ctx context.Context, id int64) (domain.LookupRow, error) {
	q := fmt.Sprintf("SELECT id, name FROM %s WHERE id = $1", s.table)

	var r domain.LookupRow
	if err := s.pool.QueryRow(ctx, q, id).Scan(&r.ID, &r.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LookupRow{}, domain.ErrNotFound
		}
		return domain.LookupRow{}, fmt.Errorf("get %s: %w", s.table, err)
	}
	return r, nil
}

func (s *LookupStore) Create(ctx context.Context, name string) (domain.LookupRow, error) {
	q := fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) RETURNING id, name", s.table)

	var r domain.LookupRow
	if err := s.pool.QueryRow(ctx, q, name).Scan(&r.ID, &r.Name); err != nil {
		if isUniqueViolation(err) {
			return domain.LookupRow{}, domain.ErrNameTaken
		}
		return domain.LookupRow{}, fmt.Errorf("create %s: %w", s.table, err)
	}
	return r, nil
}

func (s *LookupStore) Rename(ctx context.Context, id int64, name string) (domain.LookupRow, error) {
	q := fmt.Sprintf("UPDATE %s SET name = $2 WHERE id = $1 RETURNING id, name", s.table)

	var r domain.LookupRow
	if err := s.pool.QueryRow(ctx, q, id, name).Scan(&r.ID, &r.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LookupRow{}, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.LookupRow{}, domain.ErrNameTaken
		}
		return domain.LookupRow{}, fmt.Errorf("rename %s: %w", s.table, err)
	}
	return r, nil
}

func (s *LookupStore) Delete(ctx context.Context, id int64) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)

	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResolveName finds the row whose name matches case-insensitively. A miss
// is reported through ok, not an error, so callers can drop unresolved
// names without special-casing.
func (s *LookupStore) ResolveName(ctx context.Context, name string) (int64, bool, error) {
	q := fmt.Sprintf("SELECT id FROM %s WHERE lower(name) = lower($1) LIMIT 1", s.table)

	var id int64
	if err := s.pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("resolve %s name: %w", s.table, err)
	}
	return id, true, nil
}

func isUniqueViolation(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation
}
