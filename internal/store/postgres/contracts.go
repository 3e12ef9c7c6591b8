package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"contractdesk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContractsStore struct {
	pool *pgxpool.Pool
}

func NewContractsStore(pool *pgxpool.Pool) *ContractsStore {
	return &ContractsStore{pool: pool}
}

const contractColumns = `id, title, description, vendor, contract_number, value_cents,
		renewal_notice_days, auto_renew, starts_on, expires_on,
		category_id, status_id, created_by, updated_by, created_at, updated_at`

// Create inserts exactly the present fields and returns the stored row.
func (s *ContractsStore) Create(ctx context.Context, fields []domain.Field) (domain.Contract, error) {
	cols := make([]string, 0, len(fields))
	params := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, f := range fields {
		cols = append(cols, f.Column)
		params = append(params, "$"+strconv.Itoa(i+1))
		args = append(args, f.Value)
	}

	q := fmt.Sprintf(
		"INSERT INTO contracts (%s) VALUES (%s) RETURNING %s",
		strings.Join(cols, ", "), strings.Join(params, ", "), contractColumns,
	)

	c, err := scanContract(s.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if derr := translateWriteError(err); derr != nil {
			return domain.Contract{}, derr
		}
		return domain.Contract{}, fmt.Errorf("insert contract: %w", err)
	}
	return c, nil
}

// Update applies the present fields to one row by primary key. The caller
// has already appended the updated_at/updated_by refresh fields.
func (s *ContractsStore) Update(ctx context.Context, id int64, fields []domain.Field) (domain.Contract, error) {
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets = append(sets, f.Column+" = $"+strconv.Itoa(i+1))
		args = append(args, f.Value)
	}
	args = append(args, id)

	q := fmt.Sprintf(
		"UPDATE contracts SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), contractColumns,
	)

	c, err := scanContract(s.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contract{}, domain.ErrNotFound
		}
		if derr := translateWriteError(err); derr != nil {
			return domain.Contract{}, derr
		}
		return domain.Contract{}, fmt.Errorf("update contract: %w", err)
	}
	return c, nil
}

func (s *ContractsStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *ContractsStore) Get(ctx context.Context, id int64) (domain.Contract, error) {
	q := fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractColumns)

	c, err := scanContract(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contract{}, domain.ErrNotFound
		}
		return domain.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

// List orders by soonest expiry first; undated contracts sort last, ties
// break by newest creation.
func (s *ContractsStore) List(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM contracts
		ORDER BY expires_on ASC NULLS LAST, created_at DESC
		LIMIT $1 OFFSET $2
	`, contractColumns)

	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Contract, 0, limit)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return out, nil
}

func scanContract(row pgx.Row) (domain.Contract, error) {
	var (
		c              domain.Contract
		description    pgtype.Text
		vendor         pgtype.Text
		contractNumber pgtype.Text
		valueCents     pgtype.Int8
		noticeDays     pgtype.Int8
		autoRenew      pgtype.Bool
		startsOn       pgtype.Date
		expiresOn      pgtype.Date
		categoryID     pgtype.Int8
		statusID       pgtype.Int8
		createdBy      pgtype.Int8
		updatedBy      pgtype.Int8
	)
	err := row.Scan(
		&c.ID,
		&c.Title,
		&description,
		&vendor,
		&contractNumber,
		&valueCents,
		&noticeDays,
		&autoRenew,
		&startsOn,
		&expiresOn,
		&categoryID,
		&statusID,
		&createdBy,
		&updatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Contract{}, err
	}

	c.Description = textPtr(description)
	c.Vendor = textPtr(vendor)
	c.ContractNumber = textPtr(contractNumber)
	c.ValueCents = int8Ptr(valueCents)
	c.RenewalNoticeDays = int8Ptr(noticeDays)
	c.AutoRenew = boolPtr(autoRenew)
	c.StartsOn = datePtr(startsOn)
	c.ExpiresOn = datePtr(expiresOn)
	c.CategoryID = int8Ptr(categoryID)
	c.StatusID = int8Ptr(statusID)
	c.CreatedBy = int8Ptr(createdBy)
	c.UpdatedBy = int8Ptr(updatedBy)
	return c, nil
}
