package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/scopeconf/internal/domain"
)

const (
	findAllValuesSQL = `SELECT code, scope, value FROM configuration_values ORDER BY code, scope NULLS FIRST`

	loadValueSQL = `SELECT code, scope, value FROM configuration_values WHERE code = $1 AND scope IS NOT DISTINCT FROM $2`

	saveValueSQL = `INSERT INTO configuration_values (code, scope, value)
VALUES ($1, $2, $3)
ON CONFLICT ON CONSTRAINT configuration_values_code_scope_key
DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	deleteValueSQL = `DELETE FROM configuration_values WHERE code = $1 AND scope IS NOT DISTINCT FROM $2`
)

// ValueRepo stores configuration rows in PostgreSQL. The global row has a NULL scope.
type ValueRepo struct {
	pool *pgxpool.Pool
}

func NewValueRepo(pool *pgxpool.Pool) *ValueRepo {
	return &ValueRepo{pool: pool}
}

func (r *ValueRepo) FindAll(ctx context.Context) ([]domain.StoredValue, error) {
	rows, err := r.pool.Query(ctx, findAllValuesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query configuration values: %w", err)
	}

	values, err := pgx.CollectRows(rows, scanStoredValue)
	if err != nil {
		return nil, fmt.Errorf("failed to scan configuration values: %w", err)
	}
	return values, nil
}

func (r *ValueRepo) Load(ctx context.Context, code string, scope *string) (*domain.StoredValue, error) {
	rows, err := r.pool.Query(ctx, loadValueSQL, code, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration value: %w", err)
	}

	value, err := pgx.CollectExactlyOneRow(rows, scanStoredValue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrValueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan configuration value: %w", err)
	}
	return &value, nil
}

func (r *ValueRepo) Save(ctx context.Context, value domain.StoredValue) error {
	if _, err := r.pool.Exec(ctx, saveValueSQL, value.Code, value.Scope, value.Value); err != nil {
		return fmt.Errorf("failed to save configuration value: %w", err)
	}
	return nil
}

// Delete removes the row. Deleting a missing row is not an error.
func (r *ValueRepo) Delete(ctx context.Context, code string, scope *string) error {
	if _, err := r.pool.Exec(ctx, deleteValueSQL, code, scope); err != nil {
		return fmt.Errorf("failed to delete configuration value: %w", err)
	}
	return nil
}

func scanStoredValue(row pgx.CollectableRow) (domain.StoredValue, error) {
	var v domain.StoredValue
	err := row.Scan(&v.Code, &v.Scope, &v.Value)
	return v, err
}
