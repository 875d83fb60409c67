package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pscheid92/scopeconf/internal/domain"
)

type rowKey struct {
	code   string
	scope  string
	global bool
}

func keyOf(code string, scope *string) rowKey {
	if scope == nil {
		return rowKey{code: code, global: true}
	}
	return rowKey{code: code, scope: *scope}
}

// ValueRepo keeps stored rows in a map. It is safe for concurrent use.
type ValueRepo struct {
	mu   sync.RWMutex
	rows map[rowKey]domain.StoredValue
}

func NewValueRepo() *ValueRepo {
	return &ValueRepo{rows: make(map[rowKey]domain.StoredValue)}
}

// FindAll returns every row ordered by code, global row first.
func (r *ValueRepo) FindAll(_ context.Context) ([]domain.StoredValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]domain.StoredValue, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, cloneValue(row))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		if rows[i].Scope == nil || rows[j].Scope == nil {
			return rows[i].Scope == nil && rows[j].Scope != nil
		}
		return *rows[i].Scope < *rows[j].Scope
	})
	return rows, nil
}

func (r *ValueRepo) Load(_ context.Context, code string, scope *string) (*domain.StoredValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[keyOf(code, scope)]
	if !ok {
		return nil, domain.ErrValueNotFound
	}
	row = cloneValue(row)
	return &row, nil
}

func (r *ValueRepo) Save(_ context.Context, value domain.StoredValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[keyOf(value.Code, value.Scope)] = cloneValue(value)
	return nil
}

// Delete removes the row. Deleting a missing row is not an error.
func (r *ValueRepo) Delete(_ context.Context, code string, scope *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, keyOf(code, scope))
	return nil
}

func cloneValue(v domain.StoredValue) domain.StoredValue {
	out := domain.StoredValue{Code: v.Code}
	if v.Scope != nil {
		s := *v.Scope
		out.Scope = &s
	}
	if v.Value != nil {
		s := *v.Value
		out.Value = &s
	}
	return out
}
