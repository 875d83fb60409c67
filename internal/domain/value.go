package domain

import (
	"context"
	"time"
)

// Layer keys of a ResolvedMap entry. Scope codes can never collide with them
// because NewScope rejects the reserved words.
const (
	LayerDefault = "default"
	LayerGlobal  = "global"
)

// StoredValue is the persisted unit. A nil Scope denotes the global row.
type StoredValue struct {
	Code  string
	Scope *string
	Value *string
}

// ResolvedMap holds, per definition code, the prepared value of every layer that
// exists: "default", "global" and one entry per scope code with a stored row.
// A missing layer key means "inherit"; a present key with a nil value is an explicit null.
type ResolvedMap map[string]map[string]any

// ValueRepository is the keyed store of stored rows.
type ValueRepository interface {
	FindAll(ctx context.Context) ([]StoredValue, error)
	Load(ctx context.Context, code string, scope *string) (*StoredValue, error)
	Save(ctx context.Context, value StoredValue) error
	Delete(ctx context.Context, code string, scope *string) error
}

// Cache is the shared key/value cache holding the encoded resolved map.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
