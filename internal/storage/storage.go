package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/scopeconf/internal/domain"
	"github.com/pscheid92/scopeconf/internal/field"
)

const (
	DefaultCacheKey    = "scopeconf:resolved_values"
	DefaultSnapshotTTL = 24 * time.Hour
)

// Definitions is the read side of the definition registry.
type Definitions interface {
	All() []domain.Definition
	Get(code string) (domain.Definition, error)
}

// Fields prepares and validates values per field type.
type Fields interface {
	PrepareValue(def domain.Definition, raw *string) any
	ValidateValue(ctx context.Context, def domain.Definition, value any) (any, error)
}

// Scopes lists and validates scope codes.
type Scopes interface {
	Codes(ctx context.Context) ([]string, error)
	Normalize(ctx context.Context, scope string) (string, error)
}

type Config struct {
	// CacheKey is the shared cache entry holding the encoded snapshot.
	CacheKey string
	// SnapshotTTL bounds the life of the shared cache entry.
	SnapshotTTL time.Duration
	// MemoTTL bounds the life of the in-process snapshot. Zero keeps it until invalidated.
	MemoTTL time.Duration
}

type Storage struct {
	definitions Definitions
	fields      Fields
	scopes      Scopes
	repo        domain.ValueRepository
	cache       domain.Cache
	clock       clockwork.Clock
	codec       *codec
	cfg         Config
	observer    Observer

	rebuilds singleflight.Group

	mu         sync.RWMutex
	snapshot   domain.ResolvedMap
	expiresAt  time.Time
	generation uint64
}

// New creates a cold Storage. cache may be nil, in which case every memo miss rebuilds
// from the repository.
func New(definitions Definitions, fields Fields, scopes Scopes, repo domain.ValueRepository, cache domain.Cache, clock clockwork.Clock, cfg Config) (*Storage, error) {
	c, err := newCodec()
	if err != nil {
		return nil, err
	}

	if cfg.CacheKey == "" {
		cfg.CacheKey = DefaultCacheKey
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}

	return &Storage{
		definitions: definitions,
		fields:      fields,
		scopes:      scopes,
		repo:        repo,
		cache:       cache,
		clock:       clock,
		codec:       c,
		cfg:         cfg,
		observer:    noopObserver{},
	}, nil
}

// SetObserver installs the receiver of cache events. Call before first use.
func (s *Storage) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// GetAll returns the resolved value of every definition, keyed by scope then code.
// The "global" entry holds the global-or-default values; every known scope has its own entry.
func (s *Storage) GetAll(ctx context.Context) (map[string]map[string]any, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	codes, err := s.scopes.Codes(ctx)
	if err != nil {
		return nil, err
	}

	defs := s.definitions.All()
	out := make(map[string]map[string]any, len(codes)+1)

	global := make(map[string]any, len(defs))
	for _, def := range defs {
		global[def.Code] = resolve(snap[def.Code], "")
	}
	out[domain.GlobalScope] = global

	for _, sc := range codes {
		values := make(map[string]any, len(defs))
		for _, def := range defs {
			if def.Scoped {
				values[def.Code] = resolve(snap[def.Code], sc)
			} else {
				values[def.Code] = global[def.Code]
			}
		}
		out[sc] = values
	}

	return out, nil
}

// Get resolves a value through the scope → global → default chain.
func (s *Storage) Get(ctx context.Context, code, scope string) (any, error) {
	def, err := s.definitions.Get(code)
	if err != nil {
		return nil, err
	}

	sc, err := s.CheckScope(ctx, def, scope)
	if err != nil {
		return nil, err
	}

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return resolve(snap[code], sc), nil
}

// GetScopeValue returns the value stored at exactly this scope, without fallback.
func (s *Storage) GetScopeValue(ctx context.Context, code, scope string) (any, error) {
	def, err := s.definitions.Get(code)
	if err != nil {
		return nil, err
	}

	sc, err := s.CheckScope(ctx, def, scope)
	if err != nil {
		return nil, err
	}

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	layer := sc
	if layer == "" {
		layer = domain.LayerGlobal
	}

	value, ok := snap[code][layer]
	if !ok {
		return nil, domain.NoValueAtScope(code, layer)
	}
	return value, nil
}

// Set validates value, upserts the row and invalidates every cached snapshot.
func (s *Storage) Set(ctx context.Context, code string, value any, scope string) error {
	def, err := s.definitions.Get(code)
	if err != nil {
		return err
	}

	sc, err := s.CheckScope(ctx, def, scope)
	if err != nil {
		return err
	}

	validated, err := s.fields.ValidateValue(ctx, def, value)
	if err != nil {
		return err
	}

	row := domain.StoredValue{Code: code, Scope: domain.ScopeRef(sc), Value: field.Format(validated)}
	if err := s.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("failed to save %s: %w", code, err)
	}

	return s.invalidate(ctx)
}

// Delete removes the row at this scope so the value inherits again.
func (s *Storage) Delete(ctx context.Context, code, scope string) error {
	def, err := s.definitions.Get(code)
	if err != nil {
		return err
	}

	sc, err := s.CheckScope(ctx, def, scope)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, code, domain.ScopeRef(sc)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", code, err)
	}

	return s.invalidate(ctx)
}

// CleanValues drops the memo and the shared cache entry without writing anything.
func (s *Storage) CleanValues(ctx context.Context) error {
	return s.invalidate(ctx)
}

// Forget drops the in-process snapshot only. Used when another process announced a write.
func (s *Storage) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.snapshot = nil
}

// CheckScope normalises scope for def: "" for global, otherwise a known scope code.
// A non-global scope on an unscoped definition fails with NotScoped.
func (s *Storage) CheckScope(ctx context.Context, def domain.Definition, scope string) (string, error) {
	if domain.IsGlobalScope(scope) {
		return "", nil
	}
	if !def.Scoped {
		return "", domain.NotScoped(def.Code, scope)
	}
	return s.scopes.Normalize(ctx, scope)
}

func (s *Storage) invalidate(ctx context.Context) error {
	s.Forget()
	s.observer.Invalidated()

	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, s.cfg.CacheKey); err != nil {
		return fmt.Errorf("failed to invalidate shared cache: %w", err)
	}
	return nil
}

// current returns the memoised snapshot or loads one. Concurrent loads of the same
// generation are collapsed into one.
func (s *Storage) current(ctx context.Context) (domain.ResolvedMap, error) {
	s.mu.RLock()
	snap, gen := s.snapshot, s.generation
	fresh := snap != nil && (s.cfg.MemoTTL <= 0 || s.clock.Now().Before(s.expiresAt))
	s.mu.RUnlock()

	if fresh {
		s.observer.Hit(LayerMemo)
		return snap, nil
	}
	s.observer.Miss(LayerMemo)

	v, err, _ := s.rebuilds.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.ResolvedMap), nil
}

func (s *Storage) load(ctx context.Context, gen uint64) (domain.ResolvedMap, error) {
	if snap, ok := s.readCache(ctx); ok {
		s.observer.Hit(LayerCache)
		s.memoise(gen, snap)
		return snap, nil
	}
	s.observer.Miss(LayerCache)

	start := s.clock.Now()
	snap, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.observer.Rebuilt(s.clock.Since(start))

	if s.memoise(gen, snap) {
		s.writeCache(ctx, gen, snap)
	}
	return snap, nil
}

// rebuild seeds defaults, overlays stored rows and prepares every layer.
func (s *Storage) rebuild(ctx context.Context) (domain.ResolvedMap, error) {
	defs := s.definitions.All()

	raw := make(map[string]map[string]*string, len(defs))
	for _, def := range defs {
		raw[def.Code] = map[string]*string{domain.LayerDefault: def.Default}
	}

	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored values: %w", err)
	}

	for _, row := range rows {
		layers, ok := raw[row.Code]
		if !ok {
			continue
		}
		layer := domain.LayerGlobal
		if row.Scope != nil {
			layer = *row.Scope
		}
		layers[layer] = row.Value
	}

	snap := make(domain.ResolvedMap, len(defs))
	for _, def := range defs {
		layers := make(map[string]any, len(raw[def.Code]))
		for layer, value := range raw[def.Code] {
			layers[layer] = s.fields.PrepareValue(def, value)
		}
		snap[def.Code] = layers
	}

	return snap, nil
}

// memoise keeps snap unless an invalidation happened since gen was read.
func (s *Storage) memoise(gen uint64, snap domain.ResolvedMap) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return false
	}
	s.snapshot = snap
	s.expiresAt = s.clock.Now().Add(s.cfg.MemoTTL)
	return true
}

func (s *Storage) isGeneration(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen
}

func (s *Storage) readCache(ctx context.Context) (domain.ResolvedMap, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, ok, err := s.cache.Get(ctx, s.cfg.CacheKey)
	if err != nil {
		slog.Warn("Shared config cache GET failed", "key", s.cfg.CacheKey, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	snap, err := s.codec.decode(data)
	if err != nil {
		slog.Warn("Failed to decode cached config snapshot", "key", s.cfg.CacheKey, "error", err)
		return nil, false
	}
	return snap, true
}

// writeCache stores snap in the shared cache. An invalidation racing with the write
// removes the entry again, so a stale snapshot never outlives the write that made it stale.
func (s *Storage) writeCache(ctx context.Context, gen uint64, snap domain.ResolvedMap) {
	if s.cache == nil {
		return
	}

	data, err := s.codec.encode(snap)
	if err != nil {
		slog.Warn("Failed to encode config snapshot", "error", err)
		return
	}

	if err := s.cache.Set(ctx, s.cfg.CacheKey, data, s.cfg.SnapshotTTL); err != nil {
		slog.Warn("Failed to populate shared config cache", "key", s.cfg.CacheKey, "error", err)
		return
	}

	if !s.isGeneration(gen) {
		if err := s.cache.Delete(ctx, s.cfg.CacheKey); err != nil {
			slog.Warn("Failed to drop stale config snapshot", "key", s.cfg.CacheKey, "error", err)
		}
	}
}

// resolve walks scope → global → default. A present layer wins even when its value is nil.
func resolve(layers map[string]any, scope string) any {
	if scope != "" {
		if v, ok := layers[scope]; ok {
			return v
		}
	}
	if v, ok := layers[domain.LayerGlobal]; ok {
		return v
	}
	return layers[domain.LayerDefault]
}
