package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// ScopeChecker reports whether a scope code is currently valid.
type ScopeChecker interface {
	Has(ctx context.Context, code string) (bool, error)
	Reload()
}

// Orphan is a stored row that no longer belongs to a definition or a valid scope.
type Orphan struct {
	Value  domain.StoredValue
	Reason string
}

const (
	OrphanUnknownKey   = "unknown_key"
	OrphanUnknownScope = "unknown_scope"
	OrphanNotScoped    = "not_scoped"
)

// Reconciler finds stored rows left behind by removed definitions or scopes. Orphans are
// ignored when resolving, so the reconciler only reports them unless pruning is enabled.
type Reconciler struct {
	repo        domain.ValueRepository
	definitions Definitions
	scopes      ScopeChecker
	store       Store
	prune       bool
	interval    time.Duration
	clock       clockwork.Clock
	stopCh      chan struct{}
}

func NewReconciler(repo domain.ValueRepository, definitions Definitions, scopes ScopeChecker, store Store, interval time.Duration, prune bool, clock clockwork.Clock) *Reconciler {
	return &Reconciler{
		repo:        repo,
		definitions: definitions,
		scopes:      scopes,
		store:       store,
		prune:       prune,
		interval:    interval,
		clock:       clock,
		stopCh:      make(chan struct{}),
	}
}

// Start runs the reconciliation loop until Stop is called.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if _, err := r.Reconcile(ctx); err != nil {
				slog.Error("Orphan reconciliation failed", "error", err)
			}
		case <-r.stopCh:
			slog.Info("Orphan reconciler stopped")
			return
		case <-ctx.Done():
			slog.Info("Orphan reconciler context cancelled")
			return
		}
	}
}

func (r *Reconciler) Stop() {
	close(r.stopCh)
}

// Reconcile reloads the scope list, logs every orphan and, with pruning enabled, deletes them.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Orphan, error) {
	r.scopes.Reload()

	orphans, err := r.FindOrphans(ctx)
	if err != nil {
		return nil, err
	}

	for _, o := range orphans {
		slog.Warn("Orphaned configuration value",
			"code", o.Value.Code,
			"scope", scopeLabel(o.Value.Scope),
			"reason", o.Reason)
	}

	if !r.prune || len(orphans) == 0 {
		return orphans, nil
	}

	if _, err := r.Prune(ctx, orphans); err != nil {
		return orphans, err
	}
	return orphans, nil
}

// FindOrphans lists stored rows of unknown keys, unknown scopes, or scoped rows of unscoped keys.
func (r *Reconciler) FindOrphans(ctx context.Context) ([]Orphan, error) {
	rows, err := r.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored values: %w", err)
	}

	var orphans []Orphan
	for _, row := range rows {
		def, err := r.definitions.Get(row.Code)
		if err != nil {
			orphans = append(orphans, Orphan{Value: row, Reason: OrphanUnknownKey})
			continue
		}
		if row.Scope == nil {
			continue
		}
		if !def.Scoped {
			orphans = append(orphans, Orphan{Value: row, Reason: OrphanNotScoped})
			continue
		}

		ok, err := r.scopes.Has(ctx, *row.Scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			orphans = append(orphans, Orphan{Value: row, Reason: OrphanUnknownScope})
		}
	}
	return orphans, nil
}

// Prune deletes the given orphans and drops the cached snapshots. It returns the number deleted.
func (r *Reconciler) Prune(ctx context.Context, orphans []Orphan) (int, error) {
	deleted := 0
	for _, o := range orphans {
		if err := r.repo.Delete(ctx, o.Value.Code, o.Value.Scope); err != nil {
			return deleted, fmt.Errorf("failed to delete orphan %s: %w", o.Value.Code, err)
		}
		deleted++
	}

	if deleted > 0 {
		if err := r.store.CleanValues(ctx); err != nil {
			return deleted, err
		}
		slog.Info("Pruned orphaned configuration values", "count", deleted)
	}
	return deleted, nil
}

func scopeLabel(scope *string) string {
	if scope == nil {
		return domain.GlobalScope
	}
	return *scope
}
