package app

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/scopeconf/internal/domain"
)

func seedOrphans(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, env.svc.Set(ctx, codeSiteName, "EN", "en"))
	require.NoError(t, env.repo.Save(ctx, domain.StoredValue{Code: "legacy.removed", Value: strPtr("x")}))
	require.NoError(t, env.repo.Save(ctx, domain.StoredValue{Code: codeSiteName, Scope: strPtr("de"), Value: strPtr("DE")}))
	require.NoError(t, env.repo.Save(ctx, domain.StoredValue{Code: codeAPIKey, Scope: strPtr("en"), Value: strPtr("enc:x")}))
}

func TestReconciler_FindOrphans(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	seedOrphans(t, env)

	r := NewReconciler(env.repo, env.defs, env.scopes, env.store, time.Minute, false, clockwork.NewFakeClock())

	orphans, err := r.Reconcile(ctx)
	require.NoError(t, err)

	reasons := map[string]string{}
	for _, o := range orphans {
		reasons[o.Value.Code+"@"+scopeLabel(o.Value.Scope)] = o.Reason
	}
	assert.Equal(t, map[string]string{
		"legacy.removed@global": OrphanUnknownKey,
		codeSiteName + "@de":    OrphanUnknownScope,
		codeAPIKey + "@en":      OrphanNotScoped,
	}, reasons)

	// report only
	rows, err := env.repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestReconciler_Prune(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	seedOrphans(t, env)

	r := NewReconciler(env.repo, env.defs, env.scopes, env.store, time.Minute, true, clockwork.NewFakeClock())

	orphans, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, orphans, 3)

	rows, err := env.repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, codeSiteName, rows[0].Code)

	v, err := env.svc.Get(ctx, codeSiteName, "en")
	require.NoError(t, err)
	assert.Equal(t, "EN", v)
}

func TestReconciler_StartStop(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	seedOrphans(t, env)

	clock := clockwork.NewFakeClock()
	r := NewReconciler(env.repo, env.defs, env.scopes, env.store, time.Minute, true, clock)

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool {
		rows, err := env.repo.FindAll(ctx)
		return err == nil && len(rows) == 1
	}, time.Second, 10*time.Millisecond)

	r.Stop()
	<-done
}
