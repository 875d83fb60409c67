package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/scopeconf/internal/domain"
)

type countingList struct {
	scopes []domain.Scope
	err    error
	calls  int
}

func (l *countingList) All(context.Context) ([]domain.Scope, error) {
	l.calls++
	return l.scopes, l.err
}

func mustScope(t *testing.T, code, name string) domain.Scope {
	t.Helper()
	sc, err := domain.NewScope(code, name)
	require.NoError(t, err)
	return sc
}

func TestService_Normalize(t *testing.T) {
	svc := NewService(StaticList{mustScope(t, "en", "English"), mustScope(t, "fr", "French")})
	ctx := context.Background()

	for _, global := range []string{"", "global"} {
		got, err := svc.Normalize(ctx, global)
		require.NoError(t, err)
		assert.Equal(t, "", got)
	}

	got, err := svc.Normalize(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, "fr", got)

	_, err = svc.Normalize(ctx, "de")
	assert.ErrorIs(t, err, domain.ErrUnknownScope)
}

func TestService_LoadsOnce(t *testing.T) {
	list := &countingList{scopes: []domain.Scope{mustScope(t, "en", "English")}}
	svc := NewService(list)
	ctx := context.Background()

	for range 3 {
		ok, err := svc.Has(ctx, "en")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, list.calls)

	svc.Reload()
	_, err := svc.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.calls)
}

func TestService_ListErrorIsRetried(t *testing.T) {
	list := &countingList{err: errors.New("db down")}
	svc := NewService(list)
	ctx := context.Background()

	_, err := svc.Has(ctx, "en")
	assert.ErrorContains(t, err, "db down")

	list.err = nil
	list.scopes = []domain.Scope{mustScope(t, "en", "English")}
	ok, err := svc.Has(ctx, "en")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_CodesAndOptions(t *testing.T) {
	svc := NewService(StaticList{mustScope(t, "en", "English"), mustScope(t, "fr", "French")})

	codes, err := svc.Codes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, codes)

	options, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Option{{Key: "en", Label: "English"}, {Key: "fr", Label: "French"}}, options)
}
