package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/scopeconf/internal/domain"
)

func ptr(s string) *string { return &s }

func TestValueRepo_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewValueRepo()

	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "app.website.name", Value: ptr("Shop")}))
	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "app.website.name", Scope: ptr("fr"), Value: ptr("Boutique")}))

	global, err := repo.Load(ctx, "app.website.name", nil)
	require.NoError(t, err)
	assert.Equal(t, "Shop", *global.Value)

	fr, err := repo.Load(ctx, "app.website.name", ptr("fr"))
	require.NoError(t, err)
	assert.Equal(t, "Boutique", *fr.Value)

	require.NoError(t, repo.Delete(ctx, "app.website.name", ptr("fr")))
	_, err = repo.Load(ctx, "app.website.name", ptr("fr"))
	assert.ErrorIs(t, err, domain.ErrValueNotFound)

	assert.NoError(t, repo.Delete(ctx, "app.website.name", ptr("fr")))
}

func TestValueRepo_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewValueRepo()

	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "app.website.name", Value: ptr("A")}))
	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "app.website.name", Value: nil}))

	rows, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Value)
}

func TestValueRepo_FindAllOrdersGlobalFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewValueRepo()

	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "b.x", Scope: ptr("fr"), Value: ptr("3")}))
	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "b.x", Value: ptr("2")}))
	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "a.x", Scope: ptr("en"), Value: ptr("1")}))

	rows, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a.x", rows[0].Code)
	assert.Equal(t, "b.x", rows[1].Code)
	assert.Nil(t, rows[1].Scope)
	assert.Equal(t, "fr", *rows[2].Scope)
}

func TestValueRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewValueRepo()

	value := ptr("Shop")
	require.NoError(t, repo.Save(ctx, domain.StoredValue{Code: "app.website.name", Value: value}))
	*value = "changed"

	row, err := repo.Load(ctx, "app.website.name", nil)
	require.NoError(t, err)
	assert.Equal(t, "Shop", *row.Value)
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	data, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
