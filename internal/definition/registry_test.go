package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/scopeconf/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestRegistry_GetAndAll(t *testing.T) {
	r, err := NewRegistry([]domain.Definition{
		{Code: "app.website.url", Type: domain.TypeURL},
		{Code: "app.catalog.size", Type: domain.TypeInteger},
	})
	require.NoError(t, err)

	def, err := r.Get("app.website.url")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeURL, def.Type)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "app.catalog.size", all[0].Code)
	assert.Equal(t, "app.website.url", all[1].Code)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	_, err = r.Get("app.missing")
	assert.ErrorIs(t, err, domain.ErrUnknownKey)
}

func TestRegistry_Categories(t *testing.T) {
	r, err := NewRegistry([]domain.Definition{
		{Code: "app.website.url", Type: domain.TypeURL},
		{Code: "app.website.name", Type: domain.TypeString},
		{Code: "mail.sender", Type: domain.TypeEmail},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"app":  {"app.website.name", "app.website.url"},
		"mail": {"mail.sender"},
	}, r.Categories())
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r, err := NewRegistry([]domain.Definition{
		{Code: "app.logo", Type: domain.TypeFile, FileTypes: []string{"png"}},
	})
	require.NoError(t, err)

	def, err := r.Get("app.logo")
	require.NoError(t, err)
	def.FileTypes[0] = "exe"

	again, err := r.Get("app.logo")
	require.NoError(t, err)
	assert.Equal(t, []string{"png"}, again.FileTypes)
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry([]domain.Definition{
		{Code: "app.name", Type: domain.TypeString},
		{Code: "app.name", Type: domain.TypeText},
	})
	assert.ErrorContains(t, err, "declared twice")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     domain.Definition
		wantErr string
	}{
		{"single segment", domain.Definition{Code: "app", Type: domain.TypeString}, "two dot-separated"},
		{"empty segment", domain.Definition{Code: "app..name", Type: domain.TypeString}, "two dot-separated"},
		{"unknown type", domain.Definition{Code: "app.name", Type: "date"}, "unknown field type"},
		{"select without options", domain.Definition{Code: "app.theme", Type: domain.TypeSelect}, "must declare options"},
		{"options on string", domain.Definition{Code: "app.name", Type: domain.TypeString, Options: "themes"}, "only select"},
		{"options on boolean", domain.Definition{Code: "app.on", Type: domain.TypeBoolean, Options: "yes_no"}, "only select"},
		{"file types on string", domain.Definition{Code: "app.name", Type: domain.TypeString, FileTypes: []string{"png"}}, "only file"},
		{"uppercase extension", domain.Definition{Code: "app.logo", Type: domain.TypeFile, FileTypes: []string{"PNG"}}, "lowercase"},
		{"password default", domain.Definition{Code: "app.pw", Type: domain.TypePassword, Default: strPtr("secret")}, "cannot declare a default"},
		{"encrypted default", domain.Definition{Code: "app.key", Type: domain.TypeEncrypted, Default: strPtr("k")}, "cannot declare a default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	valid := []domain.Definition{
		{Code: "app.theme", Type: domain.TypeSelect, Options: "themes"},
		{Code: "app.logo", Type: domain.TypeFile, FileTypes: []string{"jpeg"}},
		{Code: "app.on", Type: domain.TypeBoolean, Default: strPtr("1")},
		{Code: "app.pw", Type: domain.TypePassword},
	}
	for _, def := range valid {
		assert.NoError(t, Validate(def), def.Code)
	}
}
