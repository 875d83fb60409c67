package field

import (
	"context"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Validated values survive the storage round trip: Format then Prepare yields the same typed value.
func TestProperty_IntegerRoundTrip(t *testing.T) {
	r := newTestRegistry()
	def := domain.Definition{Code: "app.catalog.page_size", Type: domain.TypeInteger}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64().Draw(t, "n")

		validated, err := r.ValidateValue(context.Background(), def, n)
		if err != nil {
			t.Fatalf("validate %d: %v", n, err)
		}
		if got := r.PrepareValue(def, Format(validated)); got != n {
			t.Fatalf("round trip of %d gave %v", n, got)
		}
	})
}

func TestProperty_FloatRoundTrip(t *testing.T) {
	r := newTestRegistry()
	def := domain.Definition{Code: "app.catalog.discount_rate", Type: domain.TypeFloat}

	rapid.Check(t, func(t *rapid.T) {
		f := rapid.Float64Range(-1e12, 1e12).Draw(t, "f")

		validated, err := r.ValidateValue(context.Background(), def, f)
		if err != nil {
			t.Fatalf("validate %v: %v", f, err)
		}
		if got := r.PrepareValue(def, Format(validated)); got != f {
			t.Fatalf("round trip of %v gave %v", f, got)
		}
	})
}

func TestProperty_ZeroStringsAreZero(t *testing.T) {
	r := newTestRegistry()
	def := domain.Definition{Code: "app.catalog.page_size", Type: domain.TypeInteger}

	rapid.Check(t, func(t *rapid.T) {
		zeros := strings.Repeat("0", rapid.IntRange(1, 20).Draw(t, "count"))

		got, err := r.ValidateValue(context.Background(), def, zeros)
		if err != nil || got != int64(0) {
			t.Fatalf("%q gave %v, %v", zeros, got, err)
		}
	})
}

func TestProperty_ColorIsNormalisedLowercase(t *testing.T) {
	r := newTestRegistry()
	def := domain.Definition{Code: "app.website.color", Type: domain.TypeColor}

	rapid.Check(t, func(t *rapid.T) {
		hex := rapid.StringMatching(`#[0-9a-fA-F]{6}`).Draw(t, "color")

		got, err := r.ValidateValue(context.Background(), def, hex)
		if err != nil {
			t.Fatalf("validate %q: %v", hex, err)
		}
		if got != strings.ToLower(hex) {
			t.Fatalf("%q normalised to %v", hex, got)
		}
	})
}

func TestProperty_RequiredNeverPreparesToNil(t *testing.T) {
	r := newTestRegistry()

	rapid.Check(t, func(t *rapid.T) {
		fieldType := rapid.SampledFrom(domain.FieldTypes).Draw(t, "type")
		def := domain.Definition{Code: "app.test.value", Type: fieldType, Options: "answers", Required: true}

		var raw *string
		if rapid.Bool().Draw(t, "present") {
			s := rapid.String().Draw(t, "raw")
			raw = &s
		}

		if got := r.PrepareValue(def, raw); got == nil {
			t.Fatalf("%s prepared %v to nil", fieldType, raw)
		}
	})
}
