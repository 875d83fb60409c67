package field

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// zeroPattern matches literal zero strings, which are accepted as numeric zero
// before any numeric parsing.
var zeroPattern = regexp.MustCompile(`^0+$`)

var colorPattern = regexp.MustCompile(`(?i)^#[0-9a-f]{6}$`)

// stringHandler serves string and text fields, and the opaque password, encrypted
// and file fields whose real processing happens in the manager.
type stringHandler struct{}

func (stringHandler) Prepare(def domain.Definition, raw *string) any {
	value, ok := presentRaw(raw)
	if !ok {
		return absent(def, "")
	}
	return value
}

func (stringHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}
	return raw, nil
}

type integerHandler struct{}

// Prepare casts any stored string to an integer; blank or unparsable input becomes 0.
func (integerHandler) Prepare(def domain.Definition, raw *string) any {
	if raw == nil {
		return absent(def, int64(0))
	}

	value := strings.TrimSpace(*raw)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && fitsInt64(f) {
		return int64(f)
	}
	return int64(0)
}

// fitsInt64 reports whether f converts to int64 without overflow. NaN never fits.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func (integerHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	if isZero(value) {
		return int64(0), nil
	}

	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, domain.InvalidValue(def.Code, "value must be an integer")
		}
		if !fitsInt64(v) {
			return nil, domain.InvalidValue(def.Code, "value is out of the integer range")
		}
		return int64(v), nil
	}

	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not an integer", raw))
	}
	return n, nil
}

type floatHandler struct{}

func (floatHandler) Prepare(def domain.Definition, raw *string) any {
	if raw == nil {
		return absent(def, float64(0))
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return float64(0)
	}
	return f
}

func (floatHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	if isZero(value) {
		return float64(0), nil
	}

	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.InvalidValue(def.Code, "value must be a finite number")
		}
		return v, nil
	}

	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not a number", raw))
	}
	return f, nil
}

// isZero reports numeric zero or a string made only of zeros.
func isZero(value any) bool {
	switch v := value.(type) {
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	case string:
		return zeroPattern.MatchString(strings.TrimSpace(v))
	case json.Number:
		return zeroPattern.MatchString(string(v))
	}
	return false
}

// booleanHandler is a select over the fixed enumeration {"0": No, "1": Yes}.
type booleanHandler struct{}

var booleanOptions = []domain.Option{
	{Key: "0", Label: "No"},
	{Key: "1", Label: "Yes"},
}

func (booleanHandler) Prepare(def domain.Definition, raw *string) any {
	if raw == nil {
		return absent(def, int64(0))
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || n == 0 {
		return int64(0)
	}
	return int64(1)
}

func (booleanHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	key := strings.TrimSpace(raw)
	for i, opt := range booleanOptions {
		if opt.Key == key {
			return int64(i), nil
		}
	}
	return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not an authorized value", raw))
}

// emailHandler accepts a comma separated list of addresses.
type emailHandler struct {
	validate *validator.Validate
}

func (emailHandler) Prepare(def domain.Definition, raw *string) any {
	value, ok := presentRaw(raw)
	if !ok {
		return absent(def, "")
	}
	return value
}

func (h emailHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	raw, _ := stringify(value)

	var addresses []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			addresses = append(addresses, part)
		}
	}

	if len(addresses) == 0 {
		if def.Required {
			return nil, domain.MissingRequiredValue(def.Code)
		}
		return nil, nil
	}

	for _, address := range addresses {
		if err := h.validate.Var(address, "email"); err != nil {
			return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not a valid email", address))
		}
	}
	return strings.Join(addresses, ","), nil
}

type urlHandler struct {
	validate *validator.Validate
}

func (urlHandler) Prepare(def domain.Definition, raw *string) any {
	value, ok := presentRaw(raw)
	if !ok {
		return absent(def, "")
	}
	return value
}

func (h urlHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if err := h.validate.Var(raw, "url"); err != nil {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not a valid URL", raw))
	}
	return raw, nil
}

type colorHandler struct{}

func (colorHandler) Prepare(def domain.Definition, raw *string) any {
	value, ok := presentRaw(raw)
	if !ok {
		return absent(def, "")
	}
	return value
}

func (colorHandler) Validate(_ context.Context, def domain.Definition, value any) (any, error) {
	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if !colorPattern.MatchString(raw) {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not a color like #a1b2c3", raw))
	}
	return strings.ToLower(raw), nil
}
