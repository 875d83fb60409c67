package field

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// stringify renders user input as a raw string. It reports false for absent values.
func stringify(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case *string:
		if v == nil {
			return "", false
		}
		s = *v
	case string:
		s = v
	case []byte:
		s = string(v)
	case bool:
		s = "0"
		if v {
			s = "1"
		}
	case int:
		s = strconv.Itoa(v)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint:
		s = strconv.FormatUint(uint64(v), 10)
	case uint32:
		s = strconv.FormatUint(uint64(v), 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		s = v.String()
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// requireValue applies the shared required precondition. ok is false when the value is absent
// and the definition allows that.
func requireValue(def domain.Definition, value any) (raw string, ok bool, err error) {
	raw, ok = stringify(value)
	if ok {
		return raw, true, nil
	}
	if def.Required {
		return "", false, domain.MissingRequiredValue(def.Code)
	}
	return "", false, nil
}

// presentRaw returns the raw stored value unless it is absent.
func presentRaw(raw *string) (string, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return "", false
	}
	return *raw, true
}

// absent is the prepared value of a missing input: nil, or the sentinel when required.
func absent(def domain.Definition, sentinel any) any {
	if def.Required {
		return sentinel
	}
	return nil
}
