package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// GlobalScope is the public name of the scope-independent layer.
const GlobalScope = "global"

const maxScopeCodeLength = 128

var reservedScopeCodes = map[string]struct{}{
	"global":  {},
	"default": {},
	"scoped":  {},
}

// Scope identifies an override context such as a locale or a tenant.
type Scope struct {
	code string
	name string
}

// NewScope validates code and name and returns an immutable Scope.
func NewScope(code, name string) (Scope, error) {
	if err := validateScopeCode(code); err != nil {
		return Scope{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Scope{}, fmt.Errorf("scope %q: name must not be empty", code)
	}
	if strings.ContainsAny(name, "<>") {
		return Scope{}, fmt.Errorf("scope %q: name must not contain HTML", code)
	}
	return Scope{code: code, name: name}, nil
}

func (s Scope) Code() string { return s.code }
func (s Scope) Name() string { return s.name }

func validateScopeCode(code string) error {
	if code == "" {
		return fmt.Errorf("scope code must not be empty")
	}
	if len(code) > maxScopeCodeLength {
		return fmt.Errorf("scope code %q exceeds %d characters", code, maxScopeCodeLength)
	}
	if code != strings.ToLower(code) {
		return fmt.Errorf("scope code %q must be lowercase", code)
	}
	if _, reserved := reservedScopeCodes[code]; reserved {
		return fmt.Errorf("scope code %q is reserved", code)
	}
	for _, r := range code {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("scope code %q contains control or space characters", code)
		}
	}
	if strings.ContainsAny(code, `<>&"'/\*?[]{}|:~.`) {
		return fmt.Errorf("scope code %q contains forbidden characters", code)
	}
	return nil
}

// ScopeList enumerates the currently valid scopes.
type ScopeList interface {
	All(ctx context.Context) ([]Scope, error)
}

// IsGlobalScope reports whether a scope argument denotes the global layer: "" or "global".
func IsGlobalScope(scope string) bool {
	return scope == "" || scope == GlobalScope
}

// ScopeRef converts a scope argument to the repository representation, nil for global.
func ScopeRef(scope string) *string {
	if IsGlobalScope(scope) {
		return nil
	}
	return &scope
}
