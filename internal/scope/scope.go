// Package scope lists the valid override scopes and normalises scope arguments.
package scope

import (
	"context"
	"fmt"
	"sync"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Service answers scope questions from a ScopeList. The list is read once, on first use.
type Service struct {
	list domain.ScopeList

	mu     sync.Mutex
	loaded bool
	scopes []domain.Scope
	codes  map[string]struct{}
}

func NewService(list domain.ScopeList) *Service {
	return &Service{list: list}
}

// load returns the current list and code set. Both are replaced, never mutated, so
// callers may read them without holding the lock.
func (s *Service) load(ctx context.Context) ([]domain.Scope, map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.scopes, s.codes, nil
	}

	scopes, err := s.list.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list scopes: %w", err)
	}

	codes := make(map[string]struct{}, len(scopes))
	for _, sc := range scopes {
		codes[sc.Code()] = struct{}{}
	}

	s.scopes = scopes
	s.codes = codes
	s.loaded = true
	return scopes, codes, nil
}

// All returns every valid scope in list order.
func (s *Service) All(ctx context.Context) ([]domain.Scope, error) {
	scopes, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Scope(nil), scopes...), nil
}

// Codes returns the codes of every valid scope in list order.
func (s *Service) Codes(ctx context.Context) ([]string, error) {
	scopes, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(scopes))
	for i, sc := range scopes {
		codes[i] = sc.Code()
	}
	return codes, nil
}

func (s *Service) Has(ctx context.Context, code string) (bool, error) {
	_, codes, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := codes[code]
	return ok, nil
}

// Normalize maps "" and "global" to "" (the global layer) and rejects unknown scope codes.
func (s *Service) Normalize(ctx context.Context, scope string) (string, error) {
	if domain.IsGlobalScope(scope) {
		return "", nil
	}

	ok, err := s.Has(ctx, scope)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.UnknownScope(scope)
	}
	return scope, nil
}

// Reload drops the loaded list so the next call reads the ScopeList again.
func (s *Service) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.scopes = nil
	s.codes = nil
}

// Options exposes the scope codes as a select enumeration, labelled with the scope names.
func (s *Service) Options(ctx context.Context) ([]domain.Option, error) {
	scopes, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]domain.Option, len(scopes))
	for i, sc := range scopes {
		options[i] = domain.Option{Key: sc.Code(), Label: sc.Name()}
	}
	return options, nil
}

// StaticList is a fixed ScopeList, typically declared in the schema file.
type StaticList []domain.Scope

func (l StaticList) All(context.Context) ([]domain.Scope, error) {
	return l, nil
}
