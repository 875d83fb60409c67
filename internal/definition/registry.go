package definition

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/pscheid92/scopeconf/internal/domain"
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)+$`)

// Registry is the immutable set of known definitions.
type Registry struct {
	definitions map[string]domain.Definition
	codes       []string
}

// NewRegistry validates every definition and indexes them by code.
func NewRegistry(definitions []domain.Definition) (*Registry, error) {
	r := &Registry{
		definitions: make(map[string]domain.Definition, len(definitions)),
		codes:       make([]string, 0, len(definitions)),
	}

	for _, def := range definitions {
		if err := Validate(def); err != nil {
			return nil, err
		}
		if _, exists := r.definitions[def.Code]; exists {
			return nil, fmt.Errorf("definition %s: declared twice", def.Code)
		}
		def.FileTypes = slices.Clone(def.FileTypes)
		r.definitions[def.Code] = def
		r.codes = append(r.codes, def.Code)
	}

	sort.Strings(r.codes)
	return r, nil
}

// All returns every definition sorted by code.
func (r *Registry) All() []domain.Definition {
	result := make([]domain.Definition, 0, len(r.codes))
	for _, code := range r.codes {
		result = append(result, r.clone(r.definitions[code]))
	}
	return result
}

// Get returns the definition for code or an UnknownKey error.
func (r *Registry) Get(code string) (domain.Definition, error) {
	def, ok := r.definitions[code]
	if !ok {
		return domain.Definition{}, domain.UnknownKey(code)
	}
	return r.clone(def), nil
}

// Categories groups the definition codes by their main category.
func (r *Registry) Categories() map[string][]string {
	result := make(map[string][]string)
	for _, code := range r.codes {
		category := r.definitions[code].Category()
		result[category] = append(result[category], code)
	}
	return result
}

func (r *Registry) clone(def domain.Definition) domain.Definition {
	def.FileTypes = slices.Clone(def.FileTypes)
	return def
}

// Validate checks the structural invariants of a single definition.
func Validate(def domain.Definition) error {
	if !codePattern.MatchString(def.Code) {
		return fmt.Errorf("definition %q: code must have at least two dot-separated segments", def.Code)
	}

	if _, err := domain.ParseFieldType(string(def.Type)); err != nil {
		return fmt.Errorf("definition %s: %w", def.Code, err)
	}

	if def.Type == domain.TypeSelect && def.Options == "" {
		return fmt.Errorf("definition %s: select fields must declare options", def.Code)
	}
	if def.Type != domain.TypeSelect && def.Options != "" {
		return fmt.Errorf("definition %s: only select fields may declare options", def.Code)
	}

	if def.Type != domain.TypeFile && len(def.FileTypes) > 0 {
		return fmt.Errorf("definition %s: only file fields may declare file types", def.Code)
	}
	for _, ext := range def.FileTypes {
		if ext == "" || ext != strings.ToLower(ext) || strings.Contains(ext, ".") {
			return fmt.Errorf("definition %s: file type %q must be a lowercase extension without dot", def.Code, ext)
		}
	}

	if (def.Type == domain.TypePassword || def.Type == domain.TypeEncrypted) && def.Default != nil {
		return fmt.Errorf("definition %s: %s fields cannot declare a default", def.Code, def.Type)
	}

	return nil
}
