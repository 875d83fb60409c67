package field

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Handler prepares and validates the values of one field type.
type Handler interface {
	// Prepare turns a stored or default raw value into the typed value. It never fails.
	Prepare(def domain.Definition, raw *string) any
	// Validate turns user input into a storable typed value.
	Validate(ctx context.Context, def domain.Definition, value any) (any, error)
}

// OptionsResolver resolves the enumeration behind a select field.
type OptionsResolver interface {
	Has(name string) bool
	Resolve(ctx context.Context, name string) ([]domain.Option, error)
}

// Registry dispatches to the handler of a definition's type.
type Registry struct {
	handlers map[domain.FieldType]Handler
	options  OptionsResolver
}

// NewRegistry returns a registry with a handler for every built-in field type.
func NewRegistry(options OptionsResolver) *Registry {
	validate := validator.New()
	opaque := stringHandler{}

	r := &Registry{
		handlers: make(map[domain.FieldType]Handler, len(domain.FieldTypes)),
		options:  options,
	}

	r.handlers[domain.TypeString] = opaque
	r.handlers[domain.TypeText] = opaque
	r.handlers[domain.TypePassword] = opaque
	r.handlers[domain.TypeEncrypted] = opaque
	r.handlers[domain.TypeFile] = opaque
	r.handlers[domain.TypeInteger] = integerHandler{}
	r.handlers[domain.TypeFloat] = floatHandler{}
	r.handlers[domain.TypeBoolean] = booleanHandler{}
	r.handlers[domain.TypeEmail] = emailHandler{validate: validate}
	r.handlers[domain.TypeURL] = urlHandler{validate: validate}
	r.handlers[domain.TypeColor] = colorHandler{}
	r.handlers[domain.TypeSelect] = newSelectHandler(options)

	return r
}

// Register replaces or adds the handler of a field type.
func (r *Registry) Register(fieldType domain.FieldType, handler Handler) {
	r.handlers[fieldType] = handler
}

// Supports reports whether a handler is registered for the field type.
func (r *Registry) Supports(fieldType domain.FieldType) bool {
	_, ok := r.handlers[fieldType]
	return ok
}

// Check verifies that every definition can be served: its type has a handler and,
// for select fields, its option set exists. Run once at startup.
func (r *Registry) Check(definitions []domain.Definition) error {
	for _, def := range definitions {
		if _, ok := r.handlers[def.Type]; !ok {
			return fmt.Errorf("definition %s: no handler for field type %q", def.Code, def.Type)
		}
		if def.Type == domain.TypeSelect && (r.options == nil || !r.options.Has(def.Options)) {
			return fmt.Errorf("definition %s: unknown option set %q", def.Code, def.Options)
		}
	}
	return nil
}

// PrepareValue returns the typed value of a stored or default raw value.
func (r *Registry) PrepareValue(def domain.Definition, raw *string) any {
	handler, ok := r.handlers[def.Type]
	if !ok {
		return nil
	}
	return handler.Prepare(def, raw)
}

// ValidateValue checks user input and returns its storable typed value.
func (r *Registry) ValidateValue(ctx context.Context, def domain.Definition, value any) (any, error) {
	handler, ok := r.handlers[def.Type]
	if !ok {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("unsupported field type %q", def.Type))
	}
	return handler.Validate(ctx, def, value)
}

// Format renders a typed value as the string persisted in the repository.
func Format(value any) *string {
	var s string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		s = v
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw, ok := stringify(v)
		if !ok {
			return nil
		}
		s = raw
	}
	return &s
}
