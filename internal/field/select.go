package field

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// selectHandler accepts only keys of the definition's option set. Keys are
// resolved once per definition code and kept for the process lifetime.
type selectHandler struct {
	options OptionsResolver

	mu   sync.Mutex
	keys map[string]map[string]struct{}
}

func newSelectHandler(options OptionsResolver) *selectHandler {
	return &selectHandler{
		options: options,
		keys:    make(map[string]map[string]struct{}),
	}
}

func (h *selectHandler) Prepare(def domain.Definition, raw *string) any {
	value, ok := presentRaw(raw)
	if !ok {
		return absent(def, "")
	}
	return value
}

func (h *selectHandler) Validate(ctx context.Context, def domain.Definition, value any) (any, error) {
	raw, ok, err := requireValue(def, value)
	if err != nil || !ok {
		return nil, err
	}

	keys, err := h.allowedKeys(ctx, def)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if _, allowed := keys[raw]; !allowed {
		return nil, domain.InvalidValue(def.Code, fmt.Sprintf("%q is not an authorized value", raw))
	}
	return raw, nil
}

func (h *selectHandler) allowedKeys(ctx context.Context, def domain.Definition) (map[string]struct{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if keys, ok := h.keys[def.Code]; ok {
		return keys, nil
	}

	if h.options == nil {
		return nil, fmt.Errorf("definition %s: no options resolver configured", def.Code)
	}

	options, err := h.options.Resolve(ctx, def.Options)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", def.Code, err)
	}

	keys := make(map[string]struct{}, len(options))
	for _, option := range options {
		keys[option.Key] = struct{}{}
	}
	h.keys[def.Code] = keys
	return keys, nil
}
