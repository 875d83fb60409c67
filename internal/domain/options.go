package domain

import "context"

// Option is one entry of a select enumeration.
type Option struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// OptionsProvider produces the allowed keys of a select field.
type OptionsProvider interface {
	Options(ctx context.Context) ([]Option, error)
}
