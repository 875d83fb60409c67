package definition

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pscheid92/scopeconf/internal/domain"
)

//go:embed default.yaml
var defaultSchema []byte

// Schema is the parsed content of a schema file.
type Schema struct {
	Definitions []domain.Definition
	Options     map[string][]domain.Option
	Scopes      []domain.Scope
}

type schemaFile struct {
	Definitions map[string]definitionEntry `yaml:"definitions"`
	Options     map[string]yaml.Node       `yaml:"options"`
	Scopes      []scopeEntry               `yaml:"scopes"`
}

type definitionEntry struct {
	Type     string    `yaml:"type"`
	Required bool      `yaml:"required"`
	Scoped   bool      `yaml:"scoped"`
	Default  yaml.Node `yaml:"default"`
	Options  string    `yaml:"options"`
	Unit     string    `yaml:"unit"`
	Help     string    `yaml:"help"`
	FileType []string  `yaml:"file_type"`
}

type scopeEntry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Load reads the schema at path, or the embedded default schema when path is empty.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Parse(defaultSchema)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	schema, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return schema, nil
}

// Parse decodes a schema document. Unknown fields are rejected.
func Parse(data []byte) (*Schema, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file schemaFile
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	codes := make([]string, 0, len(file.Definitions))
	for code := range file.Definitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	schema := Schema{Options: make(map[string][]domain.Option, len(file.Options))}

	for _, code := range codes {
		def, err := file.Definitions[code].toDefinition(code)
		if err != nil {
			return nil, err
		}
		schema.Definitions = append(schema.Definitions, def)
	}

	for name, node := range file.Options {
		options, err := parseOptions(&node)
		if err != nil {
			return nil, fmt.Errorf("options %s: %w", name, err)
		}
		schema.Options[name] = options
	}

	for _, entry := range file.Scopes {
		scope, err := domain.NewScope(entry.Code, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid scope: %w", err)
		}
		schema.Scopes = append(schema.Scopes, scope)
	}

	return &schema, nil
}

func (e definitionEntry) toDefinition(code string) (domain.Definition, error) {
	fieldType, err := domain.ParseFieldType(e.Type)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("definition %s: %w", code, err)
	}

	def := domain.Definition{
		Code:      code,
		Type:      fieldType,
		Required:  e.Required,
		Scoped:    e.Scoped,
		Options:   e.Options,
		Unit:      e.Unit,
		Help:      e.Help,
		FileTypes: e.FileType,
	}

	switch {
	case e.Default.Kind == 0:
		// absent
	case e.Default.Kind == yaml.ScalarNode && e.Default.ShortTag() == "!!null":
		// explicit null
	case e.Default.Kind == yaml.ScalarNode:
		value := e.Default.Value
		def.Default = &value
	default:
		return domain.Definition{}, fmt.Errorf("definition %s: default must be a scalar", code)
	}

	return def, nil
}

// parseOptions accepts a key → label mapping and keeps the declared order.
func parseOptions(node *yaml.Node) ([]domain.Option, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping of key to label")
	}

	options := make([]domain.Option, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, label := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || label.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("keys and labels must be scalars")
		}
		options = append(options, domain.Option{Key: key.Value, Label: label.Value})
	}
	return options, nil
}
