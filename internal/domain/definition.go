package domain

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of value kinds a definition can declare.
type FieldType string

const (
	TypeBoolean   FieldType = "boolean"
	TypeColor     FieldType = "color"
	TypeEmail     FieldType = "email"
	TypeEncrypted FieldType = "encrypted"
	TypeFile      FieldType = "file"
	TypeFloat     FieldType = "float"
	TypeInteger   FieldType = "integer"
	TypePassword  FieldType = "password"
	TypeSelect    FieldType = "select"
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeURL       FieldType = "url"
)

// FieldTypes lists every supported field type in a stable order.
var FieldTypes = []FieldType{
	TypeBoolean, TypeColor, TypeEmail, TypeEncrypted, TypeFile, TypeFloat,
	TypeInteger, TypePassword, TypeSelect, TypeString, TypeText, TypeURL,
}

func ParseFieldType(s string) (FieldType, error) {
	for _, t := range FieldTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Definition declares one configurable setting. Definitions are built once by the
// definition registry and treated as read-only afterwards.
type Definition struct {
	Code     string
	Type     FieldType
	Required bool
	Scoped   bool

	// Default is the raw seed used when no stored row exists; nil means no default.
	Default *string

	// Options names the enumeration provider of a select field.
	Options string

	Unit string
	Help string

	// FileTypes lists the permitted lowercase extensions of a file field.
	FileTypes []string
}

// Category returns the first segment of the code.
func (d Definition) Category() string {
	category, _, _ := strings.Cut(d.Code, ".")
	return category
}

// SubCategories returns every segment after the first one.
func (d Definition) SubCategories() []string {
	parts := strings.Split(d.Code, ".")
	if len(parts) < 2 {
		return nil
	}
	return parts[1:]
}

// AllowsExtension reports whether a file with the given extension may be stored.
// An empty FileTypes list allows every extension.
func (d Definition) AllowsExtension(ext string) bool {
	if len(d.FileTypes) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range d.FileTypes {
		if allowed == ext {
			return true
		}
	}
	return false
}
