// Package definition loads the static configuration schema and exposes the
// registry of definitions.
//
// The schema is a YAML document with three sections: definitions (code → type and
// constraints), options (named select enumerations) and scopes (the static scope list).
// Every definition is validated when the registry is built; an invalid schema is a
// startup error.
package definition
