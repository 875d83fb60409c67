// Package field implements the closed type system of configuration values.
//
// Each field type has a Handler that prepares stored strings into typed values and
// validates user input into storable values. Prepared representations:
//
//	string, text, email, url, color, select, password, encrypted, file → string
//	integer, boolean → int64
//	float → float64
//
// An absent value (nil, or blank after trimming) prepares to nil, or to the type's
// empty sentinel ("", 0, 0.0) when the definition is required.
package field
