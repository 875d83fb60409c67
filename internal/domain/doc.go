// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (definition.go, scope.go, value.go, errors.go, files.go, ...)
// with shared types and cross-cutting interfaces. Implementation lives in the consuming packages.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
