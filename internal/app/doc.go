// Package app provides the configuration manager.
//
// Service combines the definition registry, the typed value store and the secret and
// file capabilities. Password, encrypted and file fields have dedicated flows that
// hash, encrypt or store the input before it reaches the plain value store. Every check
// (type, scope, required-ness, file constraints) runs before the first mutation.
// Depends on domain interfaces, not concrete implementations.
package app
