// Package crypto implements the secret capabilities of the configuration manager.
//
// AesGcmService (AES-256-GCM) and NoopService implement domain.Encryptor for encrypted
// fields. BcryptHasher implements domain.Hasher for password fields.
package crypto
