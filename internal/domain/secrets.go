package domain

// Hasher performs one-way password hashing.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(encoded, plain string) bool
}

// Encryptor performs reversible encryption of secret values.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
