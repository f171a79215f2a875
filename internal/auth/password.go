package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/spec-kit/vaccine-scheduler/internal/config"
)

// SpecialCharacters lists the characters a strong password must contain one of.
const SpecialCharacters = "!@#?"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Hasher derives salted PBKDF2 hashes for stored credentials.
type Hasher struct {
	iterations int
	saltBytes  int
	keyBytes   int
}

// NewHasher builds a hasher from auth config, filling in defaults.
func NewHasher(cfg config.AuthConfig) *Hasher {
	h := &Hasher{iterations: cfg.PBKDF2Iterations, saltBytes: cfg.SaltBytes, keyBytes: cfg.KeyBytes}
	if h.iterations <= 0 {
		h.iterations = 10000
	}
	if h.saltBytes <= 0 {
		h.saltBytes = 16
	}
	if h.keyBytes <= 0 {
		h.keyBytes = 16
	}
	return h
}

// GenerateSalt returns a fresh random salt.
func (h *Hasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, h.saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// HashPassword hashes a plaintext password with the given salt.
func (h *Hasher) HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, h.iterations, h.keyBytes, sha256.New)
}

// ComparePassword recomputes the hash with the stored salt and compares it.
func (h *Hasher) ComparePassword(hash, salt []byte, plain string) bool {
	candidate := h.HashPassword(plain, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// IsStrongPassword requires at least eight characters with an ASCII
// upper-case letter, an ASCII lower-case letter, an ASCII digit and one of
// SpecialCharacters.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit && strings.ContainsAny(password, SpecialCharacters)
}
