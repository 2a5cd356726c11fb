// Package cryptox seals and opens single vault fields with NaCl secretbox
// (XSalsa20-Poly1305) and derives the account key from a passphrase.
//
// An empty field is represented by absence: Seal returns nil ciphertext and
// nil nonce for "", and Open returns "" for a nil ciphertext. A present
// ciphertext always travels with its own 24-byte nonce.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dmitrijs2005/mima/internal/common"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	NonceSize = 24
)

// Key is a symmetric secretbox key.
type Key [KeySize]byte

// IsZero reports whether k is the all-zero key, which never comes out of
// DeriveKey in practice and is used to mean "no key".
func (k Key) IsZero() bool {
	var zero Key
	return k == zero
}

// DeriveKey hashes the UTF-8 passphrase with SHA-256. The mapping is a pure
// function: the vault has exactly one account and no salt is mixed in.
func DeriveKey(passphrase string) Key {
	return Key(sha256.Sum256([]byte(passphrase)))
}

// randReader is a test seam for the nonce source.
var randReader io.Reader = rand.Reader

func newNonce() (*[NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(randReader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return &nonce, nil
}

// Seal encrypts plaintext under key with a fresh random nonce.
//
// For an empty plaintext both return values are nil; the field is simply
// not stored. Every call draws a new nonce, so sealing the same plaintext
// twice yields different nonces and different ciphertexts.
func Seal(plaintext string, key Key) (ciphertext, nonce []byte, err error) {
	if plaintext == "" {
		return nil, nil, nil
	}
	n, err := newNonce()
	if err != nil {
		return nil, nil, err
	}
	k := [KeySize]byte(key)
	ciphertext = secretbox.Seal(nil, []byte(plaintext), n, &k)
	return ciphertext, n[:], nil
}

// Open authenticates and decrypts one envelope.
//
// A nil ciphertext means the field is absent and yields "". A ciphertext
// without a valid nonce, a failed authentication (wrong key or corrupted
// bytes) or a non-UTF-8 plaintext all fail with common.ErrDecryption.
func Open(ciphertext, nonce []byte, key Key) (string, error) {
	if ciphertext == nil {
		return "", nil
	}
	if len(nonce) != NonceSize {
		return "", fmt.Errorf("%w: nonce length %d", common.ErrDecryption, len(nonce))
	}
	var n [NonceSize]byte
	copy(n[:], nonce)
	k := [KeySize]byte(key)

	plaintext, ok := secretbox.Open(nil, ciphertext, &n, &k)
	if !ok {
		return "", fmt.Errorf("%w: authentication failed", common.ErrDecryption)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", common.ErrDecryption)
	}
	return string(plaintext), nil
}
