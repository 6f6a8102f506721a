// Package container writes the project description consumed by the game runtime:
// an encrypted project file and a plain loading screen descriptor.
package container

import (
	"crypto/aes"
	"errors"
	"fmt"
	"os"
)

// KeyProvider supplies the key used to encrypt containers
type KeyProvider interface {
	Key() ([]byte, error)
}

// fixedKey is the key compiled into the runtime loader
const fixedKey = "-P:j$4t&OHIUVM/Z+u4DeDP."

// FixedKey returns the process-wide AES-192 key the runtime loader expects.
// It never changes; runtimes built with it cannot read containers encrypted with
// anything else.
type FixedKey struct{}

// Key returns a copy of the compiled-in key
func (FixedKey) Key() ([]byte, error) {
	return []byte(fixedKey), nil
}

// StaticKey is a KeyProvider returning the same caller supplied key
type StaticKey []byte

// Key returns a copy of k
func (k StaticKey) Key() ([]byte, error) {
	if len(k) == 0 {
		return nil, errors.New("empty key")
	}
	return append([]byte(nil), k...), nil
}

// PaddedSize returns n rounded up to the AES block size
func PaddedSize(n int) int {
	return (n + aes.BlockSize - 1) &^ (aes.BlockSize - 1)
}

// Encrypt pads plain with zero bytes to a multiple of the block size and encrypts
// every block independently with key
func Encrypt(plain, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}

	out := make([]byte, PaddedSize(len(plain)))
	copy(out, plain)
	cryptBlocks(block.Encrypt, out)
	return out, nil
}

// Decrypt reverses Encrypt. The zero padding is kept.
func Decrypt(data, key []byte) ([]byte, error) {
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encrypted data is %d bytes, not a multiple of %d", len(data), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}

	out := make([]byte, len(data))
	copy(out, data)
	cryptBlocks(block.Decrypt, out)
	return out, nil
}

func cryptBlocks(fn func(dst, src []byte), buf []byte) {
	for off := 0; off < len(buf); off += aes.BlockSize {
		fn(buf[off:off+aes.BlockSize], buf[off:off+aes.BlockSize])
	}
}

// EncryptFile encrypts src into dst and deletes src
func EncryptFile(src, dst string, keys KeyProvider) error {
	key, err := keys.Key()
	if err != nil {
		return fmt.Errorf("failed to obtain key: %w", err)
	}

	plain, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	encrypted, err := Encrypt(plain, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, encrypted, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s: %w", src, err)
	}
	return nil
}
