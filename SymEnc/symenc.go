// Package SymEnc is the symmetric envelope around message bytes: an AES-256-CBC
// key is extracted from a random GT element and wraps the payload.
package SymEnc

import (
	"crypto/aes"
	cbc "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt is the only signal a wrong key or a corrupted payload produces.
var ErrDecrypt = errors.New("symmetric decryption failed")

const keyInfo = "lsabe/symenc/aes-256-cbc"

// ExtractKey derives 32 key bytes from a GT element.
func ExtractKey(key *bn256.GT) ([]byte, error) {
	out := make([]byte, 32)
	kdf := hkdf.New(sha256.New, key.Marshal(), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, errors.Wrap(err, "extract key")
	}
	return out, nil
}

// Encrypt pads with PKCS7 and encrypts under a fresh random IV.
func Encrypt(key, plaintext []byte) (ciphertext, iv []byte, err error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "SymEnc")
	}
	blockSize := c.BlockSize()

	iv = make([]byte, blockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, errors.Wrap(err, "SymEnc: iv")
	}

	// PKCS7 padding
	padLen := blockSize - (len(plaintext) % blockSize)
	msgPad := make([]byte, len(plaintext)+padLen)
	copy(msgPad, plaintext)
	for i := len(plaintext); i < len(msgPad); i++ {
		msgPad[i] = byte(padLen)
	}

	ciphertext = make([]byte, len(msgPad))
	cbc.NewCBCEncrypter(c, iv).CryptBlocks(ciphertext, msgPad)
	return ciphertext, iv, nil
}

// Decrypt reverses Encrypt. Every failure is reported as ErrDecrypt.
func Decrypt(key, ciphertext, iv []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecrypt
	}
	blockSize := c.BlockSize()
	if len(iv) != blockSize || len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, ErrDecrypt
	}

	msgPad := make([]byte, len(ciphertext))
	cbc.NewCBCDecrypter(c, iv).CryptBlocks(msgPad, ciphertext)

	// PKCS7
	padLen := int(msgPad[len(msgPad)-1])
	if padLen <= 0 || padLen > blockSize {
		return nil, ErrDecrypt
	}
	for i := len(msgPad) - padLen; i < len(msgPad); i++ {
		if msgPad[i] != byte(padLen) {
			return nil, ErrDecrypt
		}
	}
	return msgPad[:len(msgPad)-padLen], nil
}

// Seal extracts the key from k and encrypts plaintext.
func Seal(k *bn256.GT, plaintext []byte) (ciphertext, iv []byte, err error) {
	key, err := ExtractKey(k)
	if err != nil {
		return nil, nil, err
	}
	return Encrypt(key, plaintext)
}

// Open extracts the key from k and decrypts.
func Open(k *bn256.GT, ciphertext, iv []byte) ([]byte, error) {
	key, err := ExtractKey(k)
	if err != nil {
		return nil, ErrDecrypt
	}
	return Decrypt(key, ciphertext, iv)
}
