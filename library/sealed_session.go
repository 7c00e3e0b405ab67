package library

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealSaltLen  = 16
	sealNonceLen = 24
)

var errUnseal = errors.New("cannot decrypt stored token (wrong passphrase or corrupt data)")

// SealedSession encrypts the token before handing it to the inner store.
// Each write uses a fresh salt and nonce; the stored value is
// base64(salt | nonce | secretbox).
type SealedSession struct {
	inner      SessionStore
	passphrase []byte
}

func NewSealedSession(inner SessionStore, passphrase string) *SealedSession {
	return &SealedSession{inner: inner, passphrase: []byte(passphrase)}
}

func (s *SealedSession) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.inner.ClearToken(ctx)
	}
	sealed, err := s.seal([]byte(token))
	if err != nil {
		return &StorageError{Op: "seal", Err: err}
	}
	return s.inner.SetToken(ctx, sealed)
}

func (s *SealedSession) GetToken(ctx context.Context) (string, error) {
	sealed, err := s.inner.GetToken(ctx)
	if err != nil {
		return "", err
	}
	token, err := s.open(sealed)
	if err != nil {
		return "", &StorageError{Op: "unseal", Err: err}
	}
	return token, nil
}

func (s *SealedSession) ClearToken(ctx context.Context) error { return s.inner.ClearToken(ctx) }

func (s *SealedSession) key(salt []byte) *[32]byte {
	var k [32]byte
	copy(k[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, 32))
	return &k
}

func (s *SealedSession) seal(plain []byte) (string, error) {
	buf := make([]byte, sealSaltLen+sealNonceLen)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	var nonce [sealNonceLen]byte
	copy(nonce[:], buf[sealSaltLen:])
	out := secretbox.Seal(buf, plain, &nonce, s.key(buf[:sealSaltLen]))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *SealedSession) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < sealSaltLen+sealNonceLen+secretbox.Overhead {
		return "", errUnseal
	}
	var nonce [sealNonceLen]byte
	copy(nonce[:], raw[sealSaltLen:sealSaltLen+sealNonceLen])
	plain, ok := secretbox.Open(nil, raw[sealSaltLen+sealNonceLen:], &nonce, s.key(raw[:sealSaltLen]))
	if !ok {
		return "", errUnseal
	}
	return string(plain), nil
}
