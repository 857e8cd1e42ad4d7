package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedKeyEnvVar = "SEALBOX_MASTER_KEY"
	sealedKeyLen    = 32 // 32 bytes => XSalsa20-Poly1305
	sealedNonceLen  = 24
)

// Sealed envuelve otro store cifrando los envelopes en reposo con
// nacl/secretbox. Útil cuando el backend (redis compartido) no es de
// confianza plena: un envelope robado del store no se puede leer sin
// la clave maestra.
type Sealed struct {
	inner Store
	key   [sealedKeyLen]byte
}

// NewSealed crea el wrapper leyendo la clave maestra desde
// SEALBOX_MASTER_KEY (base64 de 32 bytes).
func NewSealed(inner Store) (*Sealed, error) {
	kb64 := strings.TrimSpace(os.Getenv(sealedKeyEnvVar))
	if kb64 == "" {
		return nil, fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", sealedKeyEnvVar)
	}
	k, err := base64.StdEncoding.DecodeString(kb64)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sealedKeyEnvVar, err)
	}
	if len(k) != sealedKeyLen {
		return nil, fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", sealedKeyEnvVar, sealedKeyLen, len(k))
	}
	s := &Sealed{inner: inner}
	copy(s.key[:], k)
	return s, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var nonce [sealedNonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return err
	}
	// nonce || ciphertext
	sealed := secretbox.Seal(nonce[:], value, &nonce, &s.key)
	return s.inner.Set(ctx, key, sealed, ttl)
}

func (s *Sealed) Consume(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Consume(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < sealedNonceLen {
		return nil, fmt.Errorf("session: sealed envelope too short")
	}
	var nonce [sealedNonceLen]byte
	copy(nonce[:], sealed[:sealedNonceLen])
	plain, ok := secretbox.Open(nil, sealed[sealedNonceLen:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("session: sealed envelope failed to open (wrong key or tampered)")
	}
	return plain, nil
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) Close() error {
	return s.inner.Close()
}
