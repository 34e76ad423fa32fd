package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
)

// envelopeKey is the response slot that carries the sealed state.
const envelopeKey = "__encrypted__"

// ErrNoEnvelope is returned when an encrypted store holds a plain state.
var ErrNoEnvelope = errors.New("state is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals every new state. Must be 32 bytes (AES-256).
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a stored state.
	FallbackKeys [][]byte
}

// keyring holds one AEAD per key, active first.
type keyring []cipher.AEAD

func newKeyring(cfg EncryptionConfig) (keyring, error) {
	keys := append([][]byte{cfg.ActiveKey}, cfg.FallbackKeys...)
	ring := make(keyring, 0, len(keys))
	for i, k := range keys {
		if len(k) != 32 {
			return nil, fmt.Errorf("key %d must be 32 bytes (AES-256), got %d", i, len(k))
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		ring = append(ring, gcm)
	}
	return ring, nil
}

// seal encrypts with the active key; the nonce is prepended to the ciphertext.
func (r keyring) seal(plain []byte) ([]byte, error) {
	aead := r[0]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// open tries every key in order.
func (r keyring) open(sealed []byte) ([]byte, error) {
	for _, aead := range r {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

type encryptionMiddleware struct {
	next ports.SessionStore
	keys keyring
}

// NewEncryptionMiddleware creates a middleware that seals playback state with AES-GCM.
// Only the session id, module id and status stay readable in the underlying store.
// It panics if any key is not 32 bytes long.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys, err := newKeyring(config)
	if err != nil {
		panic(err)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	sealed, err := m.keys.seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	return m.next.Save(ctx, sessionID, &domain.State{
		SessionID:    state.SessionID,
		ModuleID:     state.ModuleID,
		Status:       state.Status,
		CurrentIndex: -1,
		Responses: map[string]domain.Response{
			envelopeKey: {Text: base64.StdEncoding.EncodeToString(sealed)},
		},
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// A plain state in an encrypted store is treated as tampering.
	payload := envelope.Responses[envelopeKey].Text
	if payload == "" {
		return nil, ErrNoEnvelope
	}
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	plain, err := m.keys.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(plain, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	if state.Responses == nil {
		state.Responses = make(map[string]domain.Response)
	}
	return &state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
