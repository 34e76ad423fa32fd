package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/nestflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture scores index entries that never expire (2100-01-01).
const farFuture = 4102444800

// keyspace is the key layout shared by the stores: one JSON value per record plus a
// sorted-set index scored by expiry.
type keyspace struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a store's keyspace.
type Option func(*keyspace)

// WithTTL sets the expiration for records. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(k *keyspace) {
		k.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(k *keyspace) {
		k.prefix = prefix
	}
}

// NewClient creates a redis client for the stores and the locker.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

func newKeyspace(client *backend.Client, prefix string, opts []Option) keyspace {
	k := keyspace{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(&k)
	}
	return k
}

func (k keyspace) key(id string) string {
	return k.prefix + id
}

func (k keyspace) indexKey() string {
	return k.prefix + "index"
}

func (k keyspace) put(ctx context.Context, id string, data []byte) error {
	pipe := k.client.Pipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, k.key(id), data, k.ttl)

	// Score = Now + TTL so List can prune lazily.
	score := float64(time.Now().Add(k.ttl).Unix())
	if k.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, k.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (k keyspace) get(ctx context.Context, id string, missing error) ([]byte, error) {
	val, err := k.client.Get(ctx, k.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, missing
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

func (k keyspace) del(ctx context.Context, id string) error {
	pipe := k.client.Pipeline()
	pipe.Del(ctx, k.key(id))
	pipe.ZRem(ctx, k.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (k keyspace) list(ctx context.Context) ([]string, error) {
	// Lazy Cleanup: Remove expired ids from the index
	now := float64(time.Now().Unix())
	err := k.client.ZRemRangeByScore(ctx, k.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired entries: %w", err)
	}

	ids, err := k.client.ZRange(ctx, k.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return ids, nil
}

// SessionStore implements ports.SessionStore using Redis.
type SessionStore struct {
	keyspace
}

// NewSessionStore creates a session store on an existing client.
func NewSessionStore(client *backend.Client, opts ...Option) *SessionStore {
	return &SessionStore{keyspace: newKeyspace(client, "nestflow:session:", opts)}
}

// Save persists the state to Redis.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return s.put(ctx, sessionID, data)
}

// Load retrieves the state from Redis.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	data, err := s.get(ctx, sessionID, domain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.Responses == nil {
		state.Responses = make(map[string]domain.Response)
	}
	return &state, nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.del(ctx, sessionID)
}

// List returns active sessions, pruning expired ones from the index.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	return s.list(ctx)
}

// Close closes the redis client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

// ModuleStore implements ports.ModuleStore using Redis.
type ModuleStore struct {
	keyspace
}

// NewModuleStore creates a module store on an existing client.
func NewModuleStore(client *backend.Client, opts ...Option) *ModuleStore {
	return &ModuleStore{keyspace: newKeyspace(client, "nestflow:module:", opts)}
}

// Load retrieves a module record.
func (s *ModuleStore) Load(ctx context.Context, moduleID string) (*domain.Module, error) {
	data, err := s.get(ctx, moduleID, domain.ErrModuleNotFound)
	if err != nil {
		return nil, err
	}
	var m domain.Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode module %s: %w", moduleID, err)
	}
	return &m, nil
}

// Save stores the whole module record.
func (s *ModuleStore) Save(ctx context.Context, module *domain.Module) error {
	data, err := json.Marshal(module)
	if err != nil {
		return fmt.Errorf("failed to marshal module: %w", err)
	}
	return s.put(ctx, module.ID, data)
}

// Delete removes a module record.
func (s *ModuleStore) Delete(ctx context.Context, moduleID string) error {
	return s.del(ctx, moduleID)
}

// List returns the stored module ids.
func (s *ModuleStore) List(ctx context.Context) ([]string, error) {
	return s.list(ctx)
}
