// Package session keeps the in-flight entry of each form for a visitor
// session, so multi step forms resume where they left off.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
)

// Store holds the active entries of one session keyed by form handle.
type Store interface {
	GetActiveEntry(ctx context.Context, formHandle string) (*models.Entry, error)
	SetActiveEntry(ctx context.Context, formHandle string, entry *models.Entry) error
	ClearActiveEntry(ctx context.Context, formHandle string) error
}

// Provider hands out the store of a session.
type Provider interface {
	ForSession(sessionID string) Store
}

// snapshot is the stored form of an active entry. Values hold serialized
// field values as JSON so they decode to the same shapes a request body does.
type snapshot struct {
	ID         int64  `msgpack:"id"`
	FormID     int64  `msgpack:"form_id"`
	FormHandle string `msgpack:"form_handle"`
	StatusID   int64  `msgpack:"status_id"`
	SiteID     int64  `msgpack:"site_id"`
	Enabled    bool   `msgpack:"enabled"`
	Owner      string `msgpack:"owner"`
	Values     []byte `msgpack:"values"`
}

func encode(entry *models.Entry) ([]byte, error) {
	values, err := json.Marshal(entry.Values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry values: %w", err)
	}
	return msgpack.Marshal(&snapshot{
		ID:         entry.ID,
		FormID:     entry.FormID,
		FormHandle: entry.FormHandle,
		StatusID:   entry.StatusID,
		SiteID:     entry.SiteID,
		Enabled:    entry.Enabled,
		Owner:      entry.Owner,
		Values:     values,
	})
}

func decode(data []byte) (*models.Entry, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode active entry: %w", err)
	}

	values := map[string]any{}
	if len(snap.Values) > 0 {
		if err := json.Unmarshal(snap.Values, &values); err != nil {
			return nil, fmt.Errorf("failed to decode entry values: %w", err)
		}
	}

	return &models.Entry{
		ID:         snap.ID,
		FormID:     snap.FormID,
		FormHandle: snap.FormHandle,
		StatusID:   snap.StatusID,
		SiteID:     snap.SiteID,
		Enabled:    snap.Enabled,
		Owner:      snap.Owner,
		Values:     values,
	}, nil
}

// MemoryProvider keeps sessions in process memory.
type MemoryProvider struct {
	mu       sync.Mutex
	sessions map[string]map[string][]byte
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{sessions: map[string]map[string][]byte{}}
}

func (p *MemoryProvider) ForSession(sessionID string) Store {
	return &memoryStore{provider: p, sessionID: sessionID}
}

type memoryStore struct {
	provider  *MemoryProvider
	sessionID string
}

func (s *memoryStore) GetActiveEntry(_ context.Context, formHandle string) (*models.Entry, error) {
	s.provider.mu.Lock()
	data, ok := s.provider.sessions[s.sessionID][formHandle]
	s.provider.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (s *memoryStore) SetActiveEntry(_ context.Context, formHandle string, entry *models.Entry) error {
	data, err := encode(entry)
	if err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	if s.provider.sessions[s.sessionID] == nil {
		s.provider.sessions[s.sessionID] = map[string][]byte{}
	}
	s.provider.sessions[s.sessionID][formHandle] = data
	return nil
}

func (s *memoryStore) ClearActiveEntry(_ context.Context, formHandle string) error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	delete(s.provider.sessions[s.sessionID], formHandle)
	return nil
}

// RedisProvider keeps sessions in Redis with a sliding TTL.
type RedisProvider struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProvider(client *redis.Client, ttl time.Duration) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl}
}

func (p *RedisProvider) ForSession(sessionID string) Store {
	return &redisStore{provider: p, sessionID: sessionID}
}

type redisStore struct {
	provider  *RedisProvider
	sessionID string
}

func (s *redisStore) key(formHandle string) string {
	return fmt.Sprintf("fern:session:%s:entry:%s", s.sessionID, formHandle)
}

func (s *redisStore) GetActiveEntry(ctx context.Context, formHandle string) (*models.Entry, error) {
	data, ok, err := s.provider.client.GetBytes(ctx, s.key(formHandle))
	if err != nil || !ok {
		return nil, err
	}
	return decode(data)
}

func (s *redisStore) SetActiveEntry(ctx context.Context, formHandle string, entry *models.Entry) error {
	data, err := encode(entry)
	if err != nil {
		return err
	}
	return s.provider.client.Set(ctx, s.key(formHandle), data, s.provider.ttl)
}

func (s *redisStore) ClearActiveEntry(ctx context.Context, formHandle string) error {
	return s.provider.client.Del(ctx, s.key(formHandle))
}
