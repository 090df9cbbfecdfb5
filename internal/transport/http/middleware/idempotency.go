package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"leadtrack/internal/platform/querier"
)

var ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")

// Idempotency remembers the response of a keyed write so a retried request
// replays it instead of appending again.
type Idempotency interface {
	Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type IdempotencyStore struct {
	db querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE user_id = $1 AND key = $2 AND endpoint = $3
  `, userID, key, endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (user_id, key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, userID, key, endpoint, requestHash, []byte(response))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type idempotencyRecord struct {
	hash     string
	response json.RawMessage
}

// MemoryIdempotency backs the memory and sqlite drivers. Entries live for
// the life of the process.
type MemoryIdempotency struct {
	mu      sync.Mutex
	entries map[string]idempotencyRecord
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{entries: map[string]idempotencyRecord{}}
}

func memoryKey(userID, endpoint, key string) string {
	return userID + "\x00" + endpoint + "\x00" + key
}

func (m *MemoryIdempotency) Check(_ context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.entries[memoryKey(userID, endpoint, key)]
	if !ok {
		return nil, false, nil
	}
	if rec.hash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return append(json.RawMessage(nil), rec.response...), true, nil
}

func (m *MemoryIdempotency) Save(_ context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(userID, endpoint, key)
	if rec, ok := m.entries[k]; ok && rec.hash != requestHash {
		return ErrIdempotencyConflict
	}
	m.entries[k] = idempotencyRecord{hash: requestHash, response: append(json.RawMessage(nil), response...)}
	return nil
}
