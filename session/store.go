package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown, expired, or destroyed sessions.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind one admin login. The client only
// ever holds the opaque id, wrapped in a signed cookie.
type Session struct {
	AdminID   int64     `json:"admin_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the session backend. MemoryStore is the default; RedisStore is
// used when REDIS_ADDR is configured so sessions survive restarts.
type Store interface {
	Create(ctx context.Context, s Session) (string, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in a mutex-guarded map for the lifetime of the
// process. A background sweep drops expired entries.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	st := &MemoryStore{sessions: make(map[string]Session)}
	go st.sweepLoop(time.Minute)
	return st
}

func (st *MemoryStore) Create(_ context.Context, s Session) (string, error) {
	id := uuid.NewString()
	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()
	return id, nil
}

func (st *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok || s.Expired() {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (st *MemoryStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
	return nil
}

func (st *MemoryStore) sweepLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for range tick.C {
		st.mu.Lock()
		for id, s := range st.sessions {
			if s.Expired() {
				delete(st.sessions, id)
			}
		}
		st.mu.Unlock()
	}
}
