package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/tables"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed atomic.Int64 // unix nanoseconds
}

// Store keeps concurrent sessions in memory. Each session is only touched
// while holding its own lock, so users never share state. Sessions idle for
// longer than the idle timeout are dropped when a new one is created.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	catalog *catalog.Catalog
	tables  *tables.Tables
	opts    Options
	idle    time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewStore creates an empty store over shared reference data. An idle
// timeout of zero keeps sessions until they are deleted.
func NewStore(cat *catalog.Catalog, tb *tables.Tables, opts Options, idle time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*entry),
		catalog:  cat,
		tables:   tb,
		opts:     opts,
		idle:     idle,
		now:      time.Now,
		logger:   logger,
	}
}

// Create starts a new session and returns its id.
func (st *Store) Create() string {
	id := uuid.NewString()
	e := &entry{session: New(id, st.catalog, st.tables, st.opts)}
	now := st.now()
	e.lastUsed.Store(now.UnixNano())

	st.mu.Lock()
	expired := st.sweep(now)
	st.sessions[id] = e
	st.mu.Unlock()

	for _, old := range expired {
		st.logger.Info("session expired", zap.String("session_id", old))
	}
	st.logger.Info("session created", zap.String("session_id", id))
	return id
}

// sweep drops idle sessions. The caller holds st.mu.
func (st *Store) sweep(now time.Time) []string {
	if st.idle <= 0 {
		return nil
	}
	cutoff := now.Add(-st.idle).UnixNano()

	var expired []string
	for id, e := range st.sessions {
		if e.lastUsed.Load() < cutoff {
			delete(st.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// With runs fn with exclusive access to a session.
func (st *Store) With(id string, fn func(*Session) error) error {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.lastUsed.Store(st.now().UnixNano())

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete drops a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	st.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
