package session

import "sync"

// Store keeps the live sessions of one front-end, keyed by chat or
// connection ID. Sessions live in memory only.
type Store struct {
	deps *Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty Store sharing deps across sessions.
func NewStore(deps *Deps) *Store {
	return &Store{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := New(id, st.deps)
	st.sessions[s.ID] = s
	return s
}

// Delete discards the session for id.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
