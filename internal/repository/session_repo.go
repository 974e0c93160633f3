package repository

import (
	"context"
	"decklobby/internal/model"
	"errors"
	"sort"
	"sync"
)

var (
	ErrCodeNotReserved = errors.New("session code was not reserved")
	ErrDuplicateID     = errors.New("session id already exists")
)

// SessionRepo owns every live session. All reads return deep copies; the only
// way to change a session is Update, which runs under that session's lock.
type SessionRepo interface {
	ReserveCode(code string) bool
	ReleaseCode(code string)
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	ListOpen(ctx context.Context) ([]*model.Session, error)
	Update(ctx context.Context, id string, fn func(s *model.Session) error) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
	removed bool
}

// Lock order is entry.mu before sessionRepo.mu. Paths holding only
// sessionRepo.mu never wait on an entry.
type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	codes    map[string]string // code -> session id, "" while only reserved
}

// NewSessionRepo creates an in-memory session repository
func NewSessionRepo() SessionRepo {
	return &sessionRepo{
		sessions: make(map[string]*sessionEntry),
		codes:    make(map[string]string),
	}
}

func (r *sessionRepo) ReserveCode(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.codes[code]; taken {
		return false
	}
	r.codes[code] = ""
	return true
}

// ReleaseCode drops a reservation that never became a session. Codes held by
// stored sessions are released only by eviction.
func (r *sessionRepo) ReleaseCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.codes[code]; ok && id == "" {
		delete(r.codes, code)
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return ErrDuplicateID
	}
	if id, ok := r.codes[session.Code]; !ok || id != "" {
		return ErrCodeNotReserved
	}

	r.sessions[session.ID] = &sessionEntry{session: session.Clone()}
	r.codes[session.Code] = session.ID
	return nil
}

func (r *sessionRepo) entry(id string) *sessionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	e := r.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, nil
	}
	return e.session.Clone(), nil
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	r.mu.RLock()
	id := r.codes[code]
	r.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *sessionRepo) ListOpen(ctx context.Context) ([]*model.Session, error) {
	return r.list(func(s *model.Session) bool { return s.Status == model.SessionOpen }), nil
}

func (r *sessionRepo) list(keep func(*model.Session) bool) []*model.Session {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]*model.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed && keep(e.session) {
			out = append(out, e.session.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Update applies fn to a copy of the session under the session's lock. If fn
// fails nothing is stored. On success the version is bumped, and a session
// left in the closed state is evicted, freeing its code.
func (r *sessionRepo) Update(ctx context.Context, id string, fn func(s *model.Session) error) (*model.Session, error) {
	e := r.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, nil
	}

	work := e.session.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.Version++
	e.session = work

	if work.Status == model.SessionClosed {
		r.evictLocked(e)
	}
	return work.Clone(), nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	e := r.entry(id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.removed {
		r.evictLocked(e)
	}
	return nil
}

// evictLocked must be called with e.mu held.
func (r *sessionRepo) evictLocked(e *sessionEntry) {
	e.removed = true
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, e.session.ID)
	if r.codes[e.session.Code] == e.session.ID {
		delete(r.codes, e.session.Code)
	}
}
