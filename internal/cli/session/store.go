package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/rs/zerolog"
)

// DefaultDedupeInterval is how long a fetched session counts as fresh for Focus
const DefaultDedupeInterval = 2 * time.Second

// Fetcher is the part of the API client the store needs
type Fetcher interface {
	GetUser(ctx context.Context) (*client.Session, error)
	Logout(ctx context.Context) error
}

// State is what consumers of the store observe
type State struct {
	IsLoading bool
	client.Session
}

// call is a revalidation other callers can wait on
type call struct {
	done chan struct{}
	err  error
}

type subscriber struct {
	id int
	fn func(State)
}

// Store caches the current session and shares it between every consumer.
// It starts out loading with the logged-out session and is only written by
// Revalidate and Logout.
type Store struct {
	fetcher Fetcher
	log     zerolog.Logger
	now     func() time.Time

	// DedupeInterval bounds how often Focus refetches
	DedupeInterval time.Duration

	// notifyMu serializes deliveries so subscribers see states in store order
	notifyMu sync.Mutex

	mu         sync.Mutex
	state      State
	fetchedAt  time.Time
	generation uint64
	inflight   *call
	subs       []subscriber
	nextID     int
}

// NewStore creates a store backed by fetcher. Nothing is fetched until
// Revalidate or Focus is called.
func NewStore(fetcher Fetcher, log zerolog.Logger) *Store {
	return &Store{
		fetcher:        fetcher,
		log:            log,
		now:            time.Now,
		DedupeInterval: DefaultDedupeInterval,
		state:          State{IsLoading: true, Session: client.DefaultSession()},
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with every new state. Deliveries are
// serialized, so fn must not call Revalidate or Logout itself. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Revalidate fetches the session from the server. Concurrent callers share
// one request. Any response other than a decodable 200 resolves to the
// logged-out session; a transport failure keeps the cached value and is
// returned.
func (s *Store) Revalidate(ctx context.Context) error {
	s.mu.Lock()
	if c := s.inflight; c != nil {
		s.mu.Unlock()
		select {
		case <-c.done:
			return c.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	s.inflight = c
	generation := s.generation
	s.mu.Unlock()

	session, err := s.fetcher.GetUser(ctx)

	next := client.DefaultSession()
	keep := false
	switch {
	case err == nil:
		next = *session
	case errors.Is(err, client.ErrTransport):
		s.log.Debug().Err(err).Msg("Session fetch failed, keeping cached value")
		keep = true
	default:
		s.log.Debug().Err(err).Msg("Session fetch resolved to logged out")
		err = nil
	}

	s.mu.Lock()
	s.inflight = nil
	changed := false
	switch {
	case generation != s.generation:
		// a logout landed while the request was in flight and wins
	case keep:
		if s.state.IsLoading {
			s.state.IsLoading = false
			changed = true
		}
	default:
		s.state = State{Session: next}
		s.fetchedAt = s.now()
		changed = true
	}
	s.mu.Unlock()

	c.err = err
	close(c.done)

	if changed {
		s.publish()
	}
	return err
}

// Focus revalidates when the cached session is older than DedupeInterval,
// the way a window regaining focus would.
func (s *Store) Focus(ctx context.Context) error {
	s.mu.Lock()
	stale := s.fetchedAt.IsZero() || s.now().Sub(s.fetchedAt) >= s.DedupeInterval
	s.mu.Unlock()

	if !stale {
		return nil
	}
	return s.Revalidate(ctx)
}

// Logout ends the session on the server. Only on success is the cached value
// replaced with the logged-out session; no refetch happens.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.fetcher.Logout(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	s.state = State{Session: client.DefaultSession()}
	s.fetchedAt = s.now()
	s.mu.Unlock()

	s.publish()
	return nil
}

// publish delivers the current state to every subscriber. The state is read
// after notifyMu is taken, so the last delivery always matches Snapshot.
func (s *Store) publish() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	state := s.state
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(state)
	}
}
