/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file defines the Registry, which owns the set of live connections and their
identities. Every delivery and every group mutation resolves liveness through it.
*/
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

// ConnectionID uniquely identifies a live connection. Ids are UUID v4 strings,
// so an id released by a closed connection is never handed to a later session.
type ConnectionID string

// Sink is the transport-side delivery endpoint of a single connection.
// Implementations must not block: delivery either succeeds promptly or fails.
type Sink interface {
	// Deliver hands one event to the connection for transmission.
	Deliver(ev Event) error

	// Close asks the transport to shut the connection down gracefully.
	Close(reason string) error
}

// conn holds the registry's record of one live connection.
type conn struct {
	id        ConnectionID
	user      string
	createdAt time.Time
	sink      Sink
}

// Registry tracks live connections. All methods are safe for concurrent use.
type Registry struct {
	// mu protects conns and cleanups.
	mu sync.RWMutex

	conns map[ConnectionID]*conn

	// maxConns caps the registry size; 0 means unlimited.
	maxConns int

	// cleanups run synchronously, in registration order, before Unregister returns.
	cleanups []func(ConnectionID)

	logger zerolog.Logger
}

// NewRegistry constructs a Registry with the given capacity (0 for unlimited).
func NewRegistry(maxConns int) *Registry {
	return &Registry{
		conns:    make(map[ConnectionID]*conn),
		maxConns: maxConns,
		logger:   logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// OnUnregister registers a cleanup hook invoked synchronously whenever a
// connection is unregistered, before Unregister returns. Hooks must be
// registered before the registry starts accepting connections.
func (r *Registry) OnUnregister(fn func(ConnectionID)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanups = append(r.cleanups, fn)
}

// Register allocates a fresh connection id for the given user identity and sink.
// It fails with ErrRegistryFull when the configured capacity is reached; the
// failure is scoped to this handshake and does not affect existing connections.
func (r *Registry) Register(user string, sink Sink) (ConnectionID, *errs.CustomError) {
	id := ConnectionID(uuid.New().String())

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxConns > 0 && len(r.conns) >= r.maxConns {
		r.logger.Warn().
			Int("max_connections", r.maxConns).
			Str("user", user).
			Msg("Registry at capacity. Rejecting handshake.")
		return "", errs.NewError(errs.ErrRegistryFull)
	}

	r.conns[id] = &conn{
		id:        id,
		user:      user,
		createdAt: time.Now(),
		sink:      sink,
	}

	r.logger.Info().
		Str("connection_id", string(id)).
		Str("user", user).
		Int("total_connections", len(r.conns)).
		Msg("Connection registered.")

	return id, nil
}

// Unregister removes the connection and runs all cleanup hooks before returning,
// so no membership entry for the id survives this call. Unregistering an id
// that is not live is a no-op.
func (r *Registry) Unregister(id ConnectionID) {
	r.mu.Lock()

	c, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, id)

	cleanups := r.cleanups
	remaining := len(r.conns)

	r.mu.Unlock()

	// Membership cleanup happens before Unregister returns. A fan-out snapshot
	// taken afterwards can no longer resolve this id through any group.
	for _, fn := range cleanups {
		fn(id)
	}

	r.logger.Info().
		Str("connection_id", string(id)).
		Str("user", c.user).
		Int("total_connections", remaining).
		Msg("Connection unregistered.")
}

// IsLive reports whether the given connection id references a live connection.
func (r *Registry) IsLive(id ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[id]
	return ok
}

// UserOf returns the user identity bound to the given connection id.
func (r *Registry) UserOf(id ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return "", false
	}
	return c.user, true
}

// Snapshot returns a copy of all currently-live connection ids.
func (r *Registry) Snapshot() []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.conns)
}

// Count returns the number of currently-live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Deliver hands one event to the sink of the given connection. It fails with
// ErrUnknownConnection when the id is no longer live, which fan-out treats as
// a silent skip.
func (r *Registry) Deliver(id ConnectionID, ev Event) error {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()

	if !ok {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	return c.sink.Deliver(ev)
}

// CloseAll gracefully closes every live connection with the given reason and
// unregisters each one. Used during server shutdown.
func (r *Registry) CloseAll(reason string) {
	for _, id := range r.Snapshot() {
		r.mu.RLock()
		c, ok := r.conns[id]
		r.mu.RUnlock()

		if !ok {
			continue
		}

		if err := c.sink.Close(reason); err != nil {
			r.logger.Warn().
				Str("connection_id", string(id)).
				Err(err).
				Msg("Error closing connection during shutdown.")
		}

		r.Unregister(id)
	}
}
