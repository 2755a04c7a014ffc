/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file defines the Dispatcher, which executes inbound remote-method invocations
and performs outbound fan-out, broadcast-wide or group-scoped.
*/
package hub

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

// HandlerFunc is a remote-method handler. Handlers are stateless: the caller's
// connection id arrives as an explicit parameter, never as instance state.
type HandlerFunc func(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError

// Dispatcher accepts inbound invocations, runs the matching handler, and
// resolves outbound fan-out targets through the Registry and GroupTable.
type Dispatcher struct {
	registry *Registry
	groups   *GroupTable

	methods map[string]HandlerFunc

	logger zerolog.Logger
}

// NewDispatcher wires a Dispatcher over the given registry and group table and
// hooks group purging into connection unregistration. The built-in chat
// methods are registered immediately.
func NewDispatcher(registry *Registry, groups *GroupTable) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		groups:   groups,
		methods:  make(map[string]HandlerFunc),
		logger:   logx.Logger().With().Str("component", "Dispatcher").Logger(),
	}

	registry.OnUnregister(groups.Purge)

	registerChatMethods(d)

	return d
}

// Register adds a handler for the given method name. Methods are registered
// during construction, before any invocation can arrive.
func (d *Dispatcher) Register(method string, fn HandlerFunc) {
	d.methods[method] = fn
}

// Registry exposes the connection registry backing this dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Groups exposes the group table backing this dispatcher.
func (d *Dispatcher) Groups() *GroupTable {
	return d.groups
}

// Invoke looks up and executes the handler for method on behalf of sender.
// It fails with ErrUnknownMethod for an unregistered method and with
// ErrUnknownConnection when sender disconnected while the call was in flight.
// Errors are scoped to this invocation; the connection stays open.
func (d *Dispatcher) Invoke(method string, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	fn, ok := d.methods[method]
	if !ok {
		d.logger.Warn().
			Str("method", method).
			Str("connection_id", string(sender)).
			Msg("Invocation of unknown method.")
		return errs.NewError(errs.ErrUnknownMethod, method)
	}

	if !d.registry.IsLive(sender) {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	return fn(d, sender, args)
}

// Connect registers a new connection and announces it to everyone.
// Called by the transport after a successful handshake.
func (d *Dispatcher) Connect(user string, sink Sink) (ConnectionID, *errs.CustomError) {
	id, cerr := d.registry.Register(user, sink)
	if cerr != nil {
		return "", cerr
	}

	d.BroadcastAll(NewEvent(EventUserConnected, SystemSender, UserEventBody{User: user}))

	return id, nil
}

// Disconnect tears the connection down: group membership is purged and the
// registry entry removed before the departure announcement goes out.
// Idempotent; called by the transport when the connection drops.
func (d *Dispatcher) Disconnect(id ConnectionID) {
	user, live := d.registry.UserOf(id)
	if !live {
		return
	}

	d.registry.Unregister(id)

	d.BroadcastAll(NewEvent(EventUserDisconnected, SystemSender, UserEventBody{User: user}))
}

// BroadcastAll delivers ev to every currently-live connection. The target set
// is a snapshot taken at call time; connections that disconnect mid-fan-out
// are skipped. Delivery is best-effort and independent per target: a failure
// to one target never aborts delivery to the others and is never surfaced to
// the sender.
func (d *Dispatcher) BroadcastAll(ev Event) {
	d.fanOut(d.registry.Snapshot(), ev)
}

// BroadcastGroup delivers ev to every member of group, with the same
// best-effort independent delivery as BroadcastAll. A nonexistent or empty
// group is a no-op.
func (d *Dispatcher) BroadcastGroup(group string, ev Event) {
	d.fanOut(d.groups.MembersOf(group), ev)
}

// SendTo delivers ev to a single connection. A dead target or failed delivery
// is logged, never surfaced.
func (d *Dispatcher) SendTo(id ConnectionID, ev Event) {
	if err := d.registry.Deliver(id, ev); err != nil {
		d.logger.Info().
			Str("connection_id", string(id)).
			Str("event", ev.Name).
			Err(err).
			Msg("Direct delivery skipped.")
	}
}

// fanOut delivers ev to each target independently.
func (d *Dispatcher) fanOut(targets []ConnectionID, ev Event) {
	for _, id := range targets {
		if err := d.registry.Deliver(id, ev); err != nil {
			d.logger.Debug().
				Str("connection_id", string(id)).
				Str("event", ev.Name).
				Err(err).
				Msg("Fan-out delivery skipped.")
		}
	}
}

// Shutdown gracefully closes every live connection.
func (d *Dispatcher) Shutdown(reason string) {
	d.logger.Info().Msg("Shutting down dispatcher. Closing all connections.")

	d.registry.CloseAll(reason)
}
