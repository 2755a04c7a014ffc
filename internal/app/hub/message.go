/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file defines the wire frame and event structures exchanged with clients,
together with the payload types used by the built-in methods.
*/
package hub

import (
	"encoding/json"
	"time"

	"relayhub/internal/pkg/randx"
)

// Frame kinds exchanged over the transport.
const (
	// FrameInvoke marks an inbound remote-method invocation from a client.
	FrameInvoke = "invoke"

	// FrameEvent marks an outbound event delivered to one or more clients.
	FrameEvent = "event"

	// FrameError marks an outbound error reply for a caller-initiated failure.
	FrameError = "error"
)

// Event names delivered to clients.
const (
	// EventMessage carries a broadcast chat message.
	EventMessage = "newMessage"

	// EventGroupMessage carries a group-scoped chat message.
	EventGroupMessage = "groupMessage"

	// EventPrivateMessage carries a single-target chat message.
	EventPrivateMessage = "privateMessage"

	// EventGroupNotify carries a system notification about group membership changes.
	EventGroupNotify = "groupNotify"

	// EventUserConnected announces a newly registered connection.
	EventUserConnected = "userConnected"

	// EventUserDisconnected announces a torn-down connection.
	EventUserDisconnected = "userDisconnected"

	// EventServerStats carries the periodic server statistics broadcast.
	EventServerStats = "serverStats"
)

// SystemSender is the sender identity used for server-originated events.
const SystemSender = "system"

// InvokeFrame is the inbound wire frame produced by the transport for each
// remote-method invocation.
type InvokeFrame struct {
	// Type must be FrameInvoke.
	Type string `json:"type"`

	// ID is an optional client-chosen correlation id echoed on error replies.
	ID string `json:"id,omitempty"`

	// Method names the remote method to invoke.
	Method string `json:"method"`

	// Args holds the raw, method-specific argument object.
	Args json.RawMessage `json:"args,omitempty"`
}

// Event is the outbound unit of delivery. One Event is fanned out
// independently to every resolved target connection.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Type is FrameEvent or FrameError.
	Type string `json:"type"`

	// Name is the event name clients subscribe on. Empty for error replies.
	Name string `json:"event,omitempty"`

	// From is the user identity of the sender, or SystemSender.
	From string `json:"from,omitempty"`

	// Call echoes the correlation id of the invocation that failed. Error replies only.
	Call string `json:"call,omitempty"`

	// Payload is the event-specific body.
	Payload any `json:"payload,omitempty"`

	// Timestamp is the server-side creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewEvent constructs an outbound event with a fresh id and timestamp.
func NewEvent(name string, from string, payload any) Event {
	return Event{
		ID:        randx.MessageID(),
		Type:      FrameEvent,
		Name:      name,
		From:      from,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewErrorEvent constructs an error reply for a failed caller-initiated invocation.
func NewErrorEvent(callID string, code int, message string) Event {
	return Event{
		ID:        randx.MessageID(),
		Type:      FrameError,
		From:      SystemSender,
		Call:      callID,
		Payload:   ErrorPayload{Code: code, Message: message},
		Timestamp: time.Now().UnixMilli(),
	}
}

// ErrorPayload is the body of an error reply.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChatArgs are the arguments of the newMessage method.
type ChatArgs struct {
	Body string `json:"body"`
}

// GroupChatArgs are the arguments of the sendToGroup method.
type GroupChatArgs struct {
	Group string `json:"group"`
	Body  string `json:"body"`
}

// PrivateChatArgs are the arguments of the sendPrivate method.
type PrivateChatArgs struct {
	Target string `json:"target"`
	Body   string `json:"body"`
}

// GroupArgs are the arguments of the addToGroup and removeFromGroup methods.
type GroupArgs struct {
	Group string `json:"group"`
}

// ChatBody is the payload of chat message events.
type ChatBody struct {
	// Group is set on group-scoped messages only.
	Group string `json:"group,omitempty"`
	Body  string `json:"body"`
}

// GroupNotifyBody is the payload of group membership notifications.
type GroupNotifyBody struct {
	Group string `json:"group"`
	User  string `json:"user"`

	// Action is "joined" or "left".
	Action string `json:"action"`
}

// UserEventBody is the payload of userConnected and userDisconnected events.
type UserEventBody struct {
	User string `json:"user"`
}

// ServerStatsBody is the payload of the periodic serverStats broadcast.
type ServerStatsBody struct {
	Connections int `json:"connections"`
	Groups      int `json:"groups"`
}
