/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file registers the built-in remote methods clients can invoke: broadcast
chat, group-scoped chat, private messages, and group join/leave.
*/
package hub

import (
	"encoding/json"

	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

// Built-in remote method names.
const (
	MethodNewMessage      = "newMessage"
	MethodSendToGroup     = "sendToGroup"
	MethodSendPrivate     = "sendPrivate"
	MethodAddToGroup      = "addToGroup"
	MethodRemoveFromGroup = "removeFromGroup"
)

// registerChatMethods installs the built-in method table on the dispatcher.
func registerChatMethods(d *Dispatcher) {
	d.Register(MethodNewMessage, handleNewMessage)
	d.Register(MethodSendToGroup, handleSendToGroup)
	d.Register(MethodSendPrivate, handleSendPrivate)
	d.Register(MethodAddToGroup, handleAddToGroup)
	d.Register(MethodRemoveFromGroup, handleRemoveFromGroup)
}

// senderIdentity resolves the user identity behind a connection id, falling
// back to the raw id for a connection torn down mid-call.
func senderIdentity(d *Dispatcher, sender ConnectionID) string {
	if user, ok := d.registry.UserOf(sender); ok {
		return user
	}
	return string(sender)
}

// handleNewMessage broadcasts a chat message to every live connection,
// including the sender.
func handleNewMessage(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	var p ChatArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	d.BroadcastAll(NewEvent(EventMessage, senderIdentity(d, sender), ChatBody{Body: p.Body}))

	return nil
}

// handleSendToGroup delivers a chat message to every member of the named
// group. A nonexistent or empty group is a silent no-op.
func handleSendToGroup(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	var p GroupChatArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if p.Group == "" {
		return errs.NewError(errs.ErrGroupNameInvalid)
	}

	d.BroadcastGroup(p.Group, NewEvent(EventGroupMessage, senderIdentity(d, sender), ChatBody{
		Group: p.Group,
		Body:  p.Body,
	}))

	return nil
}

// handleSendPrivate delivers a chat message to a single connection. A dead
// target is logged and never surfaced to the sender.
func handleSendPrivate(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	var p PrivateChatArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	target := ConnectionID(p.Target)

	if !d.registry.IsLive(target) {
		logx.Info("Private message dropped: target is not live.",
			"target", p.Target,
			"sender", string(sender),
		)
		return nil
	}

	d.SendTo(target, NewEvent(EventPrivateMessage, senderIdentity(d, sender), ChatBody{Body: p.Body}))

	return nil
}

// handleAddToGroup joins the sender to the named group, then notifies the
// group, joining member included.
func handleAddToGroup(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	var p GroupArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if cerr := d.groups.Join(p.Group, sender); cerr != nil {
		return cerr
	}

	d.BroadcastGroup(p.Group, NewEvent(EventGroupNotify, SystemSender, GroupNotifyBody{
		Group:  p.Group,
		User:   senderIdentity(d, sender),
		Action: "joined",
	}))

	return nil
}

// handleRemoveFromGroup removes the sender from the named group, then notifies
// the remaining members. The departed member is no longer in the resolution
// snapshot, so it does not receive its own departure notice.
func handleRemoveFromGroup(d *Dispatcher, sender ConnectionID, args json.RawMessage) *errs.CustomError {
	var p GroupArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if p.Group == "" {
		return errs.NewError(errs.ErrGroupNameInvalid)
	}

	d.groups.Leave(p.Group, sender)

	d.BroadcastGroup(p.Group, NewEvent(EventGroupNotify, SystemSender, GroupNotifyBody{
		Group:  p.Group,
		User:   senderIdentity(d, sender),
		Action: "left",
	}))

	return nil
}
