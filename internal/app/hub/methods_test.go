package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"relayhub/internal/pkg/errs"
)

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestNewMessage_BroadcastsToEveryone(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	_, sinkB := connect(t, d, "bob")
	drain(sinkA, sinkB)

	cerr := d.Invoke(MethodNewMessage, a, mustArgs(t, ChatArgs{Body: "hello"}))
	req.Nil(cerr)

	// broadcastAll includes the sender.
	for _, sink := range []*recordSink{sinkA, sinkB} {
		events := sink.Events()
		req.Len(events, 1)
		req.Equal(EventMessage, events[0].Name)
		req.Equal("alice", events[0].From)
		req.Equal(ChatBody{Body: "hello"}, events[0].Payload)
	}
}

func TestSendToGroup_DeliversToSenderAndMembers(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, sinkB := connect(t, d, "bob")
	_, sinkC := connect(t, d, "carol")

	req.Nil(d.Invoke(MethodAddToGroup, a, mustArgs(t, GroupArgs{Group: "dev"})))
	req.Nil(d.Invoke(MethodAddToGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))
	drain(sinkA, sinkB, sinkC)

	req.Nil(d.Invoke(MethodSendToGroup, a, mustArgs(t, GroupChatArgs{Group: "dev", Body: "hi"})))

	// The sender joined the group, so it receives its own message too.
	for _, sink := range []*recordSink{sinkA, sinkB} {
		events := sink.Events()
		req.Len(events, 1)
		req.Equal(EventGroupMessage, events[0].Name)
		req.Equal("alice", events[0].From)
		req.Equal(ChatBody{Group: "dev", Body: "hi"}, events[0].Payload)
	}
	req.Empty(sinkC.Events())
}

func TestSendToGroup_EmptyGroupNameFails(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, _ := connect(t, d, "alice")

	cerr := d.Invoke(MethodSendToGroup, a, mustArgs(t, GroupChatArgs{Group: "", Body: "hi"}))
	req.NotNil(cerr)
	req.Equal(errs.ErrGroupNameInvalid, cerr.Code)
}

func TestSendPrivate_SingleTargetOnly(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, sinkB := connect(t, d, "bob")
	_, sinkC := connect(t, d, "carol")
	drain(sinkA, sinkB, sinkC)

	req.Nil(d.Invoke(MethodSendPrivate, a, mustArgs(t, PrivateChatArgs{Target: string(b), Body: "psst"})))

	events := sinkB.Events()
	req.Len(events, 1)
	req.Equal(EventPrivateMessage, events[0].Name)
	req.Equal("alice", events[0].From)

	req.Empty(sinkA.Events())
	req.Empty(sinkC.Events())
}

func TestSendPrivate_DeadTargetFailsSilently(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, _ := connect(t, d, "bob")
	d.Disconnect(b)
	drain(sinkA)

	// Logged, not surfaced to the sender.
	cerr := d.Invoke(MethodSendPrivate, a, mustArgs(t, PrivateChatArgs{Target: string(b), Body: "psst"}))
	req.Nil(cerr)
	req.Empty(sinkA.Events())
}

func TestAddToGroup_NotifiesGroupIncludingJoiner(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, sinkB := connect(t, d, "bob")

	req.Nil(d.Invoke(MethodAddToGroup, a, mustArgs(t, GroupArgs{Group: "dev"})))
	drain(sinkA, sinkB)

	req.Nil(d.Invoke(MethodAddToGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))

	// The notification goes out after the join completes, so the joining
	// member is part of the resolved target set.
	for _, sink := range []*recordSink{sinkA, sinkB} {
		events := sink.Events()
		req.Len(events, 1)
		req.Equal(EventGroupNotify, events[0].Name)
		req.Equal(SystemSender, events[0].From)
		req.Equal(GroupNotifyBody{Group: "dev", User: "bob", Action: "joined"}, events[0].Payload)
	}
}

func TestRemoveFromGroup_NotifiesRemainingMembers(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, sinkB := connect(t, d, "bob")

	req.Nil(d.Invoke(MethodAddToGroup, a, mustArgs(t, GroupArgs{Group: "dev"})))
	req.Nil(d.Invoke(MethodAddToGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))
	drain(sinkA, sinkB)

	req.Nil(d.Invoke(MethodRemoveFromGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))

	// The leaver is out of the group before the notification resolves.
	req.Empty(sinkB.Events())

	events := sinkA.Events()
	req.Len(events, 1)
	req.Equal(GroupNotifyBody{Group: "dev", User: "bob", Action: "left"}, events[0].Payload)

	req.ElementsMatch([]ConnectionID{a}, d.Groups().MembersOf("dev"))
}

func TestRemoveFromGroup_NeverJoinedIsNoOp(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "alice")
	b, _ := connect(t, d, "bob")

	req.Nil(d.Invoke(MethodAddToGroup, a, mustArgs(t, GroupArgs{Group: "dev"})))
	before := d.Groups().MembersOf("dev")
	drain(sinkA)

	req.Nil(d.Invoke(MethodRemoveFromGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))

	req.ElementsMatch(before, d.Groups().MembersOf("dev"))
}

func TestMethods_MalformedArgs(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, _ := connect(t, d, "alice")

	for _, method := range []string{
		MethodNewMessage,
		MethodSendToGroup,
		MethodSendPrivate,
		MethodAddToGroup,
		MethodRemoveFromGroup,
	} {
		cerr := d.Invoke(method, a, json.RawMessage(`{broken`))
		req.NotNil(cerr, "method %s must reject malformed args", method)
		req.Equal(errs.ErrInvalidParams, cerr.Code)
	}

	// Failed invocations never tear the connection down.
	req.True(d.Registry().IsLive(a))
}

func TestScenario_GroupChatBetweenTwoMembers(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sinkA := connect(t, d, "A")
	b, sinkB := connect(t, d, "B")

	req.Nil(d.Invoke(MethodAddToGroup, a, mustArgs(t, GroupArgs{Group: "dev"})))
	req.Nil(d.Invoke(MethodAddToGroup, b, mustArgs(t, GroupArgs{Group: "dev"})))
	drain(sinkA, sinkB)

	req.Nil(d.Invoke(MethodSendToGroup, a, mustArgs(t, GroupChatArgs{Group: "dev", Body: "hi"})))

	// Both A and B receive it: the sender is itself a member of "dev".
	for _, sink := range []*recordSink{sinkA, sinkB} {
		events := sink.Events()
		req.Len(events, 1)
		req.Equal(EventGroupMessage, events[0].Name)
		req.Equal("A", events[0].From)
		req.Equal(ChatBody{Group: "dev", Body: "hi"}, events[0].Payload)
	}
}
