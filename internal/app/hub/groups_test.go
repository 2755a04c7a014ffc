package hub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"relayhub/internal/pkg/errs"
)

func newTestTable(t *testing.T) (*Registry, *GroupTable) {
	t.Helper()

	registry := NewRegistry(0)
	groups := NewGroupTable(registry)
	registry.OnUnregister(groups.Purge)

	return registry, groups
}

func TestGroupTable_JoinCreatesGroupImplicitly(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)

	req.Equal(0, groups.Count())
	req.Nil(groups.Join("dev", id))
	req.Equal(1, groups.Count())
	req.ElementsMatch([]ConnectionID{id}, groups.MembersOf("dev"))
}

func TestGroupTable_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("dev", id))
	req.Nil(groups.Join("dev", id))

	req.Len(groups.MembersOf("dev"), 1)
}

func TestGroupTable_JoinRejectsDeadConnection(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	registry.Unregister(id)

	cerr = groups.Join("dev", id)
	req.NotNil(cerr)
	req.Equal(errs.ErrUnknownConnection, cerr.Code)
	req.Empty(groups.MembersOf("dev"))
}

func TestGroupTable_JoinRejectsEmptyGroupName(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)

	cerr = groups.Join("", id)
	req.NotNil(cerr)
	req.Equal(errs.ErrGroupNameInvalid, cerr.Code)
}

func TestGroupTable_JoinThenLeaveRoundTrips(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	a, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	b, cerr := registry.Register("bob", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("dev", a))
	before := groups.MembersOf("dev")

	req.Nil(groups.Join("dev", b))
	groups.Leave("dev", b)

	req.ElementsMatch(before, groups.MembersOf("dev"))
}

func TestGroupTable_LeaveIsIdempotentNoOp(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	a, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	req.Nil(groups.Join("dev", a))

	b, cerr := registry.Register("bob", &recordSink{})
	req.Nil(cerr)

	// Leaving a group the connection never joined changes nothing.
	groups.Leave("dev", b)
	req.ElementsMatch([]ConnectionID{a}, groups.MembersOf("dev"))

	// Leaving a nonexistent group is a no-op as well.
	groups.Leave("ghost", b)
	req.Empty(groups.MembersOf("ghost"))
}

func TestGroupTable_EmptyGroupIsGarbageCollected(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("dev", id))
	req.Equal(1, groups.Count())

	groups.Leave("dev", id)
	req.Equal(0, groups.Count())
	req.Empty(groups.MembersOf("dev"))
}

func TestGroupTable_PurgeRemovesAllMemberships(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	a, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	b, cerr := registry.Register("bob", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("dev", a))
	req.Nil(groups.Join("ops", a))
	req.Nil(groups.Join("dev", b))

	groups.Purge(a)

	req.ElementsMatch([]ConnectionID{b}, groups.MembersOf("dev"))
	req.Empty(groups.MembersOf("ops"))
	req.Equal(1, groups.Count())
}

func TestGroupTable_NoDanglingMembershipAfterUnregister(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	a, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	b, cerr := registry.Register("bob", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("dev", a))
	req.Nil(groups.Join("ops", a))
	req.Nil(groups.Join("dev", b))

	// Unregister purges every membership before it returns.
	registry.Unregister(a)

	for _, group := range []string{"dev", "ops"} {
		req.NotContains(groups.MembersOf(group), a, "group %q still references the dead connection", group)
	}
	req.ElementsMatch([]ConnectionID{b}, groups.MembersOf("dev"))
}

func TestGroupTable_MembersOfReturnsSnapshot(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	a, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)
	req.Nil(groups.Join("dev", a))

	snapshot := groups.MembersOf("dev")

	b, cerr := registry.Register("bob", &recordSink{})
	req.Nil(cerr)
	req.Nil(groups.Join("dev", b))

	// The earlier snapshot is a copy, not a live view.
	req.Len(snapshot, 1)
	req.Len(groups.MembersOf("dev"), 2)
}

func TestGroupTable_GroupNamesAreCaseSensitive(t *testing.T) {
	req := require.New(t)
	registry, groups := newTestTable(t)

	id, cerr := registry.Register("alice", &recordSink{})
	req.Nil(cerr)

	req.Nil(groups.Join("Dev", id))
	req.Empty(groups.MembersOf("dev"))
	req.Len(groups.MembersOf("Dev"), 1)
}
