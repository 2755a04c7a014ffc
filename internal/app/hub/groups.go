/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file defines the GroupTable, which maps group names to member connection sets.
Groups are created implicitly on first join and garbage-collected when their last
member leaves.
*/
package hub

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

// Liveness is the view of the Registry the GroupTable needs to validate joins.
type Liveness interface {
	IsLive(id ConnectionID) bool
}

// GroupTable maps group names to member connection sets.
// All methods are safe for concurrent use; a single mutex linearizes every
// mutation so a join, leave, and purge on the same group never interleave.
type GroupTable struct {
	mu     sync.RWMutex
	groups map[string]map[ConnectionID]struct{}

	live   Liveness
	logger zerolog.Logger
}

// NewGroupTable constructs a GroupTable validating membership against live.
func NewGroupTable(live Liveness) *GroupTable {
	return &GroupTable{
		groups: make(map[string]map[ConnectionID]struct{}),
		live:   live,
		logger: logx.Logger().With().Str("component", "GroupTable").Logger(),
	}
}

// Join adds id to the member set of group, creating the group if absent.
// Joining a group twice is a no-op. It fails with ErrGroupNameInvalid for an
// empty group name and ErrUnknownConnection when id is not live.
func (t *GroupTable) Join(group string, id ConnectionID) *errs.CustomError {
	if group == "" {
		return errs.NewError(errs.ErrGroupNameInvalid)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Checked under the table lock so a concurrent purge for id cannot slip in
	// between the liveness check and the insert.
	if !t.live.IsLive(id) {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	members, ok := t.groups[group]
	if !ok {
		members = make(map[ConnectionID]struct{})
		t.groups[group] = members

		t.logger.Info().Str("group", group).Msg("Group created.")
	}

	if _, exists := members[id]; exists {
		return nil
	}

	members[id] = struct{}{}

	t.logger.Info().
		Str("group", group).
		Str("connection_id", string(id)).
		Int("members", len(members)).
		Msg("Connection joined group.")

	return nil
}

// Leave removes id from the group. Leaving a group the connection is not in,
// or a nonexistent group, is a no-op. An emptied group is deleted.
func (t *GroupTable) Leave(group string, id ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeMember(group, id)
}

// MembersOf returns a snapshot of the current members of group, or an empty
// slice when the group does not exist.
func (t *GroupTable) MembersOf(group string) []ConnectionID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.groups[group]
	if !ok {
		return []ConnectionID{}
	}

	return lo.Keys(members)
}

// Contains reports whether id is currently a member of group.
func (t *GroupTable) Contains(group string, id ConnectionID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.groups[group]
	if !ok {
		return false
	}

	_, exists := members[id]
	return exists
}

// Purge removes id from every group it belongs to. The Registry calls this
// synchronously while unregistering, so no dangling membership survives a
// disconnect.
func (t *GroupTable) Purge(id ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for group := range t.groups {
		t.removeMember(group, id)
	}
}

// Count returns the number of currently existing groups.
func (t *GroupTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.groups)
}

// removeMember deletes id from group and garbage-collects the group when its
// member set becomes empty. Callers must hold t.mu.
func (t *GroupTable) removeMember(group string, id ConnectionID) {
	members, ok := t.groups[group]
	if !ok {
		return
	}

	if _, exists := members[id]; !exists {
		return
	}

	delete(members, id)

	t.logger.Info().
		Str("group", group).
		Str("connection_id", string(id)).
		Int("members", len(members)).
		Msg("Connection left group.")

	if len(members) == 0 {
		delete(t.groups, group)

		t.logger.Info().Str("group", group).Msg("Empty group removed.")
	}
}
