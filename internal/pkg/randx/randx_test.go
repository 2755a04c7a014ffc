package randx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuestID_ShapeAndUniqueness(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id, err := GuestID()
		req.NoError(err)
		req.True(IsGuestID(id), "generated id %q must validate", id)
		seen[id] = struct{}{}
	}

	req.Greater(len(seen), 1, "generated guest ids must not collide constantly")
}

func TestIsGuestID_RejectsMalformedIds(t *testing.T) {
	req := require.New(t)

	for _, id := range []string{
		"",
		"guest_",
		"guest_abc",
		"guest_abc!@#",
		"user_abcdef",
		"guest_abcdefg",
	} {
		req.False(IsGuestID(id), "id %q must be rejected", id)
	}
}
