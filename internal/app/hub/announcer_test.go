package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnnouncer_BroadcastsServerStats(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	a, sink := connect(t, d, "alice")
	req.Nil(d.Groups().Join("dev", a))
	drain(sink)

	announcer := NewAnnouncer(d, 10*time.Millisecond)
	announcer.Start()
	defer announcer.Stop()

	req.Eventually(func() bool {
		for _, ev := range sink.Events() {
			if ev.Name == EventServerStats {
				stats, ok := ev.Payload.(ServerStatsBody)
				return ok && stats.Connections == 1 && stats.Groups == 1
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestAnnouncer_DisabledWhenIntervalZero(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t)

	_, sink := connect(t, d, "alice")
	drain(sink)

	announcer := NewAnnouncer(d, 0)
	announcer.Start()

	time.Sleep(50 * time.Millisecond)
	req.Empty(sink.Events())

	// Stop must not hang even though the loop never ran.
	announcer.Stop()
}

func TestAnnouncer_StopIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t)

	announcer := NewAnnouncer(d, time.Hour)
	announcer.Start()

	announcer.Stop()
	announcer.Stop()
}
