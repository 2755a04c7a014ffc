/*
Package hub contains the core logic for tracking live connections, group membership,
and fanning out messages to connections.

This file defines the Announcer, a ticker-driven loop that periodically
broadcasts server statistics to every live connection.
*/
package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"relayhub/internal/pkg/logx"
)

// Announcer periodically broadcasts a serverStats event to all connections.
type Announcer struct {
	dispatcher *Dispatcher
	interval   time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewAnnouncer constructs an Announcer broadcasting every interval.
// An interval of zero or less disables the announcer entirely.
func NewAnnouncer(dispatcher *Dispatcher, interval time.Duration) *Announcer {
	return &Announcer{
		dispatcher: dispatcher,
		interval:   interval,
		stopChan:   make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Announcer").Logger(),
	}
}

// Start launches the broadcast loop in its own goroutine.
func (a *Announcer) Start() {
	if a.interval <= 0 {
		a.logger.Info().Msg("Stats broadcast disabled.")
		return
	}

	a.wg.Add(1)

	go a.run()
}

// run is the ticker loop. It exits when Stop is called.
func (a *Announcer) run() {
	defer a.wg.Done()

	a.logger.Info().Dur("interval", a.interval).Msg("Stats broadcast loop started.")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.broadcastStats()

		case <-a.stopChan:
			a.logger.Info().Msg("Stats broadcast loop stopped.")
			return
		}
	}
}

// broadcastStats sends one serverStats event to every live connection.
func (a *Announcer) broadcastStats() {
	stats := ServerStatsBody{
		Connections: a.dispatcher.Registry().Count(),
		Groups:      a.dispatcher.Groups().Count(),
	}

	a.dispatcher.BroadcastAll(NewEvent(EventServerStats, SystemSender, stats))
}

// Stop terminates the broadcast loop and waits for it to exit. Idempotent.
func (a *Announcer) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
	})

	a.wg.Wait()
}
