/*
Package handler provides the HTTP handlers, routing setup, and the WebSocket
transport for the relay server.

This file defines the Peer struct, representing one active WebSocket connection.
It owns the read/write pumps, heartbeat handling, and the buffered outbound
queue that the hub delivers events into.
*/
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relayhub/internal/app/hub"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// capacity of the outbound queue. One writer drains it, so queued events
	// reach the client in enqueue order.
	sendQueueSize = 256

	// WsCloseCodeServerFull is a custom WebSocket Close Code (4000-4999 range)
	// signaling that the handshake was rejected at connection capacity.
	WsCloseCodeServerFull = 4002
)

// Peer represents one active WebSocket connection bound to a hub connection id.
type Peer struct {
	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the dispatcher handling invocations from this connection.
	dispatcher *hub.Dispatcher

	// hub connection id, assigned after registration.
	id hub.ConnectionID

	// user identity bound at negotiate time.
	user string

	// a buffered channel used to queue events waiting to be sent to the client.
	send chan []byte

	// done is closed exactly once when the peer shuts down; Deliver checks it
	// so no send can race a closing connection.
	done     chan struct{}
	doneOnce sync.Once

	// structured logger with peer context.
	logger zerolog.Logger
}

// NewPeer constructs a Peer for the given upgraded connection and user identity.
func NewPeer(wsConn *websocket.Conn, dispatcher *hub.Dispatcher, user string) *Peer {
	return &Peer{
		conn:       wsConn,
		dispatcher: dispatcher,
		user:       user,
		send:       make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
		logger:     logx.Logger().With().Str("user", user).Logger(),
	}
}

// Bind records the hub connection id after registration succeeds.
// Must be called before the pumps start.
func (p *Peer) Bind(id hub.ConnectionID) {
	p.id = id
	p.logger = p.logger.With().Str("connection_id", string(id)).Logger()
}

// Deliver implements hub.Sink. It queues one event for transmission without
// blocking: a full queue or a closed connection fails this delivery only.
func (p *Peer) Deliver(ev hub.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Str("event", ev.Name).Msg("Error marshaling event for client")
		return err
	}

	select {
	case <-p.done:
		return errors.New("connection closed")
	case p.send <- data:
		return nil
	default:
		p.logger.Warn().Int("queue_len", len(p.send)).Msg("Peer send queue full, dropping event")
		return fmt.Errorf("peer send queue full")
	}
}

// Close implements hub.Sink. It sends a normal close frame with the given
// reason and shuts the peer down.
func (p *Peer) Close(reason string) error {
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))

	err := p.conn.WriteMessage(websocket.CloseMessage, closeMessage)

	p.shutdown()

	return err
}

// shutdown marks the peer as done. Safe to call multiple times.
func (p *Peer) shutdown() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// ReadPump reads invocation frames from the WebSocket connection.
// It handles heartbeats (Pong) and performs cleanup upon connection closure.
func (p *Peer) ReadPump() {
	defer p.cleanupOnDisconnect()

	p.conn.SetReadLimit(maxFrameSize)

	if err := p.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		p.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Info().Err(err).Msg("Error reading frame (Client close/going away)")
			}
			break
		}

		p.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect tears the connection down when ReadPump terminates.
// Disconnect purges group membership before the registry entry disappears.
func (p *Peer) cleanupOnDisconnect() {
	p.logger.Info().Msg("Peer connection cleanup starting.")

	p.shutdown()

	p.dispatcher.Disconnect(p.id)

	if err := p.conn.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Peer connection close error")
	}
}

// processInboundFrame parses one raw frame and dispatches the invocation.
// Caller-initiated failures go back to this connection as error frames; the
// connection stays open.
func (p *Peer) processInboundFrame(frameBytes []byte) {
	var frame hub.InvokeFrame

	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		p.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		p.replyError("", errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	if frame.Type != hub.FrameInvoke {
		p.logger.Warn().Str("frame_type", frame.Type).Msg("Client sent unsupported frame type")
		return
	}

	if cerr := p.dispatcher.Invoke(frame.Method, p.id, frame.Args); cerr != nil {
		p.logger.Warn().
			Str("method", frame.Method).
			Int("code", cerr.Code).
			Msg("Invocation failed")
		p.replyError(frame.ID, cerr)
	}
}

// replyError queues an error frame for the caller.
func (p *Peer) replyError(callID string, cerr *errs.CustomError) {
	if err := p.Deliver(hub.NewErrorEvent(callID, cerr.Code, cerr.Message)); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to queue error frame")
	}
}

// WritePump writes queued events from the send channel to the WebSocket
// connection and keeps the heartbeat alive.
func (p *Peer) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := p.conn.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Peer connection close error in WritePump")
		}
	}()

	for {
		select {
		case <-p.done:
			p.writeCloseMessage()
			return

		case data := <-p.send:
			if !p.writeQueuedEvent(data) {
				return
			}

		case <-ticker.C:
			if !p.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedEvent writes one queued event to the WebSocket.
// Returns true if the WritePump loop should continue.
func (p *Peer) writeQueuedEvent(data []byte) bool {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		p.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		p.logger.Error().Err(err).Msg("Error writing event")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (p *Peer) writePingMessage() bool {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		p.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		p.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// writeCloseMessage sends a close frame when the peer shuts down from the
// server side.
func (p *Peer) writeCloseMessage() {
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := p.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		p.logger.Debug().Err(err).Msg("Error writing close message")
	}
}
