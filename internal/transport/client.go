package transport

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meetgrid/townsquare/internal/town"
)

const sendBufferSize = 64

// client is one WebSocket connection bound to a live session. It implements
// town.Listener: notifications are serialized to JSON frames and queued on a
// buffered channel drained by the write pump, so a slow connection never
// blocks the state machine.
type client struct {
	conn   *websocket.Conn
	state  *town.State
	sess   *town.Session
	logger *zap.Logger

	send chan []byte
	quit chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, state *town.State, sess *town.Session, logger *zap.Logger) *client {
	return &client{
		conn:   conn,
		state:  state,
		sess:   sess,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		quit:   make(chan struct{}),
	}
}

// ParticipantJoined implements town.Listener.
func (c *client) ParticipantJoined(p town.Participant) {
	c.push(frameParticipantJoined, toWireParticipant(p))
}

// ParticipantMoved implements town.Listener.
func (c *client) ParticipantMoved(p town.Participant) {
	c.push(frameParticipantMoved, toWireParticipant(p))
}

// ParticipantDisconnected implements town.Listener.
func (c *client) ParticipantDisconnected(p town.Participant) {
	c.push(frameParticipantDisconnected, toWireParticipant(p))
}

// ConversationAreaUpdated implements town.Listener.
func (c *client) ConversationAreaUpdated(a town.ConversationArea) {
	c.push(frameAreaUpdated, toWireArea(a))
}

// ConversationAreaDestroyed implements town.Listener.
func (c *client) ConversationAreaDestroyed(a town.ConversationArea) {
	c.push(frameAreaDestroyed, toWireArea(a))
}

// TownClosing implements town.Listener. The connection terminates itself;
// the state machine never clears the roster on town teardown.
func (c *client) TownClosing() {
	c.push(frameTownClosing, struct{}{})
	c.close()
}

// push serializes a frame and queues it for the write pump. Frames are
// dropped when the buffer is full; delivery is fire-and-forget.
func (c *client) push(frameType string, payload any) {
	data, err := encodeFrame(frameType, payload)
	if err != nil {
		c.logger.Warn("encoding frame",
			zap.String("frame", frameType),
			zap.Error(err),
		)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping frame",
			zap.String("frame", frameType),
			zap.String("participant", c.sess.Participant.ID),
		)
	}
}

// close requests connection teardown. Idempotent.
func (c *client) close() {
	c.once.Do(func() { close(c.quit) })
}

// readPump relays inbound frames into town operations until the connection
// drops, then destroys the session.
func (c *client) readPump() {
	defer func() {
		c.state.Unsubscribe(c)
		c.state.DestroySession(c.sess)
		c.close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleFrame(data)
	}
}

// writePump drains the send queue onto the socket until close is requested,
// then closes the underlying connection, which unblocks the read pump.
func (c *client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-c.quit:
			// Drain anything queued before the close request.
			for {
				select {
				case data := <-c.send:
					if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				default:
					_ = c.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *client) handleFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Debug("discarding malformed frame", zap.Error(err))
		return
	}

	switch env.Type {
	case frameMovement:
		var loc wireLocation
		if err := json.Unmarshal(env.Payload, &loc); err != nil {
			c.logger.Debug("discarding malformed movement", zap.Error(err))
			return
		}
		c.state.UpdateLocation(c.sess.Participant, fromWireLocation(loc))

	case frameCreateArea:
		var area wireArea
		if err := json.Unmarshal(env.Payload, &area); err != nil {
			c.logger.Debug("discarding malformed area request", zap.Error(err))
			return
		}
		ok := c.state.AddConversationArea(fromWireArea(area))
		c.push(frameAreaCreateResult, struct {
			Label string `json:"label"`
			OK    bool   `json:"ok"`
		}{Label: area.Label, OK: ok})

	default:
		c.logger.Debug("discarding unknown frame type", zap.String("type", env.Type))
	}
}
