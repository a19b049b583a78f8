package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meetgrid/townsquare/internal/town"
)

type stubProvisioner struct{}

func (stubProvisioner) AccessToken(_ context.Context, townID, participantID string) (string, error) {
	return "video-" + townID + "-" + participantID, nil
}

func newWSFixture(t *testing.T) (*town.State, *httptest.Server) {
	t.Helper()
	registry := town.NewRegistry(stubProvisioner{}, 50)
	state, _, err := registry.CreateTown("Riverside", true)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(registry, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)
	return state, srv
}

func dialWS(t *testing.T, srv *httptest.Server, townID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?townId=" + townID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads frames until one of the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type == wantType {
			return env.Payload
		}
	}
}

func TestHandler_RejectsUnknownTown(t *testing.T) {
	_, srv := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?townId=no-such-town&token=whatever"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	state, srv := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?townId=" + state.ID + "&token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_MovementRoundTrip(t *testing.T) {
	state, srv := newWSFixture(t)
	p := town.NewParticipant("alice")
	sess, err := state.Join(context.Background(), p)
	require.NoError(t, err)

	conn := dialWS(t, srv, state.ID, sess.Token)
	require.Eventually(t, func() bool { return state.Occupancy() == 1 },
		2*time.Second, 10*time.Millisecond)

	frame, err := encodeFrame(frameMovement, wireLocation{X: 7, Y: 9, Orientation: "right"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	payload := readFrame(t, conn, frameParticipantMoved)
	var moved wireParticipant
	require.NoError(t, json.Unmarshal(payload, &moved))
	assert.Equal(t, p.ID, moved.ID)
	assert.Equal(t, 7.0, moved.Location.X)
	assert.Equal(t, 9.0, moved.Location.Y)
}

func TestHandler_CreateAreaResult(t *testing.T) {
	state, srv := newWSFixture(t)
	p := town.NewParticipant("alice")
	sess, err := state.Join(context.Background(), p)
	require.NoError(t, err)

	conn := dialWS(t, srv, state.ID, sess.Token)

	frame, err := encodeFrame(frameCreateArea, wireArea{
		Label: "porch", Topic: "weather", X: 10, Y: 10, Width: 5, Height: 5,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	payload := readFrame(t, conn, frameAreaCreateResult)
	var result struct {
		Label string `json:"label"`
		OK    bool   `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, "porch", result.Label)
	assert.True(t, result.OK)

	require.Eventually(t, func() bool { return len(state.ConversationAreas()) == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestHandler_DisconnectDestroysSession(t *testing.T) {
	state, srv := newWSFixture(t)
	p := town.NewParticipant("alice")
	sess, err := state.Join(context.Background(), p)
	require.NoError(t, err)

	conn := dialWS(t, srv, state.ID, sess.Token)
	require.Eventually(t, func() bool { return state.Occupancy() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		_, ok := state.SessionByToken(sess.Token)
		return !ok && state.Occupancy() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, state.Participants())
}

func TestHandler_TownClosingTerminatesConnection(t *testing.T) {
	state, srv := newWSFixture(t)
	p := town.NewParticipant("alice")
	sess, err := state.Join(context.Background(), p)
	require.NoError(t, err)

	conn := dialWS(t, srv, state.ID, sess.Token)
	require.Eventually(t, func() bool { return state.Occupancy() == 1 },
		2*time.Second, 10*time.Millisecond)

	state.DisconnectAll()

	readFrame(t, conn, frameTownClosing)
	// The server closes the connection after the closing frame.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
