package transport

import (
	"encoding/json"

	"github.com/meetgrid/townsquare/internal/town"
)

// Frame type identifiers for both directions of the socket.
const (
	frameParticipantJoined       = "participantJoined"
	frameParticipantMoved        = "participantMoved"
	frameParticipantDisconnected = "participantDisconnected"
	frameAreaUpdated             = "conversationAreaUpdated"
	frameAreaDestroyed           = "conversationAreaDestroyed"
	frameTownClosing             = "townClosing"
	frameAreaCreateResult        = "conversationAreaCreateResult"

	frameMovement   = "movement"
	frameCreateArea = "createConversationArea"
)

// envelope is the outer structure of every frame on the wire.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wireLocation is the JSON representation of a participant location.
type wireLocation struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Orientation  string  `json:"orientation"`
	Moving       bool    `json:"moving"`
	Conversation string  `json:"conversationLabel,omitempty"`
}

// wireParticipant is the JSON representation of a roster member.
type wireParticipant struct {
	ID       string       `json:"id"`
	Name     string       `json:"userName"`
	Location wireLocation `json:"location"`
}

// wireArea is the JSON representation of a conversation area.
type wireArea struct {
	Label       string   `json:"label"`
	Topic       string   `json:"topic"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	OccupantIDs []string `json:"occupantIDs"`
}

func toWireLocation(loc town.Location) wireLocation {
	return wireLocation{
		X:            loc.X,
		Y:            loc.Y,
		Orientation:  loc.Orientation,
		Moving:       loc.Moving,
		Conversation: loc.Conversation,
	}
}

func fromWireLocation(loc wireLocation) town.Location {
	return town.Location{
		X:            loc.X,
		Y:            loc.Y,
		Orientation:  loc.Orientation,
		Moving:       loc.Moving,
		Conversation: loc.Conversation,
	}
}

func toWireParticipant(p town.Participant) wireParticipant {
	return wireParticipant{
		ID:       p.ID,
		Name:     p.Name,
		Location: toWireLocation(p.Location),
	}
}

func toWireArea(a town.ConversationArea) wireArea {
	occupants := make([]string, len(a.OccupantIDs))
	copy(occupants, a.OccupantIDs)
	return wireArea{
		Label:       a.Label,
		Topic:       a.Topic,
		X:           a.Bounds.X,
		Y:           a.Bounds.Y,
		Width:       a.Bounds.W,
		Height:      a.Bounds.H,
		OccupantIDs: occupants,
	}
}

func fromWireArea(a wireArea) town.ConversationArea {
	return town.ConversationArea{
		Label: a.Label,
		Topic: a.Topic,
		Bounds: town.BoundingBox{
			X: a.X,
			Y: a.Y,
			W: a.Width,
			H: a.Height,
		},
	}
}

// encodeFrame marshals a typed payload into an envelope frame.
func encodeFrame(frameType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: frameType, Payload: raw})
}
