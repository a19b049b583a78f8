package town

import "github.com/google/uuid"

// Session is the live, authenticated binding between a participant and the
// opaque token the transport presents on its behalf. A token maps to at most
// one live session and is never reused.
type Session struct {
	// Token is the opaque, unguessable session identifier. Collaborators
	// must not rely on its structure.
	Token string
	// Participant is the roster member this session authenticates.
	Participant *Participant
	// VideoToken grants the participant access to the town's video room.
	VideoToken string
}

// newSession pairs p with a fresh random token. The video token is attached
// by Join once provisioning succeeds.
func newSession(p *Participant) *Session {
	return &Session{
		Token:       uuid.NewString(),
		Participant: p,
	}
}
