package town

import "github.com/google/uuid"

// Participant is one connected member of a town's roster.
// Fields other than ID and Name are mutated only by the owning State,
// under its lock.
type Participant struct {
	// ID is the unique participant identifier.
	ID string
	// Name is the display name shown to other participants.
	Name string
	// Location is the last reported position and orientation.
	Location Location

	// activeArea is the conversation area this participant currently
	// occupies, or nil.
	activeArea *ConversationArea
}

// NewParticipant creates a Participant with a fresh unique ID, placed at the
// map origin facing front.
//
// Precondition: name must be non-empty.
func NewParticipant(name string) *Participant {
	return &Participant{
		ID:       uuid.NewString(),
		Name:     name,
		Location: Location{Orientation: "front"},
	}
}

// ActiveConversationArea returns the conversation area the participant
// currently occupies, or nil when it occupies none.
func (p *Participant) ActiveConversationArea() *ConversationArea {
	return p.activeArea
}

// snapshot returns a copy safe to read outside the owning State's lock.
// The active-area pointer is not carried. Caller must hold the State's lock.
func (p *Participant) snapshot() Participant {
	c := *p
	c.activeArea = nil
	return c
}
