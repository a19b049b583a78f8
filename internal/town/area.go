package town

// ConversationArea is a labelled, topic-bearing rectangular region of the
// town map. Participants whose reported location carries the area's label
// are its occupants; an area is destroyed the moment its last occupant
// leaves.
type ConversationArea struct {
	// Label uniquely identifies the area within its town.
	Label string
	// Topic is the display topic shown to participants.
	Topic string
	// Bounds is the region a participant must stand inside to be attached
	// when the area is created.
	Bounds BoundingBox
	// OccupantIDs lists occupant participant IDs in attach order.
	OccupantIDs []string
}

// addOccupant appends id to the occupant list.
//
// Postcondition: Returns true if the list changed, false if id was already
// present.
func (a *ConversationArea) addOccupant(id string) bool {
	for _, o := range a.OccupantIDs {
		if o == id {
			return false
		}
	}
	a.OccupantIDs = append(a.OccupantIDs, id)
	return true
}

// removeOccupant removes id from the occupant list, preserving the order of
// the remaining occupants.
//
// Postcondition: Returns true if the list changed, false if id was absent.
func (a *ConversationArea) removeOccupant(id string) bool {
	for i, o := range a.OccupantIDs {
		if o == id {
			a.OccupantIDs = append(a.OccupantIDs[:i], a.OccupantIDs[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the area has no occupants.
func (a *ConversationArea) IsEmpty() bool {
	return len(a.OccupantIDs) == 0
}

// snapshot returns a copy with its own occupant slice, safe to read outside
// the owning State's lock. Caller must hold the State's lock.
func (a *ConversationArea) snapshot() ConversationArea {
	c := *a
	c.OccupantIDs = make([]string, len(a.OccupantIDs))
	copy(c.OccupantIDs, a.OccupantIDs)
	return c
}
