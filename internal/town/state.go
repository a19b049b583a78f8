// Package town implements the authoritative in-process state for one shared
// real-time space: its participant roster, session registry, conversation
// areas, and the listener fan-out that decouples state changes from any
// transport.
package town

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// VideoProvisioner issues a video-room access credential for one participant
// of one town. Join consults it exactly once per admission and commits no
// state when it fails.
type VideoProvisioner interface {
	AccessToken(ctx context.Context, townID, participantID string) (string, error)
}

// State is the authoritative state machine for a single town. All mutating
// operations are serialized by an exclusive per-town lock; listener
// notifications are queued during the mutation and delivered, in order, after
// the lock is released but before the operation returns. Notifications and
// read accessors hand out value copies captured under the lock, never live
// roster or area storage.
type State struct {
	// ID is the unique town identifier, assigned by the Registry.
	ID string

	video VideoProvisioner

	mu           sync.RWMutex
	friendlyName string
	public       bool
	passwordHash []byte
	capacity     int
	participants map[string]*Participant
	sessions     map[string]*Session
	areas        []*ConversationArea

	listeners listenerSet
}

// NewState creates an empty town.
//
// Precondition: id and friendlyName must be non-empty; capacity must be > 0;
// video must be non-nil. passwordHash is the bcrypt hash guarding update and
// delete; it may be nil for towns that are never updated (tests).
func NewState(id, friendlyName string, public bool, capacity int, passwordHash []byte, video VideoProvisioner) *State {
	return &State{
		ID:           id,
		video:        video,
		friendlyName: friendlyName,
		public:       public,
		passwordHash: passwordHash,
		capacity:     capacity,
		participants: make(map[string]*Participant),
		sessions:     make(map[string]*Session),
	}
}

// Join admits a participant: provisions a video token, registers a new
// session, and adds the participant to the roster.
//
// Precondition: p must not already be on the roster.
// Postcondition: On success every listener received ParticipantJoined and
// the returned session resolves via SessionByToken. On error no state
// changed.
func (s *State) Join(ctx context.Context, p *Participant) (*Session, error) {
	// Provision before touching any state, so a provisioning failure never
	// leaves a partial roster and the lock is never held across network I/O.
	videoToken, err := s.video.AccessToken(ctx, s.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("provisioning video token for participant %q: %w", p.ID, err)
	}

	s.mu.Lock()
	sess := newSession(p)
	sess.VideoToken = videoToken
	s.participants[p.ID] = p
	s.sessions[sess.Token] = sess
	snap := p.snapshot()
	s.mu.Unlock()

	s.listeners.broadcast(func(l Listener) { l.ParticipantJoined(snap) })
	return sess, nil
}

// SessionByToken resolves a session token.
//
// Postcondition: Returns (session, true) if the token identifies a live
// session, or (nil, false) otherwise. An unknown token is an authorization
// failure for the caller to handle, not a defect.
func (s *State) SessionByToken(token string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// DestroySession removes the session's participant from the roster and from
// any conversation area it occupies, then invalidates the token.
//
// Precondition: sess must be a live session of this town; destroying a
// session twice is a caller error.
// Postcondition: Listeners received any area notifications caused by the
// departure, then ParticipantDisconnected.
func (s *State) DestroySession(sess *Session) {
	p := sess.Participant

	s.mu.Lock()
	pending := s.detachFromArea(p)
	delete(s.participants, p.ID)
	delete(s.sessions, sess.Token)
	snap := p.snapshot()
	s.mu.Unlock()

	s.flush(pending)
	s.listeners.broadcast(func(l Listener) { l.ParticipantDisconnected(snap) })
}

// UpdateLocation overwrites the participant's location and recomputes
// conversation-area membership from the reported label.
//
// Precondition: p must be on the roster.
// Postcondition: Listeners received one ConversationAreaUpdated per area
// whose occupant list actually changed (and ConversationAreaDestroyed for an
// area emptied by the departure), then ParticipantMoved. Applying the same
// update twice produces area notifications only once.
func (s *State) UpdateLocation(p *Participant, loc Location) {
	s.mu.Lock()
	var next *ConversationArea
	if loc.Conversation != "" {
		next = s.areaByLabel(loc.Conversation)
	}

	p.Location = loc

	var pending []notification
	if next != p.activeArea {
		pending = s.detachFromArea(p)
		if next != nil {
			next.addOccupant(p.ID)
			p.activeArea = next
			pending = append(pending, areaUpdated(next))
		}
	}
	snap := p.snapshot()
	s.mu.Unlock()

	s.flush(pending)
	s.listeners.broadcast(func(l Listener) { l.ParticipantMoved(snap) })
}

// AddConversationArea activates a candidate conversation area.
//
// Postcondition: Returns false, with no mutation or notification, when the
// label or topic is empty, the bounds are malformed, the label duplicates an
// active area, or the bounds overlap an active area. On acceptance every
// participant standing strictly inside the bounds is attached as an
// occupant, detached first from any area it already occupied (destroying
// that area if it emptied), listeners receive those detach notifications
// followed by exactly one ConversationAreaUpdated for the new area, and the
// method returns true.
func (s *State) AddConversationArea(candidate ConversationArea) bool {
	s.mu.Lock()
	if candidate.Label == "" || candidate.Topic == "" || !candidate.Bounds.Valid() {
		s.mu.Unlock()
		return false
	}
	for _, a := range s.areas {
		if a.Label == candidate.Label || a.Bounds.Overlaps(candidate.Bounds) {
			s.mu.Unlock()
			return false
		}
	}

	area := &ConversationArea{
		Label:  candidate.Label,
		Topic:  candidate.Topic,
		Bounds: candidate.Bounds,
	}
	s.areas = append(s.areas, area)
	var pending []notification
	for _, p := range s.participants {
		if area.Bounds.Contains(p.Location.X, p.Location.Y) {
			pending = append(pending, s.detachFromArea(p)...)
			area.addOccupant(p.ID)
			p.activeArea = area
		}
	}
	created := areaUpdated(area)
	s.mu.Unlock()

	s.flush(pending)
	s.listeners.broadcast(created)
	return true
}

// DisconnectAll broadcasts TownClosing to every listener. It does not clear
// the roster; the transport terminates its own connections in response, and
// each termination destroys its session through the usual path.
func (s *State) DisconnectAll() {
	s.listeners.broadcast(func(l Listener) { l.TownClosing() })
}

// Subscribe registers a listener for this town's notifications.
func (s *State) Subscribe(l Listener) {
	s.listeners.add(l)
}

// Unsubscribe removes a previously registered listener. No-op if l was never
// subscribed. Safe to call from inside a notification callback.
func (s *State) Unsubscribe(l Listener) {
	s.listeners.remove(l)
}

// Participants returns a copy of the current roster.
//
// Postcondition: Returns a non-nil slice; may be empty. Order is not
// significant. Entries are value copies; later operations on the town do not
// show through them.
func (s *State) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p.snapshot())
	}
	return out
}

// ConversationAreas returns a copy of the currently active conversation
// areas in creation order. Entries are value copies with their own occupant
// slices.
func (s *State) ConversationAreas() []ConversationArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConversationArea, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, a.snapshot())
	}
	return out
}

// FriendlyName returns the town's display name.
func (s *State) FriendlyName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.friendlyName
}

// SetFriendlyName updates the town's display name.
//
// Precondition: name must be non-empty.
func (s *State) SetFriendlyName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friendlyName = name
}

// IsPubliclyListed reports whether the town appears in the public listing.
func (s *State) IsPubliclyListed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.public
}

// SetPubliclyListed updates the town's visibility flag.
func (s *State) SetPubliclyListed(public bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public = public
}

// Capacity returns the maximum occupancy admitted by the join surface.
func (s *State) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

// Occupancy returns the number of currently subscribed listeners, the proxy
// for connected participant count.
func (s *State) Occupancy() int {
	return s.listeners.count()
}

// CheckPassword reports whether password matches the town's update password.
func (s *State) CheckPassword(password string) bool {
	s.mu.RLock()
	hash := s.passwordHash
	s.mu.RUnlock()
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// areaByLabel returns the active area with the given label, or nil.
// Caller must hold s.mu.
func (s *State) areaByLabel(label string) *ConversationArea {
	for _, a := range s.areas {
		if a.Label == label {
			return a
		}
	}
	return nil
}

// detachFromArea removes p from its current conversation area, destroying
// the area if p was its last occupant. Caller must hold s.mu.
//
// Postcondition: Returns the notifications to deliver once the lock is
// released: ConversationAreaDestroyed if the area emptied, otherwise
// ConversationAreaUpdated if the occupant list changed; nil when p occupied
// no area.
func (s *State) detachFromArea(p *Participant) []notification {
	area := p.activeArea
	if area == nil {
		return nil
	}
	p.activeArea = nil

	if !area.removeOccupant(p.ID) {
		return nil
	}
	if area.IsEmpty() {
		s.removeArea(area)
		return []notification{areaDestroyed(area)}
	}
	return []notification{areaUpdated(area)}
}

// removeArea deletes area from the active index. Caller must hold s.mu.
func (s *State) removeArea(area *ConversationArea) {
	for i, a := range s.areas {
		if a == area {
			s.areas = append(s.areas[:i], s.areas[i+1:]...)
			return
		}
	}
}

// flush delivers queued notifications in order.
func (s *State) flush(pending []notification) {
	for _, n := range pending {
		s.listeners.broadcast(n)
	}
}

// areaUpdated captures the area's current contents into the notification.
// Caller must hold s.mu so the snapshot is consistent.
func areaUpdated(a *ConversationArea) notification {
	snap := a.snapshot()
	return func(l Listener) { l.ConversationAreaUpdated(snap) }
}

// areaDestroyed captures the destroyed area into the notification.
// Caller must hold s.mu.
func areaDestroyed(a *ConversationArea) notification {
	snap := a.snapshot()
	return func(l Listener) { l.ConversationAreaDestroyed(snap) }
}
