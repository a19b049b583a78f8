package town

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by registry operations. Handlers branch on these to pick
// response codes.
var (
	// ErrTownNotFound reports an unknown town ID.
	ErrTownNotFound = errors.New("town not found")
	// ErrInvalidPassword reports a failed update-password check.
	ErrInvalidPassword = errors.New("invalid town update password")
	// ErrTownFull reports a join rejected because occupancy reached capacity.
	ErrTownFull = errors.New("town is at capacity")
)

// Summary is one row of the public town listing.
type Summary struct {
	ID           string
	FriendlyName string
	Occupancy    int
	Capacity     int
}

// Registry owns the lifetime of every town State in the process. Towns are
// fully independent of each other; the registry only tracks them by ID.
type Registry struct {
	video           VideoProvisioner
	defaultCapacity int

	mu    sync.RWMutex
	towns map[string]*State
}

// NewRegistry creates an empty Registry.
//
// Precondition: video must be non-nil; defaultCapacity must be > 0.
func NewRegistry(video VideoProvisioner, defaultCapacity int) *Registry {
	return &Registry{
		video:           video,
		defaultCapacity: defaultCapacity,
		towns:           make(map[string]*State),
	}
}

// CreateTown creates a town with a fresh ID and a generated update password.
//
// Precondition: friendlyName must be non-empty.
// Postcondition: Returns the new State and the plaintext update password.
// The password is returned exactly once; only its bcrypt hash is retained.
func (r *Registry) CreateTown(friendlyName string, public bool) (*State, string, error) {
	if friendlyName == "" {
		return nil, "", fmt.Errorf("friendly name must not be empty")
	}

	password := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing town password: %w", err)
	}

	state := NewState(uuid.NewString(), friendlyName, public, r.defaultCapacity, hash, r.video)

	r.mu.Lock()
	r.towns[state.ID] = state
	r.mu.Unlock()

	return state, password, nil
}

// TownByID resolves a town ID.
//
// Postcondition: Returns (state, true) if found, or (nil, false) otherwise.
func (r *Registry) TownByID(id string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.towns[id]
	return t, ok
}

// PublicTowns returns a summary of every publicly listed town.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) PublicTowns() []Summary {
	r.mu.RLock()
	towns := make([]*State, 0, len(r.towns))
	for _, t := range r.towns {
		towns = append(towns, t)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(towns))
	for _, t := range towns {
		if !t.IsPubliclyListed() {
			continue
		}
		out = append(out, Summary{
			ID:           t.ID,
			FriendlyName: t.FriendlyName(),
			Occupancy:    t.Occupancy(),
			Capacity:     t.Capacity(),
		})
	}
	return out
}

// UpdateTown changes a town's friendly name and/or visibility.
//
// Precondition: password must be the town's update password.
// Postcondition: Nil fields are left unchanged. Returns ErrTownNotFound or
// ErrInvalidPassword on failure, with no changes applied.
func (r *Registry) UpdateTown(id, password string, friendlyName *string, public *bool) error {
	t, ok := r.TownByID(id)
	if !ok {
		return ErrTownNotFound
	}
	if !t.CheckPassword(password) {
		return ErrInvalidPassword
	}
	if friendlyName != nil {
		if *friendlyName == "" {
			return fmt.Errorf("friendly name must not be empty")
		}
		t.SetFriendlyName(*friendlyName)
	}
	if public != nil {
		t.SetPubliclyListed(*public)
	}
	return nil
}

// DeleteTown tears a town down: broadcasts TownClosing to its listeners and
// removes it from the registry.
//
// Precondition: password must be the town's update password.
// Postcondition: The town is no longer resolvable via TownByID. Connected
// transports terminate their own connections in response to TownClosing.
func (r *Registry) DeleteTown(id, password string) error {
	t, ok := r.TownByID(id)
	if !ok {
		return ErrTownNotFound
	}
	if !t.CheckPassword(password) {
		return ErrInvalidPassword
	}

	r.mu.Lock()
	delete(r.towns, id)
	r.mu.Unlock()

	t.DisconnectAll()
	return nil
}
