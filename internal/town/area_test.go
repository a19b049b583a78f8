package town

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationArea_AddOccupant(t *testing.T) {
	a := &ConversationArea{Label: "porch", Topic: "weather"}

	assert.True(t, a.addOccupant("p1"))
	assert.True(t, a.addOccupant("p2"))
	assert.Equal(t, []string{"p1", "p2"}, a.OccupantIDs)
}

func TestConversationArea_AddOccupantIdempotent(t *testing.T) {
	a := &ConversationArea{Label: "porch", Topic: "weather"}

	assert.True(t, a.addOccupant("p1"))
	assert.False(t, a.addOccupant("p1"))
	assert.Equal(t, []string{"p1"}, a.OccupantIDs)
}

func TestConversationArea_RemoveOccupantKeepsOrder(t *testing.T) {
	a := &ConversationArea{Label: "porch", Topic: "weather"}
	a.addOccupant("p1")
	a.addOccupant("p2")
	a.addOccupant("p3")

	assert.True(t, a.removeOccupant("p2"))
	assert.Equal(t, []string{"p1", "p3"}, a.OccupantIDs)
	assert.False(t, a.removeOccupant("p2"))
}

func TestConversationArea_IsEmpty(t *testing.T) {
	a := &ConversationArea{Label: "porch", Topic: "weather"}
	assert.True(t, a.IsEmpty())

	a.addOccupant("p1")
	assert.False(t, a.IsEmpty())

	a.removeOccupant("p1")
	assert.True(t, a.IsEmpty())
}
