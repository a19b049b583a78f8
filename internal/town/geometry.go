package town

// Location is a participant's last reported position within the town map.
type Location struct {
	// X and Y are the map coordinates, in pixels.
	X float64
	Y float64
	// Orientation is the facing direction reported by the client
	// ("front", "back", "left", or "right").
	Orientation string
	// Moving reports whether the participant was mid-step when the
	// update was captured.
	Moving bool
	// Conversation is the label of the conversation area the client reports
	// itself inside, or empty when outside every area. The reported label is
	// authoritative; the engine attaches by label, never by re-deriving
	// membership from coordinates.
	Conversation string
}

// BoundingBox is an axis-aligned rectangle centered at (X, Y) with full
// width W and full height H.
type BoundingBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Valid reports whether the box has positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.W > 0 && b.H > 0
}

// Contains reports whether the point (x, y) lies strictly inside the box.
// Points on the boundary are outside.
func (b BoundingBox) Contains(x, y float64) bool {
	return x > b.X-b.W/2 && x < b.X+b.W/2 &&
		y > b.Y-b.H/2 && y < b.Y+b.H/2
}

// Overlaps reports whether two boxes share interior area. The separating-axis
// test uses each box's own half-extents with strict comparisons, so boxes
// that merely share an edge or a corner do not overlap.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	if b.X+b.W/2 <= o.X-o.W/2 || o.X+o.W/2 <= b.X-b.W/2 {
		return false
	}
	if b.Y+b.H/2 <= o.Y-o.H/2 || o.Y+o.H/2 <= b.Y-b.H/2 {
		return false
	}
	return true
}
