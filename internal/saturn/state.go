package saturn

// Per-frame increments and pointer sensitivity.
const (
	AStep           = 0.005
	BStep           = 0.002
	TiltSensitivity = 0.5
	InitialAngle    = 0.5
)

// State is the renderer input for one frame: the accumulated base angles and
// the pointer tilt. Methods return updated copies.
type State struct {
	A, B float64

	Hovering bool
	TiltX    float64
	TiltY    float64
}

// NewState returns the live starting rotation.
func NewState() State {
	return State{A: InitialAngle, B: InitialAngle}
}

// Advance applies the unconditional per-frame spin.
func (s State) Advance() State {
	s.A += AStep
	s.B += BStep
	return s
}

// Effective returns the angles used for projection. Tilt only counts while
// hovering.
func (s State) Effective() (effA, effB float64) {
	if !s.Hovering {
		return s.A, s.B
	}
	return s.A + s.TiltY*TiltSensitivity, s.B + s.TiltX*TiltSensitivity
}

// PointerEnter switches to hover-tilting.
func (s State) PointerEnter() State {
	s.Hovering = true
	return s
}

// PointerMove records a normalized pointer position. Ignored while idle.
func (s State) PointerMove(x, y float64) State {
	if !s.Hovering {
		return s
	}
	s.TiltX = x
	s.TiltY = y
	return s
}

// PointerLeave returns to idle-rotating and zeroes the tilt.
func (s State) PointerLeave() State {
	s.Hovering = false
	s.TiltX = 0
	s.TiltY = 0
	return s
}

// Frame renders the state without advancing it.
func (s State) Frame() *Frame {
	a, b := s.Effective()
	return Render(a, b)
}

// Step runs one tick: advance, project, compose.
func Step(s State) (State, string) {
	s = s.Advance()
	return s, s.Frame().String()
}

// NormalizePointer converts a position relative to a region's top-left
// corner into the [-1, 1] range, with Y pointing up.
func NormalizePointer(x, y, width, height int) (float64, float64) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	nx := float64(x)/float64(width)*2 - 1
	ny := -float64(y)/float64(height)*2 + 1
	return nx, ny
}
