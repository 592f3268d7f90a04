// Package selection implements the lollipop selection policy for one chart
// session: a tap toggles the nearest sample, a drag always selects it.
package selection

import (
	"time"

	"lollipop-server/internal/modules/lollipop/locator"
	"lollipop-server/internal/modules/lollipop/types"
)

// PositionToTime maps a plot-local x coordinate to an instant. It reports
// false when x lies outside the plotted domain.
type PositionToTime func(x float64) (time.Time, bool)

// State is either unselected (the zero value) or holds exactly one sample.
type State struct {
	sample   types.Sample
	selected bool
}

// Unselected is the initial state.
var Unselected = State{}

// Selected returns the highlighted sample, if any.
func (s State) Selected() (types.Sample, bool) {
	return s.sample, s.selected
}

func selectedOrNone(sample types.Sample, ok bool) State {
	if !ok {
		return Unselected
	}
	return State{sample: sample, selected: true}
}

// Tap applies a discrete tap whose nearest sample is candidate. Tapping the
// sample that is already selected clears the selection.
func Tap(current State, candidate types.Sample, found bool) State {
	if current.selected && found && candidate.Time.Equal(current.sample.Time) {
		return Unselected
	}
	return selectedOrNone(candidate, found)
}

// Drag applies one continuous drag update. It never toggles off.
func Drag(_ State, candidate types.Sample, found bool) State {
	return selectedOrNone(candidate, found)
}

// Session holds the selection of one interactive chart. It is not safe for
// concurrent use; callers serialize gestures.
type Session struct {
	samples []types.Sample
	state   State
}

// NewSession starts an unselected session over samples. The slice must not be
// mutated afterwards.
func NewSession(samples []types.Sample) *Session {
	return &Session{samples: samples}
}

func (s *Session) State() State { return s.state }

func (s *Session) Tap(x float64, toTime PositionToTime) State {
	candidate, found := s.find(x, toTime)
	s.state = Tap(s.state, candidate, found)
	return s.state
}

func (s *Session) Drag(x float64, toTime PositionToTime) State {
	candidate, found := s.find(x, toTime)
	s.state = Drag(s.state, candidate, found)
	return s.state
}

func (s *Session) Clear() {
	s.state = Unselected
}

func (s *Session) find(x float64, toTime PositionToTime) (types.Sample, bool) {
	t, ok := toTime(x)
	if !ok {
		return types.Sample{}, false
	}
	return locator.Locate(t, s.samples)
}
