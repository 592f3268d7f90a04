package selection

import (
	"testing"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

var base = time.Date(2022, 7, 27, 10, 0, 0, 0, time.UTC)

var twoSamples = []types.Sample{
	{Time: base.Add(time.Hour), WindSpeed: 6.1, Pressure: 1015.0},
	{Time: base.Add(2 * time.Hour), WindSpeed: 8.1, Pressure: 1015.3},
}

// hourScale treats x as hours since base and rejects anything outside [0, 3].
func hourScale(x float64) (time.Time, bool) {
	if x < 0 || x > 3 {
		return time.Time{}, false
	}
	return base.Add(time.Duration(x * float64(time.Hour))), true
}

func mustSelected(t *testing.T, st State) types.Sample {
	t.Helper()
	s, ok := st.Selected()
	if !ok {
		t.Fatal("state is Unselected; want Selected")
	}
	return s
}

func TestSession_startsUnselected(t *testing.T) {
	s := NewSession(twoSamples)
	if _, ok := s.State().Selected(); ok {
		t.Fatal("new session has a selection")
	}
}

func TestSession_tapSelectsThenDeselects(t *testing.T) {
	s := NewSession(twoSamples)

	got := mustSelected(t, s.Tap(1, hourScale))
	if !got.Time.Equal(twoSamples[0].Time) {
		t.Fatalf("first tap selected %v; want %v", got.Time, twoSamples[0].Time)
	}

	if _, ok := s.Tap(1, hourScale).Selected(); ok {
		t.Fatal("second tap on the same sample should deselect")
	}
}

func TestSession_tapNearbyPositionsToggleSameSample(t *testing.T) {
	s := NewSession(twoSamples)
	mustSelected(t, s.Tap(0.8, hourScale))
	if _, ok := s.Tap(1.3, hourScale).Selected(); ok {
		t.Fatal("tap mapping to the same sample should deselect")
	}
}

func TestSession_tapOtherSampleMovesSelection(t *testing.T) {
	s := NewSession(twoSamples)
	mustSelected(t, s.Tap(1, hourScale))

	got := mustSelected(t, s.Tap(1.6, hourScale))
	if !got.Time.Equal(twoSamples[1].Time) {
		t.Fatalf("tap at 1.6h selected %v; want %v", got.Time, twoSamples[1].Time)
	}
}

func TestSession_tapOutsideDomainClears(t *testing.T) {
	s := NewSession(twoSamples)
	mustSelected(t, s.Tap(1, hourScale))

	if _, ok := s.Tap(-1, hourScale).Selected(); ok {
		t.Fatal("tap outside the plot should clear the selection")
	}
	if _, ok := s.Tap(10, hourScale).Selected(); ok {
		t.Fatal("tap outside the plot from Unselected should stay Unselected")
	}
}

func TestSession_dragNeverToggles(t *testing.T) {
	s := NewSession(twoSamples)
	mustSelected(t, s.Drag(1, hourScale))
	got := mustSelected(t, s.Drag(1, hourScale))
	if !got.Time.Equal(twoSamples[0].Time) {
		t.Fatalf("repeated drag selected %v; want %v", got.Time, twoSamples[0].Time)
	}
}

func TestSession_lastDragWins(t *testing.T) {
	s := NewSession(twoSamples)
	for _, x := range []float64{0.1, 2.9, 1.2, 2.2, 0.5, 1.9} {
		s.Drag(x, hourScale)
	}
	got := mustSelected(t, s.State())
	if !got.Time.Equal(twoSamples[1].Time) {
		t.Fatalf("after drags ending at 1.9h selected %v; want %v", got.Time, twoSamples[1].Time)
	}

	if _, ok := s.Drag(7, hourScale).Selected(); ok {
		t.Fatal("drag outside the plot should end Unselected")
	}
}

func TestSession_emptyDataset(t *testing.T) {
	s := NewSession(nil)
	if _, ok := s.Tap(1, hourScale).Selected(); ok {
		t.Fatal("tap on empty dataset selected something")
	}
	if _, ok := s.Drag(1, hourScale).Selected(); ok {
		t.Fatal("drag on empty dataset selected something")
	}
}

func TestSession_clear(t *testing.T) {
	s := NewSession(twoSamples)
	mustSelected(t, s.Drag(2, hourScale))
	s.Clear()
	if _, ok := s.State().Selected(); ok {
		t.Fatal("Clear() left a selection")
	}
}

func TestTap_comparesByTimestamp(t *testing.T) {
	current := State{sample: types.Sample{Time: base, WindSpeed: 1}, selected: true}
	// Same instant in another location and with different readings still toggles.
	candidate := types.Sample{Time: base.In(time.FixedZone("X", 3600)), WindSpeed: 99}
	if _, ok := Tap(current, candidate, true).Selected(); ok {
		t.Fatal("Tap() with equal timestamp should deselect")
	}
}
