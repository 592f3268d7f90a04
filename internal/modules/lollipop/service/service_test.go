package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"lollipop-server/internal/modules/lollipop/dataset"
	"lollipop-server/internal/modules/lollipop/types"
)

var base = time.Date(2022, 7, 27, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.SelectionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev types.SelectionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(t *testing.T, pub EventPublisher) *Service {
	t.Helper()
	svc := NewService(dataset.New(dataset.Builtin(base)), pub, Options{SessionTTL: time.Minute})
	n := 0
	svc.newID = func() string { n++; return "s" + strconv.Itoa(n) }
	return svc
}

// The domain 11:00..23:00 over a 120 wide plot is 10 units per hour.
func pointer(x float64) Pointer { return Pointer{X: x, PlotWidth: 120} }

func TestService_TapTogglesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	id := svc.CreateSession().ID

	st, err := svc.Tap(context.Background(), id, pointer(0))
	if err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if !st.Selected || !st.Sample.Time.Equal(base.Add(time.Hour)) {
		t.Fatalf("first tap = %+v; want sample at 11:00", st)
	}

	st, err = svc.Tap(context.Background(), id, pointer(2))
	if err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if st.Selected {
		t.Fatalf("second tap = %+v; want unselected", st)
	}

	if len(pub.events) != 2 {
		t.Fatalf("events = %d; want 2", len(pub.events))
	}
	if ev := pub.events[0]; ev.SessionID != id || ev.Gesture != types.GestureTap || !ev.Selected || ev.Sample == nil {
		t.Errorf("event[0] = %+v", ev)
	}
	if ev := pub.events[1]; ev.Selected || ev.Sample != nil {
		t.Errorf("event[1] = %+v; want unselected", ev)
	}
}

func TestService_DragOverwritesAndPublishesChangesOnly(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	id := svc.CreateSession().ID
	ctx := context.Background()

	for _, x := range []float64{0, 1, 14, 36} {
		if _, err := svc.Drag(ctx, id, pointer(x)); err != nil {
			t.Fatalf("Drag(%v) error = %v", x, err)
		}
	}
	st, err := svc.Session(id)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	// x=36 is 14:36, nearest sample 15:00.
	if !st.Selected || !st.Sample.Time.Equal(base.Add(5*time.Hour)) {
		t.Fatalf("state = %+v; want sample at 15:00", st)
	}

	// 0 and 1 both land on 11:00, so only three changes.
	if len(pub.events) != 3 {
		t.Fatalf("events = %d; want 3", len(pub.events))
	}
	for _, ev := range pub.events {
		if ev.Gesture != types.GestureDrag {
			t.Errorf("gesture = %s; want drag", ev.Gesture)
		}
	}
}

func TestService_PointerOutsidePlotClears(t *testing.T) {
	svc := newTestService(t, nil)
	id := svc.CreateSession().ID
	ctx := context.Background()

	if _, err := svc.Drag(ctx, id, pointer(50)); err != nil {
		t.Fatal(err)
	}
	st, err := svc.Drag(ctx, id, pointer(-5))
	if err != nil {
		t.Fatal(err)
	}
	if st.Selected {
		t.Errorf("drag outside plot = %+v; want unselected", st)
	}
	st, err = svc.Tap(ctx, id, Pointer{X: 10, PlotWidth: 0})
	if err != nil {
		t.Fatal(err)
	}
	if st.Selected {
		t.Errorf("tap on zero-width plot = %+v; want unselected", st)
	}
}

func TestService_RightToLeft(t *testing.T) {
	svc := newTestService(t, nil)
	id := svc.CreateSession().ID

	st, err := svc.Tap(context.Background(), id, Pointer{X: 0, PlotWidth: 120, RightToLeft: true})
	if err != nil {
		t.Fatal(err)
	}
	if !st.Selected || !st.Sample.Time.Equal(base.Add(12*time.Hour)) {
		t.Errorf("rtl tap at left edge = %+v; want last sample", st)
	}
}

func TestService_SessionsAreIndependent(t *testing.T) {
	svc := newTestService(t, nil)
	a := svc.CreateSession().ID
	b := svc.CreateSession().ID

	if _, err := svc.Tap(context.Background(), a, pointer(0)); err != nil {
		t.Fatal(err)
	}
	st, err := svc.Session(b)
	if err != nil {
		t.Fatal(err)
	}
	if st.Selected {
		t.Errorf("session b = %+v; want unselected", st)
	}
}

func TestService_PublishFailureDoesNotFailGesture(t *testing.T) {
	svc := newTestService(t, &recordingPublisher{err: errors.New("broker down")})
	id := svc.CreateSession().ID

	st, err := svc.Tap(context.Background(), id, pointer(0))
	if err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if !st.Selected {
		t.Error("tap should still select")
	}
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Session("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session() = %v; want ErrSessionNotFound", err)
	}
	if _, err := svc.Tap(ctx, "nope", pointer(0)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Tap() = %v; want ErrSessionNotFound", err)
	}
	if _, err := svc.Drag(ctx, "nope", pointer(0)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Drag() = %v; want ErrSessionNotFound", err)
	}
	if err := svc.DeleteSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("DeleteSession() = %v; want ErrSessionNotFound", err)
	}
}

func TestService_DeleteSession(t *testing.T) {
	svc := newTestService(t, nil)
	id := svc.CreateSession().ID

	if err := svc.DeleteSession(id); err != nil {
		t.Fatalf("DeleteSession() = %v", err)
	}
	if _, err := svc.Session(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session() after delete = %v; want ErrSessionNotFound", err)
	}
}

func TestService_Sweep(t *testing.T) {
	now := base
	svc := newTestService(t, nil)
	svc.now = func() time.Time { return now }

	idle := svc.CreateSession().ID
	now = now.Add(40 * time.Second)
	active := svc.CreateSession().ID
	now = now.Add(30 * time.Second)

	if n := svc.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d; want 1", n)
	}
	if _, err := svc.Session(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session survived the sweep")
	}
	if _, err := svc.Session(active); err != nil {
		t.Errorf("active session swept: %v", err)
	}
}

func TestService_SweepWithoutTTLKeepsSessions(t *testing.T) {
	svc := NewService(dataset.New(nil), nil, Options{})
	svc.CreateSession()
	if n := svc.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d; want 0", n)
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestService_LocateAndDomain(t *testing.T) {
	svc := newTestService(t, nil)

	got, ok := svc.Locate(base.Add(96 * time.Minute))
	if !ok || !got.Time.Equal(base.Add(2*time.Hour)) {
		t.Errorf("Locate() = %v, %v; want sample at 12:00", got, ok)
	}
	d, ok := svc.Domain()
	if !ok || !d.Start.Equal(base.Add(time.Hour)) || !d.End.Equal(base.Add(13*time.Hour)) {
		t.Errorf("Domain() = %+v, %v", d, ok)
	}
	if len(svc.Samples()) != dataset.Len {
		t.Errorf("Samples() len = %d", len(svc.Samples()))
	}
}

func TestService_EmptyDataset(t *testing.T) {
	svc := NewService(dataset.New(nil), nil, Options{})
	if _, ok := svc.Locate(base); ok {
		t.Error("Locate() on empty dataset ok = true")
	}
	if _, ok := svc.Domain(); ok {
		t.Error("Domain() on empty dataset ok = true")
	}
	id := svc.CreateSession().ID
	st, err := svc.Tap(context.Background(), id, pointer(10))
	if err != nil || st.Selected {
		t.Errorf("Tap() on empty dataset = %+v, %v", st, err)
	}
}

type memRepo struct {
	samples []types.Sample
	err     error
}

func (m *memRepo) ListSamples() ([]types.Sample, error) {
	out := make([]types.Sample, len(m.samples))
	copy(out, m.samples)
	return out, m.err
}
func (m *memRepo) CountSamples() (int, error) { return len(m.samples), m.err }
func (m *memRepo) ReplaceSamples(s []types.Sample) error {
	if m.err != nil {
		return m.err
	}
	m.samples = s
	return nil
}

func TestSeedAndLoadDataset(t *testing.T) {
	repo := &memRepo{}
	if err := SeedBuiltin(repo, base); err != nil {
		t.Fatalf("SeedBuiltin() = %v", err)
	}
	d, err := LoadDataset(repo)
	if err != nil {
		t.Fatalf("LoadDataset() = %v", err)
	}
	if d.Len() != dataset.Len {
		t.Fatalf("Len() = %d; want %d", d.Len(), dataset.Len)
	}
	first, _ := d.First()
	if first.Time.Location() != time.Local {
		t.Errorf("location = %v; want Local", first.Time.Location())
	}
	if !first.Time.Equal(base.Add(time.Hour)) {
		t.Errorf("first = %v", first.Time)
	}
}

func TestSeedAndLoadDataset_Errors(t *testing.T) {
	repo := &memRepo{err: errors.New("disk full")}
	if err := SeedBuiltin(repo, base); err == nil {
		t.Error("SeedBuiltin() = nil; want error")
	}
	if _, err := LoadDataset(repo); err == nil {
		t.Error("LoadDataset() = nil; want error")
	}
}
