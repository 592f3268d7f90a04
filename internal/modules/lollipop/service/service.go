package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lollipop-server/internal/modules/lollipop/dataset"
	"lollipop-server/internal/modules/lollipop/geometry"
	"lollipop-server/internal/modules/lollipop/locator"
	"lollipop-server/internal/modules/lollipop/repository"
	"lollipop-server/internal/modules/lollipop/selection"
	"lollipop-server/internal/modules/lollipop/types"
)

var ErrSessionNotFound = errors.New("session not found")

// EventPublisher receives every selection change.
type EventPublisher interface {
	Publish(ctx context.Context, ev types.SelectionEvent) error
}

// Pointer is one pointer position inside the plot. X is plot-local and
// PlotWidth is the width of the plot the pointer was measured against.
type Pointer struct {
	X           float64
	PlotWidth   float64
	RightToLeft bool
}

// SessionState is the externally visible state of a chart session.
type SessionState struct {
	ID       string        `json:"id"`
	Selected bool          `json:"selected"`
	Sample   *types.Sample `json:"sample,omitempty"`
}

type Options struct {
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Service owns the process dataset and the chart sessions over it.
type Service struct {
	data      dataset.Dataset
	domain    geometry.Domain
	publisher EventPublisher
	ttl       time.Duration
	logger    *slog.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	sel      *selection.Session
	lastSeen time.Time
}

// NewService serves data. A nil publisher disables selection events.
func NewService(data dataset.Dataset, publisher EventPublisher, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	domain, _ := geometry.HourDomain(data.View())
	return &Service{
		data:      data,
		domain:    domain,
		publisher: publisher,
		ttl:       opts.SessionTTL,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		sessions:  make(map[string]*session),
	}
}

// SeedBuiltin replaces the stored dataset with the built-in samples anchored
// at now.
func SeedBuiltin(repo repository.SampleRepository, now time.Time) error {
	if err := repo.ReplaceSamples(dataset.Builtin(now)); err != nil {
		return fmt.Errorf("seed samples: %w", err)
	}
	return nil
}

// LoadDataset reads the stored samples. Timestamps are converted to local
// time so hour labels and hour boundaries follow the server's zone.
func LoadDataset(repo repository.SampleRepository) (dataset.Dataset, error) {
	samples, err := repo.ListSamples()
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("load samples: %w", err)
	}
	for i := range samples {
		samples[i].Time = samples[i].Time.Local()
	}
	return dataset.New(samples), nil
}

func (s *Service) Samples() []types.Sample { return s.data.Samples() }

// Domain is the hour-aligned time span of the dataset.
func (s *Service) Domain() (geometry.Domain, bool) {
	return s.domain, s.data.Len() > 0
}

// Locate returns the sample nearest to t.
func (s *Service) Locate(t time.Time) (types.Sample, bool) {
	return locator.Locate(t, s.data.View())
}

func (s *Service) CreateSession() SessionState {
	id := s.newID()
	sess := &session{sel: selection.NewSession(s.data.View()), lastSeen: s.now()}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.logger.Debug("session created", "session_id", id, "sessions", n)
	return stateOf(id, selection.Unselected)
}

func (s *Service) Session(id string) (SessionState, error) {
	sess, err := s.touch(id)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	st := sess.sel.State()
	sess.mu.Unlock()
	return stateOf(id, st), nil
}

func (s *Service) DeleteSession(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.logger.Debug("session deleted", "session_id", id)
	return nil
}

// Tap toggles the sample nearest to the pointer.
func (s *Service) Tap(ctx context.Context, id string, p Pointer) (SessionState, error) {
	return s.apply(ctx, id, types.GestureTap, p)
}

// Drag selects the sample nearest to the pointer.
func (s *Service) Drag(ctx context.Context, id string, p Pointer) (SessionState, error) {
	return s.apply(ctx, id, types.GestureDrag, p)
}

func (s *Service) apply(ctx context.Context, id string, g types.Gesture, p Pointer) (SessionState, error) {
	sess, err := s.touch(id)
	if err != nil {
		return SessionState{}, err
	}
	toTime := s.projection(p).PositionToTime

	sess.mu.Lock()
	prev := sess.sel.State()
	var next selection.State
	switch g {
	case types.GestureTap:
		next = sess.sel.Tap(p.X, toTime)
	default:
		next = sess.sel.Drag(p.X, toTime)
	}
	sess.mu.Unlock()

	st := stateOf(id, next)
	if !sameState(prev, next) {
		s.publish(ctx, g, st)
	}
	return st, nil
}

func (s *Service) projection(p Pointer) geometry.Projection {
	return geometry.NewProjection(geometry.Frame{Width: p.PlotWidth}, s.domain, p.RightToLeft)
}

func (s *Service) publish(ctx context.Context, g types.Gesture, st SessionState) {
	if s.publisher == nil {
		return
	}
	ev := types.SelectionEvent{
		SessionID: st.ID,
		Gesture:   g,
		Selected:  st.Selected,
		Sample:    st.Sample,
		At:        s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish selection event failed", "session_id", st.ID, "error", err)
	}
}

func (s *Service) touch(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// SessionCount is the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Service) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired idle sessions", "removed", n, "remaining", s.SessionCount())
			}
		}
	}
}

func stateOf(id string, st selection.State) SessionState {
	out := SessionState{ID: id}
	if sample, ok := st.Selected(); ok {
		out.Selected = true
		out.Sample = &sample
	}
	return out
}

func sameState(a, b selection.State) bool {
	as, aok := a.Selected()
	bs, bok := b.Selected()
	if aok != bok {
		return false
	}
	return !aok || as.Time.Equal(bs.Time)
}
