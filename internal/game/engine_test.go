package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/capitals"
	"github.com/robalobadob/capitals/apps/go-server/internal/rng"
)

// fakeResolver returns "img-<lat>" unless fail says otherwise for the call number.
type fakeResolver struct {
	calls int
	fail  func(call int) bool
}

func (f *fakeResolver) Resolve(_ context.Context, lat, lon float64) (string, error) {
	f.calls++
	if f.fail != nil && f.fail(f.calls) {
		return "", errors.New("no image")
	}
	return fmt.Sprintf("img-%v-%v", lat, lon), nil
}

// testCapitals builds n distinct capitals; index i has latitude i so tests can
// map a target back to its rank.
func testCapitals(n int) []capitals.Capital {
	out := make([]capitals.Capital, n)
	for i := range out {
		out[i] = capitals.Capital{
			Name:    fmt.Sprintf("City%d", i),
			Country: fmt.Sprintf("Country%d", i),
			Lat:     float64(i) / 10,
			Lon:     float64(i) / 10,
		}
	}
	out[0] = capitals.Capital{Name: "Paris", Country: "France", Lat: 0, Lon: 0}
	return out
}

type harness struct {
	eng    *Engine
	res    *fakeResolver
	sleeps []time.Duration
}

func newHarness(t *testing.T, caps []capitals.Capital) *harness {
	t.Helper()
	sched, err := NewSchedule(len(caps), 40, 5)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	h := &harness{res: &fakeResolver{}}
	h.eng = New(caps, sched, h.res, rng.New(3), Options{
		RoundRetryDelay: 500 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	})
	return h
}

func rankOf(tgt *Target) int { return int(tgt.Capital.Lat*10 + 0.5) }

func TestStartRoundPicksFromTier(t *testing.T) {
	h := newHarness(t, testCapitals(185))
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		for i := 0; i < 20; i++ {
			s := &Session{Round: round}
			r, err := h.eng.StartRound(ctx, s)
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			tier, _ := h.eng.sched.TierFor(round)
			if idx := rankOf(s.Target); idx < tier.Start || idx >= tier.End {
				t.Fatalf("round %d picked rank %d outside %+v", round, idx, tier)
			}
			if r.Number != round+1 || r.Total != 5 {
				t.Errorf("display = %+v", r)
			}
			if r.Label != s.Target.Capital.Label() || r.ImageID != s.Target.ImageID {
				t.Errorf("display %+v does not match target %+v", r, s.Target)
			}
			if s.Round != round {
				t.Errorf("round index changed to %d", s.Round)
			}
		}
	}
}

func TestStartRoundRetriesThenSucceeds(t *testing.T) {
	h := newHarness(t, testCapitals(185))
	h.res.fail = func(call int) bool { return call < 3 }

	s := &Session{}
	if _, err := h.eng.StartRound(context.Background(), s); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.res.calls != 3 {
		t.Errorf("resolver calls = %d, want 3", h.res.calls)
	}
	if len(h.sleeps) != 2 || h.sleeps[0] != 500*time.Millisecond {
		t.Errorf("sleeps = %v, want two 500ms pauses", h.sleeps)
	}
}

func TestStartRoundFailureLeavesSessionUntouched(t *testing.T) {
	h := newHarness(t, testCapitals(185))
	h.res.fail = func(int) bool { return true }

	s := &Session{Round: 2, Score: 2}
	_, err := h.eng.StartRound(context.Background(), s)
	if !errors.Is(err, ErrRoundFailure) {
		t.Fatalf("err = %v, want ErrRoundFailure", err)
	}
	if h.res.calls != 3 {
		t.Errorf("resolver calls = %d, want 3", h.res.calls)
	}
	if s.Target != nil || s.Round != 2 || s.Score != 2 {
		t.Errorf("session mutated: %+v", s)
	}
}

func TestStartRoundOutOfRounds(t *testing.T) {
	h := newHarness(t, testCapitals(185))
	s := &Session{Round: 5}
	if _, err := h.eng.StartRound(context.Background(), s); !errors.Is(err, ErrOutOfRounds) {
		t.Fatalf("err = %v, want ErrOutOfRounds", err)
	}
	if h.res.calls != 0 {
		t.Errorf("resolver called %d times after the game ended", h.res.calls)
	}
}

func TestStartRoundCancelled(t *testing.T) {
	h := newHarness(t, testCapitals(185))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.eng.StartRound(ctx, &Session{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStartRoundStampsGameStart(t *testing.T) {
	caps := testCapitals(185)
	sched, _ := NewSchedule(len(caps), 40, 5)
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	now := start
	eng := New(caps, sched, &fakeResolver{}, rng.New(1), Options{Now: func() time.Time { return now }})

	s := &Session{}
	if _, err := eng.StartRound(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Minute)
	s.Round = 1
	if _, err := eng.StartRound(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if !s.StartedAt.Equal(start) {
		t.Errorf("started at = %v, want first round time %v", s.StartedAt, start)
	}

	eng.NewGame(s)
	if !s.StartedAt.IsZero() {
		t.Error("new game kept the old start time")
	}
}
