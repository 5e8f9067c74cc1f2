package stabilize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
)

// fakeClock drives the detector without real waiting: Sleep just advances
// the current time.
type fakeClock struct {
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.cur }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.cur = c.cur.Add(d)
	return nil
}

// seqProber replays a fixed sequence of samples, repeating the last one
// when exhausted.
type seqProber struct {
	samples [][]geometry.Candidate
	i       int
}

func (p *seqProber) Probe(context.Context) ([]geometry.Candidate, error) {
	if p.i < len(p.samples) {
		s := p.samples[p.i]
		p.i++
		return s, nil
	}
	if len(p.samples) == 0 {
		return nil, nil
	}
	return p.samples[len(p.samples)-1], nil
}

func box(x, y, w, h float64) []geometry.Candidate {
	return []geometry.Candidate{{
		Role:    geometry.RoleContainer,
		Box:     geometry.Box{X: x, Y: y, Width: w, Height: h},
		Visible: true,
	}}
}

func testConfig(c *fakeClock) Config {
	return Config{
		PollInterval: 150 * time.Millisecond,
		Dwell:        1200 * time.Millisecond,
		Timeout:      14 * time.Second,
		Now:          c.now,
		Sleep:        c.sleep,
	}
}

func TestWait_ConvergesAfterUnstableTicks(t *testing.T) {
	clock := newFakeClock()
	// Geometry shifts for a few ticks, then settles.
	p := &seqProber{samples: [][]geometry.Candidate{
		box(0, 0, 100, 100),
		box(0, 0, 300, 200),
		box(0, 0, 640, 480),
		box(10, 20, 800, 600),
		box(10, 20, 800, 600), // settled from here on
	}}

	res, err := Wait(context.Background(), p, testConfig(clock))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.State != StateStable {
		t.Fatalf("state: got %q, want stable", res.State)
	}
	want := geometry.Box{X: 10, Y: 20, Width: 800, Height: 600}
	if res.Box != want {
		t.Errorf("box: got %+v, want %+v", res.Box, want)
	}
}

func TestWait_SubPixelJitterStillStable(t *testing.T) {
	clock := newFakeClock()
	p := &seqProber{samples: [][]geometry.Candidate{
		box(10.1, 20.4, 800.2, 600.1),
		box(9.8, 19.6, 799.9, 599.8), // same quantized key
	}}

	res, err := Wait(context.Background(), p, testConfig(clock))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.State != StateStable {
		t.Errorf("jitter below a pixel broke stability: state=%q", res.State)
	}
}

func TestWait_OscillationReturnsBestEffortAtCeiling(t *testing.T) {
	clock := newFakeClock()
	a := box(0, 0, 800, 600)
	b := box(0, 0, 801, 600)
	// Alternate forever, never two identical consecutive keys.
	p := ProbeFunc(func(context.Context) ([]geometry.Candidate, error) {
		if clock.cur.UnixMilli()/150%2 == 0 {
			return a, nil
		}
		return b, nil
	})

	res, err := Wait(context.Background(), p, testConfig(clock))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.State != StateTimeout {
		t.Fatalf("state: got %q, want timeout", res.State)
	}
	if res.Box.Empty() {
		t.Error("best-effort box missing at timeout")
	}
}

func TestWait_NeverBlocksPastCeiling(t *testing.T) {
	clock := newFakeClock()
	start := clock.cur
	p := &seqProber{} // never any candidate

	_, err := Wait(context.Background(), p, testConfig(clock))
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("got %v, want ErrNoCandidate", err)
	}
	elapsed := clock.cur.Sub(start)
	if elapsed > 15*time.Second {
		t.Errorf("detector ran %v past the 14s ceiling", elapsed)
	}
}

func TestWait_EmptyTicksDoNotResetDwell(t *testing.T) {
	clock := newFakeClock()
	stable := box(0, 0, 800, 600)
	p := &seqProber{samples: [][]geometry.Candidate{
		stable,
		nil, // probe found nothing this tick
		nil,
		stable,
		stable,
		stable,
		stable,
		stable,
		stable,
		stable,
	}}

	res, err := Wait(context.Background(), p, testConfig(clock))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.State != StateStable {
		t.Fatalf("state: got %q, want stable", res.State)
	}
	// Dwell started at the first sighting; the empty ticks in between must
	// not have restarted it. First tick at t=0, stable achievable by
	// dwell(1.2s) lands near tick 9, well under a full restart-from-tick-3 plus
	// anything, but the precise assertion is the tick count stays small.
	if res.Ticks > 10 {
		t.Errorf("dwell clock appears to have been reset: %d ticks", res.Ticks)
	}
}

func TestWait_ProbeErrorsAreTransient(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	p := ProbeFunc(func(context.Context) ([]geometry.Candidate, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("execution context destroyed")
		}
		return box(0, 0, 800, 600), nil
	})

	res, err := Wait(context.Background(), p, testConfig(clock))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.State != StateStable {
		t.Errorf("state: got %q, want stable", res.State)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	clock := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Wait(ctx, &seqProber{}, testConfig(clock))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
