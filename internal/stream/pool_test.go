package stream

import (
	"context"
	"testing"

	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

func TestPoolActivateIsNoOpWhileActive(t *testing.T) {
	base := newWSServer(t, holdOpen)
	rec := newRecorder()
	p := NewPool(base, rec.onFrame, rec.onStatus, nil)
	defer p.Shutdown()

	ctx := context.Background()
	p.Activate(ctx, 0)
	s1, ok := p.Session(0)
	if !ok {
		t.Fatal("expected session after activate")
	}

	// Still Connecting or Live; a second activate must not replace it.
	p.Activate(ctx, 0)
	s2, _ := p.Session(0)
	if s1 != s2 {
		t.Fatal("activate replaced a non-terminal session")
	}
}

func TestPoolReactivateAfterErrorCreatesFreshSession(t *testing.T) {
	rec := newRecorder()
	p := NewPool(unreachableBase, rec.onFrame, rec.onStatus, nil)
	defer p.Shutdown()

	ctx := context.Background()
	p.Activate(ctx, 3)
	s1, _ := p.Session(3)
	rec.waitState(t, types.StateErrored)

	p.Activate(ctx, 3)
	s2, _ := p.Session(3)
	if s1 == s2 {
		t.Fatal("expected a brand-new session after Errored")
	}
	if got := s1.State(); got != types.StateClosed {
		t.Fatalf("superseded session state %v, want Closed", got)
	}
}

func TestPoolDeactivate(t *testing.T) {
	base := newWSServer(t, holdOpen)
	rec := newRecorder()
	p := NewPool(base, rec.onFrame, rec.onStatus, nil)

	ctx := context.Background()
	p.Activate(ctx, 1)
	rec.waitState(t, types.StateLive)
	s, _ := p.Session(1)

	p.Deactivate(1)
	if got := s.State(); got != types.StateClosed {
		t.Fatalf("state %v, want Closed", got)
	}
	if _, ok := p.Session(1); ok {
		t.Fatal("session still registered after deactivate")
	}
	if got := p.State(1); got != types.StateIdle {
		t.Fatalf("pool state %v, want Idle for forgotten camera", got)
	}

	// Unknown camera and repeated deactivation are no-ops.
	p.Deactivate(1)
	p.Deactivate(99)
}

func TestPoolAtMostOneNonClosedSession(t *testing.T) {
	rec := newRecorder()
	p := NewPool(unreachableBase, rec.onFrame, rec.onStatus, nil)
	defer p.Shutdown()

	ctx := context.Background()
	var seen []*Session

	for i := 0; i < 3; i++ {
		p.Activate(ctx, 0)
		if s, ok := p.Session(0); ok {
			seen = append(seen, s)
		}
		rec.waitState(t, types.StateErrored)
	}
	p.Deactivate(0)

	nonClosed := 0
	for _, s := range seen {
		if s.State() != types.StateClosed {
			nonClosed++
		}
	}
	if nonClosed > 1 {
		t.Fatalf("%d non-closed sessions for one camera", nonClosed)
	}
}

func TestPoolStaleIncarnationCannotDeliver(t *testing.T) {
	base := newWSServer(t, holdOpen)
	rec := newRecorder()
	p := NewPool(base, rec.onFrame, rec.onStatus, nil)
	defer p.Shutdown()

	ctx := context.Background()
	p.Activate(ctx, 0)
	rec.waitState(t, types.StateLive)
	stale, _ := p.Session(0)

	p.Deactivate(0)
	p.Activate(ctx, 0)
	rec.waitState(t, types.StateLive)
	fresh, _ := p.Session(0)

	// A frame surfacing on the previous incarnation is dropped; the
	// reopened session is unaffected and still delivers.
	stale.deliver(testJPEG(t, 40))
	rec.assertNoFrame(t)

	fresh.deliver(testJPEG(t, 40))
	f := rec.waitFrame(t)
	if f.Image.Bounds().Dx() != 40 {
		t.Fatalf("unexpected frame %v", f.Image.Bounds())
	}
}

func TestPoolShutdownClosesEverything(t *testing.T) {
	base := newWSServer(t, holdOpen)
	rec := newRecorder()
	p := NewPool(base, rec.onFrame, rec.onStatus, nil)

	ctx := context.Background()
	p.Activate(ctx, 0)
	p.Activate(ctx, 1)

	s0, _ := p.Session(0)
	s1, _ := p.Session(1)

	p.Shutdown()

	waitFor(t, "all sessions closed", func() bool {
		return s0.State() == types.StateClosed && s1.State() == types.StateClosed
	})
	if len(p.States()) != 0 {
		t.Fatalf("expected empty pool after shutdown, got %v", p.States())
	}
}
