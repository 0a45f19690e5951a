package stream

import (
	"context"
	"sync"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/metrics"
	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

// Pool supervises stream sessions, at most one non-closed session per
// camera. It carries no retry or backoff policy: a failed session stays
// Errored (visible to the UI) until the operator reactivates the camera,
// which starts a brand-new session with no state carried over.
type Pool struct {
	streamBaseURL string
	onFrame       FrameHandler
	onStatus      StatusHandler
	mtr           *metrics.Metrics

	mu       sync.Mutex
	sessions map[types.CameraID]*Session
}

// NewPool creates an empty pool. Every session it spawns shares the same
// frame and status handlers.
func NewPool(streamBaseURL string, onFrame FrameHandler, onStatus StatusHandler, mtr *metrics.Metrics) *Pool {
	return &Pool{
		streamBaseURL: streamBaseURL,
		onFrame:       onFrame,
		onStatus:      onStatus,
		mtr:           mtr,
		sessions:      make(map[types.CameraID]*Session),
	}
}

// Activate ensures a session exists for the camera. Calling it while a
// session is Idle, Connecting or Live is a no-op; after Errored or Closed
// a fresh session replaces the old one (clean-slate reconnect).
func (p *Pool) Activate(ctx context.Context, camera types.CameraID) {
	p.mu.Lock()
	superseded := p.sessions[camera]
	if superseded != nil {
		switch superseded.State() {
		case types.StateIdle, types.StateConnecting, types.StateLive:
			p.mu.Unlock()
			return
		}
	}

	s := NewSession(camera, p.streamBaseURL, p.onFrame, p.onStatus, p.mtr)
	p.sessions[camera] = s
	p.mu.Unlock()

	if superseded != nil {
		// Terminal; release whatever is left before replacing.
		superseded.Close()
	}

	logger.Info("Pool", "activating camera %d", camera)
	if err := s.Open(ctx); err != nil {
		logger.Error("Pool", "camera %d: %v", camera, err)
	}
}

// Deactivate closes the camera's session and forgets it. Unknown cameras
// are a no-op.
func (p *Pool) Deactivate(camera types.CameraID) {
	p.mu.Lock()
	s, ok := p.sessions[camera]
	delete(p.sessions, camera)
	p.mu.Unlock()

	if !ok {
		return
	}
	logger.Info("Pool", "deactivating camera %d", camera)
	s.Close()
}

// Session returns the current session for the camera, if any.
func (p *Pool) Session(camera types.CameraID) (*Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[camera]
	return s, ok
}

// State returns the lifecycle state for the camera. Cameras the pool has
// never activated (or has deactivated) report Idle.
func (p *Pool) State(camera types.CameraID) types.SessionState {
	p.mu.Lock()
	s, ok := p.sessions[camera]
	p.mu.Unlock()

	if !ok {
		return types.StateIdle
	}
	return s.State()
}

// States snapshots the state of every known session, for the status grid.
func (p *Pool) States() map[types.CameraID]types.SessionState {
	p.mu.Lock()
	sessions := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.mu.Unlock()

	out := make(map[types.CameraID]types.SessionState, len(sessions))
	for _, s := range sessions {
		out[s.Camera()] = s.State()
	}
	return out
}

// Shutdown closes every session. Used on whole-UI teardown so no
// connection or pending decode outlives the owner.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	sessions := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[types.CameraID]*Session)
	p.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	logger.Info("Pool", "shut down (%d sessions closed)", len(sessions))
}
