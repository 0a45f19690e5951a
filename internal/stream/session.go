// Package stream manages push-based video connections, one per camera.
package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/frame"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/metrics"
	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

const (
	// DefaultHandshakeTimeout bounds the WebSocket dial.
	DefaultHandshakeTimeout = 5 * time.Second

	// maxFrameBytes is the read limit for a single frame message.
	maxFrameBytes = 16 << 20
)

// ErrAlreadyOpened is returned when Open is called more than once on the
// same session. A session is single-use; reconnecting means a new session.
var ErrAlreadyOpened = errors.New("stream: session already opened")

// FrameHandler receives decoded frames. For one session it is invoked at
// most once per received message, in arrival order, never concurrently
// with itself: decode and delivery both happen on the session's single
// read goroutine.
type FrameHandler func(types.Frame)

// StatusHandler observes session state transitions.
type StatusHandler func(types.CameraID, types.SessionState)

// Session owns the lifecycle of one push connection for a single camera:
// Idle -> Connecting -> Live -> {Errored, Closed}. Errored is terminal for
// the session itself; the pool reconnects by creating a fresh session.
type Session struct {
	camera    types.CameraID
	url       string
	createdAt time.Time

	handshakeTimeout time.Duration
	onFrame          FrameHandler
	onStatus         StatusHandler
	mtr              *metrics.Metrics

	// cbMu serializes status callbacks so observers see transitions in order.
	cbMu sync.Mutex

	mu         sync.Mutex
	state      types.SessionState
	conn       *websocket.Conn
	cancel     context.CancelFunc
	terminated bool
	lastFrame  image.Image
}

// NewSession creates an idle session for the given camera. streamBaseURL is
// the ws:// origin of the backend; the per-camera channel path is appended.
func NewSession(camera types.CameraID, streamBaseURL string, onFrame FrameHandler, onStatus StatusHandler, mtr *metrics.Metrics) *Session {
	return &Session{
		camera:           camera,
		url:              fmt.Sprintf("%s/ws/stream/%d", streamBaseURL, camera),
		createdAt:        time.Now(),
		handshakeTimeout: DefaultHandshakeTimeout,
		onFrame:          onFrame,
		onStatus:         onStatus,
		mtr:              mtr,
	}
}

// Open begins the connection attempt. The transition to Connecting happens
// synchronously; the dial and everything after it run on a background
// goroutine, so the caller is never blocked. Open is valid exactly once.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != types.StateIdle {
		s.mu.Unlock()
		return ErrAlreadyOpened
	}
	s.state = types.StateConnecting
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.mtr != nil {
		s.mtr.SessionsOpened.Add(1)
		s.mtr.ActiveSessions.Add(1)
	}
	s.notify(types.StateConnecting)

	go s.run(ctx)
	return nil
}

func (s *Session) run(ctx context.Context) {
	dialer := websocket.Dialer{HandshakeTimeout: s.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.fail(fmt.Errorf("dial %s: %w", s.url, err))
		return
	}

	s.mu.Lock()
	if s.state != types.StateConnecting {
		// Closed while the handshake was in flight.
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.state = types.StateLive
	s.mu.Unlock()

	logger.Info("Session", "camera %d live (%s)", s.camera, s.url)
	s.notify(types.StateLive)

	conn.SetReadLimit(maxFrameBytes)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if s.State() == types.StateClosed {
				// Local close, not a transport failure.
				return
			}
			s.fail(fmt.Errorf("read: %w", err))
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		s.deliver(data)
	}
}

// deliver decodes one frame payload and hands it to the render sink. A
// malformed payload drops the frame, never the session. Frames that race
// with Close are dropped; the check is bound to this session instance, so
// a camera reopened under a new session can never see a stale frame.
func (s *Session) deliver(data []byte) {
	if s.mtr != nil {
		s.mtr.FramesReceived.Add(1)
	}

	img, format, err := frame.Decode(data)
	if err != nil {
		if s.mtr != nil {
			s.mtr.DecodeErrors.Add(1)
			s.mtr.FramesDropped.Add(1)
		}
		logger.Debug("Session", "camera %d: dropped frame: %v", s.camera, err)
		return
	}

	s.mu.Lock()
	if s.state != types.StateLive {
		s.mu.Unlock()
		if s.mtr != nil {
			s.mtr.FramesDropped.Add(1)
		}
		return
	}
	s.lastFrame = img
	s.mu.Unlock()

	if s.mtr != nil {
		s.mtr.FramesRendered.Add(1)
	}
	if s.onFrame != nil {
		s.onFrame(types.Frame{
			Camera:     s.camera,
			Image:      img,
			Format:     format,
			Bytes:      len(data),
			ReceivedAt: time.Now(),
		})
	}
}

// fail moves the session to Errored. Transport errors are reported through
// the status handler, never returned past the session boundary, and there
// is no retry here: reconnect policy belongs to the pool's caller.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == types.StateClosed || s.state == types.StateErrored {
		s.mu.Unlock()
		return
	}
	s.state = types.StateErrored
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	logger.Warn("Session", "camera %d: %v", s.camera, err)
	if s.mtr != nil {
		s.mtr.SessionErrors.Add(1)
	}
	s.terminate()
	s.notify(types.StateErrored)
}

// Close tears the session down. It is idempotent; any state transitions to
// Closed. Pending dial or read work is cancelled and frame payloads that
// arrive afterwards are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == types.StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = types.StateClosed
	conn := s.conn
	s.conn = nil
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}

	logger.Debug("Session", "camera %d closed", s.camera)
	if s.mtr != nil {
		s.mtr.SessionsClosed.Add(1)
	}
	s.terminate()
	s.notify(types.StateClosed)
}

// terminate decrements the active-session gauge exactly once, on the first
// terminal transition (Errored or Closed).
func (s *Session) terminate() {
	s.mu.Lock()
	done := s.terminated
	s.terminated = true
	s.mu.Unlock()

	if !done && s.mtr != nil {
		s.mtr.ActiveSessions.Add(^uint64(0))
	}
}

func (s *Session) notify(state types.SessionState) {
	if s.onStatus == nil {
		return
	}
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onStatus(s.camera, state)
}

// Camera returns the camera this session serves.
func (s *Session) Camera() types.CameraID { return s.camera }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastFrame returns the most recently delivered bitmap, or nil.
func (s *Session) LastFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame
}
