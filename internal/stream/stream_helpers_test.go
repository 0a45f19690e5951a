package stream

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

const waitTimeout = 3 * time.Second

// unreachableBase points at a port nothing listens on, for dial failures.
const unreachableBase = "ws://127.0.0.1:1"

func testJPEG(t *testing.T, width int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 8))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// newWSServer runs a WebSocket endpoint that accepts any stream path and
// hands the connection to handler. The returned base URL plugs straight
// into NewSession / NewPool.
func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// sendFrames writes each payload as one binary message, then holds the
// connection open until the client closes it.
func sendFrames(frames ...[]byte) func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.BinaryMessage, f); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// holdOpen accepts the handshake and keeps the connection alive without
// sending anything.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type statusEvent struct {
	camera types.CameraID
	state  types.SessionState
}

type recorder struct {
	frames   chan types.Frame
	statuses chan statusEvent
}

func newRecorder() *recorder {
	return &recorder{
		frames:   make(chan types.Frame, 32),
		statuses: make(chan statusEvent, 32),
	}
}

func (r *recorder) onFrame(f types.Frame) {
	r.frames <- f
}

func (r *recorder) onStatus(camera types.CameraID, state types.SessionState) {
	r.statuses <- statusEvent{camera: camera, state: state}
}

// waitState consumes status events until the wanted state is observed.
func (r *recorder) waitState(t *testing.T, want types.SessionState) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-r.statuses:
			if ev.state == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// waitFrame returns the next delivered frame.
func (r *recorder) waitFrame(t *testing.T) types.Frame {
	t.Helper()
	select {
	case f := <-r.frames:
		return f
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for frame")
		return types.Frame{}
	}
}

// assertNoFrame verifies nothing reaches the sink within the grace window.
func (r *recorder) assertNoFrame(t *testing.T) {
	t.Helper()
	select {
	case f := <-r.frames:
		t.Fatalf("unexpected frame from camera %d", f.Camera)
	case <-time.After(150 * time.Millisecond):
	}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
