package types

import (
	"image"
	"time"
)

// CameraID identifies one physical or logical camera. IDs are small
// non-negative integers and unique within a session pool.
type CameraID int

// Frame is one decoded still image delivered over a stream session.
type Frame struct {
	Camera     CameraID    // Source camera
	Image      image.Image // Decoded bitmap
	Format     string      // Wire encoding ("jpeg", "png", ...)
	Bytes      int         // Encoded payload size
	ReceivedAt time.Time   // Arrival timestamp
}

// SessionState tracks the lifecycle of a stream session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateLive
	StateErrored
	StateClosed
)

var stateNames = map[SessionState]string{
	StateIdle:       "Idle",
	StateConnecting: "Connecting",
	StateLive:       "Live",
	StateErrored:    "Errored",
	StateClosed:     "Closed",
}

// String returns the internal state name.
func (s SessionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Label returns the operator-facing status text for the camera tile.
// Errored and Closed render differently so the UI can distinguish a
// transport failure from a deliberate disconnect.
func (s SessionState) Label() string {
	switch s {
	case StateConnecting:
		return "Connecting..."
	case StateLive:
		return "Live"
	case StateErrored:
		return "Error"
	case StateClosed:
		return "Disconnected"
	default:
		return "Idle"
	}
}
