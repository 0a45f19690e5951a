// Package upload drives the target reference image workflow: local file
// selection with a client-side preview, then a single multipart upload.
package upload

import (
	"bytes"
	"context"
	"image"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/frame"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/metrics"
)

// Status tracks the single upload job: Idle -> Selected -> Uploading ->
// {Succeeded, Failed}. Selecting a new file from any terminal state resets
// the machine.
type Status int

const (
	StatusIdle Status = iota
	StatusSelected
	StatusUploading
	StatusSucceeded
	StatusFailed
)

var statusNames = map[Status]string{
	StatusIdle:      "Idle",
	StatusSelected:  "Selected",
	StatusUploading: "Uploading",
	StatusSucceeded: "Succeeded",
	StatusFailed:    "Failed",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Operator-facing status strings, matching the reference dashboard.
const (
	msgUploading    = "Uploading..."
	msgSuccess      = "Success! Tracking initialized."
	msgUploadFailed = "Upload failed."
	msgNetworkError = "Network error."
)

// StatusFunc observes status transitions with the user-visible message.
type StatusFunc func(Status, string)

// Controller manages the single active upload job. One job at a time;
// selecting a new file discards the previous preview, and upload calls
// while a request is in flight are ignored rather than queued.
type Controller struct {
	client   *resty.Client
	onStatus StatusFunc
	mtr      *metrics.Metrics

	mu       sync.Mutex
	status   Status
	message  string
	fileName string
	fileData []byte
	preview  image.Image
}

// NewController creates an idle controller. onStatus may be nil.
func NewController(client *resty.Client, onStatus StatusFunc, mtr *metrics.Metrics) *Controller {
	return &Controller{
		client:   client,
		onStatus: onStatus,
		mtr:      mtr,
	}
}

// Select stages a file as the pending target image and builds a local
// preview. Valid from Idle, Selected or any terminal state; while an
// upload is in flight the call is a silent no-op. The previous job's
// preview is discarded.
func (c *Controller) Select(name string, data []byte) {
	c.mu.Lock()
	if c.status == StatusUploading {
		c.mu.Unlock()
		return
	}

	// Release the prior preview before staging the new job.
	c.preview = nil

	preview, _, err := frame.Decode(data)
	if err != nil {
		logger.Debug("Upload", "no preview for %s: %v", name, err)
	}

	c.fileName = name
	c.fileData = data
	c.preview = preview
	c.status = StatusSelected
	c.message = ""
	c.mu.Unlock()

	c.notify(StatusSelected, "")
}

// Upload sends the staged file to the backend. Only valid from Selected:
// with no file staged it is a no-op, and a second call while Uploading is
// ignored, so at most one request is ever in flight. The request runs in
// the background; completion arrives through the status callback.
func (c *Controller) Upload(ctx context.Context) {
	c.mu.Lock()
	if c.status != StatusSelected {
		c.mu.Unlock()
		return
	}
	c.status = StatusUploading
	c.message = msgUploading
	name := c.fileName
	data := c.fileData
	c.mu.Unlock()

	if c.mtr != nil {
		c.mtr.UploadsStarted.Add(1)
	}
	c.notify(StatusUploading, msgUploading)

	go c.send(ctx, name, data)
}

func (c *Controller) send(ctx context.Context, name string, data []byte) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(data)).
		Post("/upload_target")

	switch {
	case err != nil:
		logger.Warn("Upload", "%s: %v", name, err)
		c.finish(StatusFailed, msgNetworkError)
	case resp.IsError():
		logger.Warn("Upload", "%s rejected: %s", name, resp.Status())
		c.finish(StatusFailed, msgUploadFailed)
	default:
		logger.Info("Upload", "%s accepted", name)
		c.finish(StatusSucceeded, msgSuccess)
	}
}

func (c *Controller) finish(status Status, message string) {
	c.mu.Lock()
	if c.status != StatusUploading {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.message = message
	c.mu.Unlock()

	if status == StatusFailed && c.mtr != nil {
		c.mtr.UploadsFailed.Add(1)
	}
	c.notify(status, message)
}

func (c *Controller) notify(status Status, message string) {
	if c.onStatus != nil {
		c.onStatus(status, message)
	}
}

// Status returns the current state and user-visible message.
func (c *Controller) Status() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.message
}

// Preview returns the locally decoded preview of the staged file, or nil.
func (c *Controller) Preview() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}
