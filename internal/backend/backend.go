// Package backend builds the HTTP client shared by the alert poller, the
// evidence fetcher and the target uploader.
package backend

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every plain HTTP request to the backend.
const DefaultTimeout = 10 * time.Second

// New returns a resty client rooted at the backend origin.
func New(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return c
}
