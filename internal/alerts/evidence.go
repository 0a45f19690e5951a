package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ErrNoEvidence is returned when evidence is requested for an alert that
// carries no snapshot reference.
var ErrNoEvidence = errors.New("alerts: alert has no evidence snapshot")

// EvidenceFetcher retrieves the snapshot resource an alert references. The
// image path is resolved against the backend origin.
type EvidenceFetcher struct {
	client *resty.Client
}

// NewEvidenceFetcher wraps the shared backend client.
func NewEvidenceFetcher(client *resty.Client) *EvidenceFetcher {
	return &EvidenceFetcher{client: client}
}

// Fetch downloads the evidence snapshot bytes for the alert referenced by
// path (the Alert.Image field). The caller decodes them for the modal.
func (f *EvidenceFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoEvidence
	}

	resp, err := f.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch evidence %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch evidence %s: %s", path, resp.Status())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("fetch evidence %s: empty response", path)
	}
	return resp.Body(), nil
}
