package alerts

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/backend"
)

func TestEvidenceFetch(t *testing.T) {
	snapshot := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snap1.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(snapshot)
	}))
	defer srv.Close()

	f := NewEvidenceFetcher(backend.New(srv.URL, time.Second))

	got, err := f.Fetch(context.Background(), "/snap1.jpg")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, snapshot) {
		t.Fatalf("fetched %v, want %v", got, snapshot)
	}

	if _, err := f.Fetch(context.Background(), "/missing.jpg"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestEvidenceFetchWithoutReference(t *testing.T) {
	f := NewEvidenceFetcher(backend.New("http://127.0.0.1:1", time.Second))

	_, err := f.Fetch(context.Background(), "")
	if !errors.Is(err, ErrNoEvidence) {
		t.Fatalf("expected ErrNoEvidence, got %v", err)
	}
}
