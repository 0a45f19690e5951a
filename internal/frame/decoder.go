// Package frame converts raw binary stream payloads into displayable bitmaps.
package frame

import (
	"bytes"
	"fmt"
	"image"

	// Register the still-image encodings the backend may emit. The reference
	// backend sends JPEG; bmp and webp cover other snapshot tooling.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode converts one complete encoded frame payload into a bitmap.
// It is pure and stateless; the staging reader lives only for the call, so
// nothing is retained whether decoding succeeds or fails.
//
// A decode failure means the single frame is unusable, not that the
// connection is broken. Callers drop the frame and keep the session live.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("decode frame: empty payload")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode frame: %w", err)
	}
	return img, format, nil
}
