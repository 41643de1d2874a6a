// Package library keeps the on-disk video collection and the database
// in agreement: it renders cover thumbnails for the control plane and
// watches the filesystem so files deleted outside the application are
// re-queued for download.
package library

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"github.com/nfnt/resize"
)

// Video covers are landscape; the thumbnail keeps the cover's aspect
// ratio and is bounded by these dimensions.
const thumbnailWidth uint = 320
const thumbnailHeight uint = 200

// GenerateThumbnail resizes raw cover image data and returns it as a
// Base64 JPEG data URI, ready to embed in an API response.
func GenerateThumbnail(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	var resized image.Image
	if img.Bounds().Dx() >= img.Bounds().Dy() {
		resized = resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, thumbnailHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 75}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
