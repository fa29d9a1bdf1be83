// Package capture acquires a photo of a math problem from a camera, a file
// or a watched inbox directory, and normalizes it into one payload shape.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	// Decoders for the formats accepted from files.
	_ "image/gif"
	_ "image/png"
)

// MaxFileSize caps images read from disk.
const MaxFileSize = 20 << 20

// JPEGQuality is used when re-encoding normalized images.
const JPEGQuality = 85

// ErrUnsupportedImage is returned for files that are not a decodable image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Image is the normalized payload handed to the recognizer, regardless of
// where it came from.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extensions lists file suffixes treated as images.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// IsImagePath reports whether path has an accepted image extension.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads and normalizes an image from disk.
func LoadFile(path string) (Image, error) {
	path = expandHome(strings.TrimSpace(path))
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return Image{}, fmt.Errorf("%s is larger than %d MB", path, MaxFileSize>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Normalize(data)
}

// Normalize decodes data and re-encodes it as JPEG so camera frames and
// files reach the recognizer in the same form.
func Normalize(data []byte) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if format == "jpeg" {
		return Image{Data: data, MIMEType: "image/jpeg"}, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
