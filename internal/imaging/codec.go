package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// InvalidImageError reports a payload that could not be turned into an
// image: empty, bad base64, or bytes no registered codec accepts.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return "invalid image: " + e.Reason
}

// StorageWriteError reports a failed durable write of an image file.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return "write " + e.Path + ": " + e.Err.Error()
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// Buffer holds a decoded image together with the encoded bytes it was
// decoded from, so the original can be persisted byte-for-byte.
type Buffer struct {
	Image image.Image
	Raw   []byte
}

// TimestampLayout is the second-resolution capture timestamp used in
// filenames and records.
const TimestampLayout = "20060102150405"

// Decode strips an optional data-URI style "<scheme>," prefix,
// base64-decodes the remainder and decodes the bytes as a JPEG or PNG.
func Decode(payload string) (*Buffer, error) {
	if payload == "" {
		return nil, &InvalidImageError{Reason: "empty payload"}
	}
	if i := strings.Index(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &InvalidImageError{Reason: "payload is not valid base64"}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &InvalidImageError{Reason: "payload is not a decodable image"}
	}

	return &Buffer{Image: img, Raw: raw}, nil
}

// WriteOriginal persists the buffer's encoded bytes unchanged, creating
// parent directories on first use. An existing file at the same path is
// silently overwritten.
func WriteOriginal(buf *Buffer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Raw, 0o644); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}
	return nil
}

// WriteAnnotated JPEG-encodes an annotated image to path, creating
// parent directories on first use.
func WriteAnnotated(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return &StorageWriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}
	return nil
}

// FileName is the original image filename for one inspection. Two
// requests for the same gauge within the same second collide and the
// later one overwrites the earlier — a documented limitation.
func FileName(gaugeID, timestamp string) string {
	return gaugeID + "_" + timestamp + ".jpg"
}

// ResultFileName is the annotated copy's filename.
func ResultFileName(gaugeID, timestamp string) string {
	return gaugeID + "_" + timestamp + "_result.jpg"
}
