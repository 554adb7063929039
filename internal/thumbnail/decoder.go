// Package thumbnail decodes embedded preview images of selected files in
// the background.
package thumbnail

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Decoder extracts the preview image of a file.
type Decoder interface {
	Decode(path string) (data []byte, width, height int, err error)
}

// ExifDecoder returns the JPEG thumbnail embedded in the EXIF data.
type ExifDecoder struct{}

func (ExifDecoder) Decode(path string) ([]byte, int, int, error) {
	x, err := decodeExif(path)
	if err != nil {
		return nil, 0, 0, err
	}
	data, err := x.JpegThumbnail()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("no embedded thumbnail in %s: %w", path, err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding thumbnail of %s: %w", path, err)
	}
	return data, cfg.Width, cfg.Height, nil
}

// CaptureTime returns the EXIF capture date of path, preferring
// DateTimeOriginal. EXIF dates carry no offset; the result is in the local
// zone.
func CaptureTime(path string) (time.Time, error) {
	x, err := decodeExif(path)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}

func decodeExif(path string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading EXIF of %s: %w", path, err)
	}
	return x, nil
}

var _ Decoder = ExifDecoder{}
