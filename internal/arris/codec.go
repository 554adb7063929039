package arris

import (
	"context"
	"time"
)

// MetadataCodec translates between Metadata and the tags embedded in image
// files. Implementations call out to external tools; every operation
// requires the target file to exist and fails with an error wrapping
// fs.ErrNotExist otherwise.
type MetadataCodec interface {
	// ReadXMP reads the descriptive XMP tags of path. Dates stored without a
	// UTC offset are interpreted in defaultZone.
	ReadXMP(ctx context.Context, path string, defaultZone *time.Location) (*Metadata, error)

	// WriteXMP writes every field of md to path. Each tag is deleted before
	// it is set again, so nil fields remove the tag. Language-aware tags are
	// written with the given language; the dc:language tag itself is always
	// removed.
	WriteXMP(ctx context.Context, path string, md *Metadata, language string) error

	// ReadEXIF returns the values of the requested EXIF tags that exist in
	// path, keyed by tag name. Tag names are matched case-insensitively.
	ReadEXIF(ctx context.Context, path string, tags []string) (map[string]string, error)

	// WriteEXIF sets the given EXIF tags. A nil value deletes the tag.
	WriteEXIF(ctx context.Context, path string, tags map[string]*string) error
}

// EXIF tags that may carry the capture date of a picture. The list is not
// exhaustive.
const (
	EXIFImageDateTime         = "Exif.Image.DateTime"
	EXIFPhotoDateTimeOriginal = "Exif.Photo.DateTimeOriginal"
	EXIFPhotoDateTimeDigitize = "Exif.Photo.DateTimeDigitized"
	EXIFSonyDateTime          = "Exif.SonySInfo1.SonyDateTime"
)

// EXIFImageOrientation holds the display orientation of the picture (1-8).
const EXIFImageOrientation = "Exif.Image.Orientation"

// DateTimeEXIFTags are reconciled against the XMP date on save.
var DateTimeEXIFTags = []string{
	EXIFImageDateTime,
	EXIFPhotoDateTimeOriginal,
	EXIFPhotoDateTimeDigitize,
	EXIFSonyDateTime,
}
