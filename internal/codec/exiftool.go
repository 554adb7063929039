package codec

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"

	"arris/internal/arris"
)

// exiftoolXMPKeys maps metadata fields to exiftool "group:tag" names.
var exiftoolXMPKeys = map[arris.Field]string{
	arris.FieldAuthor:      "XMP-dc:Creator",
	arris.FieldDateTime:    "XMP-dc:Date",
	arris.FieldCity:        "XMP-iptcExt:City",
	arris.FieldCountry:     "XMP-iptcExt:CountryName",
	arris.FieldTitle:       "XMP-dc:Title",
	arris.FieldDescription: "XMP-dc:Description",
	arris.FieldTags:        "XMP-dc:Subject",
}

const exiftoolLanguageKey = "XMP-dc:Language"

// exiftoolEXIFKeys translates the exiv2 style EXIF keys used by the editor.
var exiftoolEXIFKeys = map[string]string{
	arris.EXIFImageDateTime:         "IFD0:ModifyDate",
	arris.EXIFPhotoDateTimeOriginal: "ExifIFD:DateTimeOriginal",
	arris.EXIFPhotoDateTimeDigitize: "ExifIFD:CreateDate",
	arris.EXIFSonyDateTime:          "Sony:SonyDateTime",
	arris.EXIFImageOrientation:      "IFD0:Orientation",
}

// exiftoolDateLayout is how exiftool prints and expects XMP dates.
const exiftoolDateLayout = "2006:01:02 15:04:05-07:00"

// ExiftoolCodec reads and writes metadata through a long-running exiftool
// process. Values are exchanged unconverted (exiftool -n) and tag names
// carry their family 1 group (exiftool -G1).
type ExiftoolCodec struct {
	et     *exiftool.Exiftool
	logger arris.Logger
}

// NewExiftoolCodec starts exiftool. bin may be a bare command name, which
// is resolved in PATH.
func NewExiftoolCodec(bin string, logger arris.Logger) (*ExiftoolCodec, error) {
	if logger == nil {
		logger = arris.NewNopLogger()
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("locating exiftool: %w", err)
	}
	et, err := exiftool.NewExiftool(
		exiftool.SetExiftoolBinaryPath(path),
		exiftool.NoPrintConversion(),
		exiftool.PrintGroupNames("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("starting exiftool: %w", err)
	}
	return &ExiftoolCodec{et: et, logger: logger}, nil
}

func (c *ExiftoolCodec) ReadXMP(_ context.Context, path string, defaultZone *time.Location) (*arris.Metadata, error) {
	fm, err := c.extract(path, arris.ErrXMPRead)
	if err != nil {
		return nil, err
	}
	md, err := metadataFromFields(fm, defaultZone)
	if err != nil {
		return nil, &arris.ToolError{Kind: arris.ErrXMPRead, File: path, Message: err.Error()}
	}
	return md, nil
}

func (c *ExiftoolCodec) WriteXMP(_ context.Context, path string, md *arris.Metadata, language string) error {
	if md == nil {
		md = &arris.Metadata{}
	}
	fm := fieldsFromMetadata(md, language)
	fm.File = path
	return c.write(fm, arris.ErrXMPWrite)
}

func (c *ExiftoolCodec) ReadEXIF(_ context.Context, path string, tags []string) (map[string]string, error) {
	fm, err := c.extract(path, arris.ErrEXIFRead)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, want := range tags {
		if v, ok := lookupField(fm, exiftoolEXIFKey(want)); ok {
			result[want] = v
		}
	}
	return result, nil
}

func (c *ExiftoolCodec) WriteEXIF(_ context.Context, path string, tags map[string]*string) error {
	if len(tags) == 0 {
		return requireFile(path)
	}
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	for k, v := range tags {
		key := exiftoolEXIFKey(k)
		if v == nil {
			fm.Clear(key)
		} else {
			fm.SetString(key, *v)
		}
	}
	return c.write(fm, arris.ErrEXIFWrite)
}

// DeleteThumbnail removes the embedded EXIF preview image.
func (c *ExiftoolCodec) DeleteThumbnail(_ context.Context, path string) error {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.Clear("IFD1:ThumbnailImage")
	return c.write(fm, arris.ErrTransform)
}

// Close stops the exiftool process.
func (c *ExiftoolCodec) Close() error {
	return c.et.Close()
}

func (c *ExiftoolCodec) extract(path string, kind error) (exiftool.FileMetadata, error) {
	if err := requireFile(path); err != nil {
		return exiftool.FileMetadata{}, err
	}
	fms := c.et.ExtractMetadata(path)
	if len(fms) != 1 {
		return exiftool.FileMetadata{}, &arris.ToolError{Kind: kind, File: path, Message: "no result from exiftool"}
	}
	if err := fms[0].Err; err != nil {
		return exiftool.FileMetadata{}, c.toolError(kind, path, err)
	}
	return fms[0], nil
}

func (c *ExiftoolCodec) write(fm exiftool.FileMetadata, kind error) error {
	if err := requireFile(fm.File); err != nil {
		return err
	}
	c.logger.Debug("running exiftool", "file", fm.File, "fields", len(fm.Fields))
	fms := []exiftool.FileMetadata{fm}
	c.et.WriteMetadata(fms)
	if err := fms[0].Err; err != nil {
		return c.toolError(kind, fm.File, err)
	}
	return nil
}

func (c *ExiftoolCodec) toolError(kind error, path string, err error) error {
	if errors.Is(err, exiftool.ErrNotExist) {
		return fmt.Errorf("accessing %s: %w", path, fs.ErrNotExist)
	}
	return &arris.ToolError{Kind: kind, File: path, Message: err.Error()}
}

// exiftoolEXIFKey returns the exiftool name of an exiv2 style EXIF key.
// Unknown keys fall back to their last component.
func exiftoolEXIFKey(key string) string {
	for k, v := range exiftoolEXIFKeys {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

// lookupField finds key in fm, ignoring case. Lists are joined with ", ".
func lookupField(fm exiftool.FileMetadata, key string) (string, bool) {
	k, ok := fieldKey(fm, key)
	if !ok {
		return "", false
	}
	vs, err := fm.GetStrings(k)
	if err != nil {
		return "", false
	}
	return strings.Join(vs, ", "), true
}

// fieldKey returns the name under which fm holds a value for key. Cleared
// fields do not count. A language alternative stored as key-<lang> is used
// when key itself is absent.
func fieldKey(fm exiftool.FileMetadata, key string) (string, bool) {
	prefix := key + "-"
	var alt string
	for k, v := range fm.Fields {
		if v == nil {
			continue
		}
		if strings.EqualFold(k, key) {
			return k, true
		}
		if len(k) > len(prefix) && strings.EqualFold(k[:len(prefix)], prefix) && (alt == "" || k < alt) {
			alt = k
		}
	}
	return alt, alt != ""
}

// metadataFromFields converts an exiftool extraction to Metadata.
func metadataFromFields(fm exiftool.FileMetadata, defaultZone *time.Location) (*arris.Metadata, error) {
	md := &arris.Metadata{}
	for _, f := range arris.AllFields {
		key := exiftoolXMPKeys[f]
		switch f {
		case arris.FieldTags:
			k, ok := fieldKey(fm, key)
			if !ok {
				continue
			}
			tags, err := fm.GetStrings(k)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", key, err)
			}
			md.Tags = splitTags(tags)
		case arris.FieldDateTime:
			v, ok := lookupField(fm, key)
			if !ok {
				continue
			}
			t, err := arris.ParseXMPDate(v, defaultZone)
			if err != nil {
				return nil, err
			}
			md.DateTime = &t
		default:
			if v, ok := lookupField(fm, key); ok {
				md.SetText(f, arris.Ptr(v))
			}
		}
	}
	return md, nil
}

// splitTags flattens tag values; exiftool may report a bag as one comma
// separated string.
func splitTags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, splitList(v)...)
	}
	return out
}

// fieldsFromMetadata builds the exiftool assignments for md. Absent fields
// are cleared; language alternatives are written for language.
func fieldsFromMetadata(md *arris.Metadata, language string) exiftool.FileMetadata {
	fm := exiftool.EmptyFileMetadata()
	for _, f := range arris.AllFields {
		key := exiftoolXMPKeys[f]
		switch f {
		case arris.FieldTags:
			if len(md.Tags) == 0 {
				fm.Clear(key)
			} else {
				fm.SetStrings(key, md.Tags)
			}
		case arris.FieldDateTime:
			if md.DateTime == nil {
				fm.Clear(key)
			} else {
				fm.SetString(key, md.DateTime.Format(exiftoolDateLayout))
			}
		case arris.FieldTitle, arris.FieldDescription:
			fm.Clear(key)
			if v := md.Text(f); v != nil {
				fm.SetString(key+"-"+language, *v)
			}
		default:
			if v := md.Text(f); v != nil {
				fm.SetString(key, *v)
			} else {
				fm.Clear(key)
			}
		}
	}
	fm.Clear(exiftoolLanguageKey)
	return fm
}

var _ Codec = (*ExiftoolCodec)(nil)
