package codec

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/barasher/go-exiftool"

	"arris/internal/arris"
)

func TestExiftoolEXIFKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{arris.EXIFImageDateTime, "IFD0:ModifyDate"},
		{"exif.photo.datetimeoriginal", "ExifIFD:DateTimeOriginal"},
		{arris.EXIFPhotoDateTimeDigitize, "ExifIFD:CreateDate"},
		{arris.EXIFImageOrientation, "IFD0:Orientation"},
		{"Exif.Image.Artist", "Artist"},
		{"Copyright", "Copyright"},
	}
	for _, tt := range tests {
		if got := exiftoolEXIFKey(tt.in); got != tt.want {
			t.Errorf("exiftoolEXIFKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetadataFromFields(t *testing.T) {
	fm := exiftool.EmptyFileMetadata()
	fm.Fields["SourceFile"] = "/photos/a.jpg"
	fm.Fields["XMP-dc:Creator"] = "Alice"
	fm.Fields["XMP-dc:Date"] = "2022:06:01 10:00:00+02:00"
	fm.Fields["XMP-iptcExt:City"] = "Oslo"
	fm.Fields["XMP-dc:Title"] = "Summer"
	fm.Fields["XMP-dc:Subject"] = []interface{}{"sea", "boat"}
	fm.Fields["IFD0:Orientation"] = float64(6)

	md, err := metadataFromFields(fm, time.UTC)
	if err != nil {
		t.Fatalf("metadataFromFields() error = %v", err)
	}

	date := time.Date(2022, 6, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600))
	want := &arris.Metadata{
		Author:   arris.Ptr("Alice"),
		DateTime: &date,
		City:     arris.Ptr("Oslo"),
		Title:    arris.Ptr("Summer"),
		Tags:     []string{"sea", "boat"},
	}
	if !md.Equal(want) {
		t.Errorf("metadataFromFields() = %+v, want %+v", md, want)
	}

	t.Run("date without offset uses default zone", func(t *testing.T) {
		fm := exiftool.EmptyFileMetadata()
		fm.Fields["XMP-dc:Date"] = "2022:06:01 10:00:00"
		zone := time.FixedZone("", -3*3600)

		md, err := metadataFromFields(fm, zone)
		if err != nil {
			t.Fatalf("metadataFromFields() error = %v", err)
		}
		if _, off := md.DateTime.Zone(); off != -3*3600 {
			t.Errorf("offset = %d, want %d", off, -3*3600)
		}
	})

	t.Run("bag reported as one string", func(t *testing.T) {
		fm := exiftool.EmptyFileMetadata()
		fm.Fields["XMP-dc:Subject"] = "sea, boat"

		md, err := metadataFromFields(fm, time.UTC)
		if err != nil {
			t.Fatalf("metadataFromFields() error = %v", err)
		}
		if !slices.Equal(md.Tags, []string{"sea", "boat"}) {
			t.Errorf("Tags = %q, want [sea boat]", md.Tags)
		}
	})

	t.Run("language alternatives", func(t *testing.T) {
		tests := []struct {
			name   string
			fields map[string]interface{}
			want   string
		}{
			{"suffixed only", map[string]interface{}{"XMP-dc:Title-en-US": "Summer"}, "Summer"},
			{"default wins", map[string]interface{}{"XMP-dc:Title": "Default", "XMP-dc:Title-de-DE": "Sommer"}, "Default"},
			{"cleared default", map[string]interface{}{"XMP-dc:Title": nil, "XMP-dc:Title-nb-NO": "Sommer"}, "Sommer"},
			{"first language", map[string]interface{}{"xmp-dc:title-fr-FR": "Été", "XMP-dc:Title-de-DE": "Sommer"}, "Sommer"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fm := exiftool.EmptyFileMetadata()
				for k, v := range tt.fields {
					fm.Fields[k] = v
				}
				md, err := metadataFromFields(fm, time.UTC)
				if err != nil {
					t.Fatalf("metadataFromFields() error = %v", err)
				}
				if md.Title == nil || *md.Title != tt.want {
					t.Errorf("Title = %v, want %q", md.Title, tt.want)
				}
			})
		}
	})

	t.Run("cleared fields are absent", func(t *testing.T) {
		fm := exiftool.EmptyFileMetadata()
		fm.Clear("XMP-dc:Creator")
		fm.Clear("XMP-dc:Subject")
		fm.Clear("XMP-dc:Date")

		md, err := metadataFromFields(fm, time.UTC)
		if err != nil {
			t.Fatalf("metadataFromFields() error = %v", err)
		}
		if !md.Equal(&arris.Metadata{}) {
			t.Errorf("metadataFromFields() = %+v, want empty metadata", md)
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		fm := exiftool.EmptyFileMetadata()
		fm.Fields["XMP-dc:Date"] = "yesterday"

		if _, err := metadataFromFields(fm, time.UTC); !errors.Is(err, arris.ErrInvalidTimestamp) {
			t.Errorf("metadataFromFields() error = %v, want ErrInvalidTimestamp", err)
		}
	})
}

func TestFieldsFromMetadata(t *testing.T) {
	date := time.Date(2022, 6, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600))
	md := &arris.Metadata{
		Author:      arris.Ptr("Alice"),
		DateTime:    &date,
		Description: arris.Ptr("By the fjord"),
		Tags:        []string{"sea", "boat"},
	}

	fm := fieldsFromMetadata(md, "nb-NO")

	set := map[string]string{
		"XMP-dc:Creator":           "Alice",
		"XMP-dc:Date":              "2022:06:01 10:00:00+02:00",
		"XMP-dc:Description-nb-NO": "By the fjord",
	}
	for k, want := range set {
		got, err := fm.GetString(k)
		if err != nil || got != want {
			t.Errorf("field %s = %q (%v), want %q", k, got, err, want)
		}
	}

	tags, err := fm.GetStrings("XMP-dc:Subject")
	if err != nil || !slices.Equal(tags, []string{"sea", "boat"}) {
		t.Errorf("XMP-dc:Subject = %q (%v), want [sea boat]", tags, err)
	}

	cleared := []string{
		"XMP-iptcExt:City",
		"XMP-iptcExt:CountryName",
		"XMP-dc:Title",
		"XMP-dc:Description",
		"XMP-dc:Language",
	}
	for _, k := range cleared {
		v, ok := fm.Fields[k]
		if !ok || v != nil {
			t.Errorf("field %s = %v (present %v), want cleared", k, v, ok)
		}
	}
}

func TestExiftoolCodec_Integration(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	c, err := NewExiftoolCodec("exiftool", nil)
	if err != nil {
		t.Fatalf("NewExiftoolCodec() error = %v", err)
	}
	defer c.Close()

	missing := filepath.Join(t.TempDir(), "gone.jpg")
	if _, err := c.ReadXMP(context.Background(), missing, time.UTC); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadXMP() error = %v, want fs.ErrNotExist", err)
	}
}

func TestNewExiftoolCodec_MissingBinary(t *testing.T) {
	_, err := NewExiftoolCodec(filepath.Join(t.TempDir(), "no-such-exiftool"), nil)
	if err == nil {
		t.Error("NewExiftoolCodec() expected error for a missing binary")
	}
}
