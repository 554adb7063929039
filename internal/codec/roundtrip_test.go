package codec

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"arris/internal/arris"
)

// roundTripCases each set one field; what is written must read back equal.
func roundTripCases() []struct {
	name string
	md   *arris.Metadata
} {
	date := time.Date(2022, 6, 1, 10, 30, 0, 0, time.FixedZone("", -5*3600))
	utc := time.Date(2019, 12, 31, 23, 59, 59, 0, time.UTC)
	return []struct {
		name string
		md   *arris.Metadata
	}{
		{"nothing", &arris.Metadata{}},
		{"author", &arris.Metadata{Author: arris.Ptr("Alice Smith")}},
		{"date with offset", &arris.Metadata{DateTime: &date}},
		{"date in UTC", &arris.Metadata{DateTime: &utc}},
		{"city", &arris.Metadata{City: arris.Ptr("Oslo")}},
		{"country", &arris.Metadata{Country: arris.Ptr("Norway")}},
		{"title", &arris.Metadata{Title: arris.Ptr("Summer evening")}},
		{"description", &arris.Metadata{Description: arris.Ptr("By the fjord, late")}},
		{"one tag", &arris.Metadata{Tags: []string{"sea"}}},
		{"several tags", &arris.Metadata{Tags: []string{"sea", "boat", "family"}}},
		{"every field", &arris.Metadata{
			Author:      arris.Ptr("Bob"),
			DateTime:    &date,
			City:        arris.Ptr("Bergen"),
			Country:     arris.Ptr("Norway"),
			Title:       arris.Ptr("Rain"),
			Description: arris.Ptr("Again"),
			Tags:        []string{"rain"},
		}},
	}
}

// exiv2Printed renders the values set by an exiv2 modify call the way
// exiv2 -PXkv prints them: one line per key, bags comma separated and
// language alternatives with a quoted qualifier.
func exiv2Printed(args []string) string {
	var keys []string
	values := map[string][]string{}
	for i := 0; i+1 < len(args); i++ {
		if args[i] != "-M" {
			continue
		}
		cmd, ok := strings.CutPrefix(args[i+1], "set ")
		if !ok {
			continue
		}
		key, value, _ := strings.Cut(cmd, " ")
		if qualifier, rest, ok := strings.Cut(value, " "); ok && strings.HasPrefix(qualifier, "lang=") {
			value = fmt.Sprintf("lang=%q %s", strings.TrimPrefix(qualifier, "lang="), rest)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = append(values[key], value)
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%-44s %s\n", k, strings.Join(values[k], ", "))
	}
	return b.String()
}

func TestExiv2Codec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := newImage(t)

	for _, tt := range roundTripCases() {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeRunner{}
			if err := NewExiv2Codec(writer, "exiv2", nil).WriteXMP(ctx, path, tt.md, "en-US"); err != nil {
				t.Fatalf("WriteXMP() error = %v", err)
			}

			reader := &fakeRunner{stdout: exiv2Printed(writer.lastCall(t))}
			got, err := NewExiv2Codec(reader, "exiv2", nil).ReadXMP(ctx, path, time.UTC)
			if err != nil {
				t.Fatalf("ReadXMP() error = %v", err)
			}
			if !got.Equal(tt.md) {
				t.Errorf("read back %+v, wrote %+v\nprinted:\n%s", got, tt.md, reader.stdout)
			}
		})
	}
}

func TestExiftoolFields_RoundTrip(t *testing.T) {
	for _, tt := range roundTripCases() {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metadataFromFields(fieldsFromMetadata(tt.md, "en-US"), time.UTC)
			if err != nil {
				t.Fatalf("metadataFromFields() error = %v", err)
			}
			if !got.Equal(tt.md) {
				t.Errorf("read back %+v, wrote %+v", got, tt.md)
			}
		})
	}
}

func TestRoundTrip_EmptyTagsReadBackAsNone(t *testing.T) {
	ctx := context.Background()
	path := newImage(t)
	md := &arris.Metadata{Tags: []string{}}

	writer := &fakeRunner{}
	if err := NewExiv2Codec(writer, "exiv2", nil).WriteXMP(ctx, path, md, "en-US"); err != nil {
		t.Fatalf("WriteXMP() error = %v", err)
	}
	fromExiv2, err := NewExiv2Codec(&fakeRunner{stdout: exiv2Printed(writer.lastCall(t))}, "exiv2", nil).ReadXMP(ctx, path, time.UTC)
	if err != nil {
		t.Fatalf("ReadXMP() error = %v", err)
	}
	fromExiftool, err := metadataFromFields(fieldsFromMetadata(md, "en-US"), time.UTC)
	if err != nil {
		t.Fatalf("metadataFromFields() error = %v", err)
	}

	for name, got := range map[string]*arris.Metadata{"exiv2": fromExiv2, "exiftool": fromExiftool} {
		if got.Tags != nil {
			t.Errorf("%s: Tags = %#v, want nil", name, got.Tags)
		}
	}
}
