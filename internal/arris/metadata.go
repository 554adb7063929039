package arris

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Field identifies one of the descriptive metadata fields of a picture.
type Field int

const (
	FieldAuthor Field = iota
	FieldDateTime
	FieldCity
	FieldCountry
	FieldTitle
	FieldDescription
	FieldTags
)

// AllFields lists the metadata fields in display order.
var AllFields = []Field{
	FieldAuthor,
	FieldDateTime,
	FieldCity,
	FieldCountry,
	FieldTitle,
	FieldDescription,
	FieldTags,
}

func (f Field) String() string {
	switch f {
	case FieldAuthor:
		return "author"
	case FieldDateTime:
		return "date_time"
	case FieldCity:
		return "city"
	case FieldCountry:
		return "country"
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldTags:
		return "tags"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField returns the Field with the given name.
func ParseField(name string) (Field, error) {
	for _, f := range AllFields {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Metadata holds the descriptive metadata of a single picture.
// A nil field means the value is absent from the file. Tags are semantically
// a set; their order is kept for display only.
type Metadata struct {
	Author      *string
	DateTime    *time.Time
	City        *string
	Country     *string
	Title       *string
	Description *string
	Tags        []string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := &Metadata{
		Author:      clonePtr(m.Author),
		DateTime:    clonePtr(m.DateTime),
		City:        clonePtr(m.City),
		Country:     clonePtr(m.Country),
		Title:       clonePtr(m.Title),
		Description: clonePtr(m.Description),
	}
	if m.Tags != nil {
		c.Tags = slices.Clone(m.Tags)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Equal reports whether m and o hold the same values. Date times are equal
// when they denote the same instant with the same UTC offset; tags are
// compared as sets.
func (m *Metadata) Equal(o *Metadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	return equalPtr(m.Author, o.Author) &&
		equalTime(m.DateTime, o.DateTime) &&
		equalPtr(m.City, o.City) &&
		equalPtr(m.Country, o.Country) &&
		equalPtr(m.Title, o.Title) &&
		equalPtr(m.Description, o.Description) &&
		tagSetKey(m.Tags) == tagSetKey(o.Tags)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	_, oa := a.Zone()
	_, ob := b.Zone()
	return a.Equal(*b) && oa == ob
}

// tagSetKey returns a key identifying the set of tags. A nil slice has its
// own key, distinct from an empty set.
func tagSetKey(tags []string) string {
	if tags == nil {
		return "\x00nil"
	}
	set := make([]string, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(set, t) {
			set = append(set, t)
		}
	}
	slices.Sort(set)
	return strings.Join(set, "\x00")
}

// stringField returns a pointer to the string field f of m, or nil for
// fields that are not plain strings.
func (m *Metadata) stringField(f Field) **string {
	switch f {
	case FieldAuthor:
		return &m.Author
	case FieldCity:
		return &m.City
	case FieldCountry:
		return &m.Country
	case FieldTitle:
		return &m.Title
	case FieldDescription:
		return &m.Description
	default:
		return nil
	}
}

// Text returns the value of the string field f, or nil for fields that are
// absent or not plain strings.
func (m *Metadata) Text(f Field) *string {
	p := m.stringField(f)
	if p == nil {
		return nil
	}
	return *p
}

// SetText sets the string field f to v. It reports false when f is not a
// plain string field.
func (m *Metadata) SetText(f Field, v *string) bool {
	p := m.stringField(f)
	if p == nil {
		return false
	}
	*p = v
	return true
}

// EXIFTimestampLayout is the layout of EXIF date/time values.
const EXIFTimestampLayout = "2006:01:02 15:04:05"

// ParseEXIFTimestamp converts an EXIF timestamp of the form
// "YYYY:MM:DD HH:MM:SS" to a time in loc. EXIF timestamps carry no UTC
// offset; a nil loc is treated as UTC. An hour of 24 is read as 0.
func ParseEXIFTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 19 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	parts := [6]int{}
	spans := [6][2]int{{0, 4}, {5, 7}, {8, 10}, {11, 13}, {14, 16}, {17, 19}}
	for i, sp := range spans {
		n, err := strconv.Atoi(s[sp[0]:sp[1]])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
		}
		parts[i] = n
	}
	if parts[3] == 24 {
		parts[3] = 0
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, loc), nil
}

// FormatEXIFTimestamp formats t as an EXIF timestamp, dropping the offset.
func FormatEXIFTimestamp(t time.Time) string {
	return t.Format(EXIFTimestampLayout)
}

// xmpDateLayouts are tried in order when parsing an XMP date.
var xmpDateLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05",
	"2006-01-02",
}

// ParseXMPDate parses an XMP date value. Values without a UTC offset are
// interpreted in defaultZone (UTC when nil).
func ParseXMPDate(s string, defaultZone *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	for _, layout := range xmpDateLayouts {
		t, err := time.ParseInLocation(layout, s, defaultZone)
		if err == nil {
			return t.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// FormatXMPDate formats t the way it is stored in the XMP dc:date tag.
func FormatXMPDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}
