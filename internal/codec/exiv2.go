package codec

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
	"time"

	"arris/internal/arris"
)

// xmpTag maps a metadata field to its exiv2 XMP key.
type xmpTag struct {
	field   arris.Field
	key     string
	langAlt bool // value carries a language qualifier
}

var xmpTags = []xmpTag{
	{field: arris.FieldAuthor, key: "Xmp.dc.creator"},
	{field: arris.FieldDateTime, key: "Xmp.dc.date"},
	{field: arris.FieldCity, key: "Xmp.iptcExt.City"},
	{field: arris.FieldCountry, key: "Xmp.iptcExt.CountryName"},
	{field: arris.FieldTitle, key: "Xmp.dc.title", langAlt: true},
	{field: arris.FieldDescription, key: "Xmp.dc.description", langAlt: true},
	{field: arris.FieldTags, key: "Xmp.dc.subject"},
}

const xmpLanguageKey = "Xmp.dc.language"

// Exiv2Codec reads and writes metadata with the exiv2 command line tool.
type Exiv2Codec struct {
	runner Runner
	bin    string
	logger arris.Logger
}

// NewExiv2Codec creates a codec running bin (usually "exiv2") through runner.
func NewExiv2Codec(runner Runner, bin string, logger arris.Logger) *Exiv2Codec {
	if logger == nil {
		logger = arris.NewNopLogger()
	}
	return &Exiv2Codec{runner: runner, bin: bin, logger: logger}
}

func (c *Exiv2Codec) ReadXMP(ctx context.Context, path string, defaultZone *time.Location) (*arris.Metadata, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	out, err := c.runLenient(ctx, arris.ErrXMPRead, path, "-PXkv", path)
	if err != nil {
		return nil, err
	}

	md := &arris.Metadata{}
	for key, value := range keyValues(out) {
		tag, ok := lookupXMPTag(key)
		if !ok {
			continue
		}
		if tag.langAlt {
			value = stripLanguage(value)
		}
		switch tag.field {
		case arris.FieldDateTime:
			t, err := arris.ParseXMPDate(value, defaultZone)
			if err != nil {
				return nil, &arris.ToolError{Kind: arris.ErrXMPRead, File: path, Message: err.Error()}
			}
			md.DateTime = &t
		case arris.FieldTags:
			md.Tags = splitList(value)
		default:
			md.SetText(tag.field, arris.Ptr(value))
		}
	}
	return md, nil
}

func (c *Exiv2Codec) WriteXMP(ctx context.Context, path string, md *arris.Metadata, language string) error {
	if err := requireFile(path); err != nil {
		return err
	}
	if md == nil {
		md = &arris.Metadata{}
	}

	var cmds []string
	for _, tag := range xmpTags {
		cmds = append(cmds, "del "+tag.key)
		for _, v := range xmpValues(md, tag.field) {
			if tag.langAlt {
				cmds = append(cmds, fmt.Sprintf("set %s lang=%s %s", tag.key, language, v))
			} else {
				cmds = append(cmds, fmt.Sprintf("set %s %s", tag.key, v))
			}
		}
	}
	cmds = append(cmds, "del "+xmpLanguageKey)

	_, err := c.run(ctx, arris.ErrXMPWrite, path, modifyArgs(cmds, path)...)
	return err
}

func (c *Exiv2Codec) ReadEXIF(ctx context.Context, path string, tags []string) (map[string]string, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	out, err := c.run(ctx, arris.ErrEXIFRead, path, "-PEkv", path)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for key, value := range keyValues(out) {
		for _, want := range tags {
			if strings.EqualFold(key, want) {
				result[want] = value
			}
		}
	}
	return result, nil
}

func (c *Exiv2Codec) WriteEXIF(ctx context.Context, path string, tags map[string]*string) error {
	if err := requireFile(path); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cmds := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := tags[k]; v != nil {
			cmds = append(cmds, fmt.Sprintf("set %s %s", k, *v))
		} else {
			cmds = append(cmds, "del "+k)
		}
	}

	_, err := c.run(ctx, arris.ErrEXIFWrite, path, modifyArgs(cmds, path)...)
	return err
}

// DeleteThumbnail removes the embedded EXIF preview image.
func (c *Exiv2Codec) DeleteThumbnail(ctx context.Context, path string) error {
	if err := requireFile(path); err != nil {
		return err
	}
	_, err := c.run(ctx, arris.ErrTransform, path, "-dt", "rm", path)
	return err
}

// Close is a no-op; every call runs its own process.
func (c *Exiv2Codec) Close() error {
	return nil
}

// run executes exiv2. Any output on stderr is a failure of kind, except
// exiv2's report that the file has no data of the requested kind.
func (c *Exiv2Codec) run(ctx context.Context, kind error, path string, args ...string) ([]byte, error) {
	c.logger.Debug("running exiv2", "args", strings.Join(args, " "))
	stdout, stderr, err := c.runner.Run(ctx, c.bin, args...)
	msg := strings.TrimSpace(string(stderr))
	if msg != "" && isNoDataMessage(msg) {
		return nil, nil
	}
	if msg != "" {
		return nil, &arris.ToolError{Kind: kind, File: path, Message: msg}
	}
	if err != nil {
		return nil, &arris.ToolError{Kind: kind, File: path, Message: err.Error()}
	}
	return stdout, nil
}

// runLenient executes exiv2 for a read that survives warnings, such as the
// maker note complaints exiv2 prints for many raw files. Stderr is logged;
// the call fails only when exiv2 exits with an error and prints nothing.
func (c *Exiv2Codec) runLenient(ctx context.Context, kind error, path string, args ...string) ([]byte, error) {
	c.logger.Debug("running exiv2", "args", strings.Join(args, " "))
	stdout, stderr, err := c.runner.Run(ctx, c.bin, args...)
	msg := strings.TrimSpace(string(stderr))
	if msg != "" && isNoDataMessage(msg) {
		return nil, nil
	}
	if err != nil && len(bytes.TrimSpace(stdout)) == 0 {
		if msg == "" {
			msg = err.Error()
		}
		return nil, &arris.ToolError{Kind: kind, File: path, Message: msg}
	}
	if msg != "" {
		c.logger.Warn("exiv2 warning", "file", path, "stderr", msg)
	}
	return stdout, nil
}

func isNoDataMessage(msg string) bool {
	return strings.Contains(msg, "No Exif data found") || strings.Contains(msg, "No XMP data found")
}

// modifyArgs builds an exiv2 modify call that keeps the file timestamp.
func modifyArgs(cmds []string, path string) []string {
	args := []string{"-k"}
	for _, c := range cmds {
		args = append(args, "-M", c)
	}
	return append(args, path)
}

// keyValues iterates the "key value" lines printed by exiv2 -P...kv.
func keyValues(out []byte) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		sc := bufio.NewScanner(bytes.NewReader(out))
		for sc.Scan() {
			line := strings.TrimRight(sc.Text(), "\r")
			key, value, _ := strings.Cut(strings.TrimSpace(line), " ")
			if key == "" {
				continue
			}
			if !yield(key, strings.TrimSpace(value)) {
				return
			}
		}
	}
}

func lookupXMPTag(key string) (xmpTag, bool) {
	for _, t := range xmpTags {
		if strings.EqualFold(t.key, key) {
			return t, true
		}
	}
	return xmpTag{}, false
}

// stripLanguage drops the lang="..." qualifier exiv2 prints before the
// value of language alternatives.
func stripLanguage(v string) string {
	if !strings.HasPrefix(v, "lang=") {
		return v
	}
	_, rest, _ := strings.Cut(v, " ")
	return strings.TrimSpace(rest)
}

// splitList splits a comma separated XMP bag.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// xmpValues returns the values to set for field f of md; none when the
// field is absent.
func xmpValues(md *arris.Metadata, f arris.Field) []string {
	switch f {
	case arris.FieldDateTime:
		if md.DateTime == nil {
			return nil
		}
		return []string{arris.FormatXMPDate(*md.DateTime)}
	case arris.FieldTags:
		return md.Tags
	default:
		if v := md.Text(f); v != nil {
			return []string{*v}
		}
		return nil
	}
}

// requireFile fails with an error wrapping fs.ErrNotExist when path is
// missing.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("accessing %s: %w", path, err)
	}
	return nil
}

var _ Codec = (*Exiv2Codec)(nil)
