package metadata

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"
	"strings"

	_ "github.com/gen2brain/avif"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata/container"
)

// Field groups reported by Inspect.
const (
	GroupEXIF = "EXIF"
	GroupXMP  = "XMP"
	GroupIPTC = "IPTC"
)

// Field is one human readable metadata value.
type Field struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Report describes one image file on disk.
type Report struct {
	Path   string  `json:"path"`
	Size   int64   `json:"size"`
	Format string  `json:"format"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Fields []Field `json:"fields"`
}

// Inspect reads the size, dimensions and metadata of the file at path.
func Inspect(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return InspectBytes(path, data), nil
}

// InspectBytes is Inspect for data already in memory. Unreadable metadata
// yields a report without fields.
func InspectBytes(name string, data []byte) Report {
	r := Report{Path: name, Size: int64(len(data)), Format: container.Detect(data)}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		r.Width, r.Height = cfg.Width, cfg.Height
		if r.Format == "" {
			r.Format = format
		}
	}

	raw, _ := container.Extract(data)
	r.Fields = append(r.Fields, exifFields(raw.EXIF)...)
	r.Fields = append(r.Fields, xmpFields(raw.XMP)...)
	if len(raw.IPTC) > 0 {
		r.Fields = append(r.Fields, Field{Group: GroupIPTC, Name: "Block", Value: fmt.Sprintf("%d bytes", len(raw.IPTC))})
	}

	return r
}

type fieldCollector []Field

func (c *fieldCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	*c = append(*c, Field{Group: GroupEXIF, Name: string(name), Value: strings.Trim(tag.String(), `"`)})
	return nil
}

func exifFields(raw []byte) []Field {
	if len(raw) == 0 {
		return nil
	}
	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil
	}

	var c fieldCollector
	_ = x.Walk(&c)
	sort.Slice(c, func(i, j int) bool { return c[i].Name < c[j].Name })
	return c
}

func xmpFields(raw []byte) []Field {
	if len(raw) == 0 {
		return nil
	}
	x, err := ParseXMP(raw)
	if err != nil {
		return nil
	}

	var out []Field
	for _, p := range x.Properties() {
		name := p.Name
		if pfx := x.prefix(p.NS); pfx != "" {
			name = pfx + ":" + p.Name
		}
		out = append(out, Field{Group: GroupXMP, Name: name, Value: strings.Join(p.Values, "; ")})
	}
	return out
}

// Change is a metadata field that differs between two files.
type Change struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Comparison relates a source file to its processed output.
type Comparison struct {
	Source  Report   `json:"source"`
	Output  Report   `json:"output"`
	Ratio   float64  `json:"ratio"` // output size over source size
	Changes []Change `json:"changes"`
}

// Compare inspects src and out and lists every field that was added,
// removed or changed.
func Compare(src, out string) (Comparison, error) {
	a, err := Inspect(src)
	if err != nil {
		return Comparison{}, err
	}
	b, err := Inspect(out)
	if err != nil {
		return Comparison{}, err
	}
	return CompareReports(a, b), nil
}

// CompareReports is Compare for reports already built.
func CompareReports(a, b Report) Comparison {
	c := Comparison{Source: a, Output: b}
	if a.Size > 0 {
		c.Ratio = float64(b.Size) / float64(a.Size)
	}

	key := func(f Field) string { return f.Group + "\x00" + f.Name }
	before := make(map[string]Field, len(a.Fields))
	for _, f := range a.Fields {
		before[key(f)] = f
	}
	after := make(map[string]Field, len(b.Fields))
	for _, f := range b.Fields {
		after[key(f)] = f
	}

	for k, f := range before {
		g, ok := after[k]
		if !ok || g.Value != f.Value {
			c.Changes = append(c.Changes, Change{Group: f.Group, Name: f.Name, Before: f.Value, After: g.Value})
		}
	}
	for k, g := range after {
		if _, ok := before[k]; !ok {
			c.Changes = append(c.Changes, Change{Group: g.Group, Name: g.Name, After: g.Value})
		}
	}

	sort.Slice(c.Changes, func(i, j int) bool {
		if c.Changes[i].Group != c.Changes[j].Group {
			return c.Changes[i].Group < c.Changes[j].Group
		}
		return c.Changes[i].Name < c.Changes[j].Name
	})

	return c
}
