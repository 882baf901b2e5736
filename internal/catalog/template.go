package catalog

import (
	"fmt"
	"sort"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Template is a named preset that pre-fills a fake spec and free-text fields.
type Template struct {
	Name        string         `json:"name"`
	Fake        model.FakeSpec `json:"fake"`
	Author      string         `json:"author,omitempty"`
	Description string         `json:"description,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Copyright   string         `json:"copyright,omitempty"`
	CreatorTool string         `json:"creatorTool,omitempty"`
}

var templates = map[string]Template{
	"professional": {
		Name: "professional",
		Fake: model.FakeSpec{
			Profile: model.ProfileCamera, Make: "Canon", Model: "EOS R5", Lens: "RF 24-70mm f/2.8L IS USM",
			ISO: 400, ExposureTime: "1/125", FNumber: 2.8, FocalLength: 50,
		},
		Author:    "Professional Photographer",
		Keywords:  []string{"professional", "photography", "portrait", "studio"},
		Copyright: "(c) Professional Studio",
	},
	"travel": {
		Name: "travel",
		Fake: model.FakeSpec{
			Profile: model.ProfileCamera, Make: "Sony", Model: "Alpha A7R IV",
			GPS: model.FakeGPS{Enabled: true, Preset: "kyiv"},
			ISO: 200, ExposureTime: "1/500",
		},
		Keywords:    []string{"travel", "journey", "adventure", "explore"},
		Description: "Amazing travel photography",
	},
	"nature": {
		Name: "nature",
		Fake: model.FakeSpec{
			Profile: model.ProfileCamera, Make: "Nikon", Model: "Z9", Lens: "NIKKOR Z 100-400mm f/4.5-5.6 VR S",
			ISO: 800, FocalLength: 300,
		},
		Keywords:    []string{"nature", "wildlife", "landscape", "outdoor"},
		Description: "Nature and wildlife photography",
	},
	"studio": {
		Name: "studio",
		Fake: model.FakeSpec{
			Profile: model.ProfileCamera, Make: "Hasselblad", Model: "X1D II 50C",
			ISO: 100, ExposureTime: "1/60", FNumber: 8, Flash: model.IntPtr(1),
		},
		Keywords:    []string{"studio", "portrait", "fashion", "commercial"},
		CreatorTool: "Capture One Pro",
	},
	"street": {
		Name: "street",
		Fake: model.FakeSpec{
			Profile: model.ProfileCamera, Make: "Fujifilm", Model: "X-T5", Lens: "XF23mmF2 R WR",
			ISO: 1600, ExposureTime: "1/250", FNumber: 5.6, ColorSpace: "sRGB",
		},
		Keywords:    []string{"street", "urban", "city", "documentary"},
		Description: "Street photography",
	},
}

// Templates returns every quick template sorted by name.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ApplyTemplate fills the job's fake spec and free-text fields from the named
// template. Values already set on the job win over template values. Applying
// a template enables fake metadata.
func ApplyTemplate(name string, job model.Job) (model.Job, error) {
	t, ok := templates[name]
	if !ok {
		return job, fmt.Errorf("unknown template %q", name)
	}

	f := &job.Meta.Fake
	tf := t.Fake
	f.Enabled = true

	if f.Profile == "" {
		f.Profile = tf.Profile
	}
	fillString(&f.Make, tf.Make)
	fillString(&f.Model, tf.Model)
	fillString(&f.Lens, tf.Lens)
	fillString(&f.ExposureTime, tf.ExposureTime)
	fillString(&f.ColorSpace, tf.ColorSpace)
	if f.ISO == 0 {
		f.ISO = tf.ISO
	}
	if f.FNumber == 0 {
		f.FNumber = tf.FNumber
	}
	if f.FocalLength == 0 {
		f.FocalLength = tf.FocalLength
	}
	if f.Flash == nil && tf.Flash != nil {
		f.Flash = model.IntPtr(*tf.Flash)
	}
	if tf.GPS.Enabled && !f.GPS.Enabled {
		f.GPS = tf.GPS
	}

	m := &job.Meta
	fillString(&m.Author, t.Author)
	fillString(&m.Description, t.Description)
	fillString(&m.Copyright, t.Copyright)
	fillString(&m.CreatorTool, t.CreatorTool)
	if len(m.Keywords) == 0 {
		m.Keywords = append([]string(nil), t.Keywords...)
	}

	return job, nil
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
