package batch

import (
	"testing"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		template string
		source   string
		index    int
		format   model.Format
		want     string
	}{
		{"", "/photos/IMG_0001.JPG", 0, model.FormatWebP, "IMG_0001_1.webp"},
		{"{name}_{index}.{ext}", "/photos/beach.png", 4, model.FormatJPG, "beach_5.jpg"},
		{"{index0}-{name}.{ext}", "cat.jpeg", 0, model.FormatPNG, "0-cat.png"},
		{"out/{name}.{ext}", "dog.jpg", 2, model.FormatAVIF, "out_dog.avif"},
		{"{name}.tar.{ext}", "archive.v2.jpg", 0, model.FormatJPG, "archive.v2.tar.jpg"},
	}

	for _, c := range cases {
		if got := OutputName(c.template, c.source, c.index, c.format); got != c.want {
			t.Errorf("OutputName(%q, %q, %d) = %q, want %q", c.template, c.source, c.index, got, c.want)
		}
	}
}
