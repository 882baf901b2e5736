package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultNaming is the output name template used when a job sets none.
	DefaultNaming = "{name}_{index}.{ext}"
	// DefaultQuality is the encoder quality used when a job sets none.
	DefaultQuality = 85

	maxDrift = 10
)

// ValidationError describes one invalid job field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize fills defaults for fields the caller left empty.
func (j Job) Normalize() Job {
	if j.Naming == "" {
		j.Naming = DefaultNaming
	}
	if j.Quality == 0 {
		j.Quality = DefaultQuality
	}
	if j.Format == "" {
		j.Format = FormatJPG
	}
	if j.Meta.Fake.Enabled && j.Meta.Fake.Profile == "" {
		j.Meta.Fake.Profile = ProfileCamera
	}

	return j
}

// Validate checks the job fields that can be verified without touching the
// filesystem. Every problem found is reported, joined into one error.
func (j Job) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(j.Inputs) == 0 {
		add("files", "at least one input file is required")
	}
	for i, in := range j.Inputs {
		if in == "" {
			add(fmt.Sprintf("files[%d]", i), "empty path")
		}
	}
	if j.OutputDir == "" {
		add("outputDir", "output directory is required")
	}
	if _, err := ParseFormat(string(j.Format)); err != nil {
		add("format", "%v", err)
	}
	if j.Quality < 1 || j.Quality > 100 {
		add("quality", "must be within 1..100, got %d", j.Quality)
	}
	if j.ColorDrift < 0 || j.ColorDrift > maxDrift {
		add("colorDrift", "must be within 0..%d, got %g", maxDrift, j.ColorDrift)
	}
	if j.ResizeDrift < 0 || j.ResizeDrift > maxDrift {
		add("resizeDrift", "must be within 0..%d, got %g", maxDrift, j.ResizeDrift)
	}
	if j.ResizeMaxW < 0 {
		add("resizeMaxW", "must not be negative, got %d", j.ResizeMaxW)
	}

	if j.Naming != "" {
		if msg := checkNaming(j.Naming); msg != "" {
			add("naming", "%s", msg)
		}
	}

	switch j.Meta.DateStrategy {
	case DateKeep, DateNow, DateOffset:
	default:
		add("meta.dateStrategy", "unknown strategy %q", j.Meta.DateStrategy)
	}

	if j.Meta.RemoveAll && j.Meta.Fake.Enabled {
		add("meta", "removeAll and fake are mutually exclusive")
	}

	if j.Meta.Fake.Enabled {
		errs = append(errs, j.Meta.Fake.validate()...)
	}

	return errors.Join(errs...)
}

// checkNaming returns why template cannot name output files, or "".
func checkNaming(template string) string {
	if strings.ContainsAny(template, `/\`) {
		return "must not contain a path separator"
	}
	if strings.Trim(strings.ReplaceAll(template, "{ext}", ""), ". ") == "" {
		return "resolves to an empty name"
	}
	if !strings.Contains(template, "{ext}") && filepath.Ext(template) == "" {
		return "produces no extension, add {ext}"
	}
	return ""
}

func (f FakeSpec) validate() []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: "meta.fake." + field, Message: fmt.Sprintf(format, args...)})
	}

	switch f.Profile {
	case ProfileCamera, ProfilePhone, ProfileAction, ProfileDrone, ProfileScanner:
	default:
		add("profile", "unknown profile %q", f.Profile)
	}
	if f.Rating != nil && (*f.Rating < 0 || *f.Rating > 5) {
		add("rating", "must be within 0..5, got %d", *f.Rating)
	}
	if f.ISO < 0 {
		add("iso", "must not be negative")
	}
	if f.FNumber < 0 || f.FocalLength < 0 {
		add("fNumber", "optics values must not be negative")
	}
	if lat := f.GPS.Latitude; lat != nil && (*lat < -90 || *lat > 90) {
		add("gps.latitude", "out of range: %g", *lat)
	}
	if lon := f.GPS.Longitude; lon != nil && (*lon < -180 || *lon > 180) {
		add("gps.longitude", "out of range: %g", *lon)
	}

	return errs
}
