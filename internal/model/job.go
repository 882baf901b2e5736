package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Format is the output container of a batch.
type Format string

const (
	FormatJPG  Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatHEIC Format = "heic"
)

// Formats lists every output format a job may request.
var Formats = []Format{FormatJPG, FormatPNG, FormatWebP, FormatAVIF, FormatHEIC}

// ParseFormat normalizes a user supplied format name.
// "jpeg" is accepted as an alias of "jpg".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if f == "jpeg" {
		f = FormatJPG
	}

	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown output format %q", s)
}

// Ext returns the file extension used for the format, without a dot.
func (f Format) Ext() string {
	return string(f)
}

// DateStrategy selects how capture and modify timestamps are stamped.
type DateStrategy string

const (
	DateKeep   DateStrategy = ""       // leave existing timestamps untouched
	DateNow    DateStrategy = "now"    // stamp the processing time
	DateOffset DateStrategy = "offset" // stamp the processing time shifted by DateOffsetMinutes
)

// Profile is the kind of device a fake metadata record imitates.
type Profile string

const (
	ProfileCamera  Profile = "camera"
	ProfilePhone   Profile = "phone"
	ProfileAction  Profile = "action"
	ProfileDrone   Profile = "drone"
	ProfileScanner Profile = "scanner"
)

// Job describes one batch run. It is resolved completely before the first
// file is processed and never changes while the run is in progress.
type Job struct {
	ID          uuid.UUID      `json:"id,omitempty" yaml:"-"`
	Inputs      []string       `json:"files" yaml:"files"`              // source paths, duplicates allowed
	OutputDir   string         `json:"outputDir" yaml:"output_dir"`     // created when missing
	Format      Format         `json:"format" yaml:"format"`            // jpg, png, webp, avif, heic
	Quality     int            `json:"quality" yaml:"quality"`          // 1..100
	ColorDrift  float64        `json:"colorDrift" yaml:"color_drift"`   // quality jitter, percent 0..10
	ResizeDrift float64        `json:"resizeDrift" yaml:"resize_drift"` // width jitter, percent 0..10
	ResizeMaxW  int            `json:"resizeMaxW" yaml:"resize_max_w"`  // 0 disables resizing
	Naming      string         `json:"naming" yaml:"naming"`            // output name template
	Watermark   string         `json:"watermark,omitempty" yaml:"watermark"`
	Template    string         `json:"template,omitempty" yaml:"template"` // quick template applied before the run
	Meta        MetadataPolicy `json:"meta" yaml:"meta"`
}

// MetadataPolicy controls how metadata of every output file is rewritten.
type MetadataPolicy struct {
	RemoveGPS         bool         `json:"removeGps" yaml:"remove_gps"`
	DateStrategy      DateStrategy `json:"dateStrategy" yaml:"date_strategy"`
	DateOffsetMinutes int          `json:"dateOffsetMinutes" yaml:"date_offset_minutes"`
	UniqueID          bool         `json:"uniqueId" yaml:"unique_id"`
	RemoveAll         bool         `json:"removeAll" yaml:"remove_all"`
	SoftwareTag       bool         `json:"softwareTag" yaml:"software_tag"`
	Fake              FakeSpec     `json:"fake" yaml:"fake"`

	Author      string   `json:"author,omitempty" yaml:"author"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords"`
	Copyright   string   `json:"copyright,omitempty" yaml:"copyright"`
	CreatorTool string   `json:"creatorTool,omitempty" yaml:"creator_tool"`
}

// HasFreeText reports whether any free-text field is set.
func (p MetadataPolicy) HasFreeText() bool {
	return p.Author != "" || p.Description != "" || len(p.Keywords) > 0 ||
		p.Copyright != "" || p.CreatorTool != ""
}

// FakeSpec describes the synthetic metadata requested by the caller.
// Empty strings and nil pointers mean "not set".
type FakeSpec struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Profile Profile `json:"profile" yaml:"profile"`

	Make     string `json:"make,omitempty" yaml:"make"`
	Model    string `json:"model,omitempty" yaml:"model"`
	Lens     string `json:"lens,omitempty" yaml:"lens"`
	Software string `json:"software,omitempty" yaml:"software"`
	Serial   string `json:"serial,omitempty" yaml:"serial"`

	GPS FakeGPS `json:"gps" yaml:"gps"`

	ISO             int     `json:"iso,omitempty" yaml:"iso"`
	ExposureTime    string  `json:"exposureTime,omitempty" yaml:"exposure_time"` // "1/125", "2"
	FNumber         float64 `json:"fNumber,omitempty" yaml:"f_number"`
	FocalLength     float64 `json:"focalLength,omitempty" yaml:"focal_length"`
	ExposureProgram *int    `json:"exposureProgram,omitempty" yaml:"exposure_program"`
	MeteringMode    *int    `json:"meteringMode,omitempty" yaml:"metering_mode"`
	Flash           *int    `json:"flash,omitempty" yaml:"flash"`
	WhiteBalance    *int    `json:"whiteBalance,omitempty" yaml:"white_balance"`
	ColorSpace      string  `json:"colorSpace,omitempty" yaml:"color_space"`
	Rating          *int    `json:"rating,omitempty" yaml:"rating"`
	Label           string  `json:"label,omitempty" yaml:"label"`
	Title           string  `json:"title,omitempty" yaml:"title"`

	Auto    bool `json:"auto" yaml:"auto"`         // fill unset fields from the gear catalog
	PerFile bool `json:"perFile" yaml:"per_file"` // resolve a new record for every file
}

// FakeGPS is the location part of a FakeSpec.
type FakeGPS struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Preset    string   `json:"preset,omitempty" yaml:"preset"` // location preset id, e.g. "kyiv"
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"altitude"`
	City      string   `json:"city,omitempty" yaml:"city"`
	State     string   `json:"state,omitempty" yaml:"state"`
	Country   string   `json:"country,omitempty" yaml:"country"`
}

// IntPtr returns a pointer to v. Handy for optional FakeSpec codes.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
