// Package fake synthesizes plausible camera, shot and location metadata
// from the gear catalog.
package fake

import (
	"strings"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

const serialDigits = 12

// Rand is the random source used for every unset field.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// GPS is a resolved location.
type GPS struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	City      string
	State     string
	Country   string
}

// Record is a resolved fake metadata record. Empty strings, zero optics and
// nil pointers are absent fields: no tag is written for them.
type Record struct {
	Make     string
	Model    string
	Lens     string
	Software string
	Serial   string

	GPS *GPS

	ISO             int
	ExposureTime    string
	FNumber         float64
	FocalLength     float64
	ExposureProgram *int
	MeteringMode    *int
	Flash           *int
	WhiteBalance    *int
	ColorSpace      string
	Rating          *int
	Label           string
	Title           string
}

// Generator resolves FakeSpecs into Records.
type Generator struct {
	rng Rand
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(rng Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate resolves one record. Explicit spec values are used as-is; unset
// fields are drawn from the catalog when spec.Auto is set and stay absent
// otherwise. Drawn models and lenses always belong to the resolved make.
func (g *Generator) Generate(spec model.FakeSpec) Record {
	rec := Record{
		Make:            spec.Make,
		Model:           spec.Model,
		Lens:            spec.Lens,
		Software:        spec.Software,
		Serial:          spec.Serial,
		ISO:             spec.ISO,
		ExposureTime:    spec.ExposureTime,
		FNumber:         spec.FNumber,
		FocalLength:     spec.FocalLength,
		ExposureProgram: copyInt(spec.ExposureProgram),
		MeteringMode:    copyInt(spec.MeteringMode),
		Flash:           copyInt(spec.Flash),
		WhiteBalance:    copyInt(spec.WhiteBalance),
		ColorSpace:      spec.ColorSpace,
		Rating:          copyInt(spec.Rating),
		Label:           spec.Label,
		Title:           spec.Title,
		GPS:             g.location(spec.GPS, spec.Auto),
	}

	if !spec.Auto {
		return rec
	}

	g.fillGear(&rec, spec.Profile)

	if rec.Serial == "" {
		rec.Serial = g.serial()
	}
	if rec.ISO == 0 {
		rec.ISO = pick(g.rng, catalog.ISOs)
	}
	if rec.ExposureTime == "" {
		rec.ExposureTime = pick(g.rng, catalog.ExposureTimes)
	}
	if rec.FNumber == 0 {
		rec.FNumber = pick(g.rng, catalog.FNumbers)
	}
	if rec.FocalLength == 0 {
		rec.FocalLength = pick(g.rng, catalog.FocalLengths)
	}
	if rec.ExposureProgram == nil {
		rec.ExposureProgram = model.IntPtr(pick(g.rng, catalog.ExposurePrograms).Value)
	}
	if rec.MeteringMode == nil {
		rec.MeteringMode = model.IntPtr(pick(g.rng, catalog.MeteringModes).Value)
	}
	if rec.Flash == nil {
		rec.Flash = model.IntPtr(pick(g.rng, catalog.FlashModes).Value)
	}
	if rec.WhiteBalance == nil {
		rec.WhiteBalance = model.IntPtr(pick(g.rng, catalog.WhiteBalances).Value)
	}
	if rec.ColorSpace == "" {
		rec.ColorSpace = pick(g.rng, catalog.ColorSpaces)
	}
	if rec.Rating == nil {
		rec.Rating = model.IntPtr(pick(g.rng, catalog.Ratings))
	}

	return rec
}

// fillGear resolves make, model and lens. An explicit model with no make
// takes its make from the catalog. Drawn values are only taken from the
// lists of the resolved make, so generated pairs are always catalog pairs.
func (g *Generator) fillGear(rec *Record, profile model.Profile) {
	gear, ok := catalog.Lookup(profile)
	if !ok {
		return
	}

	if rec.Make == "" && rec.Model != "" {
		rec.Make, _ = gear.MakeOf(rec.Model)
	}
	if rec.Make == "" {
		rec.Make = pick(g.rng, gear.Makes)
	}
	if rec.Model == "" {
		if models := gear.Models(rec.Make); len(models) > 0 {
			rec.Model = pick(g.rng, models)
		}
	}
	if rec.Lens == "" {
		if lenses := gear.LensesFor(rec.Make); len(lenses) > 0 {
			rec.Lens = pick(g.rng, lenses)
		}
	}
}

// location resolves the GPS sub-record. A named preset supplies every field
// an explicit value does not override. With auto and no explicit
// coordinates a random preset is used.
func (g *Generator) location(spec model.FakeGPS, auto bool) *GPS {
	if !spec.Enabled {
		return nil
	}

	var (
		out            GPS
		hasLat, hasLon bool
	)

	preset, ok := catalog.LocationByID(spec.Preset)
	if !ok && auto && spec.Latitude == nil && spec.Longitude == nil {
		preset, ok = pick(g.rng, catalog.Locations), true
	}
	if ok {
		out = GPS{
			Latitude:  preset.Latitude,
			Longitude: preset.Longitude,
			Altitude:  model.FloatPtr(preset.Altitude),
			City:      preset.City,
			State:     preset.State,
			Country:   preset.Country,
		}
		hasLat, hasLon = true, true
	}

	if spec.Latitude != nil {
		out.Latitude, hasLat = *spec.Latitude, true
	}
	if spec.Longitude != nil {
		out.Longitude, hasLon = *spec.Longitude, true
	}
	if spec.Altitude != nil {
		out.Altitude = model.FloatPtr(*spec.Altitude)
	}
	if spec.City != "" {
		out.City = spec.City
	}
	if spec.State != "" {
		out.State = spec.State
	}
	if spec.Country != "" {
		out.Country = spec.Country
	}

	if !hasLat || !hasLon {
		return nil
	}

	return &out
}

func (g *Generator) serial() string {
	var b strings.Builder
	for range serialDigits {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}

func pick[T any](rng Rand, list []T) T {
	return list[rng.Intn(len(list))]
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return model.IntPtr(*p)
}
