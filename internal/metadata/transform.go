package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/fake"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// DefaultSoftware is written by the software tag when no other name is set.
const DefaultSoftware = "PhotoUnikalizer"

const (
	exifDateLayout = "2006:01:02 15:04:05"
	exifZoneLayout = "-07:00"
)

// TransformerConfig holds everything a Transformer needs for one run.
type TransformerConfig struct {
	Policy   model.MetadataPolicy
	Fake     *fake.Source // used only when Policy.Fake.Enabled
	BatchID  uuid.UUID    // seeds the per-file unique IDs
	Software string
	Now      func() time.Time
}

// Transformer rewrites the metadata of every file of a run according to
// one metadata policy.
type Transformer struct {
	cfg TransformerConfig
}

// NewTransformer creates a Transformer.
func NewTransformer(cfg TransformerConfig) *Transformer {
	if cfg.Software == "" {
		cfg.Software = DefaultSoftware
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Transformer{cfg: cfg}
}

// Apply rewrites doc in place for the file at fileIndex and returns it.
//
// GPS removal always runs first. RemoveAll then discards everything else
// and ends the rewrite. Otherwise the fake record overwrites the fields it
// covers and the date, unique ID, software and free-text rules are layered
// on top of the remaining source metadata.
func (t *Transformer) Apply(doc *Document, fileIndex int) *Document {
	if doc == nil {
		doc = NewDocument()
	}
	p := t.cfg.Policy

	if p.RemoveGPS {
		doc.StripGPS()
	}

	if p.RemoveAll {
		order := doc.Order
		doc.Clear()
		doc.Order = order
		return doc
	}

	dropStaleLayout(doc)

	var rec fake.Record
	if p.Fake.Enabled && t.cfg.Fake != nil {
		rec = t.cfg.Fake.Record(fileIndex)
		applyFake(doc, rec, p.RemoveGPS)
	}

	if p.DateStrategy == model.DateNow || p.DateStrategy == model.DateOffset {
		now := t.cfg.Now()
		if p.DateStrategy == model.DateOffset {
			now = now.Add(time.Duration(p.DateOffsetMinutes) * time.Minute)
		}
		stampDates(doc, now)
	}

	if p.UniqueID {
		stampUniqueID(doc, t.cfg.BatchID, fileIndex)
	}

	// A fake software name takes precedence over the tool identifier.
	if p.SoftwareTag && rec.Software == "" {
		doc.SetASCII(IFD0, TagSoftware, t.cfg.Software)
		doc.xmp().Set(NSXMP, "CreatorTool", t.cfg.Software)
	}

	applyFreeText(doc, p)

	return doc
}

// dropStaleLayout removes fields describing the source pixel layout.
// Pixels are decoded upright, so the source orientation no longer applies.
func dropStaleLayout(doc *Document) {
	doc.Delete(IFD0, TagOrientation)
	if doc.XMP == nil {
		return
	}
	doc.XMP.Delete(NSTIFF, "Orientation")
	doc.XMP.Delete(NSTIFF, "ImageWidth")
	doc.XMP.Delete(NSTIFF, "ImageLength")
	doc.XMP.Delete(NSExif, "PixelXDimension")
	doc.XMP.Delete(NSExif, "PixelYDimension")
}

func applyFake(doc *Document, rec fake.Record, noLocation bool) {
	x := doc.xmp()
	wrote := false

	ascii := func(ifd IFD, id uint16, ns, name, v string) {
		if v == "" {
			return
		}
		doc.SetASCII(ifd, id, v)
		if ns != "" {
			x.Set(ns, name, v)
		}
		wrote = true
	}
	short := func(ifd IFD, id uint16, ns, name string, v *int) {
		if v == nil {
			return
		}
		doc.SetShort(ifd, id, clampShort(*v))
		if ns != "" {
			x.Set(ns, name, strconv.Itoa(*v))
		}
		wrote = true
	}

	ascii(IFD0, TagMake, NSTIFF, "Make", rec.Make)
	ascii(IFD0, TagModel, NSTIFF, "Model", rec.Model)
	ascii(ExifIFD, TagLensModel, NSAux, "Lens", rec.Lens)
	ascii(IFD0, TagSoftware, "", "", rec.Software)
	ascii(ExifIFD, TagBodySerialNumber, NSAux, "SerialNumber", rec.Serial)

	if rec.ISO > 0 {
		doc.SetShort(ExifIFD, TagISO, clampShort(rec.ISO))
		x.SetList(NSExif, "ISOSpeedRatings", Seq, strconv.Itoa(rec.ISO))
		wrote = true
	}
	if r, ok := parseExposure(rec.ExposureTime); ok {
		doc.SetRational(ExifIFD, TagExposureTime, r)
		x.Set(NSExif, "ExposureTime", r.String())
		wrote = true
	}
	if rec.FNumber > 0 {
		r := tenths(rec.FNumber)
		doc.SetRational(ExifIFD, TagFNumber, r)
		x.Set(NSExif, "FNumber", r.String())
		wrote = true
	}
	if rec.FocalLength > 0 {
		r := tenths(rec.FocalLength)
		doc.SetRational(ExifIFD, TagFocalLength, r)
		x.Set(NSExif, "FocalLength", r.String())
		wrote = true
	}

	short(ExifIFD, TagExposureProgram, NSExif, "ExposureProgram", rec.ExposureProgram)
	short(ExifIFD, TagMeteringMode, NSExif, "MeteringMode", rec.MeteringMode)
	short(ExifIFD, TagFlash, "", "", rec.Flash)
	short(ExifIFD, TagWhiteBalance, NSExif, "WhiteBalance", rec.WhiteBalance)
	short(IFD0, TagRating, NSXMP, "Rating", rec.Rating)

	if rec.ColorSpace != "" {
		cs := uint16(0xFFFF) // uncalibrated
		if strings.EqualFold(rec.ColorSpace, "sRGB") {
			cs = 1
		}
		doc.SetShort(ExifIFD, TagColorSpace, cs)
		x.Set(NSPhotoshop, "ICCProfile", rec.ColorSpace)
		wrote = true
	}
	if rec.Label != "" {
		x.Set(NSXMP, "Label", rec.Label)
		wrote = true
	}
	if rec.Title != "" {
		x.SetAlt(NSDC, "title", rec.Title)
		wrote = true
	}

	if rec.GPS != nil && !noLocation {
		doc.StripGPS()
		applyLocation(doc, *rec.GPS)
		wrote = true
	}

	if wrote {
		doc.MarkRequested()
	}
}

func applyLocation(doc *Document, g fake.GPS) {
	x := doc.xmp()

	latRef, lonRef := "N", "E"
	if g.Latitude < 0 {
		latRef = "S"
	}
	if g.Longitude < 0 {
		lonRef = "W"
	}

	doc.SetBytes(GPSIFD, TagGPSVersionID, 2, 3, 0, 0)
	doc.SetASCII(GPSIFD, TagGPSLatitudeRef, latRef)
	doc.SetRational(GPSIFD, TagGPSLatitude, dms(g.Latitude)...)
	doc.SetASCII(GPSIFD, TagGPSLongRef, lonRef)
	doc.SetRational(GPSIFD, TagGPSLongitude, dms(g.Longitude)...)

	x.Set(NSExif, "GPSVersionID", "2.3.0.0")
	x.Set(NSExif, "GPSLatitude", xmpCoordinate(g.Latitude, latRef))
	x.Set(NSExif, "GPSLongitude", xmpCoordinate(g.Longitude, lonRef))

	if g.Altitude != nil {
		var ref byte
		if *g.Altitude < 0 {
			ref = 1
		}
		alt := Rational{Num: uint32(math.Round(math.Abs(*g.Altitude) * 100)), Den: 100}
		doc.SetBytes(GPSIFD, TagGPSAltitudeRef, ref)
		doc.SetRational(GPSIFD, TagGPSAltitude, alt)
		x.Set(NSExif, "GPSAltitudeRef", strconv.Itoa(int(ref)))
		x.Set(NSExif, "GPSAltitude", alt.String())
	}

	if g.City != "" {
		x.Set(NSPhotoshop, "City", g.City)
	}
	if g.State != "" {
		x.Set(NSPhotoshop, "State", g.State)
	}
	if g.Country != "" {
		x.Set(NSPhotoshop, "Country", g.Country)
	}
}

func stampDates(doc *Document, t time.Time) {
	stamp := t.Format(exifDateLayout)
	zone := t.Format(exifZoneLayout)

	doc.SetASCII(IFD0, TagDateTime, stamp)
	doc.SetASCII(ExifIFD, TagDateTimeOriginal, stamp)
	doc.SetASCII(ExifIFD, TagDateTimeDigitized, stamp)
	doc.SetASCII(ExifIFD, TagOffsetTime, zone)
	doc.SetASCII(ExifIFD, TagOffsetTimeOrig, zone)
	doc.SetASCII(ExifIFD, TagOffsetTimeDigit, zone)

	iso := t.Format(time.RFC3339)
	x := doc.xmp()
	x.Set(NSXMP, "CreateDate", iso)
	x.Set(NSXMP, "ModifyDate", iso)
	x.Set(NSXMP, "MetadataDate", iso)
	x.Set(NSExif, "DateTimeOriginal", iso)
}

// UniqueID returns the identifier of the file at index in a batch. The same
// batch and index always give the same value.
func UniqueID(batch uuid.UUID, index int) uuid.UUID {
	return uuid.NewSHA1(batch, []byte(strconv.Itoa(index)))
}

func stampUniqueID(doc *Document, batch uuid.UUID, index int) {
	id := UniqueID(batch, index)
	instance := uuid.NewSHA1(id, []byte("instance"))

	doc.SetASCII(ExifIFD, TagImageUniqueID, strings.ReplaceAll(id.String(), "-", ""))

	x := doc.xmp()
	x.Set(NSXMPMM, "DocumentID", "xmp.did:"+id.String())
	x.Set(NSXMPMM, "InstanceID", "xmp.iid:"+instance.String())
}

func applyFreeText(doc *Document, p model.MetadataPolicy) {
	if !p.HasFreeText() {
		return
	}
	x := doc.xmp()

	if p.Author != "" {
		doc.SetASCII(IFD0, TagArtist, p.Author)
		x.SetList(NSDC, "creator", Seq, p.Author)
	}
	if p.Description != "" {
		doc.SetASCII(IFD0, TagImageDescription, p.Description)
		x.SetAlt(NSDC, "description", p.Description)
	}
	if len(p.Keywords) > 0 {
		x.SetList(NSDC, "subject", Bag, p.Keywords...)
	}
	if p.Copyright != "" {
		doc.SetASCII(IFD0, TagCopyright, p.Copyright)
		x.SetAlt(NSDC, "rights", p.Copyright)
	}
	if p.CreatorTool != "" {
		x.Set(NSXMP, "CreatorTool", p.CreatorTool)
	}

	doc.MarkRequested()
}

// String formats the rational the way XMP stores it.
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// parseExposure reads "1/125", "2" or "0.5" as an exposure time.
func parseExposure(s string) (Rational, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "s"))
	if s == "" {
		return Rational{}, false
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
		d, err2 := strconv.ParseUint(strings.TrimSpace(den), 10, 32)
		if err1 != nil || err2 != nil || n == 0 || d == 0 {
			return Rational{}, false
		}
		return Rational{Num: uint32(n), Den: uint32(d)}, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > math.MaxUint32/1000 {
		return Rational{}, false
	}
	if v == math.Trunc(v) {
		return Rational{Num: uint32(v), Den: 1}, true
	}
	return reduce(Rational{Num: uint32(math.Round(v * 1000)), Den: 1000}), true
}

func tenths(v float64) Rational {
	return reduce(Rational{Num: uint32(math.Round(v * 10)), Den: 10})
}

func reduce(r Rational) Rational {
	a, b := r.Num, r.Den
	for b != 0 {
		a, b = b, a%b
	}
	if a <= 1 {
		return r
	}
	return Rational{Num: r.Num / a, Den: r.Den / a}
}

// dms splits a decimal coordinate into degrees, minutes and seconds.
func dms(v float64) []Rational {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := (v - deg) * 60
	m := math.Floor(minutes)
	sec := (minutes - m) * 60

	return []Rational{
		{Num: uint32(deg), Den: 1},
		{Num: uint32(m), Den: 1},
		{Num: uint32(math.Round(sec * 100)), Den: 100},
	}
}

// xmpCoordinate formats a coordinate as "DDD,MM.mmmmmmR".
func xmpCoordinate(v float64, ref string) string {
	v = math.Abs(v)
	deg := math.Floor(v)
	return fmt.Sprintf("%d,%.6f%s", int(deg), (v-deg)*60, ref)
}

func clampShort(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
