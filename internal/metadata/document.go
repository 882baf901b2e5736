// Package metadata models the EXIF, XMP and IPTC metadata of one image and
// applies a metadata policy to it.
package metadata

import (
	"encoding/binary"
	"sort"
	"strings"
)

// IFD selects one of the EXIF directories.
type IFD int

const (
	IFD0 IFD = iota
	ExifIFD
	GPSIFD

	ifdCount
)

// DataType is a TIFF field type.
type DataType uint16

const (
	TypeByte      DataType = 1
	TypeASCII     DataType = 2
	TypeShort     DataType = 3
	TypeLong      DataType = 4
	TypeRational  DataType = 5
	TypeSByte     DataType = 6
	TypeUndefined DataType = 7
	TypeSShort    DataType = 8
	TypeSLong     DataType = 9
	TypeSRational DataType = 10
	TypeFloat     DataType = 11
	TypeDouble    DataType = 12
)

// Size returns the byte size of one value of the type.
func (t DataType) Size() int {
	switch t {
	case TypeByte, TypeASCII, TypeSByte, TypeUndefined:
		return 1
	case TypeShort, TypeSShort:
		return 2
	case TypeLong, TypeSLong, TypeFloat:
		return 4
	case TypeRational, TypeSRational, TypeDouble:
		return 8
	default:
		return 0
	}
}

// Entry is one EXIF field. Raw holds the value bytes in the document's
// byte order.
type Entry struct {
	ID    uint16
	Type  DataType
	Count uint32
	Raw   []byte
}

// Rational is an unsigned EXIF fraction.
type Rational struct {
	Num uint32
	Den uint32
}

// Document is the editable metadata of one image.
type Document struct {
	Order binary.ByteOrder
	XMP   *XMP
	IPTC  []byte

	ifds      [ifdCount]map[uint16]Entry
	requested bool
}

// NewDocument returns an empty little-endian document.
func NewDocument() *Document {
	return &Document{Order: binary.LittleEndian}
}

// Set stores e in ifd, replacing an entry with the same ID.
func (d *Document) Set(ifd IFD, e Entry) {
	if d.ifds[ifd] == nil {
		d.ifds[ifd] = make(map[uint16]Entry)
	}
	if size := e.Type.Size(); size > 0 {
		e.Count = uint32(len(e.Raw) / size)
	}
	d.ifds[ifd][e.ID] = e
}

// Get returns the entry with id in ifd.
func (d *Document) Get(ifd IFD, id uint16) (Entry, bool) {
	e, ok := d.ifds[ifd][id]
	return e, ok
}

// Delete removes the entry with id from ifd.
func (d *Document) Delete(ifd IFD, id uint16) {
	delete(d.ifds[ifd], id)
}

// Entries returns the entries of ifd sorted by tag ID.
func (d *Document) Entries(ifd IFD) []Entry {
	out := make([]Entry, 0, len(d.ifds[ifd]))
	for _, e := range d.ifds[ifd] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear drops every EXIF, XMP and IPTC field.
func (d *Document) Clear() {
	for i := range d.ifds {
		d.ifds[i] = nil
	}
	d.XMP = nil
	d.IPTC = nil
	d.requested = false
}

// StripGPS removes the GPS directory and every XMP GPS property.
func (d *Document) StripGPS() {
	d.ifds[GPSIFD] = nil
	if d.XMP != nil {
		d.XMP.DeleteFunc(isXMPLocation)
	}
}

// HasGPS reports whether any GPS data is present.
func (d *Document) HasGPS() bool {
	if len(d.ifds[GPSIFD]) > 0 {
		return true
	}
	if d.XMP == nil {
		return false
	}
	for _, p := range d.XMP.Properties() {
		if isXMPLocation(p) {
			return true
		}
	}
	return false
}

func isXMPLocation(p Property) bool {
	return p.NS == NSExif && strings.HasPrefix(p.Name, "GPS")
}

// Empty reports whether the document holds no metadata at all.
func (d *Document) Empty() bool {
	for _, m := range d.ifds {
		if len(m) > 0 {
			return false
		}
	}
	return (d.XMP == nil || d.XMP.Empty()) && len(d.IPTC) == 0
}

// MarkRequested flags the document as carrying fields the caller asked for
// explicitly. Such a document must not be silently dropped.
func (d *Document) MarkRequested() { d.requested = true }

// Demanding reports whether the document must reach the output file:
// it carries requested fields or location data.
func (d *Document) Demanding() bool {
	return d.requested || d.HasGPS()
}

// xmp returns the XMP packet, creating it when missing.
func (d *Document) xmp() *XMP {
	if d.XMP == nil {
		d.XMP = NewXMP()
	}
	return d.XMP
}

// SetASCII stores a NUL terminated string.
func (d *Document) SetASCII(ifd IFD, id uint16, s string) {
	raw := make([]byte, len(s)+1)
	copy(raw, s)
	d.Set(ifd, Entry{ID: id, Type: TypeASCII, Raw: raw})
}

// SetBytes stores BYTE values.
func (d *Document) SetBytes(ifd IFD, id uint16, v ...byte) {
	d.Set(ifd, Entry{ID: id, Type: TypeByte, Raw: append([]byte(nil), v...)})
}

// SetShort stores SHORT values.
func (d *Document) SetShort(ifd IFD, id uint16, v ...uint16) {
	raw := make([]byte, 2*len(v))
	for i, x := range v {
		d.Order.PutUint16(raw[2*i:], x)
	}
	d.Set(ifd, Entry{ID: id, Type: TypeShort, Raw: raw})
}

// SetLong stores LONG values.
func (d *Document) SetLong(ifd IFD, id uint16, v ...uint32) {
	raw := make([]byte, 4*len(v))
	for i, x := range v {
		d.Order.PutUint32(raw[4*i:], x)
	}
	d.Set(ifd, Entry{ID: id, Type: TypeLong, Raw: raw})
}

// SetRational stores RATIONAL values.
func (d *Document) SetRational(ifd IFD, id uint16, v ...Rational) {
	raw := make([]byte, 8*len(v))
	for i, r := range v {
		d.Order.PutUint32(raw[8*i:], r.Num)
		d.Order.PutUint32(raw[8*i+4:], r.Den)
	}
	d.Set(ifd, Entry{ID: id, Type: TypeRational, Raw: raw})
}

// ASCII returns a string entry without its terminator.
func (d *Document) ASCII(ifd IFD, id uint16) (string, bool) {
	e, ok := d.Get(ifd, id)
	if !ok || e.Type != TypeASCII {
		return "", false
	}
	return strings.TrimRight(string(e.Raw), "\x00"), true
}

// Short returns the first value of a SHORT entry.
func (d *Document) Short(ifd IFD, id uint16) (uint16, bool) {
	e, ok := d.Get(ifd, id)
	if !ok || e.Type != TypeShort || len(e.Raw) < 2 {
		return 0, false
	}
	return d.Order.Uint16(e.Raw), true
}
