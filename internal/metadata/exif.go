package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const tiffHeaderSize = 8

// readEXIF decodes a TIFF structure into d, keeping the source byte order.
// Only fields that still describe the image after re-encoding are kept.
func readEXIF(raw []byte, d *Document) error {
	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return fmt.Errorf("failed to decode EXIF: %w", err)
	}
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil
	}

	d.Order = x.Tiff.Order

	ifd0 := make(map[uint16]bool)
	for _, tag := range x.Tiff.Dirs[0].Tags {
		ifd0[tag.Id] = true
		if carriedIFD0[tag.Id] {
			d.Set(IFD0, entryOf(tag))
		}
	}

	return x.Walk(subdirWalker{doc: d, ifd0: ifd0})
}

// subdirWalker sorts the walked fields into the Exif and GPS directories.
// goexif walks fields by name, so GPS fields are told apart by prefix.
type subdirWalker struct {
	doc  *Document
	ifd0 map[uint16]bool
}

func (w subdirWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	n := string(name)
	switch {
	case droppedExif[tag.Id]:
	case strings.HasPrefix(n, "GPS"):
		w.doc.Set(GPSIFD, entryOf(tag))
	case strings.HasPrefix(n, "Thumb"), strings.HasPrefix(n, "Interoperability"):
	case w.ifd0[tag.Id]:
	default:
		w.doc.Set(ExifIFD, entryOf(tag))
	}
	return nil
}

func entryOf(tag *tiff.Tag) Entry {
	return Entry{
		ID:    tag.Id,
		Type:  DataType(tag.Type),
		Count: tag.Count,
		Raw:   bytes.Clone(tag.Val),
	}
}

// EncodeEXIF serializes the document's directories as a TIFF structure in
// the document's byte order. It returns nil when there is nothing to write.
func (d *Document) EncodeEXIF() []byte {
	ifd0 := d.Entries(IFD0)
	exifDir := d.Entries(ExifIFD)
	gpsDir := d.Entries(GPSIFD)
	if len(ifd0)+len(exifDir)+len(gpsDir) == 0 {
		return nil
	}

	o := d.Order
	if o == nil {
		o = binary.LittleEndian
	}

	// Pointer entries are sized now and patched once offsets are known.
	if len(exifDir) > 0 {
		ifd0 = append(ifd0, Entry{ID: TagExifPointer, Type: TypeLong, Count: 1, Raw: make([]byte, 4)})
	}
	if len(gpsDir) > 0 {
		ifd0 = append(ifd0, Entry{ID: TagGPSPointer, Type: TypeLong, Count: 1, Raw: make([]byte, 4)})
	}
	sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].ID < ifd0[j].ID })

	offset := tiffHeaderSize + dirSize(ifd0)
	for i := range ifd0 {
		switch ifd0[i].ID {
		case TagExifPointer:
			o.PutUint32(ifd0[i].Raw, uint32(offset))
			offset += dirSize(exifDir)
		case TagGPSPointer:
			o.PutUint32(ifd0[i].Raw, uint32(offset))
			offset += dirSize(gpsDir)
		}
	}

	var buf bytes.Buffer
	buf.Grow(offset)
	if o == binary.BigEndian {
		buf.WriteString("MM\x00\x2A")
	} else {
		buf.WriteString("II\x2A\x00")
	}
	_ = binary.Write(&buf, o, uint32(tiffHeaderSize))

	writeDir(&buf, o, ifd0)
	if len(exifDir) > 0 {
		writeDir(&buf, o, exifDir)
	}
	if len(gpsDir) > 0 {
		writeDir(&buf, o, gpsDir)
	}

	return buf.Bytes()
}

// dirSize is the size of a directory with its out-of-line values.
func dirSize(entries []Entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Raw) > 4 {
			n += len(e.Raw) + len(e.Raw)%2
		}
	}
	return n
}

// writeDir appends one directory at the current end of buf.
// Values longer than four bytes follow the directory, word aligned.
func writeDir(buf *bytes.Buffer, o binary.ByteOrder, entries []Entry) {
	base := buf.Len()
	dataOff := base + 2 + 12*len(entries) + 4

	var data bytes.Buffer
	_ = binary.Write(buf, o, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, o, e.ID)
		_ = binary.Write(buf, o, uint16(e.Type))
		_ = binary.Write(buf, o, e.Count)

		if len(e.Raw) <= 4 {
			var inline [4]byte
			copy(inline[:], e.Raw)
			buf.Write(inline[:])
			continue
		}

		_ = binary.Write(buf, o, uint32(dataOff+data.Len()))
		data.Write(e.Raw)
		if len(e.Raw)%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(buf, o, uint32(0)) // no next directory

	buf.Write(data.Bytes())
}
