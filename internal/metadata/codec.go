package metadata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata/container"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Decode builds a document from the raw blocks of a source file.
// Blocks that fail to parse are reported in the joined error while the
// remaining blocks are still returned.
func Decode(raw container.Raw) (*Document, error) {
	doc := NewDocument()

	var errs []error
	if len(raw.EXIF) > 0 {
		if err := readEXIF(raw.EXIF, doc); err != nil {
			errs = append(errs, err)
		}
	}

	if len(raw.XMP) > 0 {
		x, err := ParseXMP(raw.XMP)
		if err != nil {
			errs = append(errs, err)
		} else if !x.Empty() {
			doc.XMP = x
		}
	}

	if len(raw.IPTC) > 0 {
		doc.IPTC = bytes.Clone(raw.IPTC)
	}

	return doc, errors.Join(errs...)
}

// Encode serializes the document back into raw blocks.
func (d *Document) Encode() container.Raw {
	var raw container.Raw
	raw.EXIF = d.EncodeEXIF()
	if d.XMP != nil {
		raw.XMP = d.XMP.Encode()
	}
	if len(d.IPTC) > 0 {
		raw.IPTC = bytes.Clone(d.IPTC)
	}
	return raw
}

// Read extracts and decodes the metadata of an encoded image.
func Read(data []byte) (*Document, error) {
	raw, err := container.Extract(data)
	if err != nil && raw.Empty() {
		return NewDocument(), fmt.Errorf("failed to extract metadata: %w", err)
	}

	doc, derr := Decode(raw)
	return doc, errors.Join(err, derr)
}

// Write embeds doc into data freshly encoded as format f.
//
// Formats without a metadata container drop an ordinary document silently
// but fail with ErrMetadataWriteFailure when doc carries requested fields
// or location data. IPTC survives only into JPEG.
func Write(f model.Format, data []byte, doc *Document) ([]byte, error) {
	if doc == nil || doc.Empty() {
		return data, nil
	}

	if !container.Carries(f) {
		if doc.Demanding() {
			return nil, fmt.Errorf("%w: %s cannot carry the requested metadata", model.ErrMetadataWriteFailure, f)
		}
		return data, nil
	}

	raw := doc.Encode()
	if f != model.FormatJPG {
		raw.IPTC = nil
	}

	out, err := container.Embed(f, data, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMetadataWriteFailure, err)
	}

	return out, nil
}
