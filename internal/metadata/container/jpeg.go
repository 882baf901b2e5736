package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP13 = 0xED

	maxSegmentPayload = 0xFFFF - 2
)

var (
	exifPrefix = []byte("Exif\x00\x00")
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iptcPrefix = []byte("Photoshop 3.0\x00")

	errNotJPEG = errors.New("not a JPEG stream")
)

// extractJPEG walks the marker segments up to the start of scan.
func extractJPEG(data []byte) (Raw, error) {
	var raw Raw
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return raw, errNotJPEG
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return raw, fmt.Errorf("bad marker at offset %d", i)
		}
		marker := data[i+1]

		// Fill bytes and standalone markers carry no length.
		if marker == 0xFF {
			i++
			continue
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= markerSOI) {
			i += 2
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}

		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return raw, fmt.Errorf("truncated segment 0x%X at offset %d", marker, i)
		}
		payload := data[i+4 : i+2+segLen]

		switch {
		case marker == markerAPP1 && bytes.HasPrefix(payload, exifPrefix) && raw.EXIF == nil:
			raw.EXIF = bytes.Clone(payload[len(exifPrefix):])
		case marker == markerAPP1 && bytes.HasPrefix(payload, xmpPrefix) && raw.XMP == nil:
			raw.XMP = bytes.Clone(payload[len(xmpPrefix):])
		case marker == markerAPP13 && bytes.HasPrefix(payload, iptcPrefix) && raw.IPTC == nil:
			raw.IPTC = bytes.Clone(payload[len(iptcPrefix):])
		}

		i += 2 + segLen
	}

	return raw, nil
}

// embedJPEG inserts the metadata segments right after SOI.
func embedJPEG(data []byte, raw Raw) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, errNotJPEG
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(raw.EXIF) + len(raw.XMP) + len(raw.IPTC) + 64)
	buf.Write(data[:2])

	if len(raw.EXIF) > 0 {
		if err := writeSegment(&buf, markerAPP1, exifPrefix, raw.EXIF); err != nil {
			return nil, fmt.Errorf("failed to write EXIF segment: %w", err)
		}
	}
	if len(raw.XMP) > 0 {
		if err := writeSegment(&buf, markerAPP1, xmpPrefix, raw.XMP); err != nil {
			return nil, fmt.Errorf("failed to write XMP segment: %w", err)
		}
	}
	if len(raw.IPTC) > 0 {
		if err := writeSegment(&buf, markerAPP13, iptcPrefix, raw.IPTC); err != nil {
			return nil, fmt.Errorf("failed to write IPTC segment: %w", err)
		}
	}

	buf.Write(data[2:])
	return buf.Bytes(), nil
}

func writeSegment(buf *bytes.Buffer, marker byte, prefix, payload []byte) error {
	n := len(prefix) + len(payload)
	if n > maxSegmentPayload {
		return fmt.Errorf("payload of %d bytes exceeds a single segment", n)
	}

	buf.WriteByte(0xFF)
	buf.WriteByte(marker)
	_ = binary.Write(buf, binary.BigEndian, uint16(n+2))
	buf.Write(prefix)
	buf.Write(payload)
	return nil
}
