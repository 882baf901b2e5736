package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// VP8X feature flags.
const (
	flagICC   = 0x20
	flagAlpha = 0x10
	flagEXIF  = 0x08
	flagXMP   = 0x04
)

var errNotWebP = errors.New("not a WebP stream")

type riffChunk struct {
	id   string
	data []byte
}

func readWebPChunks(data []byte) ([]riffChunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errNotWebP
	}

	var chunks []riffChunk
	i := 12
	for i+8 <= len(data) {
		id := string(data[i : i+4])
		n := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		if n < 0 || i+8+n > len(data) {
			return chunks, fmt.Errorf("truncated %q chunk at offset %d", id, i)
		}
		chunks = append(chunks, riffChunk{id: id, data: data[i+8 : i+8+n]})
		i += 8 + n + n%2
	}

	return chunks, nil
}

func extractWebP(data []byte) (Raw, error) {
	var raw Raw

	chunks, err := readWebPChunks(data)
	for _, c := range chunks {
		switch c.id {
		case "EXIF":
			raw.EXIF = bytes.Clone(bytes.TrimPrefix(c.data, exifPrefix))
		case "XMP ":
			raw.XMP = bytes.Clone(c.data)
		}
	}

	return raw, err
}

// embedWebP converts a simple WebP into the extended layout when needed and
// appends EXIF and XMP chunks after the image data.
func embedWebP(data []byte, raw Raw) ([]byte, error) {
	chunks, err := readWebPChunks(data)
	if err != nil {
		return nil, err
	}

	var (
		vp8x   []byte
		body   []riffChunk
		width  int
		height int
		flags  byte
	)

	for _, c := range chunks {
		switch c.id {
		case "VP8X":
			if len(c.data) < 10 {
				return nil, fmt.Errorf("short VP8X chunk")
			}
			vp8x = bytes.Clone(c.data)
		case "EXIF", "XMP ":
			// Replaced below.
		case "ALPH":
			flags |= flagAlpha
			body = append(body, c)
		case "ICCP":
			flags |= flagICC
			body = append(body, c)
		case "VP8 ":
			w, h, err := vp8Size(c.data)
			if err != nil {
				return nil, err
			}
			width, height = w, h
			body = append(body, c)
		case "VP8L":
			w, h, alpha, err := vp8lSize(c.data)
			if err != nil {
				return nil, err
			}
			width, height = w, h
			if alpha {
				flags |= flagAlpha
			}
			body = append(body, c)
		default:
			body = append(body, c)
		}
	}

	if vp8x == nil {
		if width == 0 || height == 0 {
			return nil, fmt.Errorf("WebP stream has no image data")
		}
		vp8x = make([]byte, 10)
		putUint24(vp8x[4:7], uint32(width-1))
		putUint24(vp8x[7:10], uint32(height-1))
	}
	vp8x[0] |= flags
	vp8x[0] &^= flagEXIF | flagXMP

	if len(raw.EXIF) > 0 {
		vp8x[0] |= flagEXIF
		body = append(body, riffChunk{id: "EXIF", data: raw.EXIF})
	}
	if len(raw.XMP) > 0 {
		vp8x[0] |= flagXMP
		body = append(body, riffChunk{id: "XMP ", data: raw.XMP})
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(raw.EXIF) + len(raw.XMP) + 64)
	out.WriteString("RIFF")
	out.Write([]byte{0, 0, 0, 0}) // patched below
	out.WriteString("WEBP")
	writeRIFFChunk(&out, "VP8X", vp8x)
	for _, c := range body {
		writeRIFFChunk(&out, c.id, c.data)
	}

	b := out.Bytes()
	binary.LittleEndian.PutUint32(b[4:8], uint32(len(b)-8))
	return b, nil
}

func writeRIFFChunk(w *bytes.Buffer, id string, data []byte) {
	w.WriteString(id)
	_ = binary.Write(w, binary.LittleEndian, uint32(len(data)))
	w.Write(data)
	if len(data)%2 == 1 {
		w.WriteByte(0)
	}
}

// vp8Size reads the frame size from a lossy key frame header.
func vp8Size(d []byte) (int, int, error) {
	if len(d) < 10 || d[3] != 0x9d || d[4] != 0x01 || d[5] != 0x2a {
		return 0, 0, fmt.Errorf("bad VP8 frame header")
	}
	w := int(binary.LittleEndian.Uint16(d[6:8]) & 0x3fff)
	h := int(binary.LittleEndian.Uint16(d[8:10]) & 0x3fff)
	return w, h, nil
}

// vp8lSize reads the size and alpha hint from a lossless header.
func vp8lSize(d []byte) (int, int, bool, error) {
	if len(d) < 5 || d[0] != 0x2f {
		return 0, 0, false, fmt.Errorf("bad VP8L header")
	}
	bits := binary.LittleEndian.Uint32(d[1:5])
	w := int(bits&0x3fff) + 1
	h := int((bits>>14)&0x3fff) + 1
	alpha := (bits>>28)&1 == 1
	return w, h, alpha, nil
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
