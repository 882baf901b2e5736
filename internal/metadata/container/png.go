package container

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const xmpKeyword = "XML:com.adobe.xmp"

var errNotPNG = errors.New("not a PNG stream")

type pngChunk struct {
	typ  string
	data []byte
}

func readPNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errNotPNG
	}

	var chunks []pngChunk
	i := len(pngSignature)
	for i+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		if n < 0 || i+12+n > len(data) {
			return chunks, fmt.Errorf("truncated %s chunk at offset %d", typ, i)
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[i+8 : i+8+n]})
		i += 12 + n
		if typ == "IEND" {
			break
		}
	}

	return chunks, nil
}

func extractPNG(data []byte) (Raw, error) {
	var raw Raw

	chunks, err := readPNGChunks(data)
	for _, c := range chunks {
		switch c.typ {
		case "eXIf":
			if raw.EXIF == nil {
				raw.EXIF = bytes.Clone(bytes.TrimPrefix(c.data, exifPrefix))
			}
		case "iTXt":
			if raw.XMP == nil {
				if xmp, ok := parseXMPText(c.data); ok {
					raw.XMP = xmp
				}
			}
		}
	}

	return raw, err
}

// parseXMPText decodes an iTXt chunk holding an XMP packet:
// keyword NUL flag method language NUL translated NUL text.
func parseXMPText(data []byte) ([]byte, bool) {
	kw, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || string(kw) != xmpKeyword || len(rest) < 2 {
		return nil, false
	}

	compressed := rest[0] == 1
	rest = rest[2:]
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return nil, false
	}
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return nil, false
	}

	if !compressed {
		return bytes.Clone(rest), true
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	return text, true
}

// embedPNG places eXIf and an uncompressed XMP iTXt chunk after IHDR.
func embedPNG(data []byte, raw Raw) ([]byte, error) {
	chunks, err := readPNGChunks(data)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" {
		return nil, fmt.Errorf("PNG stream does not start with IHDR")
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(raw.EXIF) + len(raw.XMP) + 64)
	buf.Write(pngSignature)
	writePNGChunk(&buf, chunks[0].typ, chunks[0].data)

	if len(raw.EXIF) > 0 {
		writePNGChunk(&buf, "eXIf", raw.EXIF)
	}
	if len(raw.XMP) > 0 {
		var text bytes.Buffer
		text.WriteString(xmpKeyword)
		text.Write([]byte{0, 0, 0, 0, 0}) // NUL, uncompressed, method, empty language, empty translation
		text.Write(raw.XMP)
		writePNGChunk(&buf, "iTXt", text.Bytes())
	}

	for _, c := range chunks[1:] {
		if c.typ == "eXIf" {
			continue
		}
		writePNGChunk(&buf, c.typ, c.data)
	}

	return buf.Bytes(), nil
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	_ = binary.Write(w, binary.BigEndian, uint32(len(data)))
	w.WriteString(typ)
	w.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	_ = binary.Write(w, binary.BigEndian, crc.Sum32())
}
