// Package container reads and writes raw metadata blocks (EXIF, XMP, IPTC)
// inside encoded image byte streams without touching the pixel data.
package container

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// ErrNotCarried is returned when a format has no place for metadata.
var ErrNotCarried = errors.New("format cannot carry metadata")

// Source container names reported by Detect.
const (
	JPEG = "jpeg"
	PNG  = "png"
	WebP = "webp"
	GIF  = "gif"
	BMP  = "bmp"
	TIFF = "tiff"
	AVIF = "avif"
	HEIC = "heic"
)

// Raw holds undecoded metadata blocks.
// EXIF is a TIFF structure starting with its byte order mark.
type Raw struct {
	EXIF []byte
	XMP  []byte
	IPTC []byte // Photoshop image resource block from a JPEG APP13 segment
}

// Empty reports whether no block is present.
func (r Raw) Empty() bool {
	return len(r.EXIF) == 0 && len(r.XMP) == 0 && len(r.IPTC) == 0
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Detect sniffs the container of data from its leading bytes.
// It returns an empty string for unknown data.
func Detect(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return JPEG
	case bytes.HasPrefix(data, pngSignature):
		return PNG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WebP
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case len(data) >= 12 && string(data[4:8]) == "ftyp":
		switch string(data[8:12]) {
		case "avif", "avis":
			return AVIF
		case "heic", "heix", "mif1", "msf1", "hevc":
			return HEIC
		}
	}
	return ""
}

// Extract pulls the metadata blocks out of an encoded image. Containers
// without metadata support yield an empty Raw.
func Extract(data []byte) (Raw, error) {
	switch Detect(data) {
	case JPEG:
		return extractJPEG(data)
	case PNG:
		return extractPNG(data)
	case WebP:
		return extractWebP(data)
	case TIFF:
		// The file itself is the EXIF structure.
		return Raw{EXIF: data}, nil
	default:
		return Raw{}, nil
	}
}

// Carries reports whether an output format can hold EXIF and XMP blocks.
func Carries(f model.Format) bool {
	switch f {
	case model.FormatJPG, model.FormatPNG, model.FormatWebP:
		return true
	default:
		return false
	}
}

// Embed writes raw into an image freshly encoded as format f. The encoded
// data must not carry metadata of its own. IPTC is only written to JPEG.
func Embed(f model.Format, data []byte, raw Raw) ([]byte, error) {
	if raw.Empty() {
		return data, nil
	}

	switch f {
	case model.FormatJPG:
		return embedJPEG(data, raw)
	case model.FormatPNG:
		return embedPNG(data, raw)
	case model.FormatWebP:
		return embedWebP(data, raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotCarried, f)
	}
}
