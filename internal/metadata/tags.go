package metadata

// EXIF tag IDs written or filtered by this package.
const (
	TagImageDescription uint16 = 0x010E
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagOrientation      uint16 = 0x0112
	TagSoftware         uint16 = 0x0131
	TagDateTime         uint16 = 0x0132
	TagArtist           uint16 = 0x013B
	TagRating           uint16 = 0x4746
	TagCopyright        uint16 = 0x8298
	TagExifPointer      uint16 = 0x8769
	TagGPSPointer       uint16 = 0x8825

	TagExposureTime      uint16 = 0x829A
	TagFNumber           uint16 = 0x829D
	TagExposureProgram   uint16 = 0x8822
	TagISO               uint16 = 0x8827
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004
	TagOffsetTime        uint16 = 0x9010
	TagOffsetTimeOrig    uint16 = 0x9011
	TagOffsetTimeDigit   uint16 = 0x9012
	TagMeteringMode      uint16 = 0x9207
	TagFlash             uint16 = 0x9209
	TagFocalLength       uint16 = 0x920A
	TagMakerNote         uint16 = 0x927C
	TagColorSpace        uint16 = 0xA001
	TagPixelXDimension   uint16 = 0xA002
	TagPixelYDimension   uint16 = 0xA003
	TagInteropPointer    uint16 = 0xA005
	TagWhiteBalance      uint16 = 0xA403
	TagImageUniqueID     uint16 = 0xA420
	TagBodySerialNumber  uint16 = 0xA431
	TagLensModel         uint16 = 0xA434

	TagGPSVersionID   uint16 = 0x0000
	TagGPSLatitudeRef uint16 = 0x0001
	TagGPSLatitude    uint16 = 0x0002
	TagGPSLongRef     uint16 = 0x0003
	TagGPSLongitude   uint16 = 0x0004
	TagGPSAltitudeRef uint16 = 0x0005
	TagGPSAltitude    uint16 = 0x0006
)

// carriedIFD0 lists the descriptive IFD0 tags kept from a source. Everything
// else in IFD0 describes the source pixel layout and is dropped.
var carriedIFD0 = map[uint16]bool{
	TagImageDescription: true,
	TagMake:             true,
	TagModel:            true,
	0x011A:              true, // XResolution
	0x011B:              true, // YResolution
	0x0128:              true, // ResolutionUnit
	TagSoftware:         true,
	TagDateTime:         true,
	TagArtist:           true,
	0x013C:              true, // HostComputer
	0x0213:              true, // YCbCrPositioning
	TagRating:           true,
	0x4749:              true, // RatingPercent
	TagCopyright:        true,
	0x9C9B:              true, // XPTitle
	0x9C9C:              true, // XPComment
	0x9C9D:              true, // XPAuthor
	0x9C9E:              true, // XPKeywords
	0x9C9F:              true, // XPSubject
}

// droppedExif lists Exif IFD tags that do not survive re-encoding.
var droppedExif = map[uint16]bool{
	TagMakerNote:       true,
	TagPixelXDimension: true,
	TagPixelYDimension: true,
	TagInteropPointer:  true,
	TagExifPointer:     true,
	TagGPSPointer:      true,
	0x0201:             true, // JPEGInterchangeFormat
	0x0202:             true, // JPEGInterchangeFormatLength
}
