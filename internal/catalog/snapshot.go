package catalog

import "github.com/YALOKGARua/PhotoUnikalizer/internal/model"

// Snapshot is the whole catalog in a form suitable for JSON responses.
type Snapshot struct {
	Gear             map[model.Profile]Gear `json:"gear"`
	ISOs             []int                  `json:"isos"`
	ExposureTimes    []string               `json:"exposureTimes"`
	FNumbers         []float64              `json:"fNumbers"`
	FocalLengths     []float64              `json:"focalLengths"`
	ExposurePrograms []Option               `json:"exposurePrograms"`
	MeteringModes    []Option               `json:"meteringModes"`
	FlashModes       []Option               `json:"flashModes"`
	WhiteBalances    []Option               `json:"whiteBalances"`
	ColorSpaces      []string               `json:"colorSpaces"`
	Ratings          []int                  `json:"ratings"`
	Locations        []Location             `json:"locations"`
	Templates        []Template             `json:"templates"`
}

// Current returns the catalog snapshot.
func Current() Snapshot {
	return Snapshot{
		Gear:             gear,
		ISOs:             ISOs,
		ExposureTimes:    ExposureTimes,
		FNumbers:         FNumbers,
		FocalLengths:     FocalLengths,
		ExposurePrograms: ExposurePrograms,
		MeteringModes:    MeteringModes,
		FlashModes:       FlashModes,
		WhiteBalances:    WhiteBalances,
		ColorSpaces:      ColorSpaces,
		Ratings:          Ratings,
		Locations:        Locations,
		Templates:        Templates(),
	}
}
