package catalog

// Option is a coded EXIF value with a human readable label.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Shot parameter enumerations the generator draws from.
var (
	ISOs = []int{50, 64, 80, 100, 125, 160, 200, 250, 320, 400, 500, 640, 800,
		1000, 1250, 1600, 2000, 2500, 3200, 4000, 5000, 6400}

	ExposureTimes = []string{"1/8000", "1/4000", "1/2000", "1/1000", "1/500", "1/250",
		"1/200", "1/160", "1/125", "1/80", "1/60", "1/30", "1/15", "1/8", "1/4", "1/2",
		"1", "2", "5", "10"}

	FNumbers = []float64{1.2, 1.4, 1.8, 2, 2.2, 2.8, 3.5, 4, 5.6, 8, 11, 16, 22}

	FocalLengths = []float64{12, 14, 16, 18, 20, 24, 28, 30, 35, 40, 50, 55, 70, 85, 105, 135, 200}

	ExposurePrograms = []Option{
		{1, "Manual"},
		{2, "Program"},
		{3, "Aperture priority"},
		{4, "Shutter priority"},
		{5, "Creative"},
		{6, "Action"},
		{7, "Portrait"},
		{8, "Landscape"},
	}

	MeteringModes = []Option{
		{0, "Unknown"},
		{1, "Average"},
		{2, "Center-weighted average"},
		{3, "Spot"},
		{4, "Multi-spot"},
		{5, "Pattern"},
		{6, "Partial"},
		{255, "Other"},
	}

	FlashModes = []Option{
		{0, "No flash"},
		{1, "Fired"},
		{5, "Fired, return not detected"},
		{7, "Fired, return detected"},
		{9, "Fired, compulsory"},
		{16, "Off"},
	}

	WhiteBalances = []Option{
		{0, "Auto"},
		{1, "Manual"},
	}

	ColorSpaces = []string{"sRGB", "AdobeRGB", "Display P3", "ProPhoto RGB"}

	Ratings = []int{0, 1, 2, 3, 4, 5}
)
