package catalog

// Location is a named geographic preset.
type Location struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}

// Locations lists the location presets.
var Locations = []Location{
	{ID: "kyiv", Label: "Kyiv, Ukraine", Latitude: 50.4501, Longitude: 30.5234, Altitude: 179, City: "Kyiv", State: "Kyiv", Country: "Ukraine"},
	{ID: "warsaw", Label: "Warsaw, Poland", Latitude: 52.2297, Longitude: 21.0122, Altitude: 100, City: "Warsaw", State: "Mazovia", Country: "Poland"},
	{ID: "berlin", Label: "Berlin, Germany", Latitude: 52.52, Longitude: 13.405, Altitude: 34, City: "Berlin", State: "Berlin", Country: "Germany"},
	{ID: "london", Label: "London, United Kingdom", Latitude: 51.5074, Longitude: -0.1278, Altitude: 35, City: "London", State: "England", Country: "United Kingdom"},
}

// LocationByID returns the preset with the given id.
func LocationByID(id string) (Location, bool) {
	for _, l := range Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}
