// Package catalog holds the static reference data used to synthesize
// plausible device metadata: gear per device profile, shot parameter
// enumerations, location presets and quick templates.
package catalog

import (
	"slices"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Gear lists the makes, models and lenses known for one device profile.
// A profile either has lenses per make or a single shared lens list.
type Gear struct {
	Makes        []string            `json:"makes"`
	ModelsByMake map[string][]string `json:"modelsByMake"`
	LensesByMake map[string][]string `json:"lensesByMake,omitempty"`
	Lenses       []string            `json:"lenses,omitempty"`
}

var gear = map[model.Profile]Gear{
	model.ProfileCamera: {
		Makes: []string{"Canon", "Nikon", "Sony", "Fujifilm", "Panasonic"},
		ModelsByMake: map[string][]string{
			"Canon":     {"EOS R5", "EOS 5D Mark IV", "EOS 90D", "EOS R6 Mark II"},
			"Nikon":     {"Z7 II", "D850", "Z6", "Z8"},
			"Sony":      {"Alpha A7 IV", "Alpha A7R III", "Alpha A6400", "Alpha A1"},
			"Fujifilm":  {"X-T5", "X-S10", "X100V", "GFX 50S"},
			"Panasonic": {"Lumix S5 II", "Lumix GH6", "Lumix G9"},
		},
		LensesByMake: map[string][]string{
			"Canon":     {"RF 24-70mm f/2.8L", "EF 50mm f/1.8 STM", "RF 70-200mm f/2.8L", "RF 35mm f/1.8"},
			"Nikon":     {"Z 24-70mm f/2.8", "AF-S 50mm f/1.8G", "Z 70-200mm f/2.8", "Z 35mm f/1.8"},
			"Sony":      {"FE 24-70mm f/2.8 GM", "FE 50mm f/1.8", "FE 85mm f/1.8", "FE 35mm f/1.8"},
			"Fujifilm":  {"XF 23mm f/1.4", "XF 18-55mm f/2.8-4", "XF 56mm f/1.2", "XF 35mm f/1.4"},
			"Panasonic": {"LUMIX S 24-105mm f/4", "LEICA 12-60mm f/2.8-4", "LUMIX G 25mm f/1.7"},
		},
	},
	model.ProfilePhone: {
		Makes: []string{"Apple", "Samsung", "Xiaomi", "Google", "Huawei"},
		ModelsByMake: map[string][]string{
			"Apple":   {"iPhone 15 Pro", "iPhone 14 Pro", "iPhone 13"},
			"Samsung": {"Galaxy S24", "Galaxy S23", "Galaxy Note 20"},
			"Xiaomi":  {"Mi 13", "Mi 11", "Redmi Note 12"},
			"Google":  {"Pixel 8 Pro", "Pixel 7", "Pixel 6a"},
			"Huawei":  {"P60 Pro", "P50", "Mate 40"},
		},
		Lenses: []string{"Wide 26mm f/1.9", "UltraWide 13mm f/2.2", "Tele 77mm f/2.8"},
	},
	model.ProfileAction: {
		Makes: []string{"GoPro", "Insta360", "DJI"},
		ModelsByMake: map[string][]string{
			"GoPro":    {"HERO 12 Black", "HERO 11", "HERO 10"},
			"Insta360": {"X3", "ONE R", "GO 3"},
			"DJI":      {"Osmo Action 4", "Osmo Action 3"},
		},
		Lenses: []string{"UltraWide", "Wide"},
	},
	model.ProfileDrone: {
		Makes: []string{"DJI", "Autel", "Parrot"},
		ModelsByMake: map[string][]string{
			"DJI":    {"Mavic 3", "Air 2S", "Mini 3 Pro"},
			"Autel":  {"EVO Lite+", "EVO II"},
			"Parrot": {"Anafi"},
		},
		Lenses: []string{"24mm f/2.8", "22mm f/2.8"},
	},
	model.ProfileScanner: {
		Makes: []string{"Epson", "Canon", "Plustek"},
		ModelsByMake: map[string][]string{
			"Epson":   {"Perfection V600", "Perfection V850"},
			"Canon":   {"CanoScan 9000F", "LiDE 400"},
			"Plustek": {"OpticFilm 8200i", "ePhoto Z300"},
		},
		Lenses: []string{"CCD", "CIS"},
	},
}

// Lookup returns the gear of a device profile.
func Lookup(p model.Profile) (Gear, bool) {
	g, ok := gear[p]
	return g, ok
}

// Profiles returns every known device profile in a stable order.
func Profiles() []model.Profile {
	return []model.Profile{
		model.ProfileCamera, model.ProfilePhone, model.ProfileAction,
		model.ProfileDrone, model.ProfileScanner,
	}
}

// Models returns the models known for maker.
func (g Gear) Models(maker string) []string {
	return g.ModelsByMake[maker]
}

// LensesFor returns the lenses compatible with maker: the per-make list when
// the profile has one, the shared list otherwise.
func (g Gear) LensesFor(maker string) []string {
	if g.LensesByMake != nil {
		return g.LensesByMake[maker]
	}
	if !slices.Contains(g.Makes, maker) {
		return nil
	}
	return g.Lenses
}

// MakeOf finds the make a model belongs to.
func (g Gear) MakeOf(modelName string) (string, bool) {
	for _, maker := range g.Makes {
		if slices.Contains(g.ModelsByMake[maker], modelName) {
			return maker, true
		}
	}
	return "", false
}

// HasModel reports whether (maker, model) is a catalog pair.
func (g Gear) HasModel(maker, modelName string) bool {
	return slices.Contains(g.ModelsByMake[maker], modelName)
}

// HasLens reports whether (maker, lens) is a catalog pair.
func (g Gear) HasLens(maker, lens string) bool {
	return slices.Contains(g.LensesFor(maker), lens)
}
