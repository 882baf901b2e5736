package fake

import (
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

func newGen(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

func TestGenerateCanonStaysInCatalog(t *testing.T) {
	gear, _ := catalog.Lookup(model.ProfileCamera)
	spec := model.FakeSpec{Enabled: true, Profile: model.ProfileCamera, Make: "Canon", Auto: true}

	for seed := int64(0); seed < 200; seed++ {
		rec := newGen(seed).Generate(spec)
		if !slices.Contains(gear.Models("Canon"), rec.Model) {
			t.Fatalf("seed %d: model %q is not a Canon model", seed, rec.Model)
		}
		if !slices.Contains(gear.LensesFor("Canon"), rec.Lens) {
			t.Fatalf("seed %d: lens %q is not a Canon lens", seed, rec.Lens)
		}
	}
}

func TestGenerateAutoPairsAlwaysConsistent(t *testing.T) {
	for _, p := range catalog.Profiles() {
		gear, _ := catalog.Lookup(p)
		for seed := int64(0); seed < 50; seed++ {
			rec := newGen(seed).Generate(model.FakeSpec{Profile: p, Auto: true})
			if !gear.HasModel(rec.Make, rec.Model) {
				t.Fatalf("%s seed %d: (%s, %s) not in catalog", p, seed, rec.Make, rec.Model)
			}
			if !gear.HasLens(rec.Make, rec.Lens) {
				t.Fatalf("%s seed %d: (%s, %s) not in catalog", p, seed, rec.Make, rec.Lens)
			}
		}
	}
}

func TestGenerateWithoutAutoLeavesFieldsAbsent(t *testing.T) {
	rec := newGen(1).Generate(model.FakeSpec{Profile: model.ProfileCamera, Make: "Sony"})

	if rec.Make != "Sony" {
		t.Fatalf("make = %q", rec.Make)
	}
	if rec.Model != "" || rec.Lens != "" || rec.ISO != 0 || rec.ExposureTime != "" ||
		rec.Flash != nil || rec.Rating != nil || rec.Serial != "" {
		t.Fatalf("unset fields must stay absent, got %+v", rec)
	}
}

func TestGenerateExplicitModelResolvesMake(t *testing.T) {
	rec := newGen(7).Generate(model.FakeSpec{Profile: model.ProfileCamera, Model: "Z8", Auto: true})

	if rec.Make != "Nikon" {
		t.Fatalf("make = %q, want Nikon", rec.Make)
	}
	gear, _ := catalog.Lookup(model.ProfileCamera)
	if !gear.HasLens("Nikon", rec.Lens) {
		t.Fatalf("lens %q does not belong to Nikon", rec.Lens)
	}
}

func TestGenerateExplicitValuesWin(t *testing.T) {
	spec := model.FakeSpec{
		Profile:      model.ProfileCamera,
		Auto:         true,
		ISO:          12800,
		ExposureTime: "1/3",
		Flash:        model.IntPtr(0),
		Serial:       "ABC",
	}
	rec := newGen(3).Generate(spec)

	if rec.ISO != 12800 || rec.ExposureTime != "1/3" || *rec.Flash != 0 || rec.Serial != "ABC" {
		t.Fatalf("explicit values not kept: %+v", rec)
	}
}

func TestLocationPresetWithOverride(t *testing.T) {
	spec := model.FakeSpec{GPS: model.FakeGPS{
		Enabled:  true,
		Preset:   "warsaw",
		Altitude: model.FloatPtr(250),
		City:     "Praga",
	}}
	rec := newGen(1).Generate(spec)

	if rec.GPS == nil {
		t.Fatal("expected GPS record")
	}
	if rec.GPS.Latitude != 52.2297 || rec.GPS.Longitude != 21.0122 {
		t.Fatalf("coordinates not copied from preset: %+v", rec.GPS)
	}
	if *rec.GPS.Altitude != 250 || rec.GPS.City != "Praga" {
		t.Fatalf("explicit fields must override the preset: %+v", rec.GPS)
	}
	if rec.GPS.State != "Mazovia" || rec.GPS.Country != "Poland" {
		t.Fatalf("remaining fields must come from the preset: %+v", rec.GPS)
	}
}

func TestLocationWithoutCoordinatesIsAbsent(t *testing.T) {
	rec := newGen(1).Generate(model.FakeSpec{GPS: model.FakeGPS{Enabled: true, City: "Nowhere"}})
	if rec.GPS != nil {
		t.Fatalf("expected no GPS without coordinates, got %+v", rec.GPS)
	}
}

func TestLocationAutoPicksPreset(t *testing.T) {
	rec := newGen(5).Generate(model.FakeSpec{Auto: true, GPS: model.FakeGPS{Enabled: true}})
	if rec.GPS == nil || rec.GPS.City == "" {
		t.Fatalf("expected a preset location, got %+v", rec.GPS)
	}
}

func TestSourceSharedRecordWithoutPerFile(t *testing.T) {
	src := newGen(11).NewSource(model.FakeSpec{Profile: model.ProfilePhone, Auto: true})

	first := src.Record(0)
	for i := 1; i < 5; i++ {
		if got := src.Record(i); !reflect.DeepEqual(got, first) {
			t.Fatalf("file %d got a different record: %+v vs %+v", i, got, first)
		}
	}
}

func TestSourcePerFileResolvesIndependently(t *testing.T) {
	src := newGen(11).NewSource(model.FakeSpec{Profile: model.ProfileCamera, Auto: true, PerFile: true})

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		rec := src.Record(i)
		seen[rec.Make+"/"+rec.Model+"/"+rec.Lens+"/"+rec.Serial] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected per-file records to vary, got %v", seen)
	}
}
