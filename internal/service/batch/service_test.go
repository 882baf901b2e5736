package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata/container"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/storage/file"
)

func newTestService(opts ...Option) *Service {
	base := []Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}
	return NewService(append(base, opts...)...)
}

// writeSource writes a small JPEG carrying a Make and a GPS position.
func writeSource(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 8), 120, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	doc := metadata.NewDocument()
	doc.SetASCII(metadata.IFD0, metadata.TagMake, "Sony")
	doc.SetASCII(metadata.GPSIFD, metadata.TagGPSLatitudeRef, "N")
	doc.SetRational(metadata.GPSIFD, metadata.TagGPSLatitude,
		metadata.Rational{Num: 50, Den: 1}, metadata.Rational{Num: 27, Den: 1}, metadata.Rational{Num: 0, Den: 1})
	doc.SetASCII(metadata.GPSIFD, metadata.TagGPSLongRef, "E")
	doc.SetRational(metadata.GPSIFD, metadata.TagGPSLongitude,
		metadata.Rational{Num: 30, Den: 1}, metadata.Rational{Num: 31, Den: 1}, metadata.Rational{Num: 0, Den: 1})

	data, err := container.Embed(model.FormatJPG, buf.Bytes(), container.Raw{EXIF: doc.EncodeEXIF()})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type recorder struct {
	progress   []model.ProgressEvent
	completion []model.CompletionEvent
}

func (r *recorder) observe(ev model.Event) {
	switch {
	case ev.Progress != nil:
		r.progress = append(r.progress, *ev.Progress)
	case ev.Completion != nil:
		r.completion = append(r.completion, *ev.Completion)
	}
}

func TestRunWebPStripsGPSAndStampsIDs(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	files := []string{
		writeSource(t, in, "a.jpg"),
		writeSource(t, in, "b.jpg"),
		writeSource(t, in, "c.jpg"),
	}

	var rec recorder
	done, err := newTestService().Run(context.Background(), model.Job{
		Inputs:    files,
		OutputDir: out,
		Format:    model.FormatWebP,
		Quality:   80,
		Meta:      model.MetadataPolicy{RemoveGPS: true, UniqueID: true},
	}, rec.observe)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if done.Status != model.Completed || done.Succeeded != 3 || len(rec.completion) != 1 {
		t.Fatalf("completion = %+v", done)
	}
	if len(rec.progress) != 3 {
		t.Fatalf("got %d progress events, want 3", len(rec.progress))
	}

	ids := make(map[string]bool)
	for i, ev := range rec.progress {
		if ev.Index != i || ev.Status != model.StatusOK || ev.Total != 3 {
			t.Fatalf("event %d = %+v", i, ev)
		}
		if ev.EtaMs < 0 {
			t.Fatalf("negative ETA in event %d", i)
		}

		data, err := os.ReadFile(ev.OutPath)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
			t.Fatalf("%s is not a WebP file", ev.OutPath)
		}

		raw, err := container.Extract(data)
		if err != nil || len(raw.EXIF) == 0 {
			t.Fatalf("no EXIF chunk in %s: %v", ev.OutPath, err)
		}
		x, err := exif.Decode(bytes.NewReader(raw.EXIF))
		if x == nil {
			t.Fatalf("goexif: %v", err)
		}
		if _, _, err := x.LatLong(); err == nil {
			t.Errorf("%s still carries a position", ev.OutPath)
		}

		doc, err := metadata.Read(data)
		if err != nil {
			t.Fatalf("read metadata: %v", err)
		}
		if mk, _ := doc.ASCII(metadata.IFD0, metadata.TagMake); mk != "Sony" {
			t.Errorf("source Make lost: %q", mk)
		}
		id, _ := doc.ASCII(metadata.ExifIFD, metadata.TagImageUniqueID)
		if id == "" || ids[id] {
			t.Errorf("unique id %q missing or repeated", id)
		}
		ids[id] = true
	}

	if got := filepath.Base(rec.progress[0].OutPath); got != "a_1.webp" {
		t.Errorf("first output name = %q", got)
	}
}

func TestRunContinuesAfterCorruptFile(t *testing.T) {
	in := t.TempDir()
	bad := filepath.Join(in, "bad.jpg")
	if err := os.WriteFile(bad, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	files := []string{writeSource(t, in, "a.jpg"), bad, writeSource(t, in, "c.jpg")}

	var rec recorder
	done, err := newTestService().Run(context.Background(), model.Job{
		Inputs: files, OutputDir: t.TempDir(), Format: model.FormatJPG,
	}, rec.observe)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(rec.progress) != 3 {
		t.Fatalf("got %d progress events", len(rec.progress))
	}
	if ev := rec.progress[1]; ev.Status != model.StatusError || ev.ErrorKind != model.ErrDecodeFailure || ev.OutPath != "" {
		t.Fatalf("corrupt file event = %+v", ev)
	}
	if rec.progress[2].Status != model.StatusOK {
		t.Fatal("file after the corrupt one was not processed")
	}
	if done.Status != model.Completed || done.Succeeded != 2 || done.Failed != 1 {
		t.Fatalf("completion = %+v", done)
	}
}

func TestCancelStopsAtFileBoundary(t *testing.T) {
	in := t.TempDir()
	var files []string
	for _, n := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		files = append(files, writeSource(t, in, n))
	}

	svc := newTestService()
	var rec recorder
	done, err := svc.Run(context.Background(), model.Job{
		Inputs: files, OutputDir: t.TempDir(), Format: model.FormatPNG,
	}, func(ev model.Event) {
		rec.observe(ev)
		if ev.Progress != nil && ev.Progress.Index == 1 {
			svc.Cancel()
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(rec.progress) != 2 {
		t.Fatalf("got %d progress events, want 2", len(rec.progress))
	}
	if done.Status != model.Canceled || done.Skipped != 2 || len(rec.completion) != 1 {
		t.Fatalf("completion = %+v", done)
	}

	// The next run starts clean.
	var again recorder
	done, err = svc.Run(context.Background(), model.Job{
		Inputs: files[:1], OutputDir: t.TempDir(), Format: model.FormatPNG,
	}, again.observe)
	if err != nil || done.Status != model.Completed || len(again.progress) != 1 {
		t.Fatalf("second run = %+v, %v", done, err)
	}
}

func TestValidationFailsBeforeAnyEvent(t *testing.T) {
	in := t.TempDir()
	src := writeSource(t, in, "a.jpg")

	cases := map[string]model.Job{
		"no files": {OutputDir: t.TempDir()},
		"removeAll with fake": {
			Inputs: []string{src}, OutputDir: t.TempDir(),
			Meta: model.MetadataPolicy{RemoveAll: true, Fake: model.FakeSpec{Enabled: true}},
		},
		"output dir is a file": {Inputs: []string{src}, OutputDir: src},
		"unknown template":     {Inputs: []string{src}, OutputDir: t.TempDir(), Template: "nope"},
	}

	for name, job := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			_, err := newTestService().Run(context.Background(), job, func(model.Event) { called = true })
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want a ValidationError", err)
			}
			if called {
				t.Fatal("events emitted for a rejected job")
			}
		})
	}
}

func TestRunKeepsReadableMetadataNextToBrokenXMP(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.jpg")
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	// APP1 XMP segment whose packet is not well-formed.
	payload := append([]byte("http://ns.adobe.com/xap/1.0/\x00"), "<x:xmpmeta><a></b></x:xmpmeta>"...)
	seg := []byte{0xFF, 0xE1, byte((len(payload) + 2) >> 8), byte(len(payload) + 2)}
	seg = append(seg, payload...)
	broken := append(append(append([]byte{}, data[:2]...), seg...), data[2:]...)
	if err := os.WriteFile(src, broken, 0o644); err != nil {
		t.Fatal(err)
	}

	var rec recorder
	if _, err := newTestService().Run(context.Background(), model.Job{
		Inputs: []string{src}, OutputDir: t.TempDir(), Format: model.FormatJPG,
	}, rec.observe); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.progress) != 1 || rec.progress[0].Status != model.StatusOK {
		t.Fatalf("events = %+v", rec.progress)
	}

	out, err := os.ReadFile(rec.progress[0].OutPath)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := metadata.Read(out)
	if err != nil {
		t.Fatalf("read output metadata: %v", err)
	}
	if mk, _ := doc.ASCII(metadata.IFD0, metadata.TagMake); mk != "Sony" {
		t.Fatalf("Make = %q, want the source value", mk)
	}
	if !doc.HasGPS() {
		t.Fatal("source position lost")
	}
}

func TestPerFileTimeout(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.jpg")

	var rec recorder
	done, err := newTestService(WithPerFileTimeout(time.Nanosecond)).Run(context.Background(), model.Job{
		Inputs: []string{src}, OutputDir: t.TempDir(),
	}, rec.observe)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.progress[0].ErrorKind != model.ErrTimeout || done.Failed != 1 {
		t.Fatalf("event = %+v", rec.progress[0])
	}
}

type failingStorage struct{ *file.Storage }

func (failingStorage) Save(string, []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestOutputWriteFailure(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.jpg")
	svc := newTestService(withStorage(func(dir string) outputStorage {
		return failingStorage{file.NewStorage(dir)}
	}))

	var rec recorder
	if _, err := svc.Run(context.Background(), model.Job{Inputs: []string{src, src}, OutputDir: t.TempDir()}, rec.observe); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, ev := range rec.progress {
		if ev.ErrorKind != model.ErrOutputWriteFailure {
			t.Fatalf("event = %+v", ev)
		}
	}
}

func TestStream(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.jpg")

	events, err := newTestService().Stream(context.Background(), model.Job{
		Inputs: []string{src, src}, OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var got []model.Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 3 || got[2].Completion == nil || got[2].Completion.Status != model.Completed {
		t.Fatalf("events = %+v", got)
	}
	if got[0].Progress.OutPath == got[1].Progress.OutPath {
		t.Fatal("duplicate inputs must map to distinct outputs")
	}
}

func TestStreamRejectsInvalidJob(t *testing.T) {
	if _, err := newTestService().Stream(context.Background(), model.Job{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCheckOutput(t *testing.T) {
	svc := newTestService()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := svc.CheckOutput(dir); err != nil {
		t.Fatalf("check: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	var verr *model.ValidationError
	if err := svc.CheckOutput(filepath.Join(blocker, "out")); !errors.As(err, &verr) || verr.Field != "outputDir" {
		t.Fatalf("err = %v, want outputDir ValidationError", err)
	}
}
