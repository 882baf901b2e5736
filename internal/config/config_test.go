package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yml", `
server:
  http_port: ":9000"
kafka:
  brokers: ["localhost:9092"]
batch:
  per_file_timeout: 30s
  software: "Darkroom 2"
database:
  master:
    host: db
    port: "5432"
    user: app
    name: photos
    ssl_mode: disable
`)
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.HTTPPort != ":9000" || !cfg.Kafka.Enabled() || cfg.Kafka.JobTopic != "photo-jobs" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Batch.PerFileTimeout != 30*time.Second || cfg.Batch.Software != "Darkroom 2" || cfg.Batch.Window != 5 {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Delay != 500*time.Millisecond {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
	if want := "postgres://app:secret@db:5432/photos?sslmode=disable"; cfg.Database.Master.DSN() != want {
		t.Fatalf("dsn = %s", cfg.Database.Master.DSN())
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Enabled() || cfg.Kafka.Enabled() || cfg.Storage.Enabled {
		t.Fatalf("optional backends enabled by default: %+v", cfg)
	}
	if cfg.Batch.Naming != model.DefaultNaming || cfg.Log.Level != "info" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoadJob(t *testing.T) {
	path := writeFile(t, "job.yml", `
files: [a.jpg, b.png]
output_dir: out
format: webp
quality: 82
meta:
  remove_gps: true
  date_strategy: offset
  date_offset_minutes: -30
  fake:
    enabled: true
    profile: phone
    exposure_program: 2
    gps:
      enabled: true
      preset: warsaw
`)

	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if len(job.Inputs) != 2 || job.Format != model.FormatWebP || job.Quality != 82 {
		t.Fatalf("job = %+v", job)
	}
	if !job.Meta.RemoveGPS || job.Meta.DateStrategy != model.DateOffset || job.Meta.DateOffsetMinutes != -30 {
		t.Fatalf("meta = %+v", job.Meta)
	}
	f := job.Meta.Fake
	if f.Profile != model.ProfilePhone || f.ExposureProgram == nil || *f.ExposureProgram != 2 || f.GPS.Preset != "warsaw" {
		t.Fatalf("fake = %+v", f)
	}
}

func TestLoadJobRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "job.yml", "files: [a.jpg]\nqualty: 80\n")
	_, err := LoadJob(path)
	if err == nil || !strings.Contains(err.Error(), "qualty") {
		t.Fatalf("err = %v", err)
	}
}
