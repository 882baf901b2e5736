package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/scanner"
)

// runFlags are the job fields settable from the command line. A flag
// overrides the job file only when it is given explicitly.
type runFlags struct {
	jobFile     string
	outputDir   string
	format      string
	quality     int
	resizeMaxW  int
	colorDrift  float64
	resizeDrift float64
	naming      string
	template    string
	watermark   string
	removeGPS   bool
	removeAll   bool
	uniqueID    bool
	softwareTag bool
	dates       string
	dateOffset  int
	fake        bool
	profile     string
	location    string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.jobFile, "job", "j", "", "YAML job file")
	fs.StringVarP(&f.outputDir, "out", "o", "", "output directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: jpg, png, webp, avif, heic")
	fs.IntVarP(&f.quality, "quality", "q", 0, "encoding quality 1..100")
	fs.IntVar(&f.resizeMaxW, "resize-max-w", 0, "maximum output width, 0 keeps the size")
	fs.Float64Var(&f.colorDrift, "color-drift", 0, "quality jitter in percent, 0..10")
	fs.Float64Var(&f.resizeDrift, "resize-drift", 0, "width jitter in percent, 0..10")
	fs.StringVar(&f.naming, "naming", "", "output name template, tokens {name} {index} {index0} {ext}")
	fs.StringVar(&f.template, "template", "", "quick template: professional, travel, nature, studio, street")
	fs.StringVar(&f.watermark, "watermark", "", "text stamped in the bottom-right corner")
	fs.BoolVar(&f.removeGPS, "remove-gps", false, "strip location metadata")
	fs.BoolVar(&f.removeAll, "remove-all", false, "strip all metadata")
	fs.BoolVar(&f.uniqueID, "unique-id", false, "stamp a unique id into every file")
	fs.BoolVar(&f.softwareTag, "software-tag", false, "stamp the Software tag")
	fs.StringVar(&f.dates, "dates", "", "date strategy: keep, now, offset")
	fs.IntVar(&f.dateOffset, "date-offset", 0, "minutes added to the processing time with --dates offset")
	fs.BoolVar(&f.fake, "fake", false, "synthesize camera metadata")
	fs.StringVar(&f.profile, "profile", "", "gear profile for --fake: camera, phone, action, drone, scanner")
	fs.StringVar(&f.location, "location", "", "location preset for --fake, e.g. kyiv")
}

// apply overlays the explicitly given flags on job.
func (f *runFlags) apply(fs *pflag.FlagSet, job model.Job) model.Job {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}

	set("out", func() { job.OutputDir = f.outputDir })
	set("format", func() { job.Format = model.Format(f.format) })
	set("quality", func() { job.Quality = f.quality })
	set("resize-max-w", func() { job.ResizeMaxW = f.resizeMaxW })
	set("color-drift", func() { job.ColorDrift = f.colorDrift })
	set("resize-drift", func() { job.ResizeDrift = f.resizeDrift })
	set("naming", func() { job.Naming = f.naming })
	set("template", func() { job.Template = f.template })
	set("watermark", func() { job.Watermark = f.watermark })
	set("remove-gps", func() { job.Meta.RemoveGPS = f.removeGPS })
	set("remove-all", func() { job.Meta.RemoveAll = f.removeAll })
	set("unique-id", func() { job.Meta.UniqueID = f.uniqueID })
	set("software-tag", func() { job.Meta.SoftwareTag = f.softwareTag })
	set("dates", func() { job.Meta.DateStrategy = model.DateStrategy(f.dates) })
	set("date-offset", func() { job.Meta.DateOffsetMinutes = f.dateOffset })
	set("fake", func() {
		job.Meta.Fake.Enabled = f.fake
		job.Meta.Fake.Auto = f.fake
	})
	set("profile", func() { job.Meta.Fake.Profile = model.Profile(f.profile) })
	set("location", func() {
		job.Meta.Fake.GPS.Enabled = true
		job.Meta.Fake.GPS.Preset = f.location
	})

	return job
}

func newRunCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Process a batch of images",
		Long: "Process the given files and directories. Settings come from the job file, " +
			"overridden by flags. Interrupt to stop after the current file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var job model.Job
			if f.jobFile != "" {
				if job, err = config.LoadJob(f.jobFile); err != nil {
					return err
				}
			}
			job = f.apply(cmd.Flags(), job)
			job.Inputs = append(job.Inputs, args...)
			if job.Naming == "" {
				job.Naming = cfg.Batch.Naming
			}

			// Replace directories with the images they contain.
			if job.Inputs, err = scanner.Expand(job.Inputs); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, true, consoleSink{w: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			defer a.Close()

			done, err := a.manager.Run(cmd.Context(), job)
			if err != nil {
				return err
			}

			if done.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", done.Failed, done.Total)
			}
			return nil
		},
	}
	f.register(cmd.Flags())

	return cmd
}

// consoleSink prints one line per file and a summary.
type consoleSink struct {
	w io.Writer
}

func (s consoleSink) Started(_ context.Context, job model.Job) error {
	_, err := fmt.Fprintf(s.w, "processing %d files into %s as %s\n", len(job.Inputs), job.OutputDir, job.Format)
	return err
}

func (s consoleSink) Progress(_ context.Context, ev model.ProgressEvent) error {
	var err error
	if ev.Status == model.StatusOK {
		_, err = fmt.Fprintf(s.w, "[%d/%d] %s -> %s (%s, eta %s)\n",
			ev.Index+1, ev.Total, ev.File, ev.OutPath, humanize.IBytes(uint64(ev.BytesOut)), time.Duration(ev.EtaMs)*time.Millisecond)
	} else {
		_, err = fmt.Fprintf(s.w, "[%d/%d] %s FAILED %s: %s\n", ev.Index+1, ev.Total, ev.File, ev.ErrorKind, ev.Error)
	}
	return err
}

func (s consoleSink) Completed(_ context.Context, ev model.CompletionEvent) error {
	_, err := fmt.Fprintf(s.w, "%s: %d ok, %d failed, %d skipped, %s -> %s in %s (%s/s)\n",
		ev.Status, ev.Succeeded, ev.Failed, ev.Skipped, humanize.IBytes(uint64(ev.BytesIn)), humanize.IBytes(uint64(ev.BytesOut)),
		time.Duration(ev.DurationMs)*time.Millisecond, humanize.IBytes(uint64(ev.AvgBps)))
	return err
}

