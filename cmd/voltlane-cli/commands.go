package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/assets"
	"github.com/voltlane/voltlane/cmd"
	"github.com/voltlane/voltlane/config"
	"github.com/voltlane/voltlane/export"
	"github.com/voltlane/voltlane/fixtures"
	"github.com/voltlane/voltlane/meter"
	"github.com/voltlane/voltlane/parity"
	"github.com/voltlane/voltlane/render"
	"github.com/voltlane/voltlane/tracker"
)

var errMissingOutput = errors.New("missing output path, use -o")

func oneProject(args []string) (voltlane.Project, error) {
	if len(args) != 1 {
		return voltlane.Project{}, fmt.Errorf("expected one project argument, got %d", len(args))
	}
	return cmd.LoadProject(args[0])
}

func renderCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Output file. A .raw extension writes headerless little endian mono samples, anything else a stereo .wav.")
	tail := fs.Float64("tail", -1, "Seconds of tail after the last clip. Defaults to the configured render_tail_seconds.")
	floatOut := fs.Bool("f", false, "Write float32 samples instead of 16-bit signed PCM.")
	return func(cfg config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		if *out == "" {
			return errMissingOutput
		}
		if *tail < 0 {
			*tail = cfg.RenderTailSeconds
		}
		buf := render.Render(&p, *tail)
		r := meter.Measure(buf, render.SampleRate(&p))
		slog.Info("rendered", "frames", len(buf), "integrated_lufs", r.IntegratedLUFS, "true_peak_db", r.TruePeakDB)
		var data []byte
		if strings.EqualFold(filepath.Ext(*out), ".raw") {
			data, err = voltlane.Raw(buf, !*floatOut)
		} else {
			data, err = voltlane.Wav(buf, render.SampleRate(&p), !*floatOut)
		}
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
		return os.WriteFile(*out, data, 0o644)
	}
}

func exportCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Output file, .wav or .mp3. Mp3 encoding runs the configured ffmpeg.")
	return func(cfg config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		switch ext := strings.ToLower(filepath.Ext(*out)); ext {
		case "":
			return errMissingOutput
		case ".mp3":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return export.MP3(ctx, &p, *out, cfg.FFmpegPath)
		case ".wav":
			return export.WriteWAVFile(&p, *out)
		default:
			return fmt.Errorf("unsupported export format %q", ext)
		}
	}
}

func stemsCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Directory for the stem files. Created if needed.")
	return func(_ config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		if *out == "" {
			return errMissingOutput
		}
		paths, err := export.Stems(&p, *out)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	}
}

func midiCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Output .mid file.")
	return func(_ config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		if *out == "" {
			return errMissingOutput
		}
		return export.WriteMIDIFile(&p, *out)
	}
}

func parityCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Write the report to this file instead of standard output.")
	check := fs.String("check", "", "Compare against a stored report and fail on any difference.")
	return func(_ config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		report, err := parity.Generate(&p)
		if err != nil {
			return err
		}
		if *check != "" {
			expected, err := parity.Read(*check)
			if err != nil {
				return err
			}
			if expected != report {
				return fmt.Errorf("parity report differs from %v", *check)
			}
			fmt.Println(cmd.Header("parity ok"))
		}
		if *out != "" {
			return parity.Write(*out, report)
		}
		if *check == "" {
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		}
		return nil
	}
}

func demoCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Output project file. The format follows the extension: .json or .yml.")
	return func(_ config.Config, _ []string) error {
		if *out == "" {
			return errMissingOutput
		}
		p := fixtures.Demo()
		return tracker.SaveProject(*out, &p)
	}
}

func newCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	out := fs.String("o", "", "Output project file. Defaults to an autosave in the configured autosave_dir.")
	title := fs.String("title", "Untitled", "Project title.")
	chip := fs.String("chip", "", "Add a chip track with an empty pattern for this chip, e.g. gameboy_apu.")
	return func(cfg config.Config, _ []string) error {
		p := voltlane.NewProject(*title, cfg.DefaultBPM, cfg.DefaultSampleRate)
		if cfg.PPQ > 0 {
			p.PPQ = cfg.PPQ
		}
		m := tracker.NewModel(p, nil)
		if *chip != "" {
			t, err := m.AddTrack("Chip", "#f77f00", voltlane.ChipTrack)
			if err != nil {
				return err
			}
			_, err = m.AddClip(t.ID, "Pattern 1", 0, 4*uint64(p.PPQ), &voltlane.PatternClip{
				SourceChip:   *chip,
				LinesPerBeat: cfg.LinesPerBeat,
			})
			if err != nil {
				return err
			}
		}
		if *out != "" {
			return m.Save(*out)
		}
		path, err := m.Autosave(cfg.AutosaveDir)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}
}

func analyzeCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	bucket := fs.Int("bucket", 0, "Waveform bucket size in frames. Defaults to the configured waveform_bucket_size.")
	noCache := fs.Bool("nocache", false, "Do not read or write the waveform cache.")
	asJSON := fs.Bool("json", false, "Print the full analysis, peaks included, as json.")
	return func(cfg config.Config, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected one audio file argument, got %d", len(args))
		}
		if *bucket == 0 {
			*bucket = cfg.WaveformBucketSize
		}
		var a assets.Analysis
		var err error
		if *noCache {
			a, err = assets.Analyze(args[0], *bucket)
		} else {
			a, err = assets.AnalyzeWithCache(args[0], cfg.CacheDir, *bucket, nil)
		}
		if err != nil {
			return err
		}
		if *asJSON {
			b, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		cmd.WriteAnalysis(os.Stdout, a)
		return nil
	}
}

func scanCommand(_ *flag.FlagSet) func(config.Config, []string) error {
	return func(_ config.Config, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		entries, err := assets.Scan(dir)
		if err != nil {
			return err
		}
		cmd.WriteScan(os.Stdout, dir, entries)
		return nil
	}
}

func infoCommand(fs *flag.FlagSet) func(config.Config, []string) error {
	tmplPath := fs.String("t", "", "Text template file for the summary. Sprig functions are available.")
	measure := fs.Bool("measure", false, "Render the project and print its loudness and peaks.")
	return func(cfg config.Config, args []string) error {
		p, err := oneProject(args)
		if err != nil {
			return err
		}
		var tmpl string
		if *tmplPath != "" {
			b, err := os.ReadFile(*tmplPath)
			if err != nil {
				return fmt.Errorf("could not read template: %w", err)
			}
			tmpl = string(b)
		}
		if err := cmd.WriteInfo(os.Stdout, &p, tmpl); err != nil {
			return err
		}
		if *measure {
			cmd.WriteLoudness(os.Stdout, meter.Measure(render.Render(&p, cfg.RenderTailSeconds), render.SampleRate(&p)))
		}
		return nil
	}
}
