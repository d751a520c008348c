package cmd

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/charmbracelet/lipgloss"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/assets"
	"github.com/voltlane/voltlane/meter"
	"github.com/voltlane/voltlane/render"
)

// DefaultInfoTemplate is the project summary printed by voltlane-cli info.
const DefaultInfoTemplate = `{{ .Title | upper }} {{ .ID | trunc 8 | printf "(%s)" }}
{{ .BPM }} bpm, {{ .PPQ }} ppq, {{ .SampleRate }} Hz, {{ printf "%.2f" .Seconds }} s
{{ .Clips }} clips, {{ .Notes }} notes
{{ range .Tracks }}{{ .Index | printf "%2d" }}. {{ .Name | trunc 24 | printf "%-24s" }} {{ .Kind | printf "%-10s" }} {{ .Clips }} clips{{ if .Bus }} -> {{ .Bus }}{{ end }}{{ if not .Audible }} (silent){{ end }}
{{ end }}`

type (
	infoView struct {
		ID         string
		Title      string
		BPM        float64
		PPQ        uint16
		SampleRate uint32
		Seconds    float64
		Clips      int
		Notes      int
		Tracks     []trackView
	}

	trackView struct {
		Index   int
		Name    string
		Kind    string
		Clips   int
		Bus     string
		Audible bool
	}
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c7b8"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
)

func newInfoView(p *voltlane.Project) infoView {
	v := infoView{
		ID:         p.ID.String(),
		Title:      p.Title,
		BPM:        p.BPM,
		PPQ:        p.PPQ,
		SampleRate: p.SampleRate,
		Seconds:    float64(render.Length(p, 0)) / float64(render.SampleRate(p)),
		Clips:      p.ClipCount(),
		Notes:      p.NoteCount(),
	}
	for i := range p.Tracks {
		t := &p.Tracks[i]
		tv := trackView{Index: i + 1, Name: t.Name, Kind: t.Kind.String(), Clips: len(t.Clips), Audible: t.Audible()}
		if t.OutputBus != nil {
			if j := p.TrackIndex(*t.OutputBus); j >= 0 {
				tv.Bus = p.Tracks[j].Name
			}
		}
		v.Tracks = append(v.Tracks, tv)
	}
	return v
}

// WriteInfo executes tmpl, with sprig functions, over a summary of the
// project. An empty tmpl means DefaultInfoTemplate.
func WriteInfo(w io.Writer, p *voltlane.Project, tmpl string) error {
	if tmpl == "" {
		tmpl = DefaultInfoTemplate
	}
	t, err := template.New("info").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("could not parse info template: %w", err)
	}
	if err := t.Execute(w, newInfoView(p)); err != nil {
		return fmt.Errorf("could not execute info template: %w", err)
	}
	return nil
}

// Header styles a section title for terminal output.
func Header(s string) string { return headerStyle.Render(s) }

// WriteScan lists scanned assets, one per line.
func WriteScan(w io.Writer, dir string, entries []assets.Entry) {
	fmt.Fprintln(w, Header(fmt.Sprintf("%d audio files in %v", len(entries), dir)))
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s\n", pathStyle.Render(e.Path), dimStyle.Render(fmt.Sprintf("%s %d bytes", e.Extension, e.SizeBytes)))
	}
}

// WriteAnalysis prints the analysis header lines of an audio file.
func WriteAnalysis(w io.Writer, a assets.Analysis) {
	fmt.Fprintln(w, Header(a.SourcePath))
	fmt.Fprintf(w, "%d Hz, %d channels, %d frames, %.3f s\n", a.SampleRate, a.Channels, a.TotalFrames, a.DurationSeconds)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d peaks at bucket size %d", len(a.Peaks.Peaks), a.Peaks.BucketSize)))
	if a.CachePath != "" {
		fmt.Fprintln(w, dimStyle.Render("cache "+a.CachePath))
	}
}

// WriteLoudness prints a loudness measurement of a render.
func WriteLoudness(w io.Writer, r meter.Result) {
	fmt.Fprintln(w, Header("loudness"))
	fmt.Fprintf(w, "integrated %.1f LUFS, max momentary %.1f LUFS, max short-term %.1f LUFS\n",
		r.IntegratedLUFS, r.MaxMomentaryLUFS, r.MaxShortTermLUFS)
	fmt.Fprintf(w, "sample peak %.1f dBFS, true peak %.1f dBTP\n", r.SamplePeakDB, r.TruePeakDB)
}
