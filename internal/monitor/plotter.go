package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/voxel.carve/internal/carving"
	"github.com/banshee-data/voxel.carve/internal/security"
)

// Step is one recorded carve.
type Step struct {
	Index     int
	View      string
	Mode      carving.Mode
	Remaining int
	Removed   int
	Outside   int
	Duration  time.Duration
}

// CarvePlotter records carve results as views are applied and writes plots
// after the run.
type CarvePlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string
	initial   int
	steps     []Step
}

// NewCarvePlotter returns a disabled plotter. Call Start to begin recording.
func NewCarvePlotter() *CarvePlotter {
	return &CarvePlotter{}
}

// Start initializes the plotter for a new run over a grid of initial voxels.
// outputDir should be a timestamped directory (see MakePlotOutputDir).
func (cp *CarvePlotter) Start(outputDir string, initial int) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	cp.outputDir = outputDir
	cp.enabled = true
	cp.initial = initial
	cp.steps = nil
	return nil
}

// Stop disables recording. Call GeneratePlots to produce output files.
func (cp *CarvePlotter) Stop() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (cp *CarvePlotter) IsEnabled() bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.enabled
}

// Record appends the result of carving with the named view.
func (cp *CarvePlotter) Record(view string, r carving.Result) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if !cp.enabled {
		return
	}
	cp.steps = append(cp.steps, Step{
		Index:     len(cp.steps) + 1,
		View:      view,
		Mode:      r.Mode,
		Remaining: r.Kept,
		Removed:   r.Removed,
		Outside:   r.OutsideImage,
		Duration:  r.Duration,
	})
}

// Steps returns a copy of the recorded steps.
func (cp *CarvePlotter) Steps() []Step {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	out := make([]Step, len(cp.steps))
	copy(out, cp.steps)
	return out
}

// GetOutputDir returns the current output directory for plots.
func (cp *CarvePlotter) GetOutputDir() string {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.outputDir
}

// GeneratePlots writes voxel_count.png and removed_per_view.png and returns
// how many files were written.
func (cp *CarvePlotter) GeneratePlots() (int, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.outputDir == "" {
		return 0, fmt.Errorf("plotter not started")
	}
	if len(cp.steps) == 0 {
		return 0, nil
	}

	if err := cp.plotVoxelCount(); err != nil {
		return 0, err
	}
	if err := cp.plotRemoved(); err != nil {
		return 1, err
	}
	return 2, nil
}

func (cp *CarvePlotter) plotVoxelCount() error {
	p := plot.New()
	p.Title.Text = "Voxels remaining after each carve"
	p.X.Label.Text = "Carve"
	p.Y.Label.Text = "Voxels"

	byMode := map[carving.Mode]plotter.XYs{}
	all := make(plotter.XYs, 0, len(cp.steps)+1)
	all = append(all, plotter.XY{X: 0, Y: float64(cp.initial)})
	for _, s := range cp.steps {
		all = append(all, plotter.XY{X: float64(s.Index), Y: float64(s.Remaining)})
		byMode[s.Mode] = append(byMode[s.Mode], plotter.XY{X: float64(s.Index), Y: float64(s.Remaining)})
	}

	line, err := plotter.NewLine(all)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("remaining", line)

	modes := []carving.Mode{carving.ModeSilhouette, carving.ModeDepth}
	colors := generateColors(len(modes))
	for i, m := range modes {
		pts := byMode[m]
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create scatter: %w", err)
		}
		sc.GlyphStyle.Color = colors[i]
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(string(m), sc)
	}

	file := filepath.Join(cp.outputDir, "voxel_count.png")
	if err := p.Save(10*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}

func (cp *CarvePlotter) plotRemoved() error {
	p := plot.New()
	p.Title.Text = "Voxels removed per carve"
	p.Y.Label.Text = "Voxels"

	values := make(plotter.Values, len(cp.steps))
	labels := make([]string, len(cp.steps))
	for i, s := range cp.steps {
		values[i] = float64(s.Removed)
		labels[i] = fmt.Sprintf("%s/%s", s.View, s.Mode)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return fmt.Errorf("failed to create bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	p.Add(bars)
	p.NominalX(labels...)

	width := vg.Length(len(cp.steps)) * vg.Inch * 0.6
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	file := filepath.Join(cp.outputDir, "removed_per_view.png")
	if err := p.Save(width, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir returns plots/<scene>/<timestamp>, or
// plots/run_<timestamp> when the scene has no name. The scene name is
// reduced to a single safe path element.
func MakePlotOutputDir(baseDir, scene string) string {
	ts := FormatTimestamp(time.Now())
	if scene != "" {
		return filepath.Join(baseDir, security.SanitizeFilename(scene), ts)
	}
	return filepath.Join(baseDir, "run_"+ts)
}
