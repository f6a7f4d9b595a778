package monitor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

// DefaultMaxReportPoints bounds the voxel scatter payload.
const DefaultMaxReportPoints = 20000

// viridis matches the palette used for scatter heat colouring.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderReport writes an HTML page with the carve progression and an X/Y
// projection of the surviving voxels coloured by Z. grid may be nil.
func RenderReport(w io.Writer, title string, initial int, steps []Step, grid *voxelgrid.VoxelGrid, maxPoints int) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(progressChart(title, initial, steps), removedChart(steps))
	if grid != nil && grid.HasVoxels() {
		page.AddCharts(voxelScatter(grid, maxPoints))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteReport renders the report to path.
func WriteReport(path, title string, initial int, steps []Step, grid *voxelgrid.VoxelGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := RenderReport(f, title, initial, steps, grid, DefaultMaxReportPoints); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func progressChart(title string, initial int, steps []Step) *charts.Line {
	x := make([]string, 0, len(steps)+1)
	y := make([]opts.LineData, 0, len(steps)+1)
	x = append(x, "initial")
	y = append(y, opts.LineData{Value: initial})
	for _, s := range steps {
		x = append(x, fmt.Sprintf("%d %s/%s", s.Index, s.View, s.Mode))
		y = append(y, opts.LineData{Value: s.Remaining})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("initial=%d carves=%d", initial, len(steps))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "voxels"}),
	)
	line.SetXAxis(x).AddSeries("remaining", y)
	return line
}

func removedChart(steps []Step) *charts.Bar {
	x := make([]string, len(steps))
	y := make([]opts.BarData, len(steps))
	for i, s := range steps {
		x[i] = fmt.Sprintf("%d %s/%s", s.Index, s.View, s.Mode)
		y[i] = opts.BarData{Value: s.Removed}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Removed per carve"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors(hexColors(1))),
	)
	bar.SetXAxis(x).
		AddSeries("removed", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func voxelScatter(grid *voxelgrid.VoxelGrid, maxPoints int) *charts.Scatter {
	centers := grid.Centers()

	// Downsample by stride to stay within maxPoints
	stride := 1
	if maxPoints > 0 && len(centers) > maxPoints {
		stride = int(math.Ceil(float64(len(centers)) / float64(maxPoints)))
	}

	lo, hi := grid.MinBound(), grid.MaxBound()
	data := make([]opts.ScatterData, 0, len(centers)/stride+1)
	for i := 0; i < len(centers); i += stride {
		c := centers[i]
		data = append(data, opts.ScatterData{Value: []interface{}{c.X, c.Y, c.Z}})
	}

	// Equal axis ranges keep voxels square.
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y) / 2
	midX, midY := (lo.X+hi.X)/2, (lo.Y+hi.Y)/2

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Surviving voxels (X/Y)", Subtitle: fmt.Sprintf("voxels=%d points=%d stride=%d size=%g", grid.Len(), len(data), stride, grid.VoxelSize())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: midX - span, Max: midX + span, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: midY - span, Max: midY + span, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo.Z),
			Max:        float32(hi.Z),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("voxels", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter
}
