package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/voxel.carve/internal/camera"
	"github.com/banshee-data/voxel.carve/internal/carving"
	"github.com/banshee-data/voxel.carve/internal/config"
	"github.com/banshee-data/voxel.carve/internal/db"
	"github.com/banshee-data/voxel.carve/internal/monitor"
	"github.com/banshee-data/voxel.carve/internal/monitoring"
	"github.com/banshee-data/voxel.carve/internal/raster"
	"github.com/banshee-data/voxel.carve/internal/security"
	"github.com/banshee-data/voxel.carve/internal/storage/sqlite"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

const defaultConfigHint = config.DefaultConfigPath + " when present"

// options holds the command line. Nil pointers leave the config value alone.
type options struct {
	ConfigPath     string
	ScenePath      string
	NoDB           bool
	ConfineViews   bool // reject view files outside the scene's directory
	DBPath         *string
	PlotDir        *string
	Workers        *int
	DepthTolerance *float64
}

// summary describes a finished run.
type summary struct {
	Scene        string
	Initial      int
	Final        int
	Steps        []monitor.Step
	OctreeLeaves int
	InputGridID  string
	ResultGridID string
	RunID        string
	PlotDir      string
	Elapsed      time.Duration
}

func (s *summary) log() {
	monitoring.Logf("scene %q: %d -> %d voxels over %d carves in %v (octree leaves: %d)",
		s.Scene, s.Initial, s.Final, len(s.Steps), s.Elapsed.Round(time.Millisecond), s.OctreeLeaves)
	if s.RunID != "" {
		monitoring.Logf("stored run %s (input grid %s, result grid %s)", s.RunID, s.InputGridID, s.ResultGridID)
	}
	if s.PlotDir != "" {
		monitoring.Logf("plots written to %s", s.PlotDir)
	}
}

// loadConfig reads path, or the default config when path is empty and the
// default file exists.
func loadConfig(path string) (*config.CarveConfig, error) {
	if path != "" {
		return config.LoadCarveConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return config.EmptyCarveConfig(), nil
	}
	return config.LoadCarveConfig(config.DefaultConfigPath)
}

func (o options) apply(cfg *config.CarveConfig) error {
	if o.DBPath != nil {
		cfg.DatabasePath = o.DBPath
	}
	if o.PlotDir != nil {
		cfg.PlotDir = o.PlotDir
	}
	if o.Workers != nil {
		cfg.Workers = o.Workers
	}
	if o.DepthTolerance != nil {
		cfg.DepthTolerance = o.DepthTolerance
	}
	return cfg.Validate()
}

func loadViews(scene *config.Scene, cfg *config.CarveConfig) ([]carving.View, error) {
	views := make([]carving.View, 0, len(scene.Views))
	for i, v := range scene.Views {
		name := v.Label(i)
		cam, err := camera.LoadParameters(v.Camera)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", name, err)
		}
		cv := carving.View{Name: name, Camera: cam}
		if v.Mask != "" {
			mask, err := raster.ReadMaskPNG(v.Mask)
			if err != nil {
				return nil, fmt.Errorf("view %s: %w", name, err)
			}
			cv.Mask = mask
		}
		if v.Depth != "" {
			depth, err := raster.ReadDepthPNG(v.Depth, v.GetDepthScale(cfg))
			if err != nil {
				return nil, fmt.Errorf("view %s: %w", name, err)
			}
			cv.Depth = depth
		}
		views = append(views, cv)
	}
	return views, nil
}

// resultNames labels the results CarveViews returns for views: one entry
// per silhouette and one per depth map, in view order.
func resultNames(views []carving.View) []string {
	var names []string
	for _, v := range views {
		if v.Mask != nil {
			names = append(names, v.Name)
		}
		if v.Depth != nil {
			names = append(names, v.Name)
		}
	}
	return names
}

// run carves the scene at opts.ScenePath and persists and plots the result
// as configured.
func run(ctx context.Context, opts options) (*summary, error) {
	start := time.Now()

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := opts.apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	scene, err := config.LoadScene(opts.ScenePath)
	if err != nil {
		return nil, err
	}
	if opts.ConfineViews {
		if err := security.ValidatePathsWithinDirectory(scene.Files(), filepath.Dir(opts.ScenePath)); err != nil {
			return nil, fmt.Errorf("scene %s: %w", opts.ScenePath, err)
		}
	}
	views, err := loadViews(scene, cfg)
	if err != nil {
		return nil, err
	}

	vol := scene.Volume
	grid, err := voxelgrid.CreateDense(vol.Width, vol.Height, vol.Depth, vol.VoxelSize, vol.OriginVec())
	if err != nil {
		return nil, fmt.Errorf("create dense volume: %w", err)
	}
	sum := &summary{Scene: scene.Name, Initial: grid.Len()}
	monitoring.Logf("scene %q: dense volume of %d voxels, %d views", scene.Name, grid.Len(), len(views))

	var (
		grids *sqlite.GridStore
		runs  *sqlite.CarveRunStore
	)
	carver := carving.NewCarver(carving.ConfigFromTuning(cfg))
	if !opts.NoDB {
		database, err := db.Open(cfg.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer database.Close()
		grids = sqlite.NewGridStore(database.DB)
		runs = sqlite.NewCarveRunStore(database.DB)

		rec, err := grids.Save(ctx, scene.Name+"/dense", grid)
		if err != nil {
			return nil, err
		}
		sum.InputGridID = rec.GridID
		carverCfg := carver.Config()
		r := &sqlite.CarveRun{InputGridID: rec.GridID, SceneName: scene.Name}
		if err := runs.StartRun(ctx, r, &carverCfg); err != nil {
			return nil, err
		}
		sum.RunID = r.RunID
	}

	plotter := monitor.NewCarvePlotter()
	if base := cfg.GetPlotDir(); base != "" {
		dir := monitor.MakePlotOutputDir(base, scene.Name)
		if err := plotter.Start(dir, grid.Len()); err != nil {
			return nil, err
		}
		defer plotter.Stop()
		sum.PlotDir = dir
	}

	results, err := carver.CarveViews(grid, views)
	if err != nil {
		return nil, err
	}
	names := resultNames(views)
	for i, r := range results {
		plotter.Record(names[i], r)
		monitoring.Debugf("view %s (%s): removed %d, kept %d, outside %d",
			names[i], r.Mode, r.Removed, r.Kept, r.OutsideImage)
		sum.Steps = append(sum.Steps, monitor.Step{
			Index:     i + 1,
			View:      names[i],
			Mode:      r.Mode,
			Remaining: r.Kept,
			Removed:   r.Removed,
			Outside:   r.OutsideImage,
			Duration:  r.Duration,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runs != nil {
		if err := runs.RecordResults(ctx, sum.RunID, 0, names, results); err != nil {
			return nil, err
		}
	}
	sum.Final = grid.Len()

	if grid.HasVoxels() {
		oct, err := grid.ToOctree(cfg.GetOctreeMaxDepth())
		if err != nil {
			return nil, fmt.Errorf("export octree: %w", err)
		}
		sum.OctreeLeaves = oct.NumLeaves()
	}

	if grids != nil {
		rec, err := grids.Save(ctx, scene.Name+"/carved", grid)
		if err != nil {
			return nil, err
		}
		sum.ResultGridID = rec.GridID
		if err := runs.FinishRun(ctx, sum.RunID, rec.GridID); err != nil {
			return nil, err
		}
	}

	if plotter.IsEnabled() {
		if _, err := plotter.GeneratePlots(); err != nil {
			return nil, err
		}
		title := scene.Name
		if title == "" {
			title = "voxel carve"
		}
		report := filepath.Join(sum.PlotDir, "report.html")
		if err := monitor.WriteReport(report, title, sum.Initial, plotter.Steps(), grid); err != nil {
			return nil, err
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}
