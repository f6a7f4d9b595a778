// Command voxelcarve builds a dense voxel volume for a scene, carves it with
// each view's silhouette mask and depth map, and stores the result.
//
// Usage:
//
//	voxelcarve -scene scenes/bunny.yaml [-config config/carve.defaults.json] [-db voxelcarve.db] [-plots plots]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/voxel.carve/internal/monitoring"
	"github.com/banshee-data/voxel.carve/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Carve config file (.json, .yaml); defaults to "+defaultConfigHint)
	scenePath := flag.String("scene", "", "Scene manifest (.json, .yaml) listing the volume and views")
	dbPath := flag.String("db", "", "SQLite database path (overrides database_path)")
	confine := flag.Bool("confine", false, "Reject cameras, masks and depth maps outside the scene directory")
	noDB := flag.Bool("no-db", false, "Do not persist grids or run results")
	plotDir := flag.String("plots", "", "Base directory for PNG plots and the HTML report (overrides plot_dir)")
	workers := flag.Int("workers", 0, "Parallel carving workers (overrides workers; 0 means one per CPU)")
	tolerance := flag.Float64("tolerance", 0, "Depth tolerance in metres (overrides depth_tolerance)")
	verbose := flag.Bool("verbose", false, "Log per-view detail")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *scenePath == "" {
		fmt.Fprintln(os.Stderr, "voxelcarve: -scene is required")
		flag.Usage()
		os.Exit(2)
	}
	monitoring.SetVerbose(*verbose)

	opts := options{
		ConfigPath:   *configPath,
		ScenePath:    *scenePath,
		NoDB:         *noDB,
		ConfineViews: *confine,
	}
	// Only flags given on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			opts.DBPath = dbPath
		case "plots":
			opts.PlotDir = plotDir
		case "workers":
			opts.Workers = workers
		case "tolerance":
			opts.DepthTolerance = tolerance
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("voxelcarve %s", version.String())
	sum, err := run(ctx, opts)
	if err != nil {
		log.Fatalf("voxelcarve: %v", err)
	}
	sum.log()
}
