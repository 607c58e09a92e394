// regrid-example resamples a projected GeoTIFF onto a regular
// latitude/longitude grid and prints statistics of the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phollemans/cwutils-sub013"
)

func run() error {
	source := flag.String("source", os.Getenv("REGRID_SOURCE"), "path to source GeoTIFF")
	crs := flag.String("crs", "", "source coordinate reference system (default from file)")
	method := flag.String("method", "mixed", "resampling method (direct, inverse, or mixed)")
	rows := flag.Int("rows", 512, "destination rows")
	cols := flag.Int("cols", 512, "destination columns")
	north := flag.Float64("north", 72, "destination north edge latitude")
	south := flag.Float64("south", 34, "destination south edge latitude")
	west := flag.Float64("west", -11, "destination west edge longitude")
	east := flag.Float64("east", 32, "destination east edge longitude")
	polySize := flag.Float64("poly-size", 100, "polynomial partition size in kilometers")
	rectSize := flag.Int("rect-size", 50, "mixed method rectangle size in pixels")
	verbose := flag.Bool("verbose", false, "log progress")
	flag.Parse()

	if *source == "" {
		return errors.New("syntax: regrid-example -source file.tif")
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	sourceGrid, err := regrid.NewGeoTIFFGrid(os.DirFS(filepath.Dir(*source)), filepath.Base(*source))
	if err != nil {
		return err
	}
	defer sourceGrid.Close()

	if *crs == "" {
		*crs = sourceGrid.CRS()
	}
	if *crs == "" {
		return errors.New("source file declares no CRS, use -crs")
	}
	sourceTrans, err := regrid.NewProjTransform(*crs, sourceGrid.Dimensions(), sourceGrid.Georeference())
	if err != nil {
		return err
	}

	cellHeight := (*north - *south) / float64(*rows)
	cellWidth := (*east - *west) / float64(*cols)
	destAffine := regrid.NewAffine(
		*north-cellHeight/2, -cellHeight, 0,
		*west+cellWidth/2, 0, cellWidth,
	)
	destTrans, err := regrid.NewLinearTransform([]int{*rows, *cols}, destAffine)
	if err != nil {
		return err
	}

	var resampler regrid.Resampler
	switch *method {
	case "direct":
		resampler = regrid.NewDirectResampler(sourceTrans, destTrans,
			regrid.WithDirectLogger(logger))
	case "inverse":
		resampler = regrid.NewInverseResampler(sourceTrans, destTrans, *polySize,
			regrid.WithInverseLogger(logger))
	case "mixed":
		resampler = regrid.NewMixedResampler(sourceTrans, destTrans, *rectSize, *rectSize,
			regrid.WithMixedLogger(logger))
	default:
		return fmt.Errorf("unknown method %q", *method)
	}

	destGrid := regrid.NewMemoryGrid(*rows, *cols)
	resampler.AddGrid(sourceGrid, destGrid)
	if err := resampler.Perform(context.Background()); err != nil {
		return err
	}

	stats := regrid.GridStats(destGrid)
	fmt.Printf("pixels: %d\n", *rows**cols)
	fmt.Printf("valid: %d\n", stats.Count)
	if stats.Count > 0 {
		fmt.Printf("min: %g\n", stats.Min)
		fmt.Printf("max: %g\n", stats.Max)
		fmt.Printf("mean: %g\n", stats.Mean)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
