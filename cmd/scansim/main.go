// scansim drives the full scan-out pipeline against an in-memory word
// recorder instead of GPIO, so the signal stream can be inspected on a
// workstation: word counts per refresh, lit duty per bit plane, and an
// optional hex dump of the first refresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-vortex/internal/config"
	"github.com/coreman2200/funtimes-vortex/internal/geom"
	"github.com/coreman2200/funtimes-vortex/internal/hub75"
	"github.com/coreman2200/funtimes-vortex/internal/pattern"
	"github.com/coreman2200/funtimes-vortex/internal/scan"
	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

func main() {
	var (
		configPath  = flag.String("config", "", "optional config.yaml; defaults apply when empty")
		patternName = flag.String("pattern", string(pattern.RGBTest), "pattern feeding the volume")
		refreshes   = flag.Int("refreshes", 8, "number of refresh cycles to simulate")
		dump        = flag.Int("dump", 0, "hex-dump this many words of the first refresh")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		cfg = *c
	}
	cfg.Driver = "sim"
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	space, err := voxel.NewSpace(voxel.Bounds{X: cfg.Voxels.X, Y: cfg.Voxels.Y, Z: cfg.Voxels.Z})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	panels := make([]geom.Panel, len(cfg.Panels))
	for i, p := range cfg.Panels {
		ord, err := geom.OrderByName(p.Order, cfg.PanelWidth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		panels[i] = geom.Panel{Eccentricity: p.Eccentricity, Order: ord}
	}
	mapper, err := geom.NewMapper(cfg.PanelWidth, cfg.PanelHeight, cfg.Voxels.Y, cfg.RotationZeroDeg, panels)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pm := cfg.PinMap()
	mux, err := hub75.NewMux(cfg.PanelHeight, cfg.Multiplex, len(pm.Addr))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	enc, err := hub75.NewEncoder(pm, cfg.PanelWidth, cfg.BitPlanes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	src, err := scan.NewSource(space, mapper, mux, len(pm.Chains), cfg.PanelWidth, zerolog.Nop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rec := &hub75.Recorder{}
	drv, err := hub75.NewDriver(rec, pm, mux, enc, src, cfg.PanelWidth, cfg.SettleCycles, cfg.DisplayCycles)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runner, err := pattern.NewRunner(pattern.Kind(*patternName))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	colorMask := pm.ColorMask()
	blank := pm.BlankMask()
	ctx := context.Background()

	for n := 0; n < *refreshes; n++ {
		runner.Step(space)
		rec.Reset()
		if err := drv.Refresh(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "refresh:", err)
			os.Exit(1)
		}

		lit, unblanked := 0, 0
		for _, w := range rec.Words {
			if w&colorMask != 0 {
				lit++
			}
			if w&blank == 0 {
				unblanked++
			}
		}
		fmt.Printf("refresh %2d: %6d words  %5d color-active  %5d unblanked\n",
			n, len(rec.Words), lit, unblanked)

		if n == 0 && *dump > 0 {
			max := *dump
			if max > len(rec.Words) {
				max = len(rec.Words)
			}
			for i := 0; i < max; i++ {
				fmt.Printf("  %04d %08x\n", i, rec.Words[i])
			}
		}
	}
}
