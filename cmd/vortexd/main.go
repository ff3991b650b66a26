package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-vortex/internal/config"
	diag "github.com/coreman2200/funtimes-vortex/internal/diagnostics"
	"github.com/coreman2200/funtimes-vortex/internal/geom"
	"github.com/coreman2200/funtimes-vortex/internal/hub75"
	"github.com/coreman2200/funtimes-vortex/internal/ingest"
	"github.com/coreman2200/funtimes-vortex/internal/pattern"
	"github.com/coreman2200/funtimes-vortex/internal/preview"
	"github.com/coreman2200/funtimes-vortex/internal/scan"
	"github.com/coreman2200/funtimes-vortex/internal/voxel"
	"github.com/coreman2200/funtimes-vortex/internal/ws"
)

func voxelSpace(cfg config.Config) (*voxel.Space, error) {
	return voxel.NewSpace(voxel.Bounds{X: cfg.Voxels.X, Y: cfg.Voxels.Y, Z: cfg.Voxels.Z})
}

func buildMapper(cfg config.Config) (*geom.Mapper, error) {
	panels := make([]geom.Panel, len(cfg.Panels))
	for i, p := range cfg.Panels {
		ord, err := geom.OrderByName(p.Order, cfg.PanelWidth)
		if err != nil {
			return nil, err
		}
		panels[i] = geom.Panel{Eccentricity: p.Eccentricity, Order: ord}
	}
	return geom.NewMapper(cfg.PanelWidth, cfg.PanelHeight, cfg.Voxels.Y, cfg.RotationZeroDeg, panels)
}

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		ingestAddr  = flag.String("ingest", "", "point-stream listen address (overrides config)")
		driver      = flag.String("driver", "", "driver: gpio | sim (overrides config)")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		patternName = flag.String("pattern", "", "built-in pattern to run instead of waiting for a stream")
		console     = flag.Bool("console", false, "render the active slice to the terminal (sim driver)")
		logLevel    = flag.String("log-level", "", "zerolog level (overrides config)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config: file over defaults, flags over file ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
	} else {
		cfg = *c
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *ingestAddr != "" {
		cfg.IngestAddr = *ingestAddr
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration rejected; refusing to start scan-out")
	}

	// ---- Volume and projection ----
	space, err := voxelSpace(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("voxel volume")
	}
	mapper, err := buildMapper(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("panel projection")
	}

	// ---- Scan-out pipeline ----
	pm := cfg.PinMap()
	mux, err := hub75.NewMux(cfg.PanelHeight, cfg.Multiplex, len(pm.Addr))
	if err != nil {
		log.Fatal().Err(err).Msg("multiplexer")
	}
	enc, err := hub75.NewEncoder(pm, cfg.PanelWidth, cfg.BitPlanes)
	if err != nil {
		log.Fatal().Err(err).Msg("bit-plane encoder")
	}

	var port hub75.Port
	if cfg.Driver == "gpio" {
		if _, err := host.Init(); err != nil {
			log.Fatal().Err(err).Msg("periph host init")
		}
		p, err := hub75.OpenGPIO(pm)
		if err != nil {
			log.Warn().Err(err).Msg("GPIO port unavailable; falling back to sim")
			cfg.Driver = "sim"
		} else {
			port = p
		}
	}
	if port == nil {
		// Sim port: words are driven nowhere; Limit 1 keeps memory flat.
		port = &hub75.Recorder{Limit: 1}
	}

	src, err := scan.NewSource(space, mapper, mux, len(pm.Chains), cfg.PanelWidth, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("scan source")
	}
	drv, err := hub75.NewDriver(port, pm, mux, enc, src, cfg.PanelWidth, cfg.SettleCycles, cfg.DisplayCycles)
	if err != nil {
		log.Fatal().Err(err).Msg("scan driver")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Collaborators ----
	in := ingest.NewServer(cfg.IngestAddr, space, log.Logger)
	go func() {
		if err := in.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("point stream server stopped")
		}
	}()

	state := ws.NewState(space, mapper, src, cfg.Driver)

	if *patternName != "" {
		r, err := pattern.NewRunner(pattern.Kind(*patternName))
		if err != nil {
			log.Fatal().Err(err).Msg("pattern")
		}
		go func() {
			tick := time.NewTicker(time.Second / 30)
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					if !r.Step(space) {
						state.PushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.CodePatternDone, Summary: "Pattern complete"})
						return
					}
				}
			}
		}()
	}

	if *console && cfg.Driver == "sim" {
		go preview.NewConsole(space, mapper, src).RunLoop(ctx.Done())
	}

	// ---- Observation surface ----
	go state.RunPreviewLoop(ctx.Done())

	api := http.NewServeMux()
	api.HandleFunc("/ws", state.HandleFramesWS)
	api.HandleFunc("/diag", state.HandleDiagWS)
	api.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      withCORS(api),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("driver", cfg.Driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Scan loop ----
	scanErr := make(chan error, 1)
	go func() { scanErr <- drv.Run(ctx) }()
	log.Info().
		Int("planes", enc.Planes()).
		Int("addresses", mux.Field()).
		Int("settle", cfg.SettleCycles).
		Msg("scan-out running")

	// ---- Shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-scanErr
	case err := <-scanErr:
		if ctx.Err() == nil {
			state.PushDiag(diag.Diagnostic{Severity: diag.Err, Code: diag.CodeScanFault, Summary: "scan-out halted", Detail: err.Error()})
			log.Error().Err(err).Msg("scan-out halted; panels blanked")
		}
		cancel()
	}

	_ = srv.Close()
	_ = port.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
