package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/trackfield/internal/adapters/bridge"
	"github.com/okian/trackfield/internal/adapters/http/api"
	"github.com/okian/trackfield/internal/adapters/matchcomms"
	"github.com/okian/trackfield/internal/adapters/repository"
	service "github.com/okian/trackfield/internal/app"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/config"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/internal/spawn"
	"github.com/okian/trackfield/internal/ui"
	"github.com/okian/trackfield/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log, os.Stdin); err != nil {
		log.Error(ctx, "track and field stopped", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "track and field finished")
}

// run connects to the host, prepares the competition and plays it while the
// status server runs alongside.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, stdin io.Reader) error {
	competitors, err := loadCompetitors(cfg)
	if err != nil {
		return err
	}

	bridgeClient, err := bridge.Dial(ctx, cfg.BridgeURL, bridge.WithLogger(log.Named("bridge")))
	if err != nil {
		return err
	}
	defer func() { _ = bridgeClient.Close() }()

	comms, err := matchcomms.Dial(ctx, cfg.MatchcommsURL,
		matchcomms.WithLogger(log.Named("matchcomms")),
		matchcomms.WithQueueSize(cfg.MessageQueueSize),
	)
	if err != nil {
		return err
	}
	defer func() { _ = comms.Close() }()

	store := repository.NewFileStore(repository.WithLogger(log.Named("store")))
	svc := service.New(bridgeClient,
		service.WithLogger(log.Named("track_and_field")),
		service.WithStore(store),
		service.WithRegistry(service.DefaultRegistry(cfg, store)),
		service.WithDataDir(cfg.DataDir),
		service.WithEventTypes(cfg.Events...),
		service.WithGate(newGate(cfg, bridgeClient, stdin, log)),
		service.WithScreenLog(ui.NewScreenLog(bridgeClient,
			ui.WithLines(cfg.ScreenLogLines),
			ui.WithScreenLogger(log.Named("screen")),
		)),
		service.WithSpawner(spawn.NewHelper(bridgeClient, comms,
			spawn.WithLogger(log.Named("spawn")),
			spawn.WithSettle(cfg.SpawnSettle()),
		)),
		service.WithComms(comms),
		service.WithReadyTimeout(cfg.ReadyTimeout()),
	)

	if _, err := svc.Prepare(ctx, competitors); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return svc.Run(gctx)
	})

	if srv := newStatusServer(gctx, cfg.StatusAddr, svc); srv != nil {
		g.Go(func() error {
			log.Info(gctx, "starting status server", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-done:
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.Info(ctx, "interrupted")
		return nil
	}
	return err
}

// loadCompetitors reads the configured bot .cfg files, falling back to the
// GUI team settings. No competitors is valid when resuming.
func loadCompetitors(cfg *config.Config) ([]competitor.Competitor, error) {
	paths := cfg.Competitors
	if len(paths) == 0 && cfg.TeamSettingsFile != "" {
		var err error
		paths, err = competitor.TeamSettingsPaths(cfg.TeamSettingsFile)
		if err != nil {
			return nil, err
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return competitor.LoadAll(paths)
}

func newGate(cfg *config.Config, r host.Renderer, stdin io.Reader, log logger.Logger) ui.Gate {
	if cfg.AutoProceed {
		return ui.AutoGate{Log: log.Named("gate")}
	}
	return ui.NewStdinGate(stdin, r, ui.WithGateLogger(log.Named("gate")))
}

// newStatusServer returns nil when addr is empty.
func newStatusServer(ctx context.Context, addr string, stats api.StatsProvider) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	api.NewServer(stats).Register(ctx, mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
