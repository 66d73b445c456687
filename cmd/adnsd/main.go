package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/config"
	"github.com/haukened/adns/internal/dns/gateways/transport"
	"github.com/haukened/adns/internal/dns/gateways/wire"
	"github.com/haukened/adns/internal/dns/repos/zone"
	"github.com/haukened/adns/internal/dns/services/resolver"
)

const (
	appName = "adnsd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the server
type Application struct {
	logger     log.Logger
	zone       *zone.Zone
	resolver   *resolver.Resolver
	transports []transport.ServerTransport

	// ready is closed once every transport is listening.
	ready chan struct{}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.Info(map[string]any{
		"app":       appName,
		"version":   resolver.DefaultVersion,
		"env":       cfg.Env,
		"log_level": cfg.LogLevel,
		"transport": cfg.Transport,
		"address":   cfg.ListenAddress(),
		"zone_file": cfg.ZoneFile,
		"max_conns": cfg.MaxConns,
	}, "Starting adns server")

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Fatal(map[string]any{"error": err.Error()}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		logger.Fatal(map[string]any{"error": err.Error()}, "Server failed")
	}

	logger.Info(nil, "adns server stopped gracefully")
}

// transportTypes expands the configured transport setting.
func transportTypes(setting string) ([]transport.TransportType, error) {
	switch setting {
	case "both":
		return []transport.TransportType{transport.TransportTCP, transport.TransportUDP}, nil
	default:
		t := transport.TransportType(setting)
		if !transport.IsTransportSupported(t) {
			return nil, fmt.Errorf("unsupported transport type: %s", setting)
		}
		return []transport.TransportType{t}, nil
	}
}

// buildApplication loads the zone and wires the resolver to its transports.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (*Application, error) {
	z, err := zone.LoadFile(cfg.ZoneFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone file: %w", err)
	}
	z.Dump(logger)

	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Logger:  logger,
		Version: resolver.DefaultVersion,
		Zone:    z,
	})

	types, err := transportTypes(cfg.Transport)
	if err != nil {
		return nil, err
	}

	codec := wire.NewCodec(logger)
	addr := cfg.ListenAddress()
	transports := make([]transport.ServerTransport, 0, len(types))
	for _, tt := range types {
		st, err := transport.NewTransport(tt, addr, codec, logger, transport.Options{MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to build %s transport: %w", tt, err)
		}
		transports = append(transports, st)
	}

	return &Application{
		logger:     logger,
		zone:       z,
		resolver:   resolverService,
		transports: transports,
		ready:      make(chan struct{}),
	}, nil
}

// Run starts every transport and blocks until ctx is cancelled. If any
// transport fails to start, those already started are stopped again.
func (app *Application) Run(ctx context.Context) error {
	for i, st := range app.transports {
		if err := st.Start(ctx, app.resolver); err != nil {
			return multierr.Append(
				fmt.Errorf("failed to start transport: %w", err),
				app.stop(app.transports[:i]),
			)
		}
		app.logger.Info(map[string]any{
			"address":      st.Address(),
			"zone_entries": app.zone.Len(),
		}, "adns server listening")
	}
	close(app.ready)

	<-ctx.Done()

	app.logger.Info(nil, "Shutdown initiated")
	return app.shutdown(app.transports)
}

// shutdown stops the transports, giving up after defaultShutdownTimeout.
func (app *Application) shutdown(transports []transport.ServerTransport) error {
	done := make(chan error, 1)
	go func() { done <- app.stop(transports) }()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Warn(map[string]any{"error": err.Error()}, "Error during transport shutdown")
			return err
		}
		app.logger.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		app.logger.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}

// stop stops transports concurrently and combines their errors.
func (app *Application) stop(transports []transport.ServerTransport) error {
	errs := make([]error, len(transports))
	var g errgroup.Group
	for i, st := range transports {
		g.Go(func() error {
			errs[i] = st.Stop()
			return errs[i]
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

// Addresses returns the bound address of every transport.
func (app *Application) Addresses() []string {
	out := make([]string, 0, len(app.transports))
	for _, st := range app.transports {
		out = append(out, st.Address())
	}
	return out
}
