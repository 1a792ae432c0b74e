package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/config"
	"github.com/haukened/ttl-dns/internal/dns/gateways/admin"
	"github.com/haukened/ttl-dns/internal/dns/gateways/shell"
	"github.com/haukened/ttl-dns/internal/dns/gateways/transport"
	"github.com/haukened/ttl-dns/internal/dns/gateways/wire"
	"github.com/haukened/ttl-dns/internal/dns/repos/recordstore"
	"github.com/haukened/ttl-dns/internal/dns/repos/zone"
	"github.com/haukened/ttl-dns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "ttl-dnsd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the DNS server
type Application struct {
	config   *config.AppConfig
	store    *recordstore.Store
	resolver *resolver.Resolver
	admin    *admin.Server // nil unless admin_addr is set
	shell    *shell.Shell  // nil unless interactive
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(log.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":           appName,
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"listen":        cfg.ListenAddr(),
		"db":            cfg.DB,
		"store_backend": cfg.StoreBackend,
		"seed_dir":      cfg.SeedDir,
		"admin_addr":    cfg.AdminAddr,
		"interactive":   cfg.Interactive,
	}, "Starting TTL-DNS server")

	app, err := buildApplication(cfg, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Server failed")
	}

	log.Info(nil, "TTL-DNS server stopped gracefully")
}

// buildApplication constructs all components and wires them together. The
// shell, when enabled, reads from stdin and writes to stdout.
func buildApplication(cfg *config.AppConfig, stdin io.Reader, stdout io.Writer) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	codec, err := wire.NewUDPCodec(logger, cfg.RDataCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	store := recordstore.New(recordstore.Options{
		Clock:   clk,
		Logger:  logger,
		Backend: openBackend(cfg, logger),
	})
	restored := store.Hydrate()

	udpTransport, err := transport.NewTransport(transport.TransportUDP, cfg.ListenAddr(), codec, logger,
		transport.WithMaxWorkers(cfg.MaxWorkers),
		transport.WithClock(clk),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Logger:    logger,
		Store:     store,
		Transport: udpTransport,
	})

	if cfg.SeedDir != "" {
		if err := seedRecords(resolverService, cfg.SeedDir, logger); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	log.Info(map[string]any{
		"restored": restored,
		"records":  store.Len(),
		"names":    len(store.Names()),
	}, "Record store initialized")

	app := &Application{
		config:   cfg,
		store:    store,
		resolver: resolverService,
	}
	if cfg.AdminAddr != "" {
		app.admin = admin.New(admin.Options{
			Addr:    cfg.AdminAddr,
			Service: resolverService,
			Clock:   clk,
			Logger:  logger,
		})
	}
	if cfg.Interactive {
		app.shell = shell.New(shell.Options{
			Service: resolverService,
			In:      stdin,
			Out:     stdout,
			Clock:   clk,
			Logger:  logger,
		})
	}
	return app, nil
}

// openBackend returns the configured snapshot backend, or nil when its
// location cannot be prepared, in which case records are kept in memory only.
func openBackend(cfg *config.AppConfig, logger log.Logger) recordstore.Snapshotter {
	switch cfg.StoreBackend {
	case "bolt":
		backend, err := recordstore.OpenBolt(cfg.DB)
		if err != nil {
			logger.Warn(map[string]any{"db": cfg.DB, "error": err.Error()}, "Cannot open record database, records will not be persisted")
			return nil
		}
		return backend
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0o755); err != nil {
			logger.Warn(map[string]any{"db": cfg.DB, "error": err.Error()}, "Cannot create directory for record snapshot, records will not be persisted")
			return nil
		}
		return recordstore.NewJSONFile(cfg.DB)
	}
}

// seedRecords loads zone files from dir through the operator contract.
// Seeds replace any persisted record with the same name and type. Invalid
// records are logged and skipped; an unreadable directory is an error.
func seedRecords(svc *resolver.Resolver, dir string, logger log.Logger) error {
	seeds, err := zone.LoadDirectory(dir, zone.DefaultTTL)
	if err != nil {
		return fmt.Errorf("failed to load seed directory: %w", err)
	}

	added := 0
	for _, seed := range seeds {
		if err := svc.AddRecord(seed.Name, seed.Type, seed.TTL, seed.Text); err != nil {
			logger.Warn(map[string]any{
				"name":  seed.Name,
				"type":  seed.Type,
				"data":  seed.Text,
				"error": err.Error(),
			}, "Skipping invalid seed record")
			continue
		}
		added++
	}

	logger.Info(map[string]any{
		"seed_dir": dir,
		"records":  added,
		"skipped":  len(seeds) - added,
	}, "Seed records loaded")
	return nil
}

// Run starts the DNS server and blocks until ctx is cancelled, the shell
// exits, or the admin API fails.
func (app *Application) Run(ctx context.Context) error {
	if err := app.resolver.Start(ctx); err != nil {
		_ = app.store.Close()
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.config.ListenAddr(),
		"transport": "UDP",
	}, "DNS server started")

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	adminErr := make(chan error, 1)
	if app.admin != nil {
		go func() {
			if err := app.admin.Start(); err != nil {
				adminErr <- fmt.Errorf("admin API failed: %w", err)
				stop()
			}
		}()
	}
	if app.shell != nil {
		go func() {
			if err := app.shell.Run(runCtx); err != nil {
				log.Warn(map[string]any{"error": err.Error()}, "Interactive shell stopped")
			}
			stop()
		}()
	}

	<-runCtx.Done()
	log.Info(nil, "Shutdown initiated")

	var errs []error
	select {
	case err := <-adminErr:
		errs = append(errs, err)
	default:
	}

	if app.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		if err := app.admin.Shutdown(shutdownCtx); err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "Error during admin API shutdown")
		}
		cancel()
	}

	if err := app.resolver.Stop(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "Error during transport shutdown")
	}

	if err := app.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close record store: %w", err))
	}

	if len(errs) == 0 {
		log.Info(nil, "Graceful shutdown completed")
	}
	return errors.Join(errs...)
}
