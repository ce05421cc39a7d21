package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/mermaidviz/internal/config"
	httpAdapter "github.com/aretw0/mermaidviz/pkg/adapters/http"
	"github.com/aretw0/mermaidviz/pkg/watch"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop signal.
const ShutdownTimeout = 5 * time.Second

// ServeOptions are the inputs of Serve.
type ServeOptions struct {
	Config config.Config
	Logger *slog.Logger
	// Out receives human-facing status lines.
	Out io.Writer
	// Listener overrides Config.Addr when set.
	Listener net.Listener
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, logger := opts.Config, opts.Logger
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	app, err := NewApp(cfg, logger, true)
	if err != nil {
		return err
	}
	defer app.Close()

	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(app.Metrics),
		httpAdapter.WithMermaidJSURL(cfg.MermaidJSURL),
	}

	var streams *httpAdapter.StreamManager
	if cfg.WatchFile != "" {
		streams, err = startWatch(ctx, cfg.WatchFile, logger)
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, httpAdapter.WithStreams(streams))
		fmt.Fprintf(out, "Watching %s\n", cfg.WatchFile)
	}

	handler, err := httpAdapter.NewHandler(app.Converter, handlerOpts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if streams != nil {
		// Event streams never finish on their own.
		srv.RegisterOnShutdown(streams.Close)
	}

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "Starting mermaidviz on http://%s\n", displayAddr(ln.Addr()))
		logger.Info("HTTP server listening", "addr", ln.Addr().String(), "provider", cfg.Provider, "cache", cfg.Cache.Backend)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Fprintln(out, "mermaidviz stopped gracefully")
		return nil
	}
}

// startWatch publishes the current contents of path, then every change.
func startWatch(ctx context.Context, path string, logger *slog.Logger) (*httpAdapter.StreamManager, error) {
	file, err := watch.New(path, watch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	content, err := file.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	changes, err := file.Watch(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Watching diagram file", "path", file.Path())

	streams := httpAdapter.NewStreamManager(logger)
	streams.Publish(content)
	go streams.Pump(ctx, changes)
	return streams, nil
}

func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if ok && tcp.IP.IsUnspecified() {
		return fmt.Sprintf("localhost:%d", tcp.Port)
	}
	return addr.String()
}
