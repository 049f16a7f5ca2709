package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pointlabel/pkg/api"
	"github.com/matzehuels/pointlabel/pkg/config"
	"github.com/matzehuels/pointlabel/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		mongoURI  string
		redisAddr string
		runsDir   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the placement HTTP API",
		Long: `Serve the placement HTTP API.

Placement runs are stored in MongoDB when --mongo-uri is set, as JSON files
under --runs-dir otherwise, and in memory when neither is given. Placements
are cached in Redis when --redis-addr is set.

Endpoints:
  POST /v1/placements        place labels and store the run
  GET  /v1/placements        list recent runs (?limit=n)
  GET  /v1/placements/{id}   fetch a run (?format=json|geojson|csv)
  GET  /healthz              liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("mongo-uri") {
				cfg.Server.MongoURI = mongoURI
			}
			if flags.Changed("runs-dir") {
				cfg.Server.RunsDir = runsDir
			}
			if flags.Changed("redis-addr") {
				cfg.Cache.Redis.Addr = redisAddr
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI for run storage")
	cmd.Flags().StringVar(&runsDir, "runs-dir", "", "directory for run files when MongoDB is not used")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the placement cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe starts the server and blocks until ctx is cancelled, then
// drains in-flight requests within the shutdown timeout.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, noCache bool) error {
	st, err := newStore(ctx, cfg.Server)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := api.New(api.Options{
		Runner:    runner,
		Store:     st,
		Logger:    c.Logger,
		MaxPoints: cfg.Server.MaxPoints,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout.Duration,
		ReadHeaderTimeout: cfg.Server.ReadTimeout.Duration,
	}

	printSuccess("Listening on %s", StyleLink.Render("http://"+displayAddr(ln.Addr())))
	printDetail("Runs: %s", storeKind(cfg.Server))
	printNewline()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := shutdownTimeout(cfg.Server)
	c.Logger.Info("shutting down", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newStore selects the run store backend.
func newStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	switch {
	case cfg.MongoURI != "":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case cfg.RunsDir != "":
		return store.NewFileStore(cfg.RunsDir)
	default:
		return store.NewMemoryStore(), nil
	}
}

func storeKind(cfg config.ServerConfig) string {
	switch {
	case cfg.MongoURI != "":
		return "mongodb " + StyleHighlight.Render(cfg.MongoDatabase)
	case cfg.RunsDir != "":
		return "files in " + StyleHighlight.Render(cfg.RunsDir)
	default:
		return StyleWarning.Render("memory (lost on exit)")
	}
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout.Duration > 0 {
		return cfg.ShutdownTimeout.Duration
	}
	return config.DefaultShutdownTimeout
}

// displayAddr turns a wildcard listen address into a clickable one.
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return fmt.Sprintf("localhost:%d", tcp.Port)
}
