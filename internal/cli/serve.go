package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/api"
	"github.com/matzehuels/flowboard/pkg/cache"
	"github.com/matzehuels/flowboard/pkg/config"
	"github.com/matzehuels/flowboard/pkg/service"
	"github.com/matzehuels/flowboard/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath string // path to flowboard.toml (optional)
	listen     string // listen address override
	backend    string // store backend override: "memory" or "mongo"
}

// serveCommand creates the serve command for running the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.listen != "" {
				cfg.Listen = opts.listen
			}
			if opts.backend != "" {
				cfg.Store.Backend = opts.backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to flowboard.toml")
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.backend, "store", "", "store backend: memory or mongo (overrides config)")

	return cmd
}

// runServe wires the store, cache, and service, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	ch, err := c.newCache(ctx, cfg)
	if err != nil {
		return err
	}

	svc := service.New(st, ch, c.Logger)
	svc.QueryTTL = cfg.QueryTTL()
	defer svc.Close()

	srv := api.NewServer(svc, cfg.Listen, c.Logger)
	srv.RequestTimeout = cfg.RequestTimeout.Duration
	return srv.ListenAndServe(ctx)
}

// newStore builds the configured persistence backend.
func (c *CLI) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		c.Logger.Info("connecting to mongodb", "uri", cfg.Store.URI, "database", cfg.Store.Database)
		return store.NewMongoStore(ctx, cfg.Store.URI, cfg.Store.Database)
	default:
		c.Logger.Warn("using in-memory store; data is lost on shutdown")
		return store.NewMemoryStore(), nil
	}
}

// newCache builds the query cache. Without a redis address caching is
// disabled rather than failing.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewNullCache(), nil
	}
	c.Logger.Info("connecting to redis", "addr", cfg.Cache.RedisAddr)
	return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
}
