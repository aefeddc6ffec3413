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

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex-web/internal/config"
	"github.com/Sternrassler/pokedex-web/internal/web"
	"github.com/Sternrassler/pokedex-web/pkg/aggregate"
	"github.com/Sternrassler/pokedex-web/pkg/client"
	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
	"github.com/Sternrassler/pokedex-web/pkg/sitemap"
	"github.com/Sternrassler/pokedex-web/pkg/viewstate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "pokedex-web",
		Short:        "Pokédex web front-end backed by PokeAPI",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(&configPath),
		newSitemapCmd(&configPath),
		newVersionCmd(),
	)
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.LoggingConfig(cmd.ErrOrStderr()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func newSitemapCmd(configPath *string) *cobra.Command {
	var siteURL string

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write the sitemap XML to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if siteURL != "" {
				cfg.Site.URL = siteURL
			}
			logging.Setup(cfg.LoggingConfig(cmd.ErrOrStderr()))

			return writeSitemap(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&siteURL, "site-url", "", "public base URL (overrides site.url)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pokedex-web %s\n", config.Version)
		},
	}
}

func newAPI(cfg config.Config) (*pokeapi.API, error) {
	c, err := client.New(cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create upstream client: %w", err)
	}
	return pokeapi.New(c), nil
}

// newStore builds the configured view state store. The returned close func
// is never nil.
func newStore(ctx context.Context, cfg config.ViewStateConfig) (viewstate.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rc := redis.NewClient(opts)
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		return viewstate.NewRedisStore(rc, cfg.TTL), rc.Close, nil
	default:
		return viewstate.NewMemoryStore(cfg.TTL), func() error { return nil }, nil
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger("main")

	api, err := newAPI(cfg)
	if err != nil {
		return err
	}
	agg, err := aggregate.New(api, cfg.AggregatorConfig())
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(ctx, cfg.ViewState)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := web.New(web.Config{
		Aggregator: agg,
		Lister:     api,
		Store:      store,
		SiteURL:    cfg.Site.URL,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("upstream", cfg.Upstream.BaseURL).
			Str("view_state", cfg.ViewState.Backend).
			Str("version", config.Version).
			Msg("Starting pokedex web server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func writeSitemap(ctx context.Context, cfg config.Config, out io.Writer) error {
	api, err := newAPI(cfg)
	if err != nil {
		return err
	}
	body, err := sitemap.Build(ctx, api, cfg.Site.URL)
	if err != nil {
		return err
	}
	_, err = out.Write(body)
	return err
}
