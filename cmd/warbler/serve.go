package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warbler/internal/cache"
	"warbler/internal/web"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE:  c.serve,
	}
}

// statsCache connects to Redis when REDIS_ADDR is set, otherwise profile
// counters are read from the database on every page.
func (c *cli) statsCache(ctx context.Context) (cache.StatsCache, func(), error) {
	if c.cfg.RedisAddr == "" {
		c.logger.Info("no REDIS_ADDR configured, stats cache disabled")
		return cache.NewNop(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.cfg.RedisAddr, err)
	}
	c.logger.Info("stats cache enabled", zap.String("redis_addr", c.cfg.RedisAddr), zap.Duration("ttl", c.cfg.StatsTTL))
	return cache.NewRedisStats(rdb, c.cfg.StatsTTL), func() { rdb.Close() }, nil
}

func (c *cli) serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := c.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, closeCache, err := c.statsCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	srv, err := web.New(web.Options{
		Store:         st,
		Stats:         stats,
		Logger:        c.logger,
		SecretKey:     c.cfg.SecretKey,
		SecureCookies: c.cfg.SessionSecure,
		TimelineLimit: c.cfg.TimelineLimit,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.cfg.ServerAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("listening", zap.String("addr", c.cfg.ServerAddr), zap.String("driver", c.cfg.DatabaseDriver))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
