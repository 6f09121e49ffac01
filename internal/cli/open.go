package cli

import (
	"context"
	"log/slog"

	"github.com/coderi421/rowkit/internal/config"
	"github.com/coderi421/rowkit/orm"
	"github.com/coderi421/rowkit/orm/cache/memory"
	rediscache "github.com/coderi421/rowkit/orm/cache/redis"
	"github.com/coderi421/rowkit/orm/middlewares/opentelemetry"
	"github.com/coderi421/rowkit/orm/middlewares/prometheus"
	"github.com/coderi421/rowkit/orm/middlewares/querylog"
	redis "github.com/redis/go-redis/v9"

	// 支持的两个 driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

type closer func(ctx context.Context) error

// openDB 按照配置组装 DB，返回的 closers 需要按倒序调用
func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (db *orm.DB, closers []closer, err error) {
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](ctx)
		}
		closers = nil
	}()

	dsn, err := cfg.DataSource()
	if err != nil {
		return nil, nil, err
	}

	opts := []orm.DBOption{orm.DBWithLogger(logger)}

	var mdls []orm.Middleware
	if cfg.Verbose {
		mdls = append(mdls, querylog.NewBuilder().LogFunc(func(query string, args []any) {
			logger.Debug("rowkit: query", slog.String("sql", query), slog.Any("args", args))
		}).Build())
	}
	if cfg.Tracing.Exporter != "" {
		tp, err := opentelemetry.NewTracerProvider(cfg.Tracing.ServiceName, cfg.Tracing.Exporter, cfg.Tracing.Endpoint)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, tp.Shutdown)
		mdls = append(mdls, opentelemetry.MiddlewareBuilder{Tracer: tp.Tracer(cfg.Tracing.ServiceName)}.Build())
	}
	if cfg.Metrics.Enabled {
		mdls = append(mdls, prometheus.MiddlewareBuilder{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: "orm",
			Name:      "query_duration",
			Help:      "query duration in microseconds",
		}.Build())
	}
	if len(mdls) > 0 {
		opts = append(opts, orm.DBWithMiddlewares(mdls...))
	}

	switch cfg.Cache.Type {
	case config.CacheMemory:
		opts = append(opts, orm.DBWithRowCache(memory.NewStore(cfg.Cache.Expiration)))
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		closers = append(closers, func(context.Context) error { return client.Close() })
		opts = append(opts, orm.DBWithRowCache(rediscache.NewStore(client,
			rediscache.WithPrefix(cfg.Cache.Prefix),
			rediscache.WithExpiration(cfg.Cache.Expiration))))
	}

	db, err = orm.Open(cfg.Driver, dsn, opts...)
	if err != nil {
		return nil, closers, err
	}
	closers = append(closers, func(context.Context) error { return db.Close() })
	logger.Debug("rowkit: database opened", slog.String("driver", cfg.Driver))
	return db, closers, nil
}
