package postgres

import (
	"context"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racesim/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

// InitWithURL creates a pool and checks the connection
func InitWithURL(ctx context.Context, url string, opts ...PoolConfigOption) (
	*pgxpool.Pool, error,
) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewOtlpTracer creates spans for each query
func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer()
}

type logTracer struct {
	l     *log.Logger
	level log.Level
}

// NewLogTracer logs statements and their arguments with the given level
func NewLogTracer(l *log.Logger, level log.Level) pgx.QueryTracer {
	return &logTracer{l: l, level: level}
}

func (t *logTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	fields := []log.Field{log.String("sql", data.SQL), log.Any("args", data.Args)}
	switch t.level {
	case log.DebugLevel:
		t.l.Debug("Executing", fields...)
	default:
		t.l.Info("Executing", fields...)
	}
	return ctx
}

//nolint:whitespace // can't make the linters happy
func (t *logTracer) TraceQueryEnd(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	if data.Err != nil {
		t.l.Warn("query failed", log.ErrorField(data.Err))
	}
}
