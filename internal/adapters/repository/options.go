package repository

import "time"

const (
	defaultGaugeInterval   = 5 * time.Second
	defaultBoltPath        = "data/ironflow.db"
	defaultBoltOpenTimeout = time.Second
	defaultConnectTimeout  = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

type options struct {
	gaugeInterval   time.Duration
	boltPath        string
	boltTimeout     time.Duration
	dsn             string
	connectTimeout  time.Duration
	maxOpenConns    int
	connMaxLifetime time.Duration
}

func defaultOptions() options {
	return options{
		gaugeInterval:   defaultGaugeInterval,
		boltPath:        defaultBoltPath,
		boltTimeout:     defaultBoltOpenTimeout,
		connectTimeout:  defaultConnectTimeout,
		maxOpenConns:    defaultMaxOpenConns,
		connMaxLifetime: defaultConnMaxLifetime,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithGaugeInterval sets how often the tournaments/records gauges refresh.
func WithGaugeInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.gaugeInterval = interval
		}
	}
}

// WithBoltPath sets the bbolt database file.
func WithBoltPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.boltPath = path
		}
	}
}

// WithBoltTimeout bounds how long opening waits for the file lock.
func WithBoltTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.boltTimeout = timeout
		}
	}
}

// WithPostgresDSN sets the connection string for the postgres backend.
func WithPostgresDSN(dsn string) Option {
	return func(o *options) {
		o.dsn = dsn
	}
}

// WithConnectTimeout bounds the initial ping.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.connectTimeout = timeout
		}
	}
}

// WithMaxOpenConns sizes the postgres pool.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
