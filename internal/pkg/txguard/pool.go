// Package txguard owns pooled connections and the transactions opened on them.
//
// A Guard is the only way the write engine talks to the database: it leases one
// connection, begins a transaction on it and guarantees that the transaction is
// rolled back when the guard is released without a successful commit.
package txguard

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cif-onboarding/internal/pkg/metrics"

	"gorm.io/gorm"
)

const (
	defaultAcquireTimeout  = 5 * time.Second
	defaultRollbackTimeout = 3 * time.Second
)

// Options tunes the pool wait policy and transaction behaviour
type Options struct {
	AcquireTimeout  time.Duration
	RollbackTimeout time.Duration
	Isolation       sql.IsolationLevel
	Metrics         *metrics.Metrics
}

// Pool hands out exclusive connection leases from the *sql.DB behind a GORM handle.
// Capacity is whatever MaxOpenConns the *sql.DB was configured with.
type Pool struct {
	db    *gorm.DB
	sqlDB *sql.DB
	opts  Options
}

// NewPool wraps db. Zero timeouts fall back to defaults.
func NewPool(db *gorm.DB, opts Options) (*Pool, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database handle", ErrConnection)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = defaultAcquireTimeout
	}
	if opts.RollbackTimeout <= 0 {
		opts.RollbackTimeout = defaultRollbackTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &Pool{db: db, sqlDB: sqlDB, opts: opts}, nil
}

// Stats returns the current pool statistics
func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

// Ping checks that a connection can be reached within the acquire timeout
func (p *Pool) Ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, p.opts.AcquireTimeout)
	defer cancel()
	if err := p.sqlDB.PingContext(pctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Capacity returns the configured upper bound of open connections (0 means unbounded)
func (p *Pool) Capacity() int {
	return p.sqlDB.Stats().MaxOpenConnections
}

// Acquire leases one connection, waiting up to AcquireTimeout or until ctx is done
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, p.opts.AcquireTimeout)
	defer cancel()

	conn, err := p.sqlDB.Conn(actx)
	p.opts.Metrics.AcquireWait.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.opts.Metrics.AcquireFailures.WithLabelValues("exhausted").Inc()
			return nil, fmt.Errorf("%w: waited %s", ErrPoolExhausted, time.Since(start).Round(time.Millisecond))
		}
		p.opts.Metrics.AcquireFailures.WithLabelValues("connection").Inc()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return &Lease{conn: conn}, nil
}

// Lease is an exclusive hold on one pooled connection
type Lease struct {
	conn *sql.Conn
	once sync.Once
}

// Conn exposes the leased connection
func (l *Lease) Conn() *sql.Conn {
	return l.conn
}

// Release returns the connection to the pool. Safe to call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		_ = l.conn.Close()
	})
}

// discard closes the physical connection instead of returning it to the pool
func (l *Lease) discard() {
	l.once.Do(func() {
		_ = l.conn.Raw(func(any) error { return driver.ErrBadConn })
		_ = l.conn.Close()
	})
}

// ParseIsolation maps a config value to a sql.IsolationLevel
func ParseIsolation(s string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	case "default":
		return sql.LevelDefault, nil
	}
	return sql.LevelDefault, fmt.Errorf("unknown transaction isolation %q", s)
}
