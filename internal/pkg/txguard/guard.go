package txguard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cif-onboarding/internal/pkg/logger"

	"gorm.io/gorm"
)

// State of a guard's transaction
type State int

const (
	Active State = iota + 1
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Guard owns one leased connection and the transaction open on it.
// It is not safe for concurrent use: statements issued through DB must be sequential.
type Guard struct {
	ctx       context.Context
	pool      *Pool
	lease     *Lease
	tx        *sql.Tx
	db        *gorm.DB
	state     State
	commitErr error
	released  bool
}

// Begin leases a connection and opens a transaction on it.
// On failure no guard is returned and nothing is owed by the caller.
func Begin(ctx context.Context, pool *Pool) (*Guard, error) {
	lease, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := lease.conn.BeginTx(ctx, &sql.TxOptions{Isolation: pool.opts.Isolation})
	if err != nil {
		lease.Release()
		return nil, fmt.Errorf("%w: %w", ErrTransactionStart, err)
	}

	session := pool.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	session.Statement.ConnPool = tx

	pool.opts.Metrics.TxBegun.Inc()
	return &Guard{
		ctx:   ctx,
		pool:  pool,
		lease: lease,
		tx:    tx,
		db:    session,
		state: Active,
	}, nil
}

// DB is the statement channel bound to the transaction. Once the guard is
// resolved it returns a handle on which every operation fails with ErrResolved.
func (g *Guard) DB() *gorm.DB {
	if g.state != Active || g.commitErr != nil {
		resolved := g.pool.db.Session(&gorm.Session{NewDB: true, Context: g.ctx})
		_ = resolved.AddError(ErrResolved)
		return resolved
	}
	return g.db
}

// State reports the transaction state
func (g *Guard) State() State {
	return g.state
}

// Commit resolves the guard and returns its connection to the pool.
// A failed commit leaves the rollback to Release.
func (g *Guard) Commit() error {
	if g.state != Active || g.commitErr != nil {
		return ErrResolved
	}
	if err := g.tx.Commit(); err != nil {
		g.commitErr = err
		g.pool.opts.Metrics.CommitFailures.Inc()
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	g.state = Committed
	g.released = true
	g.pool.opts.Metrics.TxCommitted.Inc()
	g.lease.Release()
	return nil
}

// Release rolls back an uncommitted transaction and returns the connection.
// It is meant to be deferred right after Begin; it never panics and never
// returns an error. Rollback failures are logged and counted.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true

	if g.state != Active {
		g.lease.Release()
		return
	}
	g.state = RolledBack

	err := g.rollback()
	switch {
	case err == nil:
		g.pool.opts.Metrics.TxRolledBack.Inc()
		g.lease.Release()
	case errors.Is(err, errRollbackPending):
		g.pool.opts.Metrics.RollbackFailures.Inc()
		logger.Error(g.ctx, "transaction rollback timed out, connection will be discarded", "timeout", g.pool.opts.RollbackTimeout)
	default:
		g.pool.opts.Metrics.RollbackFailures.Inc()
		logger.Error(g.ctx, "transaction rollback failed, discarding connection", "error", err)
		g.lease.discard()
	}
}

// rollbackTx is swapped in tests to simulate a stalled server
var rollbackTx = (*sql.Tx).Rollback

// errRollbackPending means the rollback outlived RollbackTimeout. The lease is
// discarded by the goroutine still waiting on it.
var errRollbackPending = errors.New("rollback still pending")

func (g *Guard) rollback() error {
	// COMMIT reached the server and failed: the driver has already given up on
	// the *sql.Tx, so the session is reset with a raw statement on the lease.
	if g.commitErr != nil && !isContextErr(g.commitErr) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(g.ctx), g.pool.opts.RollbackTimeout)
		defer cancel()
		_, err := g.lease.conn.ExecContext(rctx, "ROLLBACK")
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- rollbackTx(g.tx)
	}()

	timer := time.NewTimer(g.pool.opts.RollbackTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if errors.Is(err, sql.ErrTxDone) {
			// database/sql rolls back on its own when the tx context is cancelled
			return nil
		}
		return err
	case <-timer.C:
		// the connection stays busy until the driver returns; closing it earlier would block
		go func() {
			<-done
			g.lease.discard()
		}()
		return errRollbackPending
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Run executes fn inside a guarded transaction and commits when fn returns nil.
// Any error or panic from fn leaves the transaction rolled back.
func Run(ctx context.Context, pool *Pool, fn func(tx *gorm.DB) error) error {
	g, err := Begin(ctx, pool)
	if err != nil {
		return err
	}
	defer g.Release()

	if err := fn(g.DB()); err != nil {
		return err
	}
	return g.Commit()
}
