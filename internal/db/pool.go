package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// PoolConfig controls the connection pool behaviour.
type PoolConfig struct {
	// MaxActive bounds the number of concurrently acquired handles.
	// Acquire blocks (honouring ctx) until a slot frees up.
	MaxActive int
	// IdleTTL is how long an idle handle may sit unused before the sweep
	// closes it. Zero disables TTL eviction.
	IdleTTL time.Duration
	// HealthCheckTimeout bounds the liveness probe run on idle handles.
	HealthCheckTimeout time.Duration
	// HealthCheck overrides the default "SELECT 1" probe. Tests use this
	// to simulate dead connections.
	HealthCheck func(ctx context.Context, conn *sql.Conn) error
}

func (c *PoolConfig) withDefaults() PoolConfig {
	out := *c
	if out.MaxActive <= 0 {
		out.MaxActive = 4
	}
	if out.HealthCheckTimeout <= 0 {
		out.HealthCheckTimeout = 2 * time.Second
	}
	if out.HealthCheck == nil {
		out.HealthCheck = func(ctx context.Context, conn *sql.Conn) error {
			var one int
			return conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		}
	}
	return out
}

// PoolStats is a point-in-time snapshot of pool state.
type PoolStats struct {
	Active int // handles currently acquired
	Idle   int // handles parked in the free list
}

// Pool manages reusable SQL Server connection handles on top of *sql.DB.
//
// Idle handles are health-checked on acquire; dead ones are evicted and a
// fresh connection is dialed in their place. Acquire is bounded by
// MaxActive and respects context cancellation.
type Pool struct {
	db     *sql.DB
	cfg    PoolConfig
	sem    *semaphore.Weighted
	logger *slog.Logger

	mu     sync.Mutex
	idle   []*Handle // LIFO, most recently used last
	active int
	closed bool

	stopSweep chan struct{}
}

// NewPool creates a Pool over an already-open *sql.DB.
func NewPool(sqlDB *sql.DB, cfg PoolConfig, logger *slog.Logger) *Pool {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		db:        sqlDB,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxActive)),
		logger:    logger,
		stopSweep: make(chan struct{}),
	}
}

// Handle is a single pooled connection. It must be returned with Release
// or destroyed with Discard; releasing twice is an error.
type Handle struct {
	conn     *sql.Conn
	pool     *Pool
	lastUsed time.Time
	done     bool
}

// QueryContext runs a query on the held connection.
func (h *Handle) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return h.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the held connection.
func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return h.conn.QueryRowContext(ctx, query, args...)
}

// Acquire returns a healthy connection handle, reusing an idle one when
// possible. Blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.sem.Release(1)
			return nil, fmt.Errorf("pool is closed")
		}
		var h *Handle
		if n := len(p.idle); n > 0 {
			h = p.idle[n-1]
			p.idle = p.idle[:n-1]
		}
		p.mu.Unlock()

		if h == nil {
			break // no idle handle, dial a new one
		}

		probeCtx, cancel := context.WithTimeout(ctx, p.cfg.HealthCheckTimeout)
		err := p.cfg.HealthCheck(probeCtx, h.conn)
		cancel()
		if err != nil {
			// Dead connection: evict and try the next idle handle.
			p.logger.Warn("evicting dead connection", "error", err)
			_ = h.conn.Close()
			continue
		}

		h.done = false
		p.markActive()
		return h, nil
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("dial connection: %w", err)
	}
	p.markActive()
	return &Handle{conn: conn, pool: p}, nil
}

// Release returns the handle to the pool for reuse.
func (p *Pool) Release(h *Handle) {
	if h == nil || h.done {
		return
	}
	h.done = true
	h.lastUsed = time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = h.conn.Close()
		p.markInactive()
		return
	}
	p.idle = append(p.idle, h)
	p.mu.Unlock()
	p.markInactive()
}

// Discard closes the handle's connection instead of returning it to the
// pool. Use after an error that leaves the connection in a doubtful state.
func (p *Pool) Discard(h *Handle) {
	if h == nil || h.done {
		return
	}
	h.done = true
	_ = h.conn.Close()
	p.markInactive()
}

// Sweep closes idle handles that have been unused longer than IdleTTL.
// Returns the number of handles closed.
func (p *Pool) Sweep() int {
	if p.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-p.cfg.IdleTTL)

	p.mu.Lock()
	var kept []*Handle
	var evicted []*Handle
	for _, h := range p.idle {
		if h.lastUsed.Before(cutoff) {
			evicted = append(evicted, h)
		} else {
			kept = append(kept, h)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	for _, h := range evicted {
		_ = h.conn.Close()
	}
	if len(evicted) > 0 {
		p.logger.Debug("swept idle connections", "count", len(evicted))
	}
	return len(evicted)
}

// Ping checks that the backend is reachable by running the health probe
// on a pooled handle. It must not go through p.db directly: idle handles
// hold their driver connections, so a full idle list would leave the
// underlying *sql.DB with nothing to lend and the ping would stall.
func (p *Pool) Ping(ctx context.Context) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.HealthCheckTimeout)
	defer cancel()
	if err := p.cfg.HealthCheck(probeCtx, h.conn); err != nil {
		p.Discard(h)
		return fmt.Errorf("ping: %w", err)
	}
	p.Release(h)
	return nil
}

// StartSweeper runs Sweep on the given interval in a background goroutine
// until the pool is closed. No-op when IdleTTL is disabled.
func (p *Pool) StartSweeper(interval time.Duration) {
	if p.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.Sweep()
			case <-p.stopSweep:
				return
			}
		}
	}()
}

// Stats returns a snapshot of the pool state.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Active: p.active, Idle: len(p.idle)}
}

// Close closes all idle handles and marks the pool closed. In-flight
// handles are closed as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	close(p.stopSweep)

	for _, h := range idle {
		_ = h.conn.Close()
	}
}

func (p *Pool) markActive() {
	p.mu.Lock()
	p.active++
	p.mu.Unlock()
}

func (p *Pool) markInactive() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	p.sem.Release(1)
}
