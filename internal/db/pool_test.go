package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPoolDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.sqlite")
	sqlDB, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestPool_AcquireRelease(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2}, nil)
	defer p.Close()
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, PoolStats{Active: 1, Idle: 0}, p.Stats())

	var one int
	require.NoError(t, h.QueryRowContext(ctx, "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)

	p.Release(h)
	assert.Equal(t, PoolStats{Active: 0, Idle: 1}, p.Stats())
}

func TestPool_ReusesIdleHandle(t *testing.T) {
	probes := 0
	p := NewPool(openPoolDB(t), PoolConfig{
		MaxActive: 2,
		HealthCheck: func(ctx context.Context, conn *sql.Conn) error {
			probes++
			return nil
		},
	}, nil)
	defer p.Close()
	ctx := context.Background()

	h1, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(h1)

	h2, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h2)

	// The idle handle was probed and reused, not re-dialed.
	assert.Equal(t, 1, probes)
	assert.Equal(t, PoolStats{Active: 1, Idle: 0}, p.Stats())
}

func TestPool_EvictsDeadHandle(t *testing.T) {
	probes := 0
	p := NewPool(openPoolDB(t), PoolConfig{
		MaxActive: 2,
		HealthCheck: func(ctx context.Context, conn *sql.Conn) error {
			probes++
			if probes == 1 {
				return errors.New("connection is dead")
			}
			return nil
		},
	}, nil)
	defer p.Close()
	ctx := context.Background()

	h1, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(h1)

	// First probe fails: the idle handle is evicted and a fresh
	// connection is dialed.
	h2, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h2)

	assert.Equal(t, 1, probes)
	assert.Equal(t, PoolStats{Active: 1, Idle: 0}, p.Stats())
}

func TestPool_BoundedAcquireBlocks(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 1}, nil)
	defer p.Close()
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)

	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(blockedCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Releasing frees the slot.
	p.Release(h)
	h2, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(h2)
}

func TestPool_DiscardFreesSlot(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 1}, nil)
	defer p.Close()
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Discard(h)
	assert.Equal(t, PoolStats{Active: 0, Idle: 0}, p.Stats())

	// The slot is reusable after discard.
	h2, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(h2)
}

func TestPool_DoubleReleaseIsNoop(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2}, nil)
	defer p.Close()

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(h)
	p.Release(h)
	assert.Equal(t, PoolStats{Active: 0, Idle: 1}, p.Stats())
}

func TestPool_SweepEvictsStaleIdle(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2, IdleTTL: time.Nanosecond}, nil)
	defer p.Close()

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(h)

	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, p.Sweep())
	assert.Equal(t, PoolStats{Active: 0, Idle: 0}, p.Stats())
}

func TestPool_SweepDisabledWithoutTTL(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2}, nil)
	defer p.Close()

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(h)

	assert.Equal(t, 0, p.Sweep())
	assert.Equal(t, PoolStats{Active: 0, Idle: 1}, p.Stats())
}

func TestPool_PingWithFullIdleList(t *testing.T) {
	// Idle handles pin their driver connections, so with MaxOpenConns equal
	// to the pool size a direct db.Ping would stall. Pool.Ping must reuse a
	// pooled handle instead.
	sqlDB := openPoolDB(t)
	sqlDB.SetMaxOpenConns(1)
	p := NewPool(sqlDB, PoolConfig{MaxActive: 1}, nil)
	defer p.Close()
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(h)
	require.Equal(t, PoolStats{Active: 0, Idle: 1}, p.Stats())

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, p.Ping(pingCtx))
	assert.Equal(t, PoolStats{Active: 0, Idle: 1}, p.Stats())
}

func TestPool_PingReportsDeadBackend(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{
		MaxActive: 1,
		HealthCheck: func(ctx context.Context, conn *sql.Conn) error {
			return errors.New("connection is dead")
		},
	}, nil)
	defer p.Close()

	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection is dead")
	// The probed handle was discarded, not parked.
	assert.Equal(t, PoolStats{Active: 0, Idle: 0}, p.Stats())
}

func TestPool_StartSweeperEvictsIdle(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2, IdleTTL: 5 * time.Millisecond}, nil)
	defer p.Close()

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(h)
	require.Equal(t, 1, p.Stats().Idle)

	p.StartSweeper(5 * time.Millisecond)
	require.Eventually(t, func() bool {
		return p.Stats().Idle == 0
	}, time.Second, 5*time.Millisecond)
}

func TestPool_CloseTwice(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 1, IdleTTL: time.Minute}, nil)
	p.StartSweeper(time.Minute)
	p.Close()
	p.Close()
}

func TestPool_AcquireAfterClose(t *testing.T) {
	p := NewPool(openPoolDB(t), PoolConfig{MaxActive: 2}, nil)
	p.Close()

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
