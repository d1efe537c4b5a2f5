// Package leaselock serializes long-running jobs across indexer replicas
// through a leased row in the entity store. The holder renews its lease
// while working; a crashed holder lets the lease expire instead of
// blocking the queue forever.
package leaselock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrBusy means another holder currently owns the lease.
	ErrBusy = errors.New("lease lock busy")
	// ErrLost means the lease expired or was taken over mid-run.
	ErrLost = errors.New("lease lock lost")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client hands out leases backed by the index_locks table.
type Client struct {
	db dbConn
}

func New(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

// Options tune lease lifetime. Zero values get sensible defaults: a TTL
// of five minutes, renewed at half the TTL.
type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration
}

type lease struct {
	key    string
	token  string
	ctx    context.Context
	cancel context.CancelCauseFunc

	client   *Client
	stopOnce sync.Once
	stopCh   chan struct{}
}

// WithLease runs fn while holding the named lease. It returns ErrBusy
// without running fn when another holder owns the lease. The context
// passed to fn is cancelled with ErrLost if the lease cannot be renewed.
func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	l, err := c.acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = l.release(context.Background())
	}()
	return fn(l.ctx)
}

func (c *Client) acquire(ctx context.Context, key string, opts Options) (*lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	ttlMs := opts.TTL.Milliseconds()

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	var returnedKey string
	err = c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &lease{
		key:    key,
		token:  token,
		ctx:    leaseCtx,
		cancel: cancel,
		client: c,
		stopCh: make(chan struct{}),
	}
	go l.renewLoop(opts.RenewEvery, ttlMs)
	return l, nil
}

func (l *lease) release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})
	_, err := l.client.db.Exec(ctx, releaseSQL, l.key, l.token)
	return err
}

func (l *lease) renewLoop(every time.Duration, ttlMs int64) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.ctx.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *lease) renewOnce(ttlMs int64) error {
	renewCtx, cancel := context.WithTimeout(l.ctx, 15*time.Second)
	defer cancel()

	var returnedKey string
	err := l.client.db.QueryRow(renewCtx, renewSQL, l.key, l.token, ttlMs).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLost
	}
	return err
}

const tryAcquireSQL = `
INSERT INTO index_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE index_locks.expires_at < now()
   OR index_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE index_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM index_locks
WHERE lock_key = $1 AND locked_by = $2;
`
