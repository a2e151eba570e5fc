// Package leaselock coordinates periodic jobs between worker instances
// through expiring rows in the app_locks table.
package leaselock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ringmast4r/project147/internal/util"
)

var (
	ErrBusy = errors.New("lease held by another owner")
	ErrLost = errors.New("lease lost")
)

const DefaultTTL = 2 * time.Minute

type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Client struct {
	db    DB
	owner string
}

// New creates a client whose leases are owned by a fresh id.
func New(db DB) (*Client, error) {
	owner, err := util.NewID("lease")
	if err != nil {
		return nil, err
	}
	return &Client{db: db, owner: owner}, nil
}

func (c *Client) Owner() string {
	return c.owner
}

// Run holds key for the duration of fn, renewing it every ttl/2. fn's
// context is cancelled with ErrLost when a renewal finds the lease taken
// over. ErrBusy is returned without calling fn when another owner holds an
// unexpired lease.
func (c *Client) Run(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if key == "" {
		return errors.New("lease key is empty")
	}
	if ttl < 2*time.Second {
		ttl = DefaultTTL
	}

	ok, err := c.query(ctx, acquireSQL, key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBusy
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(ttl / 2)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-leaseCtx.Done():
				return
			case <-t.C:
				ok, err := c.query(leaseCtx, renewSQL, key, ttl)
				if err == nil && !ok {
					err = ErrLost
				}
				if err != nil {
					cancel(err)
					return
				}
			}
		}
	}()

	fnErr := fn(leaseCtx)
	close(done)
	lost := context.Cause(leaseCtx)
	cancel(context.Canceled)

	releaseCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer stop()
	if _, err := c.db.Exec(releaseCtx, releaseSQL, key, c.owner); err != nil && fnErr == nil {
		fnErr = err
	}
	if fnErr == nil && errors.Is(lost, ErrLost) {
		return ErrLost
	}
	return fnErr
}

func (c *Client) query(ctx context.Context, sql, key string, ttl time.Duration) (bool, error) {
	var got string
	err := c.db.QueryRow(ctx, sql, key, c.owner, ttl.Milliseconds()).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return got == key, nil
}

const acquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by = EXCLUDED.locked_by, expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now() OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key`

const releaseSQL = `DELETE FROM app_locks WHERE lock_key = $1 AND locked_by = $2`
