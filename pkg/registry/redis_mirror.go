package registry

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/lightpath-network/nrm/pkg/util"
)

// RedisMirror is a purely observational projection of the registry's
// in-use state into Redis, enabled by param.json's redis_addr key. The
// authoritative state is always the in-memory registry plus
// db/reserved.json; mirror failures are logged and never fail a
// reservation.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror dials addr lazily (go-redis connects on first command).
func NewRedisMirror(addr string) *RedisMirror {
	return &RedisMirror{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// OnReserve mirrors a newly-committed reservation's tuples into Redis.
func (m *RedisMirror) OnReserve(ctx context.Context, res *Reservation) {
	if m == nil {
		return
	}
	pipe := m.client.Pipeline()
	for _, t := range res.Solution.X {
		pipe.SAdd(ctx, "nrm:inuse_x", t.String())
	}
	for _, t := range res.Solution.C {
		pipe.HIncrBy(ctx, "nrm:inuse_c:"+t.String(), "count", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		util.WithRequest(res.GlobalID).WithError(err).Warn("redis mirror update failed on reserve")
	}
}

// OnTerminate unwinds a terminated reservation's tuples from Redis.
func (m *RedisMirror) OnTerminate(ctx context.Context, res *Reservation) {
	if m == nil {
		return
	}
	pipe := m.client.Pipeline()
	for _, t := range res.Solution.X {
		pipe.SRem(ctx, "nrm:inuse_x", t.String())
	}
	for _, t := range res.Solution.C {
		pipe.HIncrBy(ctx, "nrm:inuse_c:"+t.String(), "count", -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		util.WithRequest(res.GlobalID).WithError(err).Warn("redis mirror update failed on terminate")
	}
}

// Close releases the underlying Redis connection pool.
func (m *RedisMirror) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}
