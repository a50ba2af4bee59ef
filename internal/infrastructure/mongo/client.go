package mongo

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrUnavailable is returned by guarded repositories while the last ping failed.
var ErrUnavailable = errors.New("mongo: server unavailable")

// Connect は MongoDB クライアントを生成する。接続確認は行わないため、
// サーバーが落ちていても起動は継続できる。
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(timeout)
	return mongo.Connect(ctx, clientOptions)
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

// Availability remembers the outcome of the latest ping so that writes can be
// skipped immediately while the server is down.
// 初回 Check までは到達不可として扱う。
type Availability struct {
	ping      func(ctx context.Context) error
	available atomic.Bool
}

// NewAvailability tracks client reachability.
func NewAvailability(client *mongo.Client) *Availability {
	return newAvailability(func(ctx context.Context) error { return Ping(ctx, client) })
}

func newAvailability(ping func(ctx context.Context) error) *Availability {
	return &Availability{ping: ping}
}

// Check pings the server and records the result.
func (a *Availability) Check(ctx context.Context) error {
	err := a.ping(ctx)
	a.available.Store(err == nil)
	return err
}

// Available reports the result of the latest Check.
func (a *Availability) Available() bool {
	return a.available.Load()
}

// Watch re-checks every interval until ctx is cancelled. Each ping is bounded
// by timeout.
func (a *Availability) Watch(ctx context.Context, interval, timeout time.Duration, onChange func(available bool, err error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := a.Available()
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			err := a.Check(pingCtx)
			cancel()
			if after := a.Available(); after != before && onChange != nil {
				onChange(after, err)
			}
		}
	}
}
