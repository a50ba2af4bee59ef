package mongo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAvailability_Check(t *testing.T) {
	req := require.New(t)
	var down atomic.Bool
	a := newAvailability(func(context.Context) error {
		if down.Load() {
			return errors.New("server selection timeout")
		}
		return nil
	})

	req.False(a.Available())

	req.NoError(a.Check(context.Background()))
	req.True(a.Available())

	down.Store(true)
	req.Error(a.Check(context.Background()))
	req.False(a.Available())
}

func TestAvailability_WatchReportsTransitions(t *testing.T) {
	req := require.New(t)
	a := newAvailability(func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan bool, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Watch(ctx, 5*time.Millisecond, time.Second, func(available bool, _ error) {
			select {
			case changes <- available:
			default:
			}
		})
	}()

	select {
	case available := <-changes:
		req.True(available)
	case <-time.After(2 * time.Second):
		req.Fail("watch did not report recovery")
	}
	cancel()
	wg.Wait()
	req.True(a.Available())
}
