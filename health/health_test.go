package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	healthy atomic.Int32
	calls   atomic.Int32
}

func (f *fakePinger) Health(context.Context) error {
	f.calls.Add(1)
	if f.healthy.Load() == 1 {
		return nil
	}
	return errors.New("service reported not ok")
}

func TestMonitor_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakePinger{}
	p.healthy.Store(1)

	m := NewMonitor(zerolog.Nop(), p, time.Second)
	require.False(t, m.IsHealthy())
	go m.Start(ctx, 10*time.Millisecond)

	// Initially healthy
	waitTrue(t, func() bool { return m.IsHealthy() })

	// Flip to unhealthy
	p.healthy.Store(0)
	waitTrue(t, func() bool { return !m.IsHealthy() })

	// Recover
	p.healthy.Store(1)
	waitTrue(t, func() bool { return m.IsHealthy() })
}

func TestWaitHealthy_EventuallySucceeds(t *testing.T) {
	p := &fakePinger{}
	go func() {
		time.Sleep(150 * time.Millisecond)
		p.healthy.Store(1)
	}()
	require.NoError(t, WaitHealthy(context.Background(), p, 5*time.Second))
	assert.Greater(t, p.calls.Load(), int32(1))
}

func TestWaitHealthy_GivesUp(t *testing.T) {
	p := &fakePinger{}
	err := WaitHealthy(context.Background(), p, 300*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service reported not ok")
}

func TestWaitHealthy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitHealthy(ctx, &fakePinger{}, time.Minute)
	assert.Error(t, err)
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
