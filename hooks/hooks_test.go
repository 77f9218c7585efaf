package hooks_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seafloor/methodpatch/hooks"
	"github.com/seafloor/methodpatch/patch"
)

type pinger struct{}

func (pinger) Ping(n int) int { return n + 1 }

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	lg := zap.New(core)

	reg := patch.New()
	before, after := hooks.Logging(lg)
	_, err := reg.AddBefore(pinger{}, "Ping", false, before)
	require.NoError(t, err)
	_, err = reg.AddAfter(pinger{}, "Ping", false, after)
	require.NoError(t, err)

	out, err := reg.Call(pinger{}, "Ping", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, out[0])

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "method enter", entries[0].Message)
	assert.Equal(t, "method exit", entries[1].Message)
	assert.Equal(t, "Ping", entries[0].ContextMap()["method"])
}

func TestTiming(t *testing.T) {
	reg := patch.New()

	var (
		method  string
		elapsed time.Duration
		samples int
	)
	before, after := hooks.Timing(func(m string, d time.Duration) {
		method = m
		elapsed = d
		samples++
	})
	_, err := reg.AddBefore(pinger{}, "Ping", false, before)
	require.NoError(t, err)
	_, err = reg.AddAfter(pinger{}, "Ping", false, after)
	require.NoError(t, err)

	_, err = reg.Call(pinger{}, "Ping", 0)
	require.NoError(t, err)

	assert.Equal(t, "Ping", method)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	assert.Equal(t, 1, samples)
}

func TestTimingAfterWithoutBefore(t *testing.T) {
	reg := patch.New()

	_, after := hooks.Timing(func(string, time.Duration) {
		t.Fatal("sample must not fire without a start time")
	})
	_, err := reg.AddAfter(pinger{}, "Ping", false, after)
	require.NoError(t, err)

	_, err = reg.Call(pinger{}, "Ping", 0)
	require.NoError(t, err)
}

func TestCounterConcurrent(t *testing.T) {
	reg := patch.New()

	counter := hooks.NewCounter("Ping")
	_, err := reg.AddAfter(pinger{}, "Ping", false, counter.After())
	require.NoError(t, err)

	const calls = 100
	var wg sync.WaitGroup
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		go func() {
			defer wg.Done()
			_, err := reg.Call(pinger{}, "Ping", 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, calls, counter.Get("Ping"))
	assert.Zero(t, counter.Get("Unknown"))
}

func TestCounterSkipsFailedCalls(t *testing.T) {
	reg := patch.New()

	counter := hooks.NewCounter("Ping")
	_, err := reg.AddBefore(pinger{}, "Ping", false, hooks.Guard(func(*patch.Call) error {
		return errors.New("rejected")
	}))
	require.NoError(t, err)
	_, err = reg.AddAfter(pinger{}, "Ping", false, counter.After())
	require.NoError(t, err)

	_, err = reg.Call(pinger{}, "Ping", 0)
	require.Error(t, err)
	assert.Zero(t, counter.Get("Ping"))
}

func TestGuardAbortsBeforeBody(t *testing.T) {
	reg := patch.New()

	guard := hooks.Guard(func(c *patch.Call) error {
		if c.Args[0].(int) < 0 {
			return errors.New("negative input")
		}
		return nil
	})
	_, err := reg.AddBefore(pinger{}, "Ping", false, guard)
	require.NoError(t, err)

	_, err = reg.Call(pinger{}, "Ping", -1)
	var ierr *patch.InterceptionError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, patch.PhaseBefore, ierr.Phase)

	out, err := reg.Call(pinger{}, "Ping", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, out[0])
}
