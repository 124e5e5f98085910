package cronjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRefresher struct {
	calls int32
	err   error
}

func (r *countingRefresher) RefreshReferenceData(context.Context) error {
	atomic.AddInt32(&r.calls, 1)
	return r.err
}

func TestScheduler_RunsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRefresher{}
	s := NewScheduler(nil)
	require.NoError(t, s.AddReferenceRefresh("@every 1s", r))

	s.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_LogsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.ErrorLevel)
	r := &countingRefresher{err: errors.New("upstream down")}
	s := NewScheduler(zap.New(core))
	require.NoError(t, s.AddReferenceRefresh("@every 1s", r))

	s.Start()
	require.Eventually(t, func() bool { return logs.FilterMessage("scheduled job failed").Len() >= 1 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil)
	assert.Error(t, s.AddJob("bad", "not a spec", func(context.Context) error { return nil }))
}
