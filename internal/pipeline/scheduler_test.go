package pipeline_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenmarket/listing-herald/internal/pipeline"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSchedulerRegistersEntry(t *testing.T) {
	t.Parallel()

	p, _ := newTestPoller(&fakeSource{}, &fakeTransport{})

	sched, err := pipeline.NewScheduler(p, 5*time.Second, quietLogger())
	require.NoError(t, err)

	entries := sched.Entries()
	assert.Len(t, entries, 1)
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	p, _ := newTestPoller(&fakeSource{}, &fakeTransport{})

	sched, err := pipeline.NewScheduler(p, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}
