package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ValidatesExpression(t *testing.T) {
	s := New()

	err := s.Register("cleanup", "0 3 * * *", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)

	err = s.Register("broken", "not a cron", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestValidateCron(t *testing.T) {
	s := New()

	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 3 * * *", false},
		{"*/5 * * * *", false},
		{"61 * * * *", true},
		{"", true},
		{"* * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := s.ValidateCron(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCron_NextRun(t *testing.T) {
	s := New()

	next, err := s.ParseCron("*/5 * * * *")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	_, err = s.ParseCron("bad")
	assert.Error(t, err)
}

func TestIsDue(t *testing.T) {
	s := New()

	// Every minute is always due within a one-minute window.
	assert.True(t, s.isDue("* * * * *"))

	// An invalid expression is never due.
	assert.False(t, s.isDue("nope"))
}

func TestStartStop(t *testing.T) {
	s := New().WithConfig(Config{SyncInterval: 10 * time.Millisecond})

	var runs atomic.Int32
	err := s.Register("tick", "* * * * *", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	err = s.Start(context.Background())
	require.NoError(t, err)

	// Double start is rejected.
	err = s.Start(context.Background())
	assert.Error(t, err)

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Positive(t, runs.Load())

	// Stopped scheduler can start again.
	err = s.Start(context.Background())
	require.NoError(t, err)
	s.Stop()
}

func TestRunDue_JobErrorDoesNotStopOthers(t *testing.T) {
	s := New().WithConfig(Config{SyncInterval: time.Minute})

	var ran atomic.Bool
	require.NoError(t, s.Register("failing", "* * * * *", func(ctx context.Context) error {
		return assert.AnError
	}))
	require.NoError(t, s.Register("healthy", "* * * * *", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}))

	s.runDue(context.Background())
	assert.True(t, ran.Load())
}

func TestRunDue_SkipsNotDue(t *testing.T) {
	s := New().WithConfig(Config{SyncInterval: time.Second})

	var ran atomic.Bool
	// 31st of February never comes.
	require.NoError(t, s.Register("never", "0 0 31 2 *", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}))

	s.runDue(context.Background())
	assert.False(t, ran.Load())
}
