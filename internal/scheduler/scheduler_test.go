package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNowRecordsHistory(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	ran := false
	err := s.RunNow(FuncJob{JobName: "sync-flows", Fn: func() error {
		ran = true
		return nil
	}})
	require.NoError(t, err)
	assert.True(t, ran)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "sync-flows", history[0].Job)
	assert.Empty(t, history[0].Error)
}

func TestFailedJobRecordsError(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	err := s.RunNow(FuncJob{JobName: "backup", Fn: func() error {
		return errors.New("bucket unreachable")
	}})
	require.Error(t, err)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "bucket unreachable", history[0].Error)
}

func TestHistoryBounded(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	for i := 0; i < historySize+10; i++ {
		_ = s.RunNow(FuncJob{JobName: "noop", Fn: func() error { return nil }})
	}

	assert.Len(t, s.History(), historySize)
}

func TestAddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	err := s.AddJob("not a schedule", FuncJob{JobName: "noop", Fn: func() error { return nil }})
	assert.Error(t, err)

	err = s.AddJob("@hourly", FuncJob{JobName: "noop", Fn: func() error { return nil }})
	assert.NoError(t, err)
}
