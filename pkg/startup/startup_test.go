package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_StartsDependenciesFirstAndStopsInReverse(t *testing.T) {
	var order []string
	record := func(event string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, event)
			return nil
		}
	}

	s := newTestStartup(1)
	s.AddDependency(&Dependency{Name: "api", Requires: []string{"migrations"}, OnStart: record("start api"), OnStop: record("stop api")})
	s.AddDependency(&Dependency{Name: "database", OnStart: record("start database"), OnStop: record("stop database")})
	s.AddDependency(&Dependency{Name: "migrations", Requires: []string{"database"}, OnStart: record("start migrations")})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{
		"start database", "start migrations", "start api",
		"stop api", "stop database",
	}, order)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	calls := 0
	s := newTestStartup(3)
	s.AddDependency(&Dependency{Name: "redis", OnStart: func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Equal(t, StartupStatusStarted, s.Status("redis"))
}

func TestStartup_GivesUpAfterMaxAttempts(t *testing.T) {
	s := newTestStartup(2)
	s.AddDependency(&Dependency{Name: "kafka", OnStart: func(context.Context) error {
		return errors.New("no brokers")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := newTestStartup(1)
	s.AddDependency(&Dependency{Name: "api", Requires: []string{"database"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency 'database'")
}
