package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recordingDep struct {
	name     string
	needs    []string
	failures int
	log      *[]string
}

func (d *recordingDep) GetName() string     { return d.name }
func (d *recordingDep) DependsOn() []string { return d.needs }

func (d *recordingDep) Start(ctx context.Context) error {
	if d.failures > 0 {
		d.failures--
		return errors.New("not ready yet")
	}
	*d.log = append(*d.log, "start:"+d.name)
	return nil
}

func (d *recordingDep) Stop(ctx context.Context) error {
	*d.log = append(*d.log, "stop:"+d.name)
	return nil
}

func TestStartupOrdersByDependency(t *testing.T) {
	var log []string
	s := NewStartup(newTestLogger(), 1)

	// registered out of order; DependsOn must still win
	s.AddDependency(&recordingDep{name: "server", needs: []string{"database", "kafka"}, log: &log})
	s.AddDependency(&recordingDep{name: "database", log: &log})
	s.AddDependency(&recordingDep{name: "kafka", log: &log})

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, []string{"start:database", "start:kafka", "start:server"}, log)
}

func TestStartupStopsInReverseOrder(t *testing.T) {
	var log []string
	s := NewStartup(newTestLogger(), 1)

	s.AddDependency(&recordingDep{name: "database", log: &log})
	s.AddDependency(&recordingDep{name: "server", needs: []string{"database"}, log: &log})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{"start:database", "start:server", "stop:server", "stop:database"}, log)
}

func TestStartupFailsAfterMaxAttempts(t *testing.T) {
	var log []string
	s := NewStartup(newTestLogger(), 1)

	s.AddDependency(&recordingDep{name: "database", failures: 5, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 1 attempts")
	assert.Empty(t, log)
}

func TestStartupRetriesUntilSuccess(t *testing.T) {
	var log []string
	s := NewStartup(newTestLogger(), 3)

	s.AddDependency(&recordingDep{name: "database", failures: 1, log: &log})
	s.AddDependency(&recordingDep{name: "server", needs: []string{"database"}, log: &log})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:server"}, log)
}

func TestStartupUnknownDependency(t *testing.T) {
	var log []string
	s := NewStartup(newTestLogger(), 1)

	s.AddDependency(&recordingDep{name: "server", needs: []string{"database"}, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency 'database'")
}

func TestFuncAdapter(t *testing.T) {
	var log []string
	dep := NewFunc("cache", []string{"database"},
		func(ctx context.Context) error {
			log = append(log, "start")
			return nil
		},
		func(ctx context.Context) error {
			log = append(log, "stop")
			return nil
		},
	)

	assert.Equal(t, "cache", dep.GetName())
	assert.Equal(t, []string{"database"}, dep.DependsOn())
	require.NoError(t, dep.Start(context.Background()))
	require.NoError(t, dep.Stop(context.Background()))
	assert.Equal(t, []string{"start", "stop"}, log)
}

func TestFuncAdapterNilHandlers(t *testing.T) {
	dep := NewFunc("noop", nil, nil, nil)
	require.NoError(t, dep.Start(context.Background()))
	require.NoError(t, dep.Stop(context.Background()))
}
