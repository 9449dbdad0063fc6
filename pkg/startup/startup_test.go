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
	s.backoff = time.Millisecond
	return s
}

type recorder struct {
	events []string
}

func (r *recorder) dependency(name string, requires ...string) Func {
	return Func{
		Name:     name,
		Requires: requires,
		StartFunc: func(context.Context) error {
			r.events = append(r.events, "start "+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			r.events = append(r.events, "stop "+name)
			return nil
		},
	}
}

func TestStartOrder(t *testing.T) {
	r := &recorder{}
	s := newTestStartup(1)
	s.AddDependency(r.dependency("api", "database", "redis"))
	s.AddDependency(r.dependency("database"))
	s.AddDependency(r.dependency("redis"))

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{
		"start database", "start redis", "start api",
		"stop api", "stop redis", "stop database",
	}, r.events)
	assert.Equal(t, StatusStopped, s.Status("database"))
}

func TestStartRetries(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		maxAttempts int
		expectErr   bool
	}{
		{name: "first attempt", failures: 0, maxAttempts: 3},
		{name: "recovers", failures: 2, maxAttempts: 3},
		{name: "gives up", failures: 3, maxAttempts: 3, expectErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			calls, dbCalls := 0, 0
			s := newTestStartup(test.maxAttempts)
			s.AddDependency(Func{Name: "database", StartFunc: func(context.Context) error {
				dbCalls++
				return nil
			}})
			s.AddDependency(Func{Name: "redis", StartFunc: func(context.Context) error {
				calls++
				if calls <= test.failures {
					return errors.New("connection refused")
				}
				return nil
			}})

			err := s.Start(context.Background())
			if test.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
				assert.Equal(t, StatusFailed, s.Status("redis"))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, dbCalls, "started dependencies are not restarted")
		})
	}
}

func TestStartErrors(t *testing.T) {
	s := newTestStartup(1)
	s.AddDependency(Func{Name: "a", Requires: []string{"b"}, StartFunc: func(context.Context) error { return nil }})
	s.AddDependency(Func{Name: "b", Requires: []string{"a"}, StartFunc: func(context.Context) error { return nil }})
	assert.ErrorContains(t, s.Start(context.Background()), "cycle")

	s = newTestStartup(1)
	s.AddDependency(Func{Name: "a", Requires: []string{"missing"}, StartFunc: func(context.Context) error { return nil }})
	assert.ErrorContains(t, s.Start(context.Background()), "unknown dependency")
}

func TestStartCancelled(t *testing.T) {
	s := newTestStartup(5)
	s.backoff = time.Hour
	s.AddDependency(Func{Name: "db", StartFunc: func(context.Context) error { return errors.New("down") }})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Start(ctx), context.DeadlineExceeded)
}
