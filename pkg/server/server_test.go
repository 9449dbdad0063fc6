package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(port int) *Server {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	handler := routes.NewHandler(nil, nil, logger, nil, 0)
	return New(Config{AppName: "clover-test", Port: port, ShutdownTimeout: time.Second}, handler, logger)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(0)

	tests := []struct {
		name         string
		target       string
		expectedCode int
		requestID    bool
	}{
		{name: "health", target: "/health", expectedCode: http.StatusOK, requestID: true},
		{name: "metrics", target: "/metrics", expectedCode: http.StatusOK, requestID: true},
		{name: "not found", target: "/nope", expectedCode: http.StatusNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, test.target, nil))
			assert.Equal(t, test.expectedCode, rec.Code)
			if test.requestID {
				assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
