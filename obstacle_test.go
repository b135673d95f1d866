package amrsim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObstacleSignalIsOR(t *testing.T) {
	var s ObstacleSignal
	assert.False(t, s.Active())

	s.SetManual(true)
	assert.True(t, s.Active())
	s.SetRemote(true)
	s.SetManual(false)
	assert.True(t, s.Active())
	s.SetRemote(false)
	assert.False(t, s.Active())
}

func TestPollOnce(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"active", http.StatusOK, "1\n", true},
		{"inactive", http.StatusOK, "0", false},
		{"garbage", http.StatusOK, "yes", false},
		{"server error", http.StatusInternalServerError, "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var sig ObstacleSignal
			sig.SetRemote(!tt.want)
			p := &Poller{Endpoint: srv.URL, Client: srv.Client()}

			assert.Equal(t, tt.want, p.PollOnce(context.Background(), &sig))
			assert.Equal(t, tt.want, sig.Active())
		})
	}
}

func TestPollOnceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var sig ObstacleSignal
	sig.SetRemote(true)
	p := &Poller{Endpoint: url}

	assert.False(t, p.PollOnce(context.Background(), &sig))
	assert.False(t, sig.Active())
}

func TestPollerRunStopsWithContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	var sig ObstacleSignal
	p := &Poller{Endpoint: srv.URL, Interval: 10 * time.Millisecond, Client: srv.Client()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, &sig) }()

	require.Eventually(t, sig.Active, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestNewHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	client, err := NewHTTPClient("", time.Second)
	require.NoError(t, err)
	var sig ObstacleSignal
	p := &Poller{Endpoint: srv.URL, Client: client}
	assert.True(t, p.PollOnce(context.Background(), &sig))

	_, err = NewHTTPClient("socks://127.0.0.1:1080", time.Second)
	assert.NoError(t, err)

	_, err = NewHTTPClient("gopher://127.0.0.1:70", time.Second)
	assert.Error(t, err)
}
