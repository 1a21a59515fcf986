package liveness

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3u-curator/config"
	"m3u-curator/logger"
	"m3u-curator/playlist"
)

func newTestChecker(opts ...Option) *Checker {
	return New(append([]Option{WithLogger(logger.Nop{})}, opts...)...)
}

func channel(name string, lines ...string) *playlist.Channel {
	return &playlist.Channel{Name: name, Lines: append([]string{"#EXTINF:-1," + name}, lines...)}
}

func testServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64*1024))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/live", http.StatusFound)
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "VLC/3.0.18 LibVLC/3.0.18" || r.Header.Get("Accept") != "*/*" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})
	return httptest.NewServer(mux)
}

func TestIsAlive(t *testing.T) {
	server := testServer()
	defer server.Close()
	c := newTestChecker()

	testCases := []struct {
		path  string
		alive bool
	}{
		{"/live", true},
		{"/empty", false},
		{"/forbidden", false},
		{"/redirect", true},
		{"/ua", true},
		{"/missing", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.alive, c.IsAlive(context.Background(), server.URL+tc.path))
		})
	}
}

func TestIsAliveTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestChecker(WithTimeout(50 * time.Millisecond))
	assert.False(t, c.IsAlive(context.Background(), server.URL))
}

type chunkBody struct {
	reads atomic.Int32
	fail  bool
}

func (b *chunkBody) Read(p []byte) (int, error) {
	b.reads.Add(1)
	if b.fail {
		return 0, errors.New("connection reset by peer")
	}
	return copy(p, strings.Repeat("x", 100)), nil
}

func (b *chunkBody) Close() error { return nil }

type mockHTTPClient struct {
	body *chunkBody
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Body: m.body, Request: req}, nil
}

func TestIsAliveReadCeiling(t *testing.T) {
	body := &chunkBody{}
	c := newTestChecker(WithHTTPClient(&mockHTTPClient{body: body}))

	assert.True(t, c.IsAlive(context.Background(), "http://provider/stream"))
	assert.Equal(t, int32(maxChunks), body.reads.Load())

	failing := &chunkBody{fail: true}
	c = newTestChecker(WithHTTPClient(&mockHTTPClient{body: failing}))
	assert.False(t, c.IsAlive(context.Background(), "http://provider/stream"))
}

func TestRemoveDead(t *testing.T) {
	server := testServer()
	defer server.Close()

	channels := []*playlist.Channel{
		channel("Alive 1", server.URL+"/live"),
		channel("Dead 1", server.URL+"/forbidden"),
		channel("No URI"),
		channel("Trailing comment", server.URL+"/forbidden", "#EXTVLCOPT:network-caching=1000"),
		channel("Dead 2", server.URL+"/empty"),
		channel("Alive 2", server.URL+"/redirect"),
	}

	var messages atomic.Int32
	c := newTestChecker(WithWorkers(3), WithProgress(func(string) { messages.Add(1) }))
	alive, deadCount, dead := c.RemoveDead(context.Background(), channels)

	assert.Equal(t, 2, deadCount)
	require.Len(t, dead, 2)
	assert.Equal(t, "Dead 1", dead[0].Name)
	assert.Equal(t, "Dead 2", dead[1].Name)

	var aliveNames []string
	for _, ch := range alive {
		aliveNames = append(aliveNames, ch.Name)
	}
	assert.Equal(t, []string{"Alive 1", "No URI", "Trailing comment", "Alive 2"}, aliveNames)
	assert.Equal(t, len(channels), len(alive)+deadCount)
	assert.Positive(t, messages.Load())
}

func TestNewFromConfig(t *testing.T) {
	c := NewFromConfig(config.LivenessConfig{Workers: 4, Timeout: 1.5})
	assert.Equal(t, 4, c.workers)
	assert.Equal(t, 1500*time.Millisecond, c.timeout)

	c = NewFromConfig(config.LivenessConfig{})
	assert.Equal(t, defaultWorkers, c.workers)
	assert.Equal(t, defaultTimeout, c.timeout)
}
