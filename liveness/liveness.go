package liveness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"m3u-curator/config"
	"m3u-curator/logger"
	"m3u-curator/playlist"
	"m3u-curator/utils"
	"m3u-curator/workerpool"
)

const (
	defaultWorkers = 20
	defaultTimeout = 8 * time.Second

	readChunk  = 4096
	maxChunks  = 4
	enoughData = 1024
)

// Checker sweeps channels for streams that no longer answer with data.
type Checker struct {
	client    utils.HTTPClient
	logger    logger.Logger
	workers   int
	timeout   time.Duration
	userAgent string
	progress  func(string)
}

type Option func(*Checker)

func WithHTTPClient(client utils.HTTPClient) Option {
	return func(c *Checker) {
		c.client = client
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithProgress(sink func(string)) Option {
	return func(c *Checker) {
		c.progress = sink
	}
}

func New(opts ...Option) *Checker {
	c := &Checker{
		client:    utils.DefaultHTTPClient,
		logger:    logger.Default,
		workers:   defaultWorkers,
		timeout:   defaultTimeout,
		userAgent: utils.GetEnv("LIVENESS_USER_AGENT"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewFromConfig(cfg config.LivenessConfig, opts ...Option) *Checker {
	base := []Option{
		WithWorkers(cfg.Workers),
		WithTimeout(time.Duration(cfg.Timeout * float64(time.Second))),
	}
	return New(append(base, opts...)...)
}

// RemoveDead checks every channel concurrently. Channels without a playable
// URI are kept since there is nothing to evaluate. Both partitions keep the
// input order.
func (c *Checker) RemoveDead(ctx context.Context, channels []*playlist.Channel) (alive []*playlist.Channel, deadCount int, dead []*playlist.Channel) {
	results := make([]bool, len(channels))

	pool := workerpool.New(c.workers)
	progress := workerpool.NewProgress("Link check", len(channels), 0, c.progress)
	for i, ch := range channels {
		pool.Go(func() {
			defer progress.Step()
			url := ""
			if ch != nil {
				url = ch.URL()
			}
			if url == "" {
				results[i] = true
				return
			}
			results[i] = c.IsAlive(ctx, url)
		})
	}
	pool.Wait()

	for i, ch := range channels {
		if results[i] {
			alive = append(alive, ch)
		} else {
			dead = append(dead, ch)
		}
	}

	workerpool.Report(c.progress, fmt.Sprintf("Link check complete, removed %d dead streams", len(dead)))
	c.logger.Logf("Link check: %d alive, %d dead", len(alive), len(dead))
	return alive, len(dead), dead
}

// IsAlive reports whether url answers below 400 and yields at least one
// byte before EOF. Read errors count as dead.
func (c *Checker) IsAlive(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := utils.CustomHttpRequest(ctx, http.MethodGet, url, c.userAgent, "")
	if err != nil {
		c.logger.Debugf("Link check: bad request for %s: %v", url, err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debugf("Link check: %s unreachable: %v", url, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Debugf("Link check: %s returned HTTP %d", url, resp.StatusCode)
		return false
	}

	read := 0
	buf := make([]byte, readChunk)
	for i := 0; i < maxChunks && read < enoughData; i++ {
		n, err := resp.Body.Read(buf)
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Debugf("Link check: read from %s failed: %v", url, err)
			return false
		}
		if n == 0 {
			break
		}
	}
	return read > 0
}
