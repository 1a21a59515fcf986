package prober

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"m3u-curator/config"
	"m3u-curator/logger"
	"m3u-curator/utils"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultMaxBytes = 16384
	chunkSize       = 8192
)

var errNoURL = errors.New("no stream URL")

// Prober fetches the first few kilobytes of a stream and scores it.
type Prober struct {
	client    utils.HTTPClient
	cache     Cache
	logger    logger.Logger
	timeout   time.Duration
	maxBytes  int
	useRange  bool
	userAgent string
}

type Option func(*Prober)

func WithHTTPClient(client utils.HTTPClient) Option {
	return func(p *Prober) {
		p.client = client
	}
}

func WithCache(c Cache) Option {
	return func(p *Prober) {
		p.cache = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(p *Prober) {
		p.logger = l
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithMaxBytes(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

func WithRange(enabled bool) Option {
	return func(p *Prober) {
		p.useRange = enabled
	}
}

func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

func New(opts ...Option) *Prober {
	p := &Prober{
		client:    utils.DefaultHTTPClient,
		cache:     NopCache{},
		logger:    logger.Default,
		timeout:   defaultTimeout,
		maxBytes:  defaultMaxBytes,
		userAgent: utils.GetEnv("USER_AGENT"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds a prober with its own cache when caching is enabled.
// Options are applied after the configuration.
func NewFromConfig(cfg config.QualityConfig, opts ...Option) *Prober {
	base := []Option{
		WithMaxBytes(cfg.MaxProbeBytes),
		WithRange(cfg.UseRangeHeader),
		WithTimeout(time.Duration(cfg.ProbeTimeout * float64(time.Second))),
	}
	if cfg.UseProbeCache && cfg.ProbeCacheTTL > 0 {
		base = append(base, WithCache(NewTTLCache(time.Duration(cfg.ProbeCacheTTL)*time.Second)))
	}
	return New(append(base, opts...)...)
}

// Probe never fails: transport and protocol problems end up in the Error
// field of the returned metrics.
func (p *Prober) Probe(ctx context.Context, url string) StreamMetrics {
	if url == "" {
		m := newMetrics(url)
		m.Error = errNoURL.Error()
		return m
	}

	if cached, ok := p.cache.Get(url); ok {
		p.logger.Debugf("Probe cache hit: %s", url)
		return cached
	}

	m := p.probe(ctx, url)
	p.cache.Set(url, m)

	if m.Error != "" {
		p.logger.Debugf("Probe failed for %s: %s", url, m.Error)
	} else {
		p.logger.Debugf("Probed %s: score=%.1f codec=%s", url, m.ScoreOrZero(), m.Codec)
	}
	return m
}

func (p *Prober) probe(ctx context.Context, url string) StreamMetrics {
	m := newMetrics(url)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rangeHeader := ""
	if p.useRange {
		rangeHeader = fmt.Sprintf("bytes=0-%d", p.maxBytes-1)
	}
	req, err := utils.CustomHttpRequest(ctx, http.MethodGet, url, p.userAgent, rangeHeader)
	if err != nil {
		m.Error = err.Error()
		return m
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		m.Error = err.Error()
		return m
	}
	defer resp.Body.Close()
	m.ResponseTimeMs = ptr(float64(time.Since(start).Microseconds()) / 1000.0)

	if resp.StatusCode >= http.StatusBadRequest {
		m.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return m
	}

	sample, err := readSample(resp.Body, p.maxBytes)
	if err != nil && len(sample) == 0 {
		m.Error = err.Error()
		return m
	}

	if looksLikeHLS(url, resp.Header.Get("Content-Type"), sample) {
		if kbps, codecs, ok := parseMasterPlaylist(string(sample)); ok {
			m.BitrateKbps = ptr(kbps)
			m.Codec = codecs
		}
	}
	if m.Codec != "" {
		m.Codec, m.CodecWeight = ClassifyCodec(m.Codec)
	}

	m.computeScore()
	return m
}

// readSample reads at most limit bytes in chunks, stopping at EOF.
func readSample(r io.Reader, limit int) ([]byte, error) {
	sample := make([]byte, 0, min(limit, 2*chunkSize))
	chunk := make([]byte, chunkSize)

	for len(sample) < limit {
		want := min(chunkSize, limit-len(sample))
		n, err := r.Read(chunk[:want])
		sample = append(sample, chunk[:n]...)
		if err == io.EOF {
			return sample, nil
		}
		if err != nil {
			return sample, err
		}
		if n == 0 {
			break
		}
	}
	return sample, nil
}
