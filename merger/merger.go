package merger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"m3u-curator/config"
	"m3u-curator/logger"
	"m3u-curator/normalizer"
	"m3u-curator/playlist"
	"m3u-curator/prober"
	"m3u-curator/report"
	"m3u-curator/utils/safemap"
	"m3u-curator/workerpool"
)

// Prober scores one stream URL. It must not fail; problems belong in the
// returned metrics.
type Prober interface {
	Probe(ctx context.Context, url string) prober.StreamMetrics
}

// Recorder receives one entry per channel that took part in a probed group.
type Recorder interface {
	Record(v report.Variant) error
}

// Merger collapses quality variants of the same channel into one winner.
type Merger struct {
	cfg        config.QualityConfig
	normalizer *normalizer.Normalizer
	prober     Prober
	recorder   Recorder
	progress   func(string)
	logger     logger.Logger
	parallel   int
}

type Option func(*Merger)

func WithProber(p Prober) Option {
	return func(m *Merger) {
		m.prober = p
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Merger) {
		m.recorder = r
	}
}

// WithProgress sets the sink for coarse human-readable progress messages.
func WithProgress(sink func(string)) Option {
	return func(m *Merger) {
		m.progress = sink
	}
}

func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		m.logger = l
	}
}

// WithParallelism overrides max_parallel_stream_probes.
func WithParallelism(n int) Option {
	return func(m *Merger) {
		m.parallel = n
	}
}

func New(cfg config.QualityConfig, opts ...Option) *Merger {
	m := &Merger{
		cfg:      cfg,
		logger:   logger.Default,
		parallel: cfg.MaxParallelProbes,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.normalizer == nil {
		m.normalizer = normalizer.New(cfg, normalizer.WithLogger(m.logger))
	}
	if m.prober == nil {
		m.prober = prober.NewFromConfig(cfg, prober.WithLogger(m.logger))
	}
	if m.parallel < 1 {
		m.parallel = 1
	}
	return m
}

// MergeQuality builds a Merger from cfg and runs a single pass.
func MergeQuality(ctx context.Context, channels []*playlist.Channel, cfg config.QualityConfig, progress func(string)) ([]*playlist.Channel, int) {
	return New(cfg, WithProgress(progress)).Merge(ctx, channels)
}

// candidate carries the merge-only data for one channel. It never outlives
// a pass, so none of it can reach exported output.
type candidate struct {
	ch      *playlist.Channel
	base    string
	url     string
	rank    int
	metrics prober.StreamMetrics
}

type group struct {
	base    string
	members []*candidate
}

// Merge groups channels by case-insensitive base name, probes every distinct
// URL of multi-member groups once, and keeps the best member of each group.
// The result follows the order in which groups first appear; removed is
// len(channels) - len(merged), nil entries included.
func (m *Merger) Merge(ctx context.Context, channels []*playlist.Channel) ([]*playlist.Channel, int) {
	workerpool.Report(m.progress, fmt.Sprintf("Grouping %d channels by name...", len(channels)))

	groups, skipped := m.group(channels)
	m.probeGroups(ctx, groups)

	merged := make([]*playlist.Channel, 0, len(groups))
	removed := skipped
	for _, g := range groups {
		if len(g.members) == 1 {
			c := g.members[0]
			if m.cfg.NormalizeChannelNames && c.ch.Name != c.base {
				c.ch.Rename(c.base)
			}
			merged = append(merged, c.ch)
			continue
		}

		winner := m.resolve(g)
		merged = append(merged, winner)
		removed += len(g.members) - 1
	}

	workerpool.Report(m.progress, fmt.Sprintf("Quality merge complete, removed %d duplicates", removed))
	m.logger.Logf("Quality merge: %d channels in, %d out, %d duplicates removed", len(channels), len(merged), removed)
	return merged, removed
}

// group buckets channels by lowercase base name. skipped counts nil entries.
func (m *Merger) group(channels []*playlist.Channel) (ordered []*group, skipped int) {
	index := make(map[string]*group)

	for _, ch := range channels {
		if ch == nil {
			skipped++
			continue
		}
		base := m.normalizer.BaseName(ch.Name)
		key := strings.ToLower(base)

		g, ok := index[key]
		if !ok {
			g = &group{base: base}
			index[key] = g
			ordered = append(ordered, g)
		}
		g.members = append(g.members, &candidate{
			ch:   ch,
			base: g.base,
			url:  ch.URL(),
		})
	}
	return ordered, skipped
}

// probeGroups probes each distinct URL of multi-member groups exactly once
// and attaches the shared result to every member carrying that URL.
func (m *Merger) probeGroups(ctx context.Context, groups []*group) {
	var urls []string
	seen := make(map[string]struct{})
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		for _, c := range g.members {
			if c.url == "" {
				continue
			}
			if _, ok := seen[c.url]; ok {
				continue
			}
			seen[c.url] = struct{}{}
			urls = append(urls, c.url)
		}
	}

	results := safemap.NewMemo[string, prober.StreamMetrics]()
	if len(urls) > 0 {
		workerpool.Report(m.progress, fmt.Sprintf("Probing %d distinct streams...", len(urls)))

		pool := workerpool.New(m.parallel)
		progress := workerpool.NewProgress("Quality probing", len(urls), 0, m.progress)
		for _, url := range urls {
			pool.Go(func() {
				results.Do(url, func() prober.StreamMetrics {
					return m.prober.Probe(ctx, url)
				})
				progress.Step()
			})
		}
		pool.Wait()
		m.logger.Debugf("Probed %d distinct streams", results.Len())
	}

	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		for _, c := range g.members {
			c.rank = m.normalizer.PriorityRank(c.ch.Name)
			if metrics, ok := results.Get(c.url); ok && c.url != "" {
				c.metrics = metrics
				continue
			}
			c.metrics = prober.StreamMetrics{URL: c.url, CodecWeight: 1.0, Error: "no stream URL"}
		}
	}
}

// resolve orders a probed group, picks the winner and folds the group's
// selection and attributes into it.
func (m *Merger) resolve(g *group) *playlist.Channel {
	members := g.members
	if m.cfg.PrioritizeStreamAnalysis {
		sort.SliceStable(members, func(i, j int) bool {
			si, sj := members[i].metrics.ScoreOrZero(), members[j].metrics.ScoreOrZero()
			if si != sj {
				return si > sj
			}
			return members[i].rank < members[j].rank
		})
	} else {
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].rank != members[j].rank {
				return members[i].rank < members[j].rank
			}
			return members[i].metrics.ScoreOrZero() > members[j].metrics.ScoreOrZero()
		})
	}

	winner := members[0].ch
	for _, c := range members {
		if c.ch.Selected {
			winner.Selected = true
			break
		}
	}
	backfill(winner, members[1:])

	m.logger.Debugf("Group %q: %d variants, winner %q (score %.1f)", g.base, len(members), winner.Name, members[0].metrics.ScoreOrZero())
	m.record(g, members)
	return winner
}

func (m *Merger) record(g *group, members []*candidate) {
	if m.recorder == nil {
		return
	}
	for i, c := range members {
		err := m.recorder.Record(report.Variant{
			Group:   g.base,
			Name:    c.ch.Name,
			URL:     c.url,
			Rank:    c.rank,
			Winner:  i == 0,
			Metrics: c.metrics,
		})
		if err != nil {
			m.logger.Warnf("Could not record probe result: %v", err)
		}
	}
}

// backfill copies each empty optional attribute of winner from the first
// other member, in ranked order, that has one.
func backfill(winner *playlist.Channel, others []*candidate) {
	fields := []func(*playlist.Channel) *string{
		func(c *playlist.Channel) *string { return &c.Logo },
		func(c *playlist.Channel) *string { return &c.TvgID },
		func(c *playlist.Channel) *string { return &c.TvgName },
		func(c *playlist.Channel) *string { return &c.ChannelNumber },
		func(c *playlist.Channel) *string { return &c.ChannelID },
	}
	for _, field := range fields {
		dst := field(winner)
		if *dst != "" {
			continue
		}
		for _, o := range others {
			if v := *field(o.ch); v != "" {
				*dst = v
				break
			}
		}
	}
}
