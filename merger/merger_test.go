package merger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3u-curator/config"
	"m3u-curator/logger"
	"m3u-curator/playlist"
	"m3u-curator/prober"
	"m3u-curator/report"
)

type fakeProber struct {
	mu     sync.Mutex
	scores map[string]float64
	calls  map[string]int
}

func newFakeProber(scores map[string]float64) *fakeProber {
	return &fakeProber{scores: scores, calls: make(map[string]int)}
}

func (f *fakeProber) Probe(_ context.Context, url string) prober.StreamMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++

	m := prober.StreamMetrics{URL: url, CodecWeight: 1.0}
	if s, ok := f.scores[url]; ok {
		m.Score = &s
	} else {
		m.Error = "HTTP 500"
	}
	return m
}

func (f *fakeProber) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func channel(name, url string) *playlist.Channel {
	lines := []string{fmt.Sprintf(`#EXTINF:-1 group-title="Test",%s`, name)}
	if url != "" {
		lines = append(lines, url)
	}
	return &playlist.Channel{Name: name, Group: "Test", Lines: lines}
}

func newTestMerger(cfg config.QualityConfig, p Prober, opts ...Option) *Merger {
	return New(cfg, append([]Option{WithProber(p), WithLogger(logger.Nop{})}, opts...)...)
}

func names(channels []*playlist.Channel) []string {
	var out []string
	for _, ch := range channels {
		out = append(out, ch.Name)
	}
	return out
}

func TestMergeStreamPriority(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/hd": 80, "http://s/fhd": 95, "http://s/sd": 0})
	channels := []*playlist.Channel{
		channel("Rai 1 HD", "http://s/hd"),
		channel("Rai 1 FHD", "http://s/fhd"),
		channel("Rai 1", "http://s/sd"),
	}

	merged, removed := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), channels)

	require.Len(t, merged, 1)
	assert.Equal(t, 2, removed)
	assert.Equal(t, "Rai 1 FHD", merged[0].Name)
	assert.Equal(t, "http://s/fhd", merged[0].URL())
}

func TestMergeNamePriority(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/hd": 80, "http://s/fhd": 95, "http://s/sd": 0})
	cfg := config.DefaultQuality()
	cfg.PrioritizeStreamAnalysis = false

	merged, removed := newTestMerger(cfg, p).Merge(context.Background(), []*playlist.Channel{
		channel("Rai 1 FHD", "http://s/fhd"),
		channel("Rai 1 HD", "http://s/hd"),
		channel("Rai 1", "http://s/sd"),
	})

	require.Len(t, merged, 1)
	assert.Equal(t, 2, removed)
	assert.Equal(t, "Rai 1 HD", merged[0].Name)
}

func TestMergeNamePriorityScoreBreaksTies(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/a": 10, "http://s/b": 20})
	cfg := config.DefaultQuality()
	cfg.PrioritizeStreamAnalysis = false

	merged, _ := newTestMerger(cfg, p).Merge(context.Background(), []*playlist.Channel{
		channel("Cielo HD", "http://s/a"),
		channel("Cielo HD", "http://s/b"),
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "http://s/b", merged[0].URL())
}

func TestMergeProbesEachURLOnce(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/shared": 50, "http://s/other": 20})
	channels := []*playlist.Channel{
		channel("Canale 5 HD", "http://s/shared"),
		channel("Canale 5", "http://s/shared"),
		channel("Canale 5 HQ", "http://s/other"),
		channel("Italia 1 HD", "http://s/shared"),
		channel("Italia 1", "http://s/other"),
		channel("Lonely", "http://s/lonely"),
	}

	merged, removed := newTestMerger(config.DefaultQuality(), p, WithParallelism(4)).Merge(context.Background(), channels)

	assert.Equal(t, 1, p.calls["http://s/shared"])
	assert.Equal(t, 1, p.calls["http://s/other"])
	assert.Zero(t, p.calls["http://s/lonely"])
	assert.Equal(t, 2, p.total())

	assert.Equal(t, []string{"Canale 5 HD", "Italia 1 HD", "Lonely"}, names(merged))
	assert.Equal(t, 3, removed)
}

func TestMergeSelectedIsORed(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/1": 10, "http://s/2": 90})
	loser := channel("Sky TG24", "http://s/1")
	loser.Selected = true
	winner := channel("Sky TG24 HD", "http://s/2")

	merged, _ := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{loser, winner})

	require.Len(t, merged, 1)
	assert.Same(t, winner, merged[0])
	assert.True(t, merged[0].Selected)

	p = newFakeProber(map[string]float64{"http://s/1": 10, "http://s/2": 90})
	merged, _ = newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("Sky TG24", "http://s/1"),
		channel("Sky TG24 HD", "http://s/2"),
	})
	assert.False(t, merged[0].Selected)
}

func TestMergeBackfillsAttributes(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/1": 90, "http://s/2": 50, "http://s/3": 10})
	best := channel("Rai 2 HD", "http://s/1")
	best.TvgID = "rai2.it"
	second := channel("Rai 2", "http://s/2")
	second.Logo = "http://logo/second.png"
	second.ChannelNumber = "2"
	third := channel("Rai 2 HQ", "http://s/3")
	third.Logo = "http://logo/third.png"
	third.TvgName = "Rai Due"
	third.ChannelID = "r2"
	third.TvgID = "other.id"

	merged, _ := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{third, second, best})

	require.Len(t, merged, 1)
	got := merged[0]
	assert.Same(t, best, got)
	assert.Equal(t, "rai2.it", got.TvgID)
	assert.Equal(t, "http://logo/second.png", got.Logo)
	assert.Equal(t, "2", got.ChannelNumber)
	assert.Equal(t, "Rai Due", got.TvgName)
	assert.Equal(t, "r2", got.ChannelID)
}

func TestMergeMissingScoreCountsAsZero(t *testing.T) {
	// http://s/neg has a real but negative score; the failed probe sorts as 0
	// and therefore ahead of it.
	p := newFakeProber(map[string]float64{"http://s/neg": -40})

	merged, _ := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("Focus HD", "http://s/neg"),
		channel("Focus", "http://s/failed"),
	})
	require.Len(t, merged, 1)
	assert.Equal(t, "Focus", merged[0].Name)

	// Two failed probes tie at 0; the rank decides.
	p = newFakeProber(nil)
	merged, _ = newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("Focus", "http://s/a"),
		channel("Focus HD", "http://s/b"),
	})
	assert.Equal(t, "Focus HD", merged[0].Name)
}

func TestMergeStableForEqualKeys(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/a": 10, "http://s/b": 10, "http://s/c": 10})

	merged, _ := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("Nove", "http://s/b"),
		channel("Nove", "http://s/a"),
		channel("Nove", "http://s/c"),
	})
	require.Len(t, merged, 1)
	assert.Equal(t, "http://s/b", merged[0].URL())
}

func TestMergeChannelWithoutURL(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/a": 5})

	merged, removed := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("Radio 105", ""),
		channel("Radio 105 HD", "http://s/a"),
	})

	assert.Equal(t, 1, p.total())
	assert.Zero(t, p.calls[""])
	require.Len(t, merged, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "Radio 105 HD", merged[0].Name)
}

func TestMergeRenamesSingles(t *testing.T) {
	p := newFakeProber(nil)
	single := channel("Tv8 (720p)", "http://s/tv8")

	merged, removed := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{single})

	require.Len(t, merged, 1)
	assert.Zero(t, removed)
	assert.Zero(t, p.total())
	assert.Equal(t, "Tv8", merged[0].Name)
	assert.Equal(t, `#EXTINF:-1 group-title="Test",Tv8`, merged[0].Lines[0])

	cfg := config.DefaultQuality()
	cfg.NormalizeChannelNames = false
	single = channel("Tv8 (720p)", "http://s/tv8")
	merged, _ = newTestMerger(cfg, p).Merge(context.Background(), []*playlist.Channel{single})
	assert.Equal(t, "Tv8 (720p)", merged[0].Name)
}

func TestMergeGroupingIsCaseInsensitive(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/a": 1, "http://s/b": 2})

	merged, removed := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), []*playlist.Channel{
		channel("CINE 34", "http://s/a"),
		channel("Cine 34 HD", "http://s/b"),
	})
	assert.Len(t, merged, 1)
	assert.Equal(t, 1, removed)
}

func TestMergeCountsAndUniqueness(t *testing.T) {
	scores := map[string]float64{}
	var channels []*playlist.Channel
	bases := []string{"Rai 1", "Rai 2", "Rai 3", "Rete 4", "Canale 5"}
	suffixes := []string{"", " HD", " FHD", " 4K", " (1080p)"}
	for i := 0; i < 40; i++ {
		url := fmt.Sprintf("http://s/%d", i%13)
		scores[url] = float64(i % 7)
		ch := channel(bases[i%len(bases)]+suffixes[(i/len(bases))%len(suffixes)], url)
		ch.Selected = i == 17
		channels = append(channels, ch)
	}
	p := newFakeProber(scores)

	merged, removed := newTestMerger(config.DefaultQuality(), p, WithParallelism(3)).Merge(context.Background(), channels)

	assert.Len(t, merged, len(bases))
	assert.Equal(t, len(channels)-len(merged), removed)
	assert.LessOrEqual(t, p.total(), 13)

	seen := map[string]bool{}
	selected := 0
	for _, ch := range merged {
		key := strings.ToLower(ch.Name)
		assert.False(t, seen[key], "duplicate survivor %s", ch.Name)
		seen[key] = true
		if ch.Selected {
			selected++
		}
	}
	assert.Equal(t, 1, selected)
}

func TestMergeReportsProgressAndRecords(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/1": 10, "http://s/2": 20})
	store, err := report.NewStore()
	require.NoError(t, err)

	var messages []string
	var mu sync.Mutex
	sink := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, msg)
	}

	_, _ = newTestMerger(config.DefaultQuality(), p, WithProgress(sink), WithRecorder(store)).Merge(context.Background(), []*playlist.Channel{
		channel("DMAX", "http://s/1"),
		channel("DMAX HD", "http://s/2"),
		channel("Real Time", "http://s/3"),
	})

	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "removed 1 duplicates")

	variants, err := store.Group("DMAX")
	require.NoError(t, err)
	require.Len(t, variants, 2)
	winners := 0
	for _, v := range variants {
		if v.Winner {
			winners++
			assert.Equal(t, "DMAX HD", v.Name)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 2, store.Len())
}

func TestMergeByName(t *testing.T) {
	cfg := config.DefaultQuality()
	channels := []*playlist.Channel{
		channel("Rai 1", "http://s/1"),
		channel("Rai 1 HD", "http://s/2"),
		channel("Rai 1 4K", "http://s/3"),
		channel("Rai 2 HQ", "http://s/4"),
	}

	merged, removed := MergeByName(channels, cfg)

	require.Len(t, merged, 2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, "http://s/3", merged[0].URL())
	assert.Equal(t, "Rai 1", merged[0].Name)
	assert.Equal(t, `#EXTINF:-1 group-title="Test",Rai 1`, merged[0].Lines[0])
	assert.Equal(t, "Rai 2 HQ", merged[1].Name)
}

func TestMergeByNameKeepsAllWhenNotExcluding(t *testing.T) {
	cfg := config.DefaultQuality()
	cfg.ExcludeLowerQuality = false

	merged, removed := MergeByName([]*playlist.Channel{
		channel("Rai 1", "http://s/1"),
		channel("Rai 1 HD", "http://s/2"),
		channel("Rai 2", "http://s/3"),
		channel("Rai 1 4K", "http://s/4"),
	}, cfg)

	assert.Zero(t, removed)
	assert.Equal(t, []string{"Rai 1 4K", "Rai 1 HD", "Rai 1", "Rai 2"}, names(merged))
}

func TestMergeQualityProbesOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bandwidth := 2000000
		if r.URL.Path == "/high.m3u8" {
			bandwidth = 6000000
		}
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = io.WriteString(w, fmt.Sprintf("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=%d,CODECS=\"avc1.64001f\"\nv.m3u8\n", bandwidth))
	}))
	defer server.Close()

	channels := []*playlist.Channel{
		channel("Sport HD", server.URL+"/low.m3u8"),
		channel("Sport", server.URL+"/high.m3u8"),
	}

	var mu sync.Mutex
	var messages []string
	merged, removed := MergeQuality(context.Background(), channels, config.DefaultQuality(), func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, msg)
	})

	require.Len(t, merged, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, server.URL+"/high.m3u8", merged[0].URL())
	assert.Contains(t, messages, "Quality merge complete, removed 1 duplicates")
}

func TestMergeCountsNilEntries(t *testing.T) {
	p := newFakeProber(map[string]float64{"http://s/1": 10, "http://s/2": 20})
	channels := []*playlist.Channel{
		channel("DMAX", "http://s/1"),
		nil,
		channel("DMAX HD", "http://s/2"),
		nil,
	}

	merged, removed := newTestMerger(config.DefaultQuality(), p).Merge(context.Background(), channels)
	assert.Equal(t, []string{"DMAX HD"}, names(merged))
	assert.Equal(t, len(channels)-len(merged), removed)

	byName, removed := MergeByName([]*playlist.Channel{nil, channel("Rai 1 HD", ""), channel("Rai 1", "")}, config.DefaultQuality())
	assert.Len(t, byName, 1)
	assert.Equal(t, 2, removed)
}
